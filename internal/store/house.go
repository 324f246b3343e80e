package store

import (
	"database/sql"
	"fmt"

	"choreboard/internal/model"
)

type HouseStore struct {
	db *sql.DB
}

func NewHouseStore(db *sql.DB) *HouseStore {
	return &HouseStore{db: db}
}

func scanHouse(scanner interface{ Scan(...any) error }) (*model.House, error) {
	var h model.House
	err := scanner.Scan(&h.ID, &h.Name, &h.AdminID, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanMembership(scanner interface{ Scan(...any) error }) (*model.Membership, error) {
	var m model.Membership
	err := scanner.Scan(&m.ID, &m.HouseID, &m.UserID, &m.Role, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanInvite(scanner interface{ Scan(...any) error }) (*model.Invite, error) {
	var i model.Invite
	var responded, accepted int
	err := scanner.Scan(&i.ID, &i.HouseID, &i.UserID, &responded, &accepted, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	i.Responded = responded != 0
	i.Accepted = accepted != 0
	return &i, nil
}

const houseCols = `id, name, admin_id, created_at`
const membershipCols = `id, house_id, user_id, role, created_at`
const inviteCols = `id, house_id, user_id, responded, accepted, created_at`

// Create makes a new house and enrolls the creator as its admin member.
func (s *HouseStore) Create(name string, adminID int64) (*model.House, error) {
	existing, err := s.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("create house %q: %w", name, ErrDuplicateName)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO houses (name, admin_id) VALUES (?, ?)`, name, adminID)
	if err != nil {
		return nil, fmt.Errorf("insert house: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO memberships (house_id, user_id, role) VALUES (?, ?, 'admin')`,
		id, adminID,
	); err != nil {
		return nil, fmt.Errorf("insert admin membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseStore) GetByID(id int64) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE id = ?`, id)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house: %w", err)
	}
	return h, nil
}

func (s *HouseStore) GetByName(name string) (*model.House, error) {
	row := s.db.QueryRow(`SELECT `+houseCols+` FROM houses WHERE name = ?`, name)
	h, err := scanHouse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house by name: %w", err)
	}
	return h, nil
}

// --- Membership methods ---

func (s *HouseStore) AddMember(houseID, userID int64, role string) (*model.Membership, error) {
	result, err := s.db.Exec(
		`INSERT INTO memberships (house_id, user_id, role) VALUES (?, ?, ?)`,
		houseID, userID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+membershipCols+` FROM memberships WHERE id = ?`, id)
	return scanMembership(row)
}

func (s *HouseStore) RemoveMember(houseID, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM memberships WHERE house_id = ? AND user_id = ?`,
		houseID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *HouseStore) GetMember(houseID, userID int64) (*model.Membership, error) {
	row := s.db.QueryRow(
		`SELECT `+membershipCols+` FROM memberships WHERE house_id = ? AND user_id = ?`,
		houseID, userID,
	)
	m, err := scanMembership(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *HouseStore) ListMembers(houseID int64) ([]model.Membership, error) {
	rows, err := s.db.Query(
		`SELECT `+membershipCols+` FROM memberships WHERE house_id = ? ORDER BY created_at ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *HouseStore) ListHousesForUser(userID int64) ([]model.House, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.admin_id, h.created_at
		 FROM houses h
		 JOIN memberships m ON h.id = m.house_id
		 WHERE m.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list houses for user: %w", err)
	}
	defer rows.Close()

	var houses []model.House
	for rows.Next() {
		h, err := scanHouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan house: %w", err)
		}
		houses = append(houses, *h)
	}
	return houses, rows.Err()
}

// --- Invite methods ---

// CreateInvite records a join request. A user with an unanswered invite
// anywhere may not open another one.
func (s *HouseStore) CreateInvite(houseID, userID int64) (*model.Invite, error) {
	pending, err := s.PendingInviteForUser(userID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, fmt.Errorf("user %d already waiting on an invite: %w", userID, ErrInvalidState)
	}

	result, err := s.db.Exec(
		`INSERT INTO invites (house_id, user_id) VALUES (?, ?)`,
		houseID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+inviteCols+` FROM invites WHERE id = ?`, id)
	return scanInvite(row)
}

func (s *HouseStore) PendingInviteForUser(userID int64) (*model.Invite, error) {
	row := s.db.QueryRow(
		`SELECT `+inviteCols+` FROM invites WHERE user_id = ? AND responded = 0 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending invite for user: %w", err)
	}
	return inv, nil
}

func (s *HouseStore) ListPendingInvites(houseID int64) ([]model.Invite, error) {
	rows, err := s.db.Query(
		`SELECT `+inviteCols+` FROM invites WHERE house_id = ? AND responded = 0 ORDER BY created_at ASC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending invites: %w", err)
	}
	defer rows.Close()

	var invites []model.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// RespondInvite answers a pending invite; acceptance enrolls the user.
func (s *HouseStore) RespondInvite(inviteID int64, accept bool) error {
	row := s.db.QueryRow(`SELECT `+inviteCols+` FROM invites WHERE id = ?`, inviteID)
	inv, err := scanInvite(row)
	if err == sql.ErrNoRows {
		return fmt.Errorf("respond invite %d: %w", inviteID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get invite: %w", err)
	}
	if inv.Responded {
		return fmt.Errorf("invite %d already answered: %w", inviteID, ErrInvalidState)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var accepted int
	if accept {
		accepted = 1
	}
	if _, err := tx.Exec(
		`UPDATE invites SET responded = 1, accepted = ? WHERE id = ?`,
		accepted, inviteID,
	); err != nil {
		return fmt.Errorf("update invite: %w", err)
	}

	if accept {
		if _, err := tx.Exec(
			`INSERT INTO memberships (house_id, user_id, role) VALUES (?, ?, 'member')`,
			inv.HouseID, inv.UserID,
		); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}

	return tx.Commit()
}
