package store

import (
	"database/sql"
	"fmt"
	"time"

	"choreboard/internal/model"
)

// ShameStore manages shame wall posts. The image bytes live in object
// storage; the row only carries the key.
type ShameStore struct {
	db *sql.DB
}

func NewShameStore(db *sql.DB) *ShameStore {
	return &ShameStore{db: db}
}

const shameCols = `id, house_id, user_id, image_key, comment, disapproval_count, created_at`

func scanShamePost(scanner interface{ Scan(...any) error }) (*model.ShamePost, error) {
	var p model.ShamePost
	err := scanner.Scan(&p.ID, &p.HouseID, &p.UserID, &p.ImageKey, &p.Comment, &p.DisapprovalCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ShameStore) Create(houseID, userID int64, imageKey, comment string, now time.Time) (*model.ShamePost, error) {
	result, err := s.db.Exec(
		`INSERT INTO shame_posts (house_id, user_id, image_key, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		houseID, userID, imageKey, comment, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shame post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShameStore) GetByID(id int64) (*model.ShamePost, error) {
	row := s.db.QueryRow(`SELECT `+shameCols+` FROM shame_posts WHERE id = ?`, id)
	p, err := scanShamePost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shame post: %w", err)
	}
	return p, nil
}

// ListByHouse returns the house's wall, newest first.
func (s *ShameStore) ListByHouse(houseID int64) ([]model.ShamePost, error) {
	rows, err := s.db.Query(
		`SELECT `+shameCols+` FROM shame_posts WHERE house_id = ? ORDER BY created_at DESC, id DESC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shame posts: %w", err)
	}
	defer rows.Close()

	var posts []model.ShamePost
	for rows.Next() {
		p, err := scanShamePost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shame post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Disapprove bumps the post's disapproval counter and returns the new count.
func (s *ShameStore) Disapprove(id int64) (int, error) {
	result, err := s.db.Exec(
		`UPDATE shame_posts SET disapproval_count = disapproval_count + 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return 0, fmt.Errorf("disapprove shame post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("shame post %d: %w", id, ErrNotFound)
	}

	var count int
	if err := s.db.QueryRow(`SELECT disapproval_count FROM shame_posts WHERE id = ?`, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("read disapproval count: %w", err)
	}
	return count, nil
}

func (s *ShameStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM shame_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shame post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("shame post %d: %w", id, ErrNotFound)
	}
	return nil
}
