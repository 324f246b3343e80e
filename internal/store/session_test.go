package store

import (
	"errors"
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	ss := NewSessionStore(db)

	sess, err := ss.Create(alice, nil, day0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if sess.ActiveHouseID != nil {
		t.Error("new session should have no active house")
	}

	got, err := ss.GetByToken(sess.Token, day0.Add(time.Hour))
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("expected session %d, got %v", sess.ID, got)
	}

	// Expired sessions read as missing.
	got, err = ss.GetByToken(sess.Token, day0.Add(SessionTTL+time.Hour))
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for expired session")
	}
}

func TestSessionSetActiveHouse(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	house := createTestHouse(t, db, "Hill St", alice)
	ss := NewSessionStore(db)

	sess, _ := ss.Create(alice, nil, day0)
	if err := ss.SetActiveHouse(sess.ID, &house); err != nil {
		t.Fatalf("set active house: %v", err)
	}

	got, _ := ss.GetByToken(sess.Token, day0.Add(time.Minute))
	if got.ActiveHouseID == nil || *got.ActiveHouseID != house {
		t.Errorf("active house = %v, want %d", got.ActiveHouseID, house)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	ss := NewSessionStore(db)

	ss.Create(alice, nil, day0)
	ss.Create(alice, nil, day0.Add(time.Hour))

	n, err := ss.DeleteExpired(day0.Add(SessionTTL + 30*time.Minute))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d sessions, want 1", n)
	}
}

func TestPasswordResetConsume(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	prs := NewPasswordResetStore(db)

	pr, err := prs.Create(alice, day0)
	if err != nil {
		t.Fatalf("create reset: %v", err)
	}
	if len(pr.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(pr.Code))
	}

	if err := prs.Consume(alice, pr.Code, day0.Add(5*time.Minute)); err != nil {
		t.Fatalf("consume: %v", err)
	}

	// A code is single-use.
	if err := prs.Consume(alice, pr.Code, day0.Add(6*time.Minute)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for reused code, got %v", err)
	}
}

func TestPasswordResetExpires(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	prs := NewPasswordResetStore(db)

	pr, _ := prs.Create(alice, day0)
	err := prs.Consume(alice, pr.Code, day0.Add(ResetTTL+time.Minute))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for expired code, got %v", err)
	}
}

func TestPasswordResetNewCodeInvalidatesOld(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice")
	prs := NewPasswordResetStore(db)

	old, _ := prs.Create(alice, day0)
	prs.Create(alice, day0.Add(time.Minute))

	err := prs.Consume(alice, old.Code, day0.Add(2*time.Minute))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected old code to be invalidated, got %v", err)
	}
}
