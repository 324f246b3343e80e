package store

import (
	"database/sql"
	"testing"
	"time"

	"choreboard/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// A single connection so every caller sees the same in-memory database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	us := NewUserStore(db)
	u, err := us.Create(username, username+"@example.com", "$2a$10$fakehashfakehashfakehash")
	if err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return u.ID
}

func createTestHouse(t *testing.T, db *sql.DB, name string, adminID int64) int64 {
	t.Helper()
	hs := NewHouseStore(db)
	h, err := hs.Create(name, adminID)
	if err != nil {
		t.Fatalf("create house %q: %v", name, err)
	}
	return h.ID
}

// day0 is an arbitrary pinned instant; tests derive all times from it.
var day0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
