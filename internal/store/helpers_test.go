package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/cloudbyte/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestAccount(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	a, err := NewAccountStore(db).Create(context.Background(), email, "Test User", "hash")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a.ID
}
