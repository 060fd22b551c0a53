package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

// OpenTestDB returns a migrated SQLite database in a per-test temp
// directory. It is closed automatically when the test ends.
func OpenTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("database.Migrate() error = %v", err)
	}
	return db
}

// SeedUser inserts a bare user row and returns its id. Credentials are
// placeholders; tests that log in go through the session service instead.
func SeedUser(t testing.TB, db *sql.DB, username string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO users (id, username, email, full_name, avatar, cover_image, password_hash, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		id, username, username+"@example.com", username, "https://img.example.com/"+username+".png", "", "x", now, now)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return id
}

// SeedVideo inserts a published video owned by ownerID with the given view
// count and returns its id.
func SeedVideo(t testing.TB, db *sql.DB, ownerID string, views int64) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_sec, views, is_published, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		id, ownerID, "video "+id[:8], "", "https://cdn.example.com/"+id+".mp4", "https://cdn.example.com/"+id+".jpg",
		60, views, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return id
}
