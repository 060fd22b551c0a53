package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The schema is small and additive, so it is applied as idempotent CREATE
// statements on every start. MySQL declares secondary indexes inline
// because it has no CREATE INDEX IF NOT EXISTS.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 CHAR(36)     NOT NULL PRIMARY KEY,
		username           VARCHAR(64)  NOT NULL,
		email              VARCHAR(255) NOT NULL,
		full_name          VARCHAR(255) NOT NULL,
		avatar             TEXT         NOT NULL,
		cover_image        TEXT         NOT NULL,
		password_hash      VARCHAR(255) NOT NULL,
		refresh_token_hash CHAR(64)     NULL,
		created_at         DATETIME(6)  NOT NULL,
		updated_at         DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS videos (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		owner_id      CHAR(36)     NOT NULL,
		title         VARCHAR(255) NOT NULL,
		description   TEXT         NOT NULL,
		video_url     TEXT         NOT NULL,
		thumbnail_url TEXT         NOT NULL,
		duration_sec  INT          NOT NULL DEFAULT 0,
		views         BIGINT       NOT NULL DEFAULT 0,
		is_published  BOOLEAN      NOT NULL DEFAULT TRUE,
		created_at    DATETIME(6)  NOT NULL,
		INDEX idx_videos_owner (owner_id),
		CONSTRAINT fk_videos_owner FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reactions (
		id          CHAR(36)    NOT NULL PRIMARY KEY,
		reactor_id  CHAR(36)    NOT NULL,
		target_kind VARCHAR(16) NOT NULL,
		target_id   CHAR(36)    NOT NULL,
		created_at  DATETIME(6) NOT NULL,
		UNIQUE KEY uq_reactions_reactor_target (reactor_id, target_kind, target_id),
		INDEX idx_reactions_target (target_kind, target_id),
		CONSTRAINT chk_reactions_kind CHECK (target_kind IN ('video', 'comment', 'tweet')),
		CONSTRAINT fk_reactions_reactor FOREIGN KEY (reactor_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id            CHAR(36)    NOT NULL PRIMARY KEY,
		subscriber_id CHAR(36)    NOT NULL,
		channel_id    CHAR(36)    NOT NULL,
		created_at    DATETIME(6) NOT NULL,
		UNIQUE KEY uq_subscriptions_pair (subscriber_id, channel_id),
		INDEX idx_subscriptions_channel (channel_id),
		CONSTRAINT chk_subscriptions_self CHECK (subscriber_id <> channel_id),
		CONSTRAINT fk_subscriptions_subscriber FOREIGN KEY (subscriber_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_subscriptions_channel FOREIGN KEY (channel_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 TEXT PRIMARY KEY,
		username           TEXT NOT NULL UNIQUE,
		email              TEXT NOT NULL UNIQUE,
		full_name          TEXT NOT NULL,
		avatar             TEXT NOT NULL,
		cover_image        TEXT NOT NULL,
		password_hash      TEXT NOT NULL,
		refresh_token_hash TEXT,
		created_at         DATETIME NOT NULL,
		updated_at         DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS videos (
		id            TEXT PRIMARY KEY,
		owner_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title         TEXT NOT NULL,
		description   TEXT NOT NULL,
		video_url     TEXT NOT NULL,
		thumbnail_url TEXT NOT NULL,
		duration_sec  INTEGER NOT NULL DEFAULT 0,
		views         INTEGER NOT NULL DEFAULT 0,
		is_published  BOOLEAN NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id)`,
	`CREATE TABLE IF NOT EXISTS reactions (
		id          TEXT PRIMARY KEY,
		reactor_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		target_kind TEXT NOT NULL CHECK (target_kind IN ('video', 'comment', 'tweet')),
		target_id   TEXT NOT NULL,
		created_at  DATETIME NOT NULL,
		UNIQUE (reactor_id, target_kind, target_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reactions_target ON reactions(target_kind, target_id)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id            TEXT PRIMARY KEY,
		subscriber_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		channel_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at    DATETIME NOT NULL,
		UNIQUE (subscriber_id, channel_id),
		CHECK (subscriber_id <> channel_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions(channel_id)`,
}

// Migrate applies the schema for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: statement %d: %w", i, err)
		}
	}
	return nil
}
