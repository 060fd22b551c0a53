package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

const userColumns = "id,username,email,full_name,avatar,cover_image,password_hash,refresh_token_hash,created_at,updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user. Username and email are expected to be normalized
// by the caller. A clash on either unique column yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?)",
		u.ID, u.Username, u.Email, u.FullName, u.Avatar, u.CoverImage, u.PasswordHash,
		u.RefreshTokenHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByUsername fetches a user by handle, case-insensitively.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(username)))
}

// GetByIdentifier matches ident against either the email or the username.
func (r *UserRepo) GetByIdentifier(ctx context.Context, ident string) (model.User, error) {
	ident = strings.ToLower(strings.TrimSpace(ident))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? OR username=? LIMIT 1", ident, ident)
}

// ExistsByEmailOrUsername reports whether either value is already taken.
func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? OR username=?", email, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// SetRefreshHash overwrites the stored refresh token hash. Passing nil
// clears it, which revokes every outstanding refresh token of the user.
func (r *UserRepo) SetRefreshHash(ctx context.Context, userID string, hash *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, updated_at=? WHERE id=?",
		hash, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set refresh hash: %w", err)
	}
	return checkRowsAffected(res)
}

// RotateRefreshHash replaces oldHash with newHash only if oldHash is still
// the stored value. It returns ErrNotFound when the compare fails, which
// happens for replayed tokens and for the losers of a concurrent refresh.
func (r *UserRepo) RotateRefreshHash(ctx context.Context, userID, oldHash, newHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=?, updated_at=? WHERE id=? AND refresh_token_hash=?",
		newHash, time.Now().UTC(), userID, oldHash)
	if err != nil {
		return fmt.Errorf("rotate refresh hash: %w", err)
	}
	return checkRowsAffected(res)
}

// UpdatePassword stores a new password hash. When clearSession is true the
// refresh token is cleared in the same statement.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID, hash string, clearSession bool) error {
	q := "UPDATE users SET password_hash=?, updated_at=? WHERE id=?"
	if clearSession {
		q = "UPDATE users SET password_hash=?, updated_at=?, refresh_token_hash=NULL WHERE id=?"
	}
	res, err := r.DB.ExecContext(ctx, q, hash, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return checkRowsAffected(res)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.CoverImage,
		&u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	if refresh.Valid {
		u.RefreshTokenHash = &refresh.String
	}
	return u, nil
}

// checkRowsAffected verifies at least one row was affected, returns ErrNotFound if not.
func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
