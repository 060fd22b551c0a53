package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

// ReactionRepo persists likes. Uniqueness of (reactor, kind, target) is
// enforced by the table, not by this code.
type ReactionRepo struct{ DB *sql.DB }

func NewReactionRepo(db *sql.DB) *ReactionRepo { return &ReactionRepo{DB: db} }

// Delete removes the reactor's reaction on target and reports whether a
// row existed.
func (r *ReactionRepo) Delete(ctx context.Context, reactorID string, target model.Target) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM reactions WHERE reactor_id=? AND target_kind=? AND target_id=?",
		reactorID, string(target.Kind), target.ID)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reaction rows: %w", err)
	}
	return n > 0, nil
}

// Insert creates a reaction row. ErrDuplicate means the pair already exists.
func (r *ReactionRepo) Insert(ctx context.Context, reactorID string, target model.Target) (model.Reaction, error) {
	rec := model.Reaction{
		ID:        uuid.NewString(),
		ReactorID: reactorID,
		Target:    target,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO reactions (id, reactor_id, target_kind, target_id, created_at) VALUES (?,?,?,?,?)",
		rec.ID, rec.ReactorID, string(target.Kind), target.ID, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Reaction{}, ErrDuplicate
		}
		return model.Reaction{}, fmt.Errorf("insert reaction: %w", err)
	}
	return rec, nil
}

// Count returns how many rows exist for the pair; 0 or 1 under the unique key.
func (r *ReactionRepo) Count(ctx context.Context, reactorID string, target model.Target) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reactions WHERE reactor_id=? AND target_kind=? AND target_id=?",
		reactorID, string(target.Kind), target.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reactions: %w", err)
	}
	return n, nil
}

// CountForTarget returns the number of reactions a target has received.
func (r *ReactionRepo) CountForTarget(ctx context.Context, target model.Target) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reactions WHERE target_kind=? AND target_id=?",
		string(target.Kind), target.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count target reactions: %w", err)
	}
	return n, nil
}

// PurgeTarget deletes every reaction on target, returning how many went.
func (r *ReactionRepo) PurgeTarget(ctx context.Context, target model.Target) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM reactions WHERE target_kind=? AND target_id=?",
		string(target.Kind), target.ID)
	if err != nil {
		return 0, fmt.Errorf("purge reactions: %w", err)
	}
	return res.RowsAffected()
}

// CountVideoLikesForOwner counts reactions on any video owned by ownerID.
// Reactions whose video no longer exists drop out of the join.
func (r *ReactionRepo) CountVideoLikesForOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reactions r
		   JOIN videos v ON v.id = r.target_id
		  WHERE r.target_kind = ? AND v.owner_id = ?`,
		string(model.TargetVideo), ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count owner likes: %w", err)
	}
	return n, nil
}

// LikedVideos lists the videos reactorID has liked, most recent like first.
func (r *ReactionRepo) LikedVideos(ctx context.Context, reactorID string) ([]model.Video, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+videoColumnsPrefixed("v")+` FROM reactions r
		   JOIN videos v ON v.id = r.target_id
		  WHERE r.reactor_id = ? AND r.target_kind = ?
		  ORDER BY r.created_at DESC`,
		reactorID, string(model.TargetVideo))
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()
	return scanVideos(rows)
}
