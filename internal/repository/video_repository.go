package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/vidtube-backend/internal/model"
)

var videoColumns = []string{
	"id", "owner_id", "title", "description", "video_url", "thumbnail_url",
	"duration_sec", "views", "is_published", "created_at",
}

func videoColumnsPrefixed(alias string) string {
	cols := make([]string, len(videoColumns))
	for i, c := range videoColumns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ",")
}

// VideoRepo is the read side of the videos collection. Writes belong to the
// upload pipeline.
type VideoRepo struct{ DB *sql.DB }

func NewVideoRepo(db *sql.DB) *VideoRepo { return &VideoRepo{DB: db} }

func (r *VideoRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM videos WHERE owner_id=?", ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return n, nil
}

// SumViewsByOwner adds up the view counters of every video ownerID owns.
func (r *VideoRepo) SumViewsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id=?", ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("sum views: %w", err)
	}
	return n, nil
}

func scanVideos(rows *sql.Rows) ([]model.Video, error) {
	out := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL,
			&v.ThumbnailURL, &v.DurationSec, &v.Views, &v.IsPublished, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return out, nil
}
