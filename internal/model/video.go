package model

import "time"

// Video is the read-side view of the `videos` table. Uploading and editing
// videos happens elsewhere; this service only aggregates over them.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoFile"`
	ThumbnailURL string    `json:"thumbnail"`
	DurationSec  int       `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChannelStats is the dashboard aggregate for one channel. The four figures
// are computed independently and may drift under concurrent writes.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

// ChannelProfile is the public channel page for a handle.
type ChannelProfile struct {
	ID                   string `json:"id"`
	Username             string `json:"username"`
	FullName             string `json:"fullName"`
	Email                string `json:"email"`
	Avatar               string `json:"avatar"`
	CoverImage           string `json:"coverImage"`
	SubscribersCount     int64  `json:"subscribersCount"`
	SubscribedToCount    int64  `json:"channelsSubscribedToCount"`
	IsSubscribedByViewer bool   `json:"isSubscribed"`
}
