package model

import "time"

// User represents a row in the `users` table.
//
// Fields:
//
//	ID               – UUID primary key.
//	Username         – unique handle, stored lower-cased.
//	Email            – unique email address, stored lower-cased.
//	FullName         – display name.
//	Avatar           – public URL of the avatar image.
//	CoverImage       – public URL of the channel cover, may be empty.
//	PasswordHash     – bcrypt or argon2id encoded hash.
//	RefreshTokenHash – SHA-256 hex digest of the single live refresh token,
//	                   nil when the user has no active session.
type User struct {
	ID               string
	Username         string
	Email            string
	FullName         string
	Avatar           string
	CoverImage       string
	PasswordHash     string
	RefreshTokenHash *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicUser is the projection returned to clients. It never carries the
// password hash or the refresh token.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
	}
}

// ChannelSummary is the short user card embedded in subscription listings.
type ChannelSummary struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
