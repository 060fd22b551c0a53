// Package service implements the session manager, the engagement ledger,
// channel subscriptions and the statistics aggregator. Every exported
// operation returns *apperr.Error values so the HTTP layer can map them
// without inspecting storage errors.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-backend/internal/apperr"
	"github.com/iliyamo/vidtube-backend/internal/model"
	"github.com/iliyamo/vidtube-backend/internal/repository"
	"github.com/iliyamo/vidtube-backend/internal/utils"
)

// SessionConfig holds the token settings of the session manager.
type SessionConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessTTLMin   int
	RefreshTTLDays int

	// RevokeOnPasswordChange clears the refresh token when the password
	// changes. Off by default.
	RevokeOnPasswordChange bool
}

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthResult is a token pair plus the sanitized user it was issued to.
type AuthResult struct {
	User   model.PublicUser
	Tokens TokenPair
}

// RegisterInput is a new account. Avatar and CoverImage are URLs of assets
// uploaded elsewhere.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     string
	CoverImage string
}

// SessionService authenticates users and manages their single refresh
// token. A user has at most one live refresh token; issuing a new one
// revokes the previous one.
type SessionService struct {
	Users  *repository.UserRepo
	Hasher *utils.PasswordHasher
	Cfg    SessionConfig
	Log    *zap.Logger
}

func NewSessionService(users *repository.UserRepo, hasher *utils.PasswordHasher, cfg SessionConfig, log *zap.Logger) *SessionService {
	return &SessionService{Users: users, Hasher: hasher, Cfg: cfg, Log: log}
}

// Register creates an account. Username and email are stored lower-cased
// and must both be unused.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (model.PublicUser, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if in.FullName == "" || in.Email == "" || in.Username == "" || in.Password == "" {
		return model.PublicUser{}, apperr.InvalidArgument("all fields are required")
	}

	taken, err := s.Users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return model.PublicUser{}, apperr.Upstream(err, "check existing user")
	}
	if taken {
		return model.PublicUser{}, apperr.Conflict("user with email or username already exists")
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return model.PublicUser{}, apperr.Internal(err, "hash password")
	}
	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Avatar:       strings.TrimSpace(in.Avatar),
		CoverImage:   strings.TrimSpace(in.CoverImage),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent registration
			return model.PublicUser{}, apperr.Conflict("user with email or username already exists")
		}
		return model.PublicUser{}, apperr.Upstream(err, "create user")
	}
	s.Log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u.Public(), nil
}

// Authenticate checks identifier (email or username) and password, then
// issues a fresh token pair that replaces any earlier session.
func (s *SessionService) Authenticate(ctx context.Context, identifier, password string) (AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return AuthResult{}, apperr.InvalidArgument("username or email is required")
	}
	if password == "" {
		return AuthResult{}, apperr.InvalidArgument("password is required")
	}

	u, err := s.Users.GetByIdentifier(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, apperr.NotFound("user does not exist")
	}
	if err != nil {
		return AuthResult{}, apperr.Upstream(err, "load user")
	}
	if !s.Hasher.Verify(u.PasswordHash, password) {
		return AuthResult{}, apperr.Unauthorized("invalid user credentials")
	}

	pair, err := s.issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	hash := utils.HashRefreshRaw(pair.Refresh.Raw)
	if err := s.Users.SetRefreshHash(ctx, u.ID, &hash); err != nil {
		return AuthResult{}, apperr.Upstream(err, "store refresh token")
	}
	return AuthResult{User: u.Public(), Tokens: pair}, nil
}

// Refresh rotates a refresh token. The presented token must verify and
// must be the one currently stored; the swap is conditional on that value,
// so of two concurrent refreshes with the same token only one succeeds.
func (s *SessionService) Refresh(ctx context.Context, raw string) (TokenPair, error) {
	if raw == "" {
		return TokenPair{}, apperr.Unauthorized("refresh token is required")
	}
	userID, err := utils.ParseRefreshToken(s.Cfg.RefreshSecret, raw)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return TokenPair{}, apperr.Upstream(err, "load user")
	}

	presented := utils.HashRefreshRaw(raw)
	if u.RefreshTokenHash == nil || !utils.EqualHash(presented, *u.RefreshTokenHash) {
		s.Log.Warn("refresh token reuse or revoked session", zap.String("user_id", u.ID))
		return TokenPair{}, apperr.Unauthorized("refresh token is expired or used")
	}

	pair, err := s.issue(u)
	if err != nil {
		return TokenPair{}, err
	}
	err = s.Users.RotateRefreshHash(ctx, u.ID, presented, utils.HashRefreshRaw(pair.Refresh.Raw))
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, apperr.Unauthorized("refresh token is expired or used")
	}
	if err != nil {
		return TokenPair{}, apperr.Upstream(err, "rotate refresh token")
	}
	return pair, nil
}

// Logout clears the stored refresh token. Access tokens already issued stay
// valid until they expire.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	err := s.Users.SetRefreshHash(ctx, userID, nil)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperr.Upstream(err, "clear refresh token")
	}
	return nil
}

// ChangePassword replaces the password after checking the old one.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperr.InvalidArgument("new password is required")
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Unauthorized("invalid access token")
	}
	if err != nil {
		return apperr.Upstream(err, "load user")
	}
	if !s.Hasher.Verify(u.PasswordHash, oldPassword) {
		return apperr.Unauthorized("invalid old password")
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, hash, s.Cfg.RevokeOnPasswordChange); err != nil {
		return apperr.Upstream(err, "update password")
	}
	return nil
}

// CurrentUser returns the sanitized record of the authenticated caller.
func (s *SessionService) CurrentUser(ctx context.Context, userID string) (model.PublicUser, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PublicUser{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, apperr.Upstream(err, "load user")
	}
	return u.Public(), nil
}

func (s *SessionService) issue(u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.Cfg.AccessSecret, utils.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
	}, s.Cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, apperr.Internal(err, "sign access token")
	}
	refresh, err := utils.NewRefreshToken(s.Cfg.RefreshSecret, u.ID, s.Cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, apperr.Internal(err, "sign refresh token")
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
