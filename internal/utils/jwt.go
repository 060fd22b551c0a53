package utils // package utils provides helpers for token creation, hashing and password checks

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the "typ" claim. A refresh token is never accepted
// where an access token is expected and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken covers every reason a presented token is rejected: bad
// signature, wrong algorithm, expiry, wrong type or missing subject.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed, short-lived JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// RefreshToken is a signed, long-lived JWT. Only HashRefreshRaw(Raw) is ever
// persisted.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// AccessClaims identify the user for the lifetime of an access token. The
// profile fields save a lookup for handlers that only need to display them.
type AccessClaims struct {
	Type     string `json:"typ"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject. Validity additionally requires the
// stored hash to match.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is what an access token proves about its bearer.
type Identity struct {
	UserID   string
	Username string
	Email    string
	FullName string
}

// NewAccessToken signs an HS256 access token for id that expires after
// ttlMin minutes.
func NewAccessToken(secret string, id Identity, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	jti, err := randomHex(16)
	if err != nil {
		return AccessToken{}, err
	}
	claims := AccessClaims{
		Type:     TokenTypeAccess,
		Username: id.Username,
		Email:    id.Email,
		FullName: id.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken signs an HS256 refresh token for userID valid for
// ttlDays. The random jti makes every token distinct, so two rotations in
// the same second still produce different stored hashes.
func NewRefreshToken(secret, userID string, ttlDays int) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	jti, err := randomHex(16)
	if err != nil {
		return RefreshToken{}, err
	}
	claims := RefreshClaims{
		Type: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and returns the identity it carries.
func ParseAccessToken(secret, raw string) (Identity, error) {
	var claims AccessClaims
	if err := parse(secret, raw, &claims); err != nil {
		return Identity{}, err
	}
	if claims.Type != TokenTypeAccess || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
		FullName: claims.FullName,
	}, nil
}

// ParseRefreshToken verifies raw and returns the user id it names.
func ParseRefreshToken(secret, raw string) (string, error) {
	var claims RefreshClaims
	if err := parse(secret, raw, &claims); err != nil {
		return "", err
	}
	if claims.Type != TokenTypeRefresh || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func parse(secret, raw string, claims jwt.Claims) error {
	if raw == "" {
		return ErrInvalidToken
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a refresh token, the
// only form in which it is stored.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// EqualHash compares two hex digests in constant time.
func EqualHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
