package utils

import (
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// PasswordHasher creates hashes with one scheme and verifies hashes of
// either scheme, so switching PASSWORD_HASH does not lock out existing
// users.
type PasswordHasher struct {
	Scheme     string
	BcryptCost int
	Argon2     *argon2id.Params
}

// NewPasswordHasher returns a hasher for scheme. Unknown schemes are an
// error.
func NewPasswordHasher(scheme string, bcryptCost int) (*PasswordHasher, error) {
	switch scheme {
	case SchemeBcrypt, "":
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			bcryptCost = bcrypt.DefaultCost
		}
		return &PasswordHasher{Scheme: SchemeBcrypt, BcryptCost: bcryptCost}, nil
	case SchemeArgon2id:
		return &PasswordHasher{Scheme: SchemeArgon2id, Argon2: argon2id.DefaultParams}, nil
	default:
		return nil, fmt.Errorf("unsupported password hash scheme %q", scheme)
	}
}

func (h *PasswordHasher) Hash(plain string) (string, error) {
	if h.Scheme == SchemeArgon2id {
		return argon2id.CreateHash(plain, h.Argon2)
	}
	return HashPassword(plain, h.BcryptCost)
}

// Verify reports whether plain matches hash. Both libraries compare in
// constant time. Malformed hashes are a mismatch.
func (h *PasswordHasher) Verify(hash, plain string) bool {
	if strings.HasPrefix(hash, "$argon2id$") {
		ok, err := argon2id.ComparePasswordAndHash(plain, hash)
		return err == nil && ok
	}
	return VerifyPassword(hash, plain)
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
