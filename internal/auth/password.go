package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookshelf/internal/config"
)

// PasswordHasher turns a submitted password into its stored form and checks
// a submission against a stored value.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(stored, password string) error
}

// NewPasswordHasher returns the hasher selected by cfg.PasswordScheme.
// Unknown schemes fall back to plaintext.
func NewPasswordHasher(cfg config.Auth) PasswordHasher {
	if cfg.PasswordScheme == config.PasswordSchemeBcrypt {
		cost := cfg.BcryptCost
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			cost = bcrypt.DefaultCost
		}
		return BcryptHasher{Cost: cost}
	}
	return PlaintextHasher{}
}

// PlaintextHasher stores passwords as supplied and compares them exactly.
// This keeps databases written by the original application usable, and is a
// known security gap: anyone with read access to the users table sees every
// password.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextHasher) Compare(stored, password string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// BcryptHasher stores bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare treats a stored value that is not a bcrypt hash as a mismatch.
func (BcryptHasher) Compare(stored, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrHashTooShort) {
		return ErrInvalidPassword
	}
	return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
}

// GenerateSessionSecret creates a random 32-byte secret for session signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CSRFKey derives the 32-byte key gorilla/csrf requires from a secret of any
// length.
func CSRFKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
