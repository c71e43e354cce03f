// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rajin-257/Hospx-Saas/models"
)

// BcryptCost matches the cost used for every stored password hash
const BcryptCost = 10

// DefaultPasswordLength is used for generated executive/admin passwords
const DefaultPasswordLength = 12

// ReferenceCodePrefix prefixes every generated referral code
const ReferenceCodePrefix = "REF-"

// SessionCookieName carries the raw session token
const SessionCookieName = "hospx_session"

const (
	passwordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	codeChars     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrInactive           = errors.New("account is inactive")
)

// NewID returns a new random UUID string for database records
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s parses as a UUID
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// HashPassword generates a bcrypt hash from a plain text password
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares a plain text password with a hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GeneratePassword returns a random alphanumeric password of length n
func GeneratePassword(n int) (string, error) {
	if n <= 0 {
		n = DefaultPasswordLength
	}
	return randomString(passwordChars, n)
}

// GenerateReferenceCode returns REF- followed by 8 uppercase alphanumerics
func GenerateReferenceCode() (string, error) {
	s, err := randomString(codeChars, 8)
	if err != nil {
		return "", err
	}
	return ReferenceCodePrefix + s, nil
}

// GenerateToken creates a random session token
func GenerateToken() (string, error) {
	b := make([]byte, 32) // 256 bits
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashToken derives the stored session key from a cookie token.
// Raw tokens are never written to the database.
func HashToken(token, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// Authenticate checks that user may log in with password.
// Role "user" accounts and accounts without a password never authenticate.
func Authenticate(user *models.User, password string) error {
	if user == nil {
		return ErrInvalidCredentials
	}
	if !CanLogin(user) {
		return ErrPendingApproval
	}
	if !CheckPassword(password, *user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if user.Status != models.UserActive {
		return ErrInactive
	}
	return nil
}

// CanLogin reports whether the account is allowed to hold a session
func CanLogin(user *models.User) bool {
	return user.Role != models.RoleUser && user.HasPassword()
}

// HasRole reports whether user holds one of roles
func HasRole(user *models.User, roles ...string) bool {
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
