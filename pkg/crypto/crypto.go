package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// TokenBytes is the entropy carried by session and refresh tokens.
const TokenBytes = 32

// HashPassword returns a bcrypt hash of the supplied password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the hashed password with the plaintext candidate.
// bcrypt performs the comparison in constant time.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// NewSessionToken returns a URL-safe random token suitable for use as a
// session identifier carried in a cookie (no '/', '+' or padding).
func NewSessionToken() (string, error) {
	buffer := make([]byte, TokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// NewRefreshToken returns a random refresh token, generated independently
// of the session token and never derivable from it.
func NewRefreshToken() (string, error) {
	buffer := make([]byte, TokenBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buffer), nil
}
