package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const secretBytes = 32

// ErrMalformedToken reports a bearer value that does not match the issued
// format. Callers treat it the same as an unknown token.
var ErrMalformedToken = errors.New("malformed token")

// MintToken produces a new opaque bearer credential. The returned raw value
// is what the client presents; only the digest of its secret half is meant
// to be stored.
func MintToken() (id, raw, digest string, err error) {
	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", "", "", fmt.Errorf("generate token secret: %w", err)
	}

	id = uuid.NewString()
	secretHex := hex.EncodeToString(secret)
	return id, id + "|" + secretHex, DigestSecret(secretHex), nil
}

// SplitToken separates a presented bearer value into token id and secret.
func SplitToken(raw string) (id, secret string, err error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrMalformedToken
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return "", "", ErrMalformedToken
	}
	return parts[0], parts[1], nil
}

// DigestSecret returns the non-reversible stored form of a token secret.
func DigestSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// DigestEqual compares a presented secret against a stored digest in
// constant time.
func DigestEqual(digest, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(DigestSecret(secret))) == 1
}
