// Package security hashes and verifies the operator API key.
package security

import (
	"crypto/sha256"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyKey = errors.New("api key is empty")

func HashAPIKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verifier checks keys against a bcrypt hash. The SHA-256 digest of a key that
// matched once is remembered so repeated requests skip bcrypt; the key itself
// is never kept.
type Verifier struct {
	hash     []byte
	verified sync.Map
}

func NewVerifier(hash string) *Verifier {
	return &Verifier{hash: []byte(strings.TrimSpace(hash))}
}

// Enabled reports whether a hash is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.hash) > 0
}

func (v *Verifier) Verify(key string) bool {
	if !v.Enabled() || key == "" {
		return false
	}
	digest := sha256.Sum256([]byte(key))
	if _, ok := v.verified.Load(digest); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(v.hash, []byte(key)) != nil {
		return false
	}
	v.verified.Store(digest, struct{}{})
	return true
}
