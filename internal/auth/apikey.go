package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const minAPIKeyLength = 16

// ValidateAPIKey checks minimal key requirements.
func ValidateAPIKey(key string) error {
	if len(strings.TrimSpace(key)) < minAPIKeyLength {
		return fmt.Errorf("api key must be at least %d characters", minAPIKeyLength)
	}
	return nil
}

// HashAPIKey hashes one plaintext key for use as TASKAPI_API_KEY_HASH.
func HashAPIKey(key string) (string, error) {
	if err := ValidateAPIKey(key); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(key)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// KeyVerifier checks X-Api-Key values against a plaintext key or a bcrypt
// hash. The last key that matched the hash is remembered so steady traffic
// pays the bcrypt cost once.
type KeyVerifier struct {
	plain []byte
	hash  []byte

	mu       sync.Mutex
	verified []byte
}

// NewKeyVerifier returns nil when neither plain nor hash is set, meaning
// authentication is disabled.
func NewKeyVerifier(plain, hash string) (*KeyVerifier, error) {
	plain = strings.TrimSpace(plain)
	hash = strings.TrimSpace(hash)
	if plain == "" && hash == "" {
		return nil, nil
	}
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid api key hash: %w", err)
		}
	}
	return &KeyVerifier{plain: []byte(plain), hash: []byte(hash)}, nil
}

// Enabled reports whether requests must carry a key.
func (v *KeyVerifier) Enabled() bool {
	return v != nil
}

// Verify reports whether candidate is an accepted key.
func (v *KeyVerifier) Verify(candidate string) bool {
	if v == nil {
		return true
	}
	if candidate == "" {
		return false
	}
	got := []byte(candidate)
	if len(v.plain) > 0 && subtle.ConstantTimeCompare(got, v.plain) == 1 {
		return true
	}
	if len(v.hash) == 0 {
		return false
	}

	v.mu.Lock()
	cached := v.verified
	v.mu.Unlock()
	if cached != nil && subtle.ConstantTimeCompare(got, cached) == 1 {
		return true
	}

	if bcrypt.CompareHashAndPassword(v.hash, got) != nil {
		return false
	}
	v.mu.Lock()
	v.verified = got
	v.mu.Unlock()
	return true
}
