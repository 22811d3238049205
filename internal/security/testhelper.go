package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"time"
)

const (
	TestIssuer   = "test-issuer"
	TestAudience = "test-audience"
)

// NewTestTokenProvider returns a provider backed by a freshly generated P-256 key.
// For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(key, key.Public(), TestIssuer, TestAudience, 15*time.Minute), nil
}
