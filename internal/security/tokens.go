package security

import (
	"crypto"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired or signed by someone else.
	ErrInvalidToken = errors.New("invalid token")
	// ErrCannotIssue is returned when the provider was built without a signing key.
	ErrCannotIssue = errors.New("token provider has no signing key")
)

// AccessClaims are the claims carried by an access token issued by the identity provider.
type AccessClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UserID returns the subject.
func (c *AccessClaims) UserID() string { return c.Subject }

// Expiry returns the expiry time, or zero when the token has none.
func (c *AccessClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenProvider validates access tokens and, when built with a signing key, issues them.
type TokenProvider struct {
	signer    crypto.Signer
	publicKey crypto.PublicKey
	issuer    string
	audience  string
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenProvider returns a provider. signer may be nil for a verify-only provider.
func NewTokenProvider(signer crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		signer:    signer,
		publicKey: publicKey,
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccess signs an access token for the user. Used by the seed tool and tests.
func (p *TokenProvider) IssueAccess(userID, name, email string) (token string, claims *AccessClaims, err error) {
	if p.signer == nil {
		return "", nil, ErrCannotIssue
	}
	jti, err := newTokenID()
	if err != nil {
		return "", nil, err
	}
	now := p.now()
	claims = &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
		},
		Name:  name,
		Email: email,
	}
	var method jwt.SigningMethod
	switch Algorithm(p.signer.Public()) {
	case "RS256":
		method = jwt.SigningMethodRS256
	case "ES256":
		method = jwt.SigningMethodES256
	default:
		return "", nil, ErrInvalidKey
	}
	token, err = jwt.NewWithClaims(method, claims).SignedString(p.signer)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// ValidateAccess checks signature, expiry, issuer and audience and returns the claims.
func (p *TokenProvider) ValidateAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer || !slices.Contains(claims.Audience, p.audience) {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		return p.publicKey, nil
	}
	return nil, ErrInvalidToken
}

func newTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
