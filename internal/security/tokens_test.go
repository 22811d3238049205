package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, issued, err := p.IssueAccess("u1", "Ama Mensah", "ama@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || issued.ID == "" {
		t.Fatal("token or jti empty")
	}

	claims, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if claims.UserID() != "u1" || claims.Name != "Ama Mensah" || claims.Email != "ama@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID != issued.ID {
		t.Errorf("jti = %q, want %q", claims.ID, issued.ID)
	}
	if !claims.Expiry().After(time.Now()) {
		t.Error("expiry in the past")
	}
}

func TestTokenProvider_ValidateRejects(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	other, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	foreign, _, err := other.IssueAccess("u1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	expired := NewTokenProvider(p.signer, p.publicKey, TestIssuer, TestAudience, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.IssueAccess("u1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	wrongAud := NewTokenProvider(p.signer, p.publicKey, TestIssuer, "someone-else", time.Minute)
	aud, _, err := wrongAud.IssueAccess("u1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	wrongIss := NewTokenProvider(p.signer, p.publicKey, "other-issuer", TestAudience, time.Minute)
	iss, _, err := wrongIss.IssueAccess("u1", "", "")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	for name, tok := range map[string]string{
		"garbage":        "not-a-jwt",
		"empty":          "",
		"foreign key":    foreign,
		"expired":        stale,
		"wrong audience": aud,
		"wrong issuer":   iss,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := p.ValidateAccess(tok); err != ErrInvalidToken {
				t.Errorf("ValidateAccess: want ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenProvider_VerifyOnlyCannotIssue(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	p := NewTokenProvider(nil, key.Public(), TestIssuer, TestAudience, time.Minute)
	if _, _, err := p.IssueAccess("u1", "", ""); err != ErrCannotIssue {
		t.Errorf("IssueAccess: want ErrCannotIssue, got %v", err)
	}
}
