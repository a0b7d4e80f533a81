package authz

import (
	"testing"
	"time"
)

func TestIssueValidateRoundTrip(t *testing.T) {
	a := New("test-secret")
	token, err := a.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := a.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Operator != "alice" || claims.Role != RoleOperator {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	a := New("secret-a")
	token, err := a.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b := New("secret-b")
	if _, err := b.Validate(token); err == nil {
		t.Fatalf("expected validation to fail against a different secret")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	a := New("test-secret")
	token, err := a.Issue("alice", -time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := a.Validate(token); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
