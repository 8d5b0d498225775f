package auth

import (
	"testing"
	"time"

	"github.com/yourorg/workstream/internal/domain"
)

func TestGenerateAndValidateToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "workstream")

	token, err := tm.GenerateToken("acme_corp", "user-1", "a@b.c", domain.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.CompanyID != "acme_corp" || claims.UserID != "user-1" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Metadata.CompanyID != "acme_corp" {
		t.Errorf("metadata companyId = %q, want matching tenant", claims.Metadata.CompanyID)
	}

	sess := claims.Session()
	if !sess.Valid() {
		t.Error("session from fresh token should be valid")
	}
	if sess.Role != domain.RoleAdmin {
		t.Errorf("session role = %q", sess.Role)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", "").GenerateToken("acme_corp", "u", "e", domain.RoleHR, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokenManager("secret-b", "").ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret should not validate")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("test-secret", "")

	token, err := tm.GenerateToken("acme_corp", "u", "e", domain.RoleAdmin, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tm.ValidateToken(token); err == nil {
		t.Fatal("expired token should not validate")
	}
}

func TestGenerateRequiresIdentity(t *testing.T) {
	tm := NewTokenManager("test-secret", "")

	if _, err := tm.GenerateToken("", "u", "e", domain.RoleAdmin, time.Hour); err == nil {
		t.Error("missing company should fail")
	}
	if _, err := tm.GenerateToken("acme_corp", "", "e", domain.RoleAdmin, time.Hour); err == nil {
		t.Error("missing user should fail")
	}
}

func TestExtractToken(t *testing.T) {
	if got, err := ExtractToken("Bearer abc123"); err != nil || got != "abc123" {
		t.Errorf("got %q, %v", got, err)
	}
	for _, bad := range []string{"", "abc123", "Basic abc123", "Bearer a b"} {
		if _, err := ExtractToken(bad); err == nil {
			t.Errorf("header %q should be rejected", bad)
		}
	}
}

func TestUserStoreAuthenticate(t *testing.T) {
	us, err := NewUserStore("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !us.Empty() {
		t.Error("fresh store should be empty")
	}

	if err := us.Add("hr@acme.test", "pass123", "acme_corp", domain.RoleHR); err != nil {
		t.Fatalf("add: %v", err)
	}

	user, err := us.Authenticate("hr@acme.test", "pass123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.CompanyID != "acme_corp" || user.Role != domain.RoleHR {
		t.Errorf("user = %+v", user)
	}

	if _, err := us.Authenticate("hr@acme.test", "wrong"); err == nil {
		t.Error("wrong password should fail")
	}
	if _, err := us.Authenticate("nobody@acme.test", "pass123"); err == nil {
		t.Error("unknown user should fail")
	}
}

func TestUserStoreSpecParsing(t *testing.T) {
	if _, err := NewUserStore("not|enough|parts"); err == nil {
		t.Error("malformed spec should fail")
	}

	us, err := NewUserStore("a@x.y|admin|acme_corp|$2a$10$hash")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if us.Empty() {
		t.Error("store with one entry should not be empty")
	}
}
