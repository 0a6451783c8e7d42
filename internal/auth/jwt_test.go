package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/suzuki-tomok/github-analyzer/internal/apperror"
)

const testSecret = "test-secret-at-least-16-chars"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return svc
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() accepted a secret under 16 characters")
	}
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	userID, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Validate() userID = %q, want %q", userID, "user-123")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)

	// Mint a token that expired an hour ago.
	token, err := svc.GenerateWithDuration("user-123", -time.Hour)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	_, err = svc.Validate(token)
	if err == nil {
		t.Fatal("Validate() accepted an expired token")
	}

	// Expiry is its own code so clients know a re-login is enough.
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Validate() error = %v, want *apperror.AppError", err)
	}
	if appErr.Code != apperror.CodeTokenExpired {
		t.Errorf("Code = %q, want %q", appErr.Code, apperror.CodeTokenExpired)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService("another-secret-16-chars-long")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	token, err := other.Generate("user-123")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	_, err = svc.Validate(token)
	if err == nil {
		t.Fatal("Validate() accepted a token signed with a different secret")
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Validate() error = %v, want *apperror.AppError", err)
	}
	if appErr.Code != apperror.CodeInvalidToken {
		t.Errorf("Code = %q, want %q", appErr.Code, apperror.CodeInvalidToken)
	}
}

func TestValidate_Garbage(t *testing.T) {
	svc := newTestTokenService(t)

	for _, tokenStr := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Validate(tokenStr); err == nil {
			t.Errorf("Validate(%q) accepted garbage", tokenStr)
		}
	}
}
