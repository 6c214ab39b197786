package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewUserService(gdb)

	user, err := svc.Register(context.Background(), " mallory ", "s3cretpass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "mallory" || user.Password == "s3cretpass" {
		t.Fatalf("unexpected stored user %#v", user)
	}

	if _, err := svc.Register(context.Background(), "mallory", "another-pass"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "nina", "123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected short password to be rejected, got %v", err)
	}

	authed, err := svc.Authenticate(context.Background(), "mallory", "s3cretpass")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected id %d, got %d", user.ID, authed.ID)
	}
	if _, err := svc.Authenticate(context.Background(), "mallory", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("top-secret", time.Hour)

	token, expires, err := svc.Issue(42, "olivia")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry, got %v", expires)
	}

	id, claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 || claims.Username != "olivia" {
		t.Fatalf("unexpected claims id=%d username=%q", id, claims.Username)
	}

	other := NewTokenService("different", time.Hour)
	if _, _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService("top-secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.Issue(7, "pat")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = time.Now
	if _, _, err := svc.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
