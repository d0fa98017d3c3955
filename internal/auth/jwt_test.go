package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJWTVerifier(t *testing.T) {
	t.Parallel()

	v := NewJWTVerifier("test-secret")
	other := NewJWTVerifier("other-secret")

	valid, err := v.Sign("user-1", "rider", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expired, err := v.Sign("user-1", "rider", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foreign, err := other.Sign("user-1", "rider", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	noSubject, err := v.Sign("", "rider", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := v.Verify(context.Background(), valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UID != "user-1" || id.Role != "rider" {
		t.Errorf("unexpected identity %+v", id)
	}

	for name, token := range map[string]string{
		"expired":    expired,
		"foreign":    foreign,
		"no subject": noSubject,
		"garbage":    "not.a.token",
	} {
		if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
