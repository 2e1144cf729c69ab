package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "secret1") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "secret2") {
		t.Fatal("wrong password accepted")
	}
}

func TestPasswordHashCostOutOfRange(t *testing.T) {
	// an absurd cost falls back to the default instead of failing
	hash, err := HashPassword("secret1", 99)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "secret1") {
		t.Fatal("fallback-cost hash does not verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("s3cret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	token, err := tm.Mint("d-123")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	got, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != "d-123" {
		t.Fatalf("driver id: got %s", got)
	}
}

func TestTokenTamperRejected(t *testing.T) {
	tm, _ := NewTokenManager("s3cret", time.Hour)
	token, _ := tm.Mint("d-123")
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := tm.Verify(tampered); err == nil {
		t.Fatal("tampered signature accepted")
	}

	other, _ := NewTokenManager("different", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Fatal("token verified under a different secret")
	}
}

func TestTokenExpiry(t *testing.T) {
	tm, _ := NewTokenManager("s3cret", time.Hour)
	// TTL <= 0 falls back to the default at construction, so build an
	// expired token by hand through a manager with a tiny positive TTL
	short, _ := NewTokenManager("s3cret", time.Millisecond)
	token, _ := short.Mint("d-123")
	time.Sleep(5 * time.Millisecond)
	if _, err := tm.Verify(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatal("empty secret accepted")
	}
}

func TestMemorySessionLifecycle(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	sess, err := s.Create(ctx, "ops@example.com", "JSESSIONID=abc")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "ops@example.com" || got.TrackerCookie != "JSESSIONID=abc" {
		t.Fatalf("session mismatch: %+v", got)
	}

	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("deleted session: got %v, want ErrNoSession", err)
	}
	if _, err := s.Get(ctx, "unknown"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("unknown session: got %v", err)
	}
}

func TestMemorySessionInactivityExpiry(t *testing.T) {
	s := NewMemoryStore(20 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	sess, _ := s.Create(ctx, "ops@example.com", "c")
	time.Sleep(10 * time.Millisecond)
	if err := s.Touch(ctx, sess.ID); err != nil {
		t.Fatalf("touch: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	// still alive: the touch reset the inactivity clock
	if _, err := s.Get(ctx, sess.ID); err != nil {
		t.Fatalf("touched session expired early: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, ErrNoSession) {
		t.Fatalf("idle session survived: %v", err)
	}
}
