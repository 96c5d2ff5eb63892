package auth

import (
	"testing"
	"time"
)

func TestSignAndParseJWT(t *testing.T) {
	token, err := SignJWT("user-123", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != "user-123" {
		t.Fatalf("uid = %q, want %q", uid, "user-123")
	}
}

func TestParseJWT_WrongSecret(t *testing.T) {
	token, err := SignJWT("user-123", "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	token, err := SignJWT("user-123", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatalf("expected parse failure for expired token")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter2") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "hunter3") {
		t.Fatalf("expected mismatch to fail")
	}
}
