package utils

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken("s3cret", "42", "sid-1", "DRIVER", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseToken("s3cret", tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if c.Subject != "42" || c.SessionID != "sid-1" || c.Role != "DRIVER" {
		t.Fatalf("claims = %+v", c)
	}
	if c.ExpiresAt.Unix() != tok.Exp.Unix() {
		t.Fatalf("exp = %v, want %v", c.ExpiresAt, tok.Exp)
	}
}

func TestAccessTokenHasNoSession(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "7", "ADMIN", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseToken("s3cret", tok.Token)
	if err != nil || c.SessionID != "" || c.Role != "ADMIN" {
		t.Fatalf("claims = %+v, err = %v", c, err)
	}
}

func TestParseTokenRejects(t *testing.T) {
	good, _ := NewSessionToken("s3cret", "42", "sid", "PASSENGER", time.Hour)
	expired, _ := NewSessionToken("s3cret", "42", "sid", "PASSENGER", -time.Minute)
	noSub, _ := NewAccessToken("s3cret", "", "PASSENGER", time.Hour)

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"no subject":   {"s3cret", noSub.Token},
		"garbage":      {"s3cret", "not-a-jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken(tc.secret, tc.raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	h, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "hunter2") || VerifyPassword(h, "hunter3") {
		t.Fatal("verify mismatch")
	}
}
