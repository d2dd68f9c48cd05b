package token

import (
	"errors"
	"testing"
	"time"
)

func testCodec() *Codec {
	return New([]byte("access-secret"), []byte("refresh-secret"))
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	c := testCodec()

	access, err := c.IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	claims, err := c.Verify(access.Value, PurposeAccess)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Subject != "marat" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "marat")
	}
	if claims.Purpose != PurposeAccess {
		t.Fatalf("purpose mismatch: got %q", claims.Purpose)
	}

	refresh, err := c.IssueRefresh("marat")
	if err != nil {
		t.Fatalf("IssueRefresh error: %v", err)
	}
	if _, err := c.Verify(refresh.Value, PurposeRefresh); err != nil {
		t.Fatalf("Verify refresh error: %v", err)
	}
}

func TestVerify_PurposeMismatch(t *testing.T) {
	t.Parallel()
	c := testCodec()

	access, err := c.IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	// Access-токен не проходит как refresh: другой секрет и другой purpose.
	if _, err := c.Verify(access.Value, PurposeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Даже при одинаковых секретах purpose отклоняет чужой токен.
	same := New([]byte("shared"), []byte("shared"))
	access2, err := same.IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := same.Verify(access2.Value, PurposeRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for purpose mismatch, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()
	c := NewWithTTL([]byte("a"), []byte("r"), -time.Second, -time.Second)

	access, err := c.IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	if _, err := c.Verify(access.Value, PurposeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()
	issued, err := New([]byte("right"), []byte("right-r")).IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	other := New([]byte("wrong"), []byte("wrong-r"))
	if _, err := other.Verify(issued.Value, PurposeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	c := testCodec()
	for _, raw := range []string{"", "not.a.jwt", "xxx"} {
		if _, err := c.Verify(raw, PurposeAccess); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

func TestIssued_ExpiresAt(t *testing.T) {
	t.Parallel()
	c := testCodec()
	before := time.Now()
	access, err := c.IssueAccess("marat")
	if err != nil {
		t.Fatalf("IssueAccess error: %v", err)
	}
	want := before.Add(AccessTTL)
	if access.ExpiresAt.Before(want.Add(-time.Minute)) || access.ExpiresAt.After(want.Add(time.Minute)) {
		t.Fatalf("ExpiresAt %v not near %v", access.ExpiresAt, want)
	}
}
