package memory

import (
	"context"
	"testing"
)

func TestAllow_Limit(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.Allow(ctx, "login:1.2.3.4", 3, 600)
		if err != nil {
			t.Fatalf("Allow error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d unexpectedly blocked", i+1)
		}
	}
	ok, err := c.Allow(ctx, "login:1.2.3.4", 3, 600)
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if ok {
		t.Fatal("4th request within window must be blocked")
	}

	// Лимит считается по ключу: другой IP не затронут.
	ok, err = c.Allow(ctx, "login:5.6.7.8", 3, 600)
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if !ok {
		t.Fatal("different key must not be blocked")
	}
}

func TestAllow_WindowExpiry(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := context.Background()

	// Нулевое окно: прежние попадания сразу устаревают.
	for i := 0; i < 5; i++ {
		ok, err := c.Allow(ctx, "k", 1, 0)
		if err != nil {
			t.Fatalf("Allow error: %v", err)
		}
		if !ok {
			t.Fatalf("request %d blocked with zero window", i+1)
		}
	}
}
