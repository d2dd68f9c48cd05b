package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afisha/internal/model"
)

// testPool подключается к БД из TEST_DATABASE_URL; без неё тесты пропускаются.
// Схема должна быть накачена (go run ./services/api -migrate).
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func mustCreateAdmin(t *testing.T, pool *pgxpool.Pool, username string) {
	t.Helper()
	ctx := context.Background()
	repo := NewAdminRepository(pool)
	// Чистим хвосты прошлых запусков.
	if _, err := repo.DeleteByUsername(ctx, username); err != nil {
		t.Fatalf("cleanup admin: %v", err)
	}
	err := repo.Create(ctx, &model.Admin{
		Username:     username,
		PasswordHash: "hash",
		DisplayName:  username,
		EnrolledAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	t.Cleanup(func() {
		repo.DeleteByUsername(context.Background(), username)
	})
}

func TestSessionRepository_UpsertReplacesSession(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSessionRepository(pool)
	mustCreateAdmin(t, pool, "it_sess")

	exp := time.Now().Add(time.Hour).UTC()
	if err := repo.Upsert(ctx, &model.Session{Token: "it-tok-1", Username: "it_sess", ExpiresAt: exp}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, &model.Session{Token: "it-tok-2", Username: "it_sess", ExpiresAt: exp}); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	// Старый токен вытеснен, живёт только новый.
	if _, err := repo.GetByToken(ctx, "it-tok-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old token: expected ErrNotFound, got %v", err)
	}
	s, err := repo.GetByToken(ctx, "it-tok-2")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if s.Username != "it_sess" {
		t.Fatalf("username: got %q", s.Username)
	}
}

func TestSessionRepository_Replace(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSessionRepository(pool)
	mustCreateAdmin(t, pool, "it_rot")

	exp := time.Now().Add(time.Hour).UTC()
	if err := repo.Upsert(ctx, &model.Session{Token: "it-rot-1", Username: "it_rot", ExpiresAt: exp}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	next := &model.Session{Token: "it-rot-2", Username: "it_rot", ExpiresAt: exp.Add(time.Hour)}
	if err := repo.Replace(ctx, "it-rot-1", next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if _, err := repo.GetByToken(ctx, "it-rot-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old token: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByToken(ctx, "it-rot-2"); err != nil {
		t.Fatalf("new token: %v", err)
	}

	// Повторная замена того же старого токена — конкурентный проигрыш.
	if err := repo.Replace(ctx, "it-rot-1", &model.Session{
		Token: "it-rot-3", Username: "it_rot", ExpiresAt: exp,
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale Replace: expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_AdminDeleteCascades(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	sessRepo := NewSessionRepository(pool)
	adminRepo := NewAdminRepository(pool)
	mustCreateAdmin(t, pool, "it_casc")

	exp := time.Now().Add(time.Hour).UTC()
	if err := sessRepo.Upsert(ctx, &model.Session{Token: "it-casc-1", Username: "it_casc", ExpiresAt: exp}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	ok, err := adminRepo.DeleteByUsername(ctx, "it_casc")
	if err != nil || !ok {
		t.Fatalf("DeleteByUsername: ok=%v err=%v", ok, err)
	}
	// Сессия ушла каскадом вместе с администратором.
	if _, err := sessRepo.GetByToken(ctx, "it-casc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cascade: expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewSessionRepository(pool)
	mustCreateAdmin(t, pool, "it_exp")

	past := time.Now().Add(-time.Hour).UTC()
	if err := repo.Upsert(ctx, &model.Session{Token: "it-exp-1", Username: "it_exp", ExpiresAt: past}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	n, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n < 1 {
		t.Fatalf("expected at least 1 expired session removed, got %d", n)
	}
	if _, err := repo.GetByToken(ctx, "it-exp-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cleanup, got %v", err)
	}
}
