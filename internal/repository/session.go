package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Upsert вставляет сессию, затирая прежнюю сессию того же администратора
// (UNIQUE на username). Одна операция — нет окна, в котором у администратора
// две живые сессии, даже при конкурентных логинах с разных инстансов.
func (r *SessionRepository) Upsert(ctx context.Context, s *model.Session) error {
	defer logger.DeferLogDuration("session.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, username, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (username) DO UPDATE SET
		   token = EXCLUDED.token,
		   expires_at = EXCLUDED.expires_at`,
		s.Token, s.Username, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Upsert: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*model.Session, error) {
	defer logger.DeferLogDuration("session.GetByToken", time.Now())()
	s := &model.Session{}
	row := r.pool.QueryRow(ctx,
		`SELECT token, username, expires_at FROM sessions WHERE token = $1`, token)
	if err := row.Scan(&s.Token, &s.Username, &s.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetByToken: %w", err)
	}
	return s, nil
}

// Replace — ротация: одна UPDATE по старому токену меняет token и expires_at.
// Удаление старой строки и вставка новой не разносятся по времени, поэтому
// сбой не оставляет ни двух сессий, ни нуля. RowsAffected == 0 — старый токен
// уже заменён конкурентным вызовом; возвращаем ErrNotFound.
func (r *SessionRepository) Replace(ctx context.Context, oldToken string, s *model.Session) error {
	defer logger.DeferLogDuration("session.Replace", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET token = $1, expires_at = $2 WHERE token = $3`,
		s.Token, s.ExpiresAt, oldToken,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Replace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	defer logger.DeferLogDuration("session.DeleteByToken", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return false, fmt.Errorf("sessionRepo.DeleteByToken: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SessionRepository) DeleteByUsername(ctx context.Context, username string) error {
	defer logger.DeferLogDuration("session.DeleteByUsername", time.Now())()
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE username = $1`, username); err != nil {
		return fmt.Errorf("sessionRepo.DeleteByUsername: %w", err)
	}
	return nil
}

// DeleteExpired удаляет просроченные сессии (фоновая очистка при старте).
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	defer logger.DeferLogDuration("session.DeleteExpired", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sessionRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}
