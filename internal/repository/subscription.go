package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Upsert сохраняет подписку; повторная подписка того же браузера
// (тот же endpoint) обновляет ключи и владельца.
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *model.PushSubscription) error {
	defer logger.DeferLogDuration("subscription.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO push_subscriptions (endpoint, username, p256dh, auth, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (endpoint) DO UPDATE SET
		   username = EXCLUDED.username,
		   p256dh = EXCLUDED.p256dh,
		   auth = EXCLUDED.auth`,
		s.Endpoint, s.Username, s.P256dh, s.Auth, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("subscriptionRepo.Upsert: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) ListAll(ctx context.Context) ([]model.PushSubscription, error) {
	defer logger.DeferLogDuration("subscription.ListAll", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT endpoint, username, p256dh, auth, created_at FROM push_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("subscriptionRepo.ListAll: %w", err)
	}
	defer rows.Close()
	var list []model.PushSubscription
	for rows.Next() {
		var s model.PushSubscription
		if err := rows.Scan(&s.Endpoint, &s.Username, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("subscriptionRepo.ListAll scan: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("subscriptionRepo.ListAll rows: %w", err)
	}
	return list, nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	defer logger.DeferLogDuration("subscription.Delete", time.Now())()
	if _, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("subscriptionRepo.Delete: %w", err)
	}
	return nil
}

// DeleteStale удаляет подписки, на которые push-шлюз ответил 404/410.
func (r *SubscriptionRepository) DeleteStale(ctx context.Context, endpoints []string) error {
	defer logger.DeferLogDuration("subscription.DeleteStale", time.Now())()
	for _, ep := range endpoints {
		if _, err := r.pool.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, ep); err != nil {
			return fmt.Errorf("subscriptionRepo.DeleteStale: %w", err)
		}
	}
	return nil
}
