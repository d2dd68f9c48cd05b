// Package storage — хранилище счётчиков rate limit для публичных ручек
// (логин, подача заявок на участие).
package storage

import "context"

// LimiterStore — скользящее окно запросов по ключу.
// Реализации: redis.Client (prod, общий лимит на все инстансы),
// memory.Client (режим -dev без Redis).
type LimiterStore interface {
	// Allow инкрементирует счётчик key и сообщает, не превышен ли max
	// за окно windowSec секунд.
	Allow(ctx context.Context, key string, max int, windowSec int) (bool, error)
	Close() error
}
