package middleware

import (
	"net/http"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/storage"
)

// Лимиты публичных ручек: окно в секундах и максимум запросов за окно.
const (
	LoginLimitMax       = 10
	LoginLimitWindowSec = 600
	RSVPLimitMax        = 5
	RSVPLimitWindowSec  = 3600
)

func clientIP(r *http.Request) string {
	if x := r.Header.Get("X-Real-Ip"); x != "" {
		return x
	}
	if x := r.Header.Get("X-Forwarded-For"); x != "" {
		return x
	}
	return r.RemoteAddr
}

// RateLimit ограничивает запросы по IP через LimiterStore (Redis в prod —
// лимит общий на все инстансы). 429 при превышении; при ошибке стора запрос
// пропускается: лимитер не должен ронять публичные ручки.
func RateLimit(store storage.LimiterStore, prefix string, max, windowSec int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := store.Allow(r.Context(), prefix+":"+clientIP(r), max, windowSec)
			if err != nil {
				logger.Errorf("rate limit store: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
