// Сервис афиши: публичный календарь событий и заявки на участие,
// администраторы входят по паре access/refresh токенов в cookie.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afisha/internal/config"
	"github.com/afisha/internal/handler"
	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/middleware"
	"github.com/afisha/internal/model"
	"github.com/afisha/internal/password"
	"github.com/afisha/internal/push"
	"github.com/afisha/internal/repository"
	"github.com/afisha/internal/service"
	"github.com/afisha/internal/startup"
	"github.com/afisha/internal/storage"
	"github.com/afisha/internal/storage/memory"
	"github.com/afisha/internal/token"
	"github.com/afisha/migrations"
)

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL and in-memory rate limiter (no external DB/Redis required)")
	flag.Parse()

	logger.Info("starting afisha API service")
	cfg := config.Load()

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "")
	defer pool.Close()

	if err := startup.RunMigrations(pool, migrations.Files); err != nil {
		logger.Errorf("migrations: %v", err)
		os.Exit(1)
	}
	if *migrate && !*dev {
		return
	}
	logger.Info("database connected, migrations applied")

	adminRepo := repository.NewAdminRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	participationRepo := repository.NewParticipationRepository(pool)
	subRepo := repository.NewSubscriptionRepository(pool)

	// Просроченные сессии чистятся при старте; в остальное время протухшая
	// строка просто не проходит проверку.
	cleanCtx, cleanCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if n, err := sessionRepo.DeleteExpired(cleanCtx); err != nil {
		logger.Errorf("cleanup expired sessions: %v", err)
	} else if n > 0 {
		logger.Infof("removed %d expired sessions", n)
	}
	cleanCancel()

	if err := ensureFirstAdmin(adminRepo); err != nil {
		logger.Errorf("bootstrap admin: %v", err)
		os.Exit(1)
	}

	var limiter storage.LimiterStore
	if *dev {
		logger.Info("api -dev: in-memory rate limiter (без Redis)")
		limiter = memory.New()
	} else {
		redisClient := startup.ConnectRedisWithRetry(cfg.Redis.URL, 60*time.Second, "")
		defer redisClient.Close()
		limiter = redisClient
	}

	vapidKeys, err := push.EnsureVAPIDKeys("")
	if err != nil {
		logger.Errorf("push: VAPID-ключи недоступны: %v — пуши отключены", err)
		vapidKeys = nil
	}
	sender := push.NewSender(subRepo, vapidKeys)

	codec := token.New([]byte(cfg.Auth.AccessSecret), []byte(cfg.Auth.RefreshSecret))
	authSvc := service.NewAuthService(adminRepo, sessionRepo, codec)

	secureCookies := os.Getenv("APP_ENV") == "production"
	authH := handler.NewAuthHandler(authSvc, secureCookies)
	adminH := handler.NewAdminHandler(adminRepo, sessionRepo)
	eventH := handler.NewEventHandler(eventRepo)
	participationH := handler.NewParticipationHandler(participationRepo, eventRepo, sender)
	var vapidPublic string
	if vapidKeys != nil {
		vapidPublic = vapidKeys.PublicKey
	}
	pushH := handler.NewPushHandler(subRepo, vapidPublic)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(middleware.RecoverJSON)
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })

	// Публичные ручки
	r.Get("/api/events", eventH.ListByMonth)
	r.Get("/api/events/{id}", eventH.Get)
	r.With(middleware.RateLimit(limiter, "rsvp", middleware.RSVPLimitMax, middleware.RSVPLimitWindowSec)).
		Post("/api/events/{id}/participations", participationH.Create)

	// Авторизация: login — по паролю, остальное — по refresh-токену в cookie
	r.With(middleware.RateLimit(limiter, "login", middleware.LoginLimitMax, middleware.LoginLimitWindowSec)).
		Post("/api/auth/login", authH.Login)
	r.Post("/api/auth/logout", authH.Logout)
	r.Post("/api/auth/renew", authH.Renew)
	r.Put("/api/auth/password", authH.ChangePassword)

	// Защищённые ручки: access-токен в cookie
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(codec))
		r.Post("/api/events", eventH.Create)
		r.Put("/api/events/{id}", eventH.Update)
		r.Delete("/api/events/{id}", eventH.Delete)
		r.Get("/api/events/{id}/participations", participationH.ListByEvent)
		r.Put("/api/participations/{participationId}", participationH.UpdateStatus)
		r.Delete("/api/participations/{participationId}", participationH.Delete)
		r.Get("/api/admins", adminH.List)
		r.Get("/api/admins/me", adminH.Me)
		r.Post("/api/admins", adminH.Create)
		r.Delete("/api/admins/{username}", adminH.Delete)
		r.Get("/api/push/vapid-public", pushH.VAPIDPublic)
		r.Post("/api/push/subscribe", pushH.Subscribe)
		r.Delete("/api/push/subscribe", pushH.Unsubscribe)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	srvWg.Wait()
	logger.Info("server stopped")
}

// ensureFirstAdmin создаёт первого администратора из ADMIN_USERNAME /
// ADMIN_PASSWORD, если в БД ещё нет ни одного. Без администратора сервис
// стартует, но входить некому — об этом пишем в лог.
func ensureFirstAdmin(adminRepo *repository.AdminRepository) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	admins, err := adminRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}
	username := os.Getenv("ADMIN_USERNAME")
	pw := os.Getenv("ADMIN_PASSWORD")
	if username == "" || pw == "" {
		logger.Info("в БД нет администраторов; задайте ADMIN_USERNAME/ADMIN_PASSWORD для создания первого")
		return nil
	}
	if len(username) > model.MaxUsernameLen {
		return errors.New("ADMIN_USERNAME длиннее 12 символов")
	}
	now := time.Now().UTC()
	admin := &model.Admin{
		Username:     username,
		PasswordHash: password.Hash(pw, username, now),
		DisplayName:  username,
		EnrolledAt:   now,
	}
	if err := adminRepo.Create(ctx, admin); err != nil {
		return err
	}
	logger.Infof("bootstrap: создан администратор %s", username)
	return nil
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "afisha"
		pass     = "afisha_secret"
		database = "afisha"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(pass).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, pass, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
