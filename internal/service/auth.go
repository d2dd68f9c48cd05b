// Package service — бизнес-логика авторизации администраторов.
//
// AuthService реализует протокол access/refresh токенов: логин, выход,
// продление и смену пароля. Refresh-токен хранится на сервере (одна сессия
// на администратора), access-токен — stateless и в БД не проверяется.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/model"
	"github.com/afisha/internal/password"
	"github.com/afisha/internal/repository"
	"github.com/afisha/internal/token"
)

var (
	// ErrUnauthorized — единый ответ на любую проблему с учётными данными:
	// нет токена, плохая подпись, истёк, не тот purpose, нет сессии, неверный
	// пароль, нет пользователя. Причина наружу не раскрывается, чтобы по
	// ответу нельзя было перебирать username.
	ErrUnauthorized = errors.New("authentication information missing or invalid")

	// ErrValidation — бизнес-валидация запроса не прошла (например, новый
	// пароль слишком короткий или текущий не совпал при смене).
	ErrValidation = errors.New("invalid request")
)

// RotateWindow — за сколько до истечения refresh-токена он ротируется.
// Клиент, продлевающий сессию хотя бы раз в этот интервал, никогда не
// упирается в жёсткий логаут.
const RotateWindow = 20 * time.Minute

const minPasswordLen = 8

// maskToken прячет значение токена в логах (полное значение не светим).
func maskToken(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 8 {
		return "****"
	}
	return s[:8] + "***"
}

// AdminStore — то, что AuthService требует от хранилища администраторов.
// Реализуется repository.AdminRepository.
type AdminStore interface {
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}

// SessionStore — контракт хранилища сессий. Атомарность Upsert/Replace —
// обязанность реализации (в Postgres — UNIQUE(username) и условный UPDATE),
// в сервисе блокировок нет: инстансов может быть несколько.
type SessionStore interface {
	Upsert(ctx context.Context, s *model.Session) error
	GetByToken(ctx context.Context, tokenValue string) (*model.Session, error)
	Replace(ctx context.Context, oldToken string, s *model.Session) error
	DeleteByToken(ctx context.Context, tokenValue string) (bool, error)
	DeleteByUsername(ctx context.Context, username string) error
}

// TokenPair — access + refresh, возвращается из Login.
type TokenPair struct {
	Access  *token.Issued
	Refresh *token.Issued
}

type AuthService struct {
	admins       AdminStore
	sessions     SessionStore
	codec        *token.Codec
	hash         password.HashFunc
	rotateWindow time.Duration
}

func NewAuthService(admins AdminStore, sessions SessionStore, codec *token.Codec) *AuthService {
	return &AuthService{
		admins:       admins,
		sessions:     sessions,
		codec:        codec,
		hash:         password.Hash,
		rotateWindow: RotateWindow,
	}
}

// Login проверяет учётные данные и выпускает пару токенов. Refresh-токен
// сохраняется как сессия администратора, затирая прежнюю (одна сессия на
// администратора). Неизвестный username и неверный пароль неразличимы.
func (s *AuthService) Login(ctx context.Context, username, plaintext string) (*TokenPair, *model.Admin, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}
	candidate := s.hash(plaintext, admin.Username, admin.EnrolledAt)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(admin.PasswordHash)) != 1 {
		return nil, nil, ErrUnauthorized
	}

	access, err := s.codec.IssueAccess(admin.Username)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.codec.IssueRefresh(admin.Username)
	if err != nil {
		return nil, nil, err
	}
	sess := &model.Session{Token: refresh.Value, Username: admin.Username, ExpiresAt: refresh.ExpiresAt}
	if err := s.sessions.Upsert(ctx, sess); err != nil {
		return nil, nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, admin, nil
}

// VerifyRefreshSession проверяет refresh-токен по подписи и по сессии в БД.
// Если токену осталось меньше rotateWindow, сессия ротируется: старая строка
// атомарно заменяется новой, и возвращается новый токен. Ротация фиксируется
// сразу — старый токен после возврата уже недействителен.
func (s *AuthService) VerifyRefreshSession(ctx context.Context, raw string) (string, *token.Issued, error) {
	if raw == "" {
		return "", nil, ErrUnauthorized
	}
	claims, err := s.codec.Verify(raw, token.PurposeRefresh)
	if err != nil {
		return "", nil, ErrUnauthorized
	}
	sess, err := s.sessions.GetByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		return "", nil, ErrUnauthorized
	}

	if time.Until(claims.ExpiresAt.Time) >= s.rotateWindow {
		return sess.Username, nil, nil
	}

	rotated, err := s.codec.IssueRefresh(sess.Username)
	if err != nil {
		return "", nil, err
	}
	next := &model.Session{Token: rotated.Value, Username: sess.Username, ExpiresAt: rotated.ExpiresAt}
	if err := s.sessions.Replace(ctx, raw, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Конкурентный вызов уже заменил этот токен — сессия клиента потеряна.
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	logger.Infof("session rotated for %s (token %s)", sess.Username, maskToken(raw))
	return sess.Username, rotated, nil
}

// Logout завершает сессию. Удаляется токен, действующий на момент вызова:
// если при проверке произошла ротация, удаляется свежевыпущенный токен,
// чтобы он не остался висеть в БД.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	_, rotated, err := s.VerifyRefreshSession(ctx, raw)
	if err != nil {
		return err
	}
	current := raw
	if rotated != nil {
		current = rotated.Value
	}
	if _, err := s.sessions.DeleteByToken(ctx, current); err != nil {
		return err
	}
	return nil
}

// Renew всегда выпускает новый access-токен; новый refresh-токен — только
// если при проверке произошла ротация.
func (s *AuthService) Renew(ctx context.Context, raw string) (*token.Issued, *token.Issued, error) {
	username, rotated, err := s.VerifyRefreshSession(ctx, raw)
	if err != nil {
		return nil, nil, err
	}
	access, err := s.codec.IssueAccess(username)
	if err != nil {
		return nil, nil, err
	}
	return access, rotated, nil
}

// ChangePassword меняет пароль администратора. Ротация, случившаяся при
// проверке refresh-токена, уже зафиксирована в БД и сохраняется даже если
// дальнейшая валидация провалится — поэтому rotated возвращается и вместе с
// ошибкой: вызывающий обязан отдать клиенту новый токен в любом случае.
func (s *AuthService) ChangePassword(ctx context.Context, raw, currentPassword, newPassword string) (*token.Issued, error) {
	username, rotated, err := s.VerifyRefreshSession(ctx, raw)
	if err != nil {
		return nil, err
	}
	if len(newPassword) < minPasswordLen {
		return rotated, ErrValidation
	}
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return rotated, ErrUnauthorized
		}
		return rotated, err
	}
	candidate := s.hash(currentPassword, admin.Username, admin.EnrolledAt)
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(admin.PasswordHash)) != 1 {
		// Наружу — generic bad request, без уточнения причины.
		return rotated, ErrValidation
	}
	newHash := s.hash(newPassword, admin.Username, admin.EnrolledAt)
	if err := s.admins.UpdatePassword(ctx, admin.Username, newHash); err != nil {
		return rotated, err
	}
	return rotated, nil
}
