package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/afisha/internal/logger"
	"github.com/afisha/internal/middleware"
	"github.com/afisha/internal/service"
	"github.com/afisha/internal/token"
)

// Единые тексты ошибок: по ответу нельзя отличить "нет такого администратора"
// от "неверный пароль" или "протухший токен".
const (
	msgUnauthorized = "authentication information missing or invalid"
	msgBadRequest   = "invalid request"
)

type AuthHandler struct {
	auth   *service.AuthService
	secure bool
}

// NewAuthHandler создаёт handler. secure включает флаг Secure на cookie
// (в production за TLS-терминатором).
func NewAuthHandler(auth *service.AuthService, secure bool) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secure}
}

// setTokenCookie выставляет cookie с токеном; Max-Age зеркалит срок жизни
// самого токена.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, name string, issued *token.Issued) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    issued.Value,
		Path:     "/",
		MaxAge:   int(time.Until(issued.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeAuthError переводит ошибки сервиса в HTTP-ответ. Все отказы
// авторизации — одинаковый 401; инфраструктурные ошибки — 500.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, msgBadRequest)
	default:
		logger.Errorf("auth: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login выдаёт пару токенов в cookie. Прежняя сессия администратора
// затирается — активной остаётся одна.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	pair, admin, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.setTokenCookie(w, middleware.AccessCookie, pair.Access)
	h.setTokenCookie(w, middleware.RefreshCookie, pair.Refresh)
	writeJSON(w, http.StatusOK, admin.ToPublic())
}

// Logout удаляет сессию (токен, действующий на момент вызова, с учётом
// ротации) и чистит cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	raw := middleware.ReadToken(r, middleware.RefreshCookie)
	if err := h.auth.Logout(r.Context(), raw); err != nil {
		writeAuthError(w, err)
		return
	}
	h.clearTokenCookie(w, middleware.AccessCookie)
	h.clearTokenCookie(w, middleware.RefreshCookie)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Renew выпускает свежий access-токен; refresh-токен обновляется только
// если сервис его ротировал.
func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	raw := middleware.ReadToken(r, middleware.RefreshCookie)
	access, rotated, err := h.auth.Renew(r.Context(), raw)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.setTokenCookie(w, middleware.AccessCookie, access)
	if rotated != nil {
		h.setTokenCookie(w, middleware.RefreshCookie, rotated)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword меняет пароль. Если при проверке refresh-токена произошла
// ротация, новая cookie выставляется даже при ошибке валидации: старый токен
// уже недействителен, и клиент обязан получить новый.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	raw := middleware.ReadToken(r, middleware.RefreshCookie)
	rotated, err := h.auth.ChangePassword(r.Context(), raw, req.CurrentPassword, req.NewPassword)
	if rotated != nil {
		h.setTokenCookie(w, middleware.RefreshCookie, rotated)
	}
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
