package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/afisha/internal/middleware"
	"github.com/afisha/internal/model"
	"github.com/afisha/internal/password"
	"github.com/afisha/internal/repository"
)

// usernameRe — латиница, цифры, подчёркивание; длина ограничена колонкой VARCHAR(12).
var usernameRe = regexp.MustCompile(`^[a-z0-9_]{1,12}$`)

type AdminHandler struct {
	adminRepo   *repository.AdminRepository
	sessionRepo *repository.SessionRepository
}

func NewAdminHandler(adminRepo *repository.AdminRepository, sessionRepo *repository.SessionRepository) *AdminHandler {
	return &AdminHandler{adminRepo: adminRepo, sessionRepo: sessionRepo}
}

// Me возвращает профиль текущего администратора.
func (h *AdminHandler) Me(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetAdmin(r.Context())
	admin, err := h.adminRepo.GetByUsername(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusNotFound, "admin not found")
		return
	}
	writeJSON(w, http.StatusOK, admin.ToPublic())
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.adminRepo.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list admins failed")
		return
	}
	result := make([]model.AdminPublic, 0, len(admins))
	for _, a := range admins {
		result = append(result, a.ToPublic())
	}
	writeJSON(w, http.StatusOK, result)
}

type createAdminRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Create заводит нового администратора. EnrolledAt фиксируется один раз и
// участвует в соли хеша пароля, поэтому после создания не меняется.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !usernameRe.MatchString(req.Username) {
		writeError(w, http.StatusBadRequest, "username: 1-12 символов, [a-z0-9_]")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password: минимум 8 символов")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}
	if _, err := h.adminRepo.GetByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "username already taken")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "create admin failed")
		return
	}
	now := time.Now().UTC()
	admin := &model.Admin{
		Username:     req.Username,
		PasswordHash: password.Hash(req.Password, req.Username, now),
		DisplayName:  req.DisplayName,
		EnrolledAt:   now,
	}
	if err := h.adminRepo.Create(r.Context(), admin); err != nil {
		writeError(w, http.StatusInternalServerError, "create admin failed")
		return
	}
	writeJSON(w, http.StatusCreated, admin.ToPublic())
}

// Delete удаляет администратора; его сессия и push-подписки уходят каскадом,
// так что выданный ему refresh-токен сразу перестаёт работать. Себя удалить
// нельзя.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == middleware.GetAdmin(r.Context()) {
		writeError(w, http.StatusBadRequest, "нельзя удалить самого себя")
		return
	}
	ok, err := h.adminRepo.DeleteByUsername(r.Context(), username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete admin failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "admin not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
