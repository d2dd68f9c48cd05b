package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/afisha/internal/middleware"
	"github.com/afisha/internal/model"
	"github.com/afisha/internal/repository"
)

type PushHandler struct {
	subRepo   *repository.SubscriptionRepository
	publicKey string
}

func NewPushHandler(subRepo *repository.SubscriptionRepository, publicKey string) *PushHandler {
	return &PushHandler{subRepo: subRepo, publicKey: publicKey}
}

// VAPIDPublic отдаёт публичный VAPID-ключ для подписки в браузере.
func (h *PushHandler) VAPIDPublic(w http.ResponseWriter, r *http.Request) {
	if h.publicKey == "" {
		writeError(w, http.StatusNotImplemented, "push не настроен")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.publicKey})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe сохраняет Web Push подписку текущего администратора.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint и keys обязательны")
		return
	}
	sub := &model.PushSubscription{
		Endpoint:  req.Endpoint,
		Username:  middleware.GetAdmin(r.Context()),
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.subRepo.Upsert(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, "subscribe failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := h.subRepo.Delete(r.Context(), req.Endpoint); err != nil {
		writeError(w, http.StatusInternalServerError, "unsubscribe failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
