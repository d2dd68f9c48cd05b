package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/afisha/internal/model"
	"github.com/afisha/internal/push"
	"github.com/afisha/internal/repository"
)

const maxGuestsPerRequest = 10

type ParticipationHandler struct {
	participationRepo *repository.ParticipationRepository
	eventRepo         *repository.EventRepository
	sender            *push.Sender
}

func NewParticipationHandler(participationRepo *repository.ParticipationRepository, eventRepo *repository.EventRepository, sender *push.Sender) *ParticipationHandler {
	return &ParticipationHandler{participationRepo: participationRepo, eventRepo: eventRepo, sender: sender}
}

type createParticipationRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Guests  int    `json:"guests"`
	Note    string `json:"note"`
}

// Create — публичная подача заявки: POST /api/events/{id}/participations.
// Авторизация не требуется; защита от спама — rate limit по IP.
func (h *ParticipationHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	event, err := h.eventRepo.GetByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "create participation failed")
		return
	}
	var req createParticipationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Contact = strings.TrimSpace(req.Contact)
	if req.Name == "" || req.Contact == "" {
		writeError(w, http.StatusBadRequest, "name и contact обязательны")
		return
	}
	if req.Guests < 0 || req.Guests > maxGuestsPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("guests: от 0 до %d", maxGuestsPerRequest))
		return
	}
	p := &model.Participation{
		ID:        uuid.New().String(),
		EventID:   event.ID,
		Name:      req.Name,
		Contact:   req.Contact,
		Guests:    req.Guests,
		Note:      strings.TrimSpace(req.Note),
		Status:    model.ParticipationPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.participationRepo.Create(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "create participation failed")
		return
	}
	// Пуш администраторам — best effort, в фоне: заявка уже сохранена.
	if h.sender != nil && h.sender.Enabled() {
		go func(title, name string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			h.sender.NotifyAll(ctx, "Новая заявка: "+title, name, map[string]string{"event_id": eventID})
		}(event.Title, p.Name)
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListByEvent — список заявок события (только для администраторов).
func (h *ParticipationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if _, err := h.eventRepo.GetByID(r.Context(), eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "list participations failed")
		return
	}
	list, err := h.participationRepo.ListByEventID(r.Context(), eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list participations failed")
		return
	}
	if list == nil {
		list = []model.Participation{}
	}
	writeJSON(w, http.StatusOK, list)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus — модерация заявки: pending / approved / declined.
func (h *ParticipationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "participationId")
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !model.ValidParticipationStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "status: pending, approved или declined")
		return
	}
	if err := h.participationRepo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "participation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "update participation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ParticipationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "participationId")
	ok, err := h.participationRepo.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete participation failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "participation not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
