package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/afisha/internal/middleware"
	"github.com/afisha/internal/model"
	"github.com/afisha/internal/repository"
)

type EventHandler struct {
	eventRepo *repository.EventRepository
}

func NewEventHandler(eventRepo *repository.EventRepository) *EventHandler {
	return &EventHandler{eventRepo: eventRepo}
}

// ListByMonth — публичная выдача событий месяца: GET /api/events?year=&month=.
// Без параметров — текущий месяц (UTC).
func (h *EventHandler) ListByMonth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if month < 1 || month > 12 || year < 1970 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid year/month")
		return
	}
	events, err := h.eventRepo.ListByMonth(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list events failed")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.eventRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get event failed")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

type eventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (req *eventRequest) validate() string {
	if req.Title == "" {
		return "title обязателен"
	}
	if req.StartsAt.IsZero() {
		return "starts_at обязателен"
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		return "ends_at раньше starts_at"
	}
	return ""
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	now := time.Now().UTC()
	event := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   middleware.GetAdmin(r.Context()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.eventRepo.Create(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "create event failed")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	event, err := h.eventRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "update event failed")
		return
	}
	event.Title = req.Title
	event.Description = req.Description
	event.Location = req.Location
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.UpdatedAt = time.Now().UTC()
	if err := h.eventRepo.Update(r.Context(), event); err != nil {
		writeError(w, http.StatusInternalServerError, "update event failed")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Delete удаляет событие вместе с заявками (каскад в БД).
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.eventRepo.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete event failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
