package model

import "time"

// Статусы заявки на участие.
const (
	ParticipationPending  = "pending"
	ParticipationApproved = "approved"
	ParticipationDeclined = "declined"
)

// Participation — публичная заявка на участие в событии (RSVP).
// Создаётся без авторизации; модерация — только администраторами.
type Participation struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Guests    int       `json:"guests"`
	Note      string    `json:"note,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidParticipationStatus — допустимые значения для модерации заявки.
func ValidParticipationStatus(s string) bool {
	switch s {
	case ParticipationPending, ParticipationApproved, ParticipationDeclined:
		return true
	}
	return false
}
