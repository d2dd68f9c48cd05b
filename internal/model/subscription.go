package model

import "time"

// PushSubscription — браузерная Web Push подписка администратора.
// Endpoint уникален; при удалении администратора подписки каскадно удаляются.
type PushSubscription struct {
	Endpoint  string    `json:"endpoint"`
	Username  string    `json:"username"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
