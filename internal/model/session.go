package model

import "time"

// Session — серверная запись refresh-сессии: у администратора в любой момент
// не больше одной живой сессии (UNIQUE на username). Token — значение
// refresh-токена, первичный ключ поиска.
type Session struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}
