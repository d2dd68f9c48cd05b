package model

import "time"

// MaxUsernameLen — ограничение длины username администратора (колонка VARCHAR(12)).
const MaxUsernameLen = 12

// Admin — администратор афиши. Username неизменяем и служит ключом;
// EnrolledAt участвует в выводе соли для хеша пароля, поэтому тоже неизменяем.
type Admin struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

type AdminPublic struct {
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	EnrolledAt  time.Time `json:"enrolled_at"`
}

func (a *Admin) ToPublic() AdminPublic {
	return AdminPublic{
		Username:    a.Username,
		DisplayName: a.DisplayName,
		EnrolledAt:  a.EnrolledAt,
	}
}
