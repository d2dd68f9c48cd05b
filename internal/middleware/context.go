package middleware

import "context"

type contextKey string

const AdminKey contextKey = "admin_username"

// GetAdmin возвращает username администратора из контекста (ставится RequireAdmin).
func GetAdmin(ctx context.Context) string {
	v, _ := ctx.Value(AdminKey).(string)
	return v
}
