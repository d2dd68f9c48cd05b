// Package password — хеширование пароля администратора.
//
// Соль детерминированная: username + момент регистрации (enrolled_at).
// Это сохранено для совместимости хешей существующих администраторов:
// при смене алгоритма все пароли пришлось бы сбрасывать. Соль не случайная,
// поэтому функция вынесена в отдельный тип HashFunc и заменяется целиком.
package password

import (
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"time"
)

// HashFunc — подменяемая функция хеширования: plaintext + материал соли -> hex-хеш.
type HashFunc func(plaintext, username string, enrolledAt time.Time) string

// Hash — SHA-512 от plaintext с солью из username и enrolled_at (UnixMilli,
// чтобы не зависеть от таймзоны и формата печати time.Time).
func Hash(plaintext, username string, enrolledAt time.Time) string {
	salt := username + ":" + strconv.FormatInt(enrolledAt.UnixMilli(), 10)
	sum := sha512.Sum512([]byte(plaintext + salt))
	return hex.EncodeToString(sum[:])
}
