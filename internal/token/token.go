// Package token — выпуск и проверка подписанных токенов (JWT HS256).
//
// Access и refresh токены подписываются разными секретами: утечка секрета
// access-токенов не позволяет подделать refresh-токены и наоборот. Claim
// purpose жёстко проверяется при верификации — токен с валидной подписью,
// но не тем назначением, отклоняется.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Назначение токена.
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

// Время жизни токенов.
const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 120 * time.Minute
)

// ErrInvalidToken — любая причина отказа: подпись, срок, назначение, формат.
// Наружу причина не детализируется.
var ErrInvalidToken = errors.New("invalid token")

// Claims — стандартные утверждения плюс назначение токена.
type Claims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// Issued — выпущенный токен вместе с его сроком действия (для cookie Max-Age).
type Issued struct {
	Value     string
	ExpiresAt time.Time
}

// Codec подписывает и проверяет токены. TTL настраиваются (в тестах — короче).
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// New создаёт Codec со стандартными TTL (15 мин / 120 мин).
func New(accessSecret, refreshSecret []byte) *Codec {
	return NewWithTTL(accessSecret, refreshSecret, AccessTTL, RefreshTTL)
}

// NewWithTTL создаёт Codec с явными TTL.
func NewWithTTL(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess выпускает access-токен для username. Без побочных эффектов.
func (c *Codec) IssueAccess(username string) (*Issued, error) {
	return c.issue(username, PurposeAccess, c.accessSecret, c.accessTTL)
}

// IssueRefresh выпускает refresh-токен для username. Сохранение сессии —
// обязанность вызывающего (service.AuthService).
func (c *Codec) IssueRefresh(username string) (*Issued, error) {
	return c.issue(username, PurposeRefresh, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) issue(username, purpose string, secret []byte, ttl time.Duration) (*Issued, error) {
	now := time.Now()
	exp := now.Add(ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Purpose: purpose,
	})
	signed, err := tok.SignedString(secret)
	if err != nil {
		return nil, err
	}
	return &Issued{Value: signed, ExpiresAt: exp}, nil
}

// Verify проверяет подпись, срок и назначение. Любой отказ — ErrInvalidToken.
func (c *Codec) Verify(raw, purpose string) (*Claims, error) {
	secret := c.accessSecret
	if purpose == PurposeRefresh {
		secret = c.refreshSecret
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
