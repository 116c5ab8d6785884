// Package jwt реализует выпуск и разбор сессионных токенов стаба бэкенда.
//
// Для клиента токен остаётся непрозрачной строкой; структура claims —
// деталь реализации стаба.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — данные сессии, зашитые в токен стаба.
type Claims struct {
	UserID               int    `json:"user_id"`
	Email                string `json:"email"`
	jwt.RegisteredClaims        // Стандартные claims (ExpiresAt, IssuedAt и пр.)
}

// Maker выпускает и проверяет сессионные токены.
type Maker struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker создаёт Maker с секретным ключом и временем жизни токена.
func NewMaker(secretKey string, ttl time.Duration) *Maker {
	return &Maker{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// Generate создаёт токен для пользователя с заданными идентификатором и email.
func (m *Maker) Generate(userID int, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// Parse проверяет подпись и срок действия токена и возвращает его claims.
func (m *Maker) Parse(tokenStr string) (*Claims, error) {
	const op = "jwt.Parse"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
