package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized возвращается при ответе 401 с любой аутентифицированной
// конечной точки. Менеджер сессии трактует его как сигнал к выходу.
var ErrUnauthorized = errors.New("unauthorized")

// UpgradeRequiredError означает, что действие недоступно на текущем тарифе.
// Это не сбой: вызывающая сторона показывает предложение сменить тариф.
type UpgradeRequiredError struct {
	Message string
}

func (e *UpgradeRequiredError) Error() string {
	if e.Message == "" {
		return "upgrade required"
	}
	return e.Message
}

// ServerError — ответ бэкенда с success=false и текстом ошибки.
// Текст показывается пользователю дословно, когда он есть.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d", e.StatusCode)
	}
	return e.Message
}
