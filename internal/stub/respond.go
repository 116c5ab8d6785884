package stub

import (
	"net/http"

	"github.com/go-chi/render"
)

// respondOK отправляет ответ с success=true и дополнительными полями payload.
func respondOK(w http.ResponseWriter, r *http.Request, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	render.JSON(w, r, body)
}

// respondError отправляет ответ с success=false и текстом ошибки.
func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// respondUpgradeRequired сообщает, что действие недоступно на текущем тарифе.
func respondUpgradeRequired(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusForbidden)
	render.JSON(w, r, map[string]any{
		"success":          false,
		"upgrade_required": true,
		"error":            msg,
	})
}
