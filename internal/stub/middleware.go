package stub

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/dealerflowpro/dealerflow-client/internal/lib/jwt"
	"github.com/dealerflowpro/dealerflow-client/internal/lib/sl"
)

type ctxKey string

// userIDKey — ключ идентификатора пользователя в контексте запроса.
const userIDKey ctxKey = "user_id"

func userID(r *http.Request) int {
	id, _ := r.Context().Value(userIDKey).(int)
	return id
}

// authMiddleware проверяет Bearer-токен в заголовке Authorization.
//
// При валидном токене кладёт идентификатор пользователя в контекст запроса,
// иначе отвечает 401 Unauthorized.
func authMiddleware(maker *jwt.Maker, store *Store, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				respondError(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.Parse(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				respondError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if _, err := store.UserByID(claims.UserID); err != nil {
				log.Error("token for unknown user", sl.Err(err))
				respondError(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimitMiddleware ограничивает частоту запросов к стабу.
func rateLimitMiddleware(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware считает запросы по методу и пути.
func metricsMiddleware(requests *prometheus.CounterVec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.WithLabelValues(r.Method, r.URL.Path).Inc()
			next.ServeHTTP(w, r)
		})
	}
}
