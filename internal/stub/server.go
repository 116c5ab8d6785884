package stub

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/dealerflowpro/dealerflow-client/internal/lib/jwt"
)

// Server — стаб бэкенда: хранилище, выпуск токенов и HTTP-обработчики.
type Server struct {
	log      *slog.Logger
	store    *Store
	tokens   *jwt.Maker
	validate *validator.Validate
	limiter  *rate.Limiter
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewServer создаёт стаб с собственным реестром метрик,
// чтобы несколько экземпляров могли сосуществовать в тестах.
// Лимит частоты запросов по умолчанию переопределяется методом SetRateLimit.
func NewServer(log *slog.Logger, jwtSecret string, tokenTTL time.Duration) *Server {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealerflow_stub_requests_total",
		Help: "Number of HTTP requests handled by the stub backend.",
	}, []string{"method", "path"})
	registry.MustRegister(requests)

	return &Server{
		log:      log,
		store:    NewStore(),
		tokens:   jwt.NewMaker(jwtSecret, tokenTTL),
		validate: validator.New(),
		limiter:  rate.NewLimiter(50, 100),
		registry: registry,
		requests: requests,
	}
}

// SetRateLimit заменяет лимитер частоты запросов.
func (s *Server) SetRateLimit(rps, burst int) {
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Store открывает хранилище стаба для предзаполнения в тестах и демо-режиме.
func (s *Server) Store() *Store { return s.store }

// IssueToken выпускает токен для существующего пользователя. Используется
// при предзаполнении демо-данных.
func (s *Server) IssueToken(userID int, email string) (string, error) {
	return s.tokens.Generate(userID, email)
}

// Routes собирает маршруты стаба в соответствии с контрактом бэкенда.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		metricsMiddleware(s.requests),
		rateLimitMiddleware(s.limiter, s.log),
	)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/payments/plans", s.handlePlans)

		// Группа с Bearer-аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.tokens, s.store, s.log))
			r.Get("/auth/profile", s.handleProfile)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/payments/subscription", s.handleSubscription)
			r.Post("/payments/subscription/upgrade", s.handleUpgrade)
			r.Post("/payments/payment/confirm", s.handleConfirmPayment)
			r.Post("/payments/subscription/cancel", s.handleCancelSubscription)
			r.Post("/content/generate-bulk", s.handleGenerateBulk)
			r.Post("/scraping/setup", s.handleScrapingSetup)
			r.Post("/images/upload", s.handleImageUpload)
			r.Get("/images/dealership/{dealershipID}", s.handleImageList)
		})
	})

	r.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)

	return r
}
