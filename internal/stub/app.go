package stub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dealerflowpro/dealerflow-client/internal/config"
)

// App оборачивает стаб в HTTP-сервер с корректным завершением.
type App struct {
	server *http.Server
	logger *slog.Logger
}

// NewApp создаёт приложение стаба по конфигурации.
func NewApp(cfg config.Stub, logger *slog.Logger) *App {
	srv := NewServer(logger, cfg.JWTSecretKey, cfg.TokenTTL)
	srv.SetRateLimit(cfg.RateLimit, cfg.RateBurst)

	return &App{
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      srv.Routes(),
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: logger,
	}
}

// Run запускает сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("stub backend starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down stub backend gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
