package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/skalibog/alphascan/internal/metrics"
	"github.com/skalibog/alphascan/pkg/logger"
	"go.uber.org/zap"
)

const (
	infoText        = "AlphaScanner Engine is Running"
	shutdownTimeout = 10 * time.Second
)

// Server HTTP-поверхность проверки живости и метрик.
// Не отражает состояние сканера.
type Server struct {
	echo *echo.Echo
	addr string
}

// New создает сервер на заданном порту
func New(port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, infoText)
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return &Server{
		echo: e,
		addr: fmt.Sprintf(":%d", port),
	}
}

// Handler возвращает обработчик маршрутов
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run обслуживает запросы до отмены контекста, затем корректно останавливается
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP-сервер запущен", zap.String("addr", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки HTTP-сервера: %w", err)
	}
	logger.Info("HTTP-сервер остановлен")
	return nil
}
