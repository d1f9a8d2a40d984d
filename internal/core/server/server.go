package server

import (
	"context"
	"errors"
	"fmt"

	"courier-portal/internal/core/config"
	"courier-portal/internal/core/logger"
	"courier-portal/internal/core/metrics"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "courier-portal/docs/swagger"
)

// RequestIDHeader carries the per-request id in requests and responses.
const RequestIDHeader = "X-Ray-ID"

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// cfg holds the application configuration.
	cfg *config.AppConfig
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes the Prometheus registry at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		handler := m.Handler()
		s.App.Get("/metrics", func(c *fiber.Ctx) error {
			handler(c.Context())
			return nil
		})
	}
}

// New creates a new Server instance with configured middleware.
func New(cfg *config.AppConfig, opts ...Option) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "courier-portal",
		ErrorHandler:          errorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Header: RequestIDHeader,
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", health)

	s := &Server{
		App: app,
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// health handles GET /health.
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorHandler renders errors escaping handlers in the API envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		logger.Get().Error("Unhandled request error",
			zap.String("path", c.Path()),
			zap.String("request_id", RequestID(c)),
			zap.Error(err),
		)
	}
	return Fail(c, code, msg)
}

// Run starts the HTTP server. It blocks until the server stops.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}
