// Package server exposes a flow workspace and the saved-flow library over
// HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/smartflow"
)

// Server owns one editable flow and the saved-flow library. Handlers run
// concurrently, so every access to the flow or library holds mu.
type Server struct {
	app    *fiber.App
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	flow    *smartflow.Flow
	library *smartflow.Library
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source used for snapshots and simulations.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds the HTTP app around library. The library should already be
// loaded.
func New(library *smartflow.Library, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		app:     fiber.New(fiber.Config{AppName: "smartflow"}),
		logger:  logger,
		now:     time.Now,
		flow:    smartflow.New(),
		library: library,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves HTTP on addr until the app is shut down.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	app := s.app
	app.Use(s.logRequests)

	app.Get("/criteria", s.getCriteria)

	// ── Flow ──────────────────────────────────────────────────────────
	app.Get("/flow", s.getFlow)
	app.Delete("/flow", s.clearFlow)
	app.Get("/flow/validity", s.getValidity)
	app.Put("/flow/default-destination", s.putDefaultDestination)
	app.Post("/flow/simulate", s.simulate)
	app.Get("/flow/snapshot", s.getSnapshot)
	app.Put("/flow/snapshot", s.putSnapshot)

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/flow/conditions", s.addCondition)
	app.Post("/flow/destinations", s.addDestination)
	app.Delete("/flow/nodes/:id", s.removeNode)
	app.Put("/flow/nodes/:id/position", s.moveNode)

	// ── Connections ───────────────────────────────────────────────────
	app.Post("/flow/connections", s.addConnection)
	app.Delete("/flow/connections/:id", s.removeConnection)

	// ── Saved flows ───────────────────────────────────────────────────
	app.Get("/flows", s.listFlows)
	app.Post("/flows", s.saveFlow)
	app.Post("/flows/:id/load", s.loadFlow)
	app.Delete("/flows/:id", s.removeFlow)
}

func (s *Server) logRequests(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// statusFor maps core errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, smartflow.ErrDuplicateCondition),
		errors.Is(err, smartflow.ErrDuplicateName):
		return fiber.StatusConflict
	case errors.Is(err, smartflow.ErrNodeNotFound),
		errors.Is(err, smartflow.ErrFlowNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, smartflow.ErrInvalidFlow):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, smartflow.ErrInvalidCondition),
		errors.Is(err, smartflow.ErrInvalidRef),
		errors.Is(err, smartflow.ErrInvalidPort),
		errors.Is(err, smartflow.ErrEmptyName):
		return fiber.StatusBadRequest
	case errors.Is(err, smartflow.ErrPersistenceUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func badBody(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
}

func intParam(c fiber.Ctx, name string) (int, bool) {
	v, err := strconv.Atoi(c.Params(name))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
