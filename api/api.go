// Package api provides the HTTP API server for onboarding and feed requests.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scrollpedia/scrollfeed/pkg/profile"
	"github.com/scrollpedia/scrollfeed/pkg/ranking"
)

// Server is the API server fronting the profile manager and ranking engine.
type Server struct {
	config   Config
	profiles *profile.Manager
	ranker   *ranking.Engine
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The profile manager and ranking
// engine are injected so the server owns no storage or embedding state of
// its own.
func NewServer(config Config, profiles *profile.Manager, ranker *ranking.Engine, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		profiles: profiles,
		ranker:   ranker,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)

	// Identity arrives from the external auth layer; everything under /v1
	// requires it.
	v1 := app.Group("/v1", s.requireUser)
	v1.Get("/profile", s.handleGetProfile)
	v1.Post("/profile", s.handleCreateProfile)
	v1.Get("/feed", s.handleFeed)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
