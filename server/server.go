// Package server assembles the long-running records API process.
package server

import (
	"context"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/auth"
	"github.com/gear6io/parity/server/config"
	"github.com/gear6io/parity/server/protocols/http"
	"github.com/gear6io/parity/server/records"
	"github.com/gear6io/parity/server/shared"
	"github.com/rs/zerolog"
)

// Server owns every component started by `parity serve`
type Server struct {
	config     *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	components []shared.Component
	startTime  time.Time
}

// New creates the server from cfg. A nil repo serves the built-in fixture.
func New(cfg *config.Config, repo records.Repository, logger zerolog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenSet(cfg.API.Tokens)
	if err != nil {
		return nil, err
	}
	if repo == nil {
		repo = records.NewFixtureRepository()
	}

	httpServer, err := http.NewServer(cfg.GetAPIAddress(), tokens, repo, logger)
	if err != nil {
		return nil, errors.New(errors.CommonInternal, "failed to create HTTP server", err)
	}

	return &Server{
		config:     cfg,
		logger:     logger.With().Str("component", "server").Logger(),
		httpServer: httpServer,
		startTime:  time.Now(),
	}, nil
}

// Start starts every component. Components started before a failure are
// shut down again.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting parity server...")

	if err := s.httpServer.Start(ctx); err != nil {
		s.shutdownStarted()
		return err
	}
	s.components = append(s.components, s.httpServer)

	s.logger.Info().
		Str("api_address", s.httpServer.Addr()).
		Strs("roles", s.roles()).
		Msg("All servers started")
	return nil
}

// Shutdown stops every started component in reverse start order
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server...")
	err := shared.ShutdownAll(ctx, s.components...)
	s.components = nil
	if err != nil {
		s.logger.Error().Err(err).Msg("Error during shutdown")
		return err
	}
	s.logger.Info().Msg("Graceful shutdown completed")
	return nil
}

func (s *Server) shutdownStarted() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = shared.ShutdownAll(ctx, s.components...)
	s.components = nil
}

// APIAddr returns the address the records API is bound to
func (s *Server) APIAddr() string {
	return s.httpServer.Addr()
}

// GetUptime returns the server uptime
func (s *Server) GetUptime() time.Duration {
	return time.Since(s.startTime)
}

// GetStatus returns the server status
func (s *Server) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"uptime":      s.GetUptime().String(),
		"start_time":  s.startTime,
		"api_address": s.httpServer.Addr(),
		"components":  len(s.components),
	}
}

func (s *Server) roles() []string {
	tokens, err := auth.NewTokenSet(s.config.API.Tokens)
	if err != nil {
		return nil
	}
	return tokens.Roles()
}
