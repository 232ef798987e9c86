package http

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/auth"
	"github.com/gear6io/parity/server/records"
	"github.com/gear6io/parity/server/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"

	localsRequestID = "request_id"
	localsRole      = "role"
	componentType   = "http"
)

// detail is the error body shape shared by every failure response
type detail struct {
	Detail string `json:"detail"`
}

// Server serves the patient records API
type Server struct {
	addr     string
	tokens   *auth.TokenSet
	repo     records.Repository
	logger   zerolog.Logger
	app      *fiber.App
	listener net.Listener
	wg       sync.WaitGroup
}

var _ shared.Component = (*Server)(nil)

// NewServer creates a records API server bound to addr once started
func NewServer(addr string, tokens *auth.TokenSet, repo records.Repository, logger zerolog.Logger) (*Server, error) {
	if tokens == nil {
		return nil, errors.New(ErrMissingTokens, "token set is required", nil)
	}
	if repo == nil {
		return nil, errors.New(ErrMissingRecords, "records repository is required", nil)
	}

	s := &Server{
		addr:   addr,
		tokens: tokens,
		repo:   repo,
		logger: logger.With().Str("component", "http-server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "parity-api",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(s.requestID, s.accessLog)
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/patients/:id/records", s.authenticate, s.handlePatientRecords)

	return s, nil
}

// App exposes the fiber application, mainly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the bound address after Start, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listener and serves in the background
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return errors.New(ErrListenFailed, "failed to bind records API", err).AddContext("address", s.addr)
	}
	s.listener = ln
	s.logger.Info().Str("address", ln.Addr().String()).Msg("Starting HTTP server")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.app.Listener(ln); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	s.logger.Info().Msg("HTTP server started successfully")
	return nil
}

// GetType implements shared.Component
func (s *Server) GetType() string {
	return componentType
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server")

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return errors.New(ErrShutdownFailed, "error during HTTP server shutdown", err)
	}
	s.wg.Wait()

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(localsRequestID, id)
	c.Set(RequestIDHeader, id)
	return c.Next()
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		// render now so the logged status is the one sent
		if herr := s.handleError(c, err); herr != nil {
			return herr
		}
	}

	event := s.logger.Debug()
	if c.Response().StatusCode() >= fiber.StatusInternalServerError {
		event = s.logger.Warn()
	}
	event.
		Str("request_id", requestIDOf(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("Request served")
	return nil
}

// authenticate checks the bearer token before any handler runs
func (s *Server) authenticate(c *fiber.Ctx) error {
	role, err := s.tokens.Authenticate(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	c.Locals(localsRole, role)
	return c.Next()
}

func (s *Server) handlePatientRecords(c *fiber.Ctx) error {
	patientID, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return errors.New(records.ErrInvalidID, "Invalid patient ID format", err)
	}
	if err := records.ValidateID(patientID); err != nil {
		return err
	}

	pr, err := s.repo.PatientRecords(c.UserContext(), patientID)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("request_id", requestIDOf(c)).
		Str("role", roleOf(c)).
		Str("patient_id", patientID).
		Msg("Patient records served")
	return c.JSON(pr)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"server":    "parity-api",
	})
}

// handleError maps error codes onto status codes and detail bodies
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status == fiber.StatusUnauthorized {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", requestIDOf(c)).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(status).JSON(detail{Detail: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.HasCode(err, auth.ErrNotAuthenticated):
		return fiber.StatusForbidden, "Not authenticated"
	case errors.HasCode(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized, "Invalid authentication token"
	case errors.HasCode(err, records.ErrInvalidID):
		return fiber.StatusBadRequest, "Invalid patient ID format"
	case errors.HasCode(err, records.ErrPatientNotFound):
		return fiber.StatusNotFound, "Patient not found"
	case errors.HasCode(err, records.ErrBackendFailed):
		return fiber.StatusInternalServerError, "Database error"
	}

	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "Internal Server Error"
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}

func roleOf(c *fiber.Ctx) string {
	role, _ := c.Locals(localsRole).(string)
	return role
}
