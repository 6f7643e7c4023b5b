// Package server exposes chat sessions over a JSON HTTP API. Each session owns
// one conversation.Controller, created on demand and discarded on delete or
// shutdown. Nothing is persisted.
package server

import (
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/wellchat/pkg/conversation"
	"github.com/papercomputeco/wellchat/pkg/llm"
	"github.com/papercomputeco/wellchat/pkg/metrics"
)

// Server serves chat sessions.
type Server struct {
	config    Config
	generator conversation.Generator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	server    *fiber.App

	mu       sync.Mutex
	sessions map[string]*conversation.Controller
}

// SessionResponse is a session's id and current state.
type SessionResponse struct {
	ID string `json:"id"`
	conversation.Snapshot
}

type textRequest struct {
	Text string `json:"text"`
}

// New creates a new Server. Every generation call is recorded in m.
func New(config Config, generator conversation.Generator, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if generator == nil {
		return nil, errors.New("server: generator is required")
	}
	if m == nil {
		m = metrics.New()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		generator: m.Instrument(generator),
		metrics:   m,
		logger:    logger,
		server:    app,
		sessions:  make(map[string]*conversation.Controller),
	}
	s.routes(app)

	return s, nil
}

func (s *Server) routes(app *fiber.App) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	// Session endpoints
	app.Post("/api/sessions", s.handleCreateSession)
	app.Get("/api/sessions/:id", s.handleGetSession)
	app.Delete("/api/sessions/:id", s.handleDeleteSession)
	app.Put("/api/sessions/:id/draft", s.handleUpdateDraft)
	app.Post("/api/sessions/:id/questions", s.handleSubmit)
	app.Post("/api/sessions/:id/suggestions", s.handleSelectSuggestion)
	app.Post("/api/sessions/:id/cancel", s.handleCancel)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server", zap.String("listen", s.config.ListenAddr))
	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting chat server", zap.String("listen", ln.Addr().String()))
	return s.server.Listener(ln)
}

// Shutdown stops accepting requests and closes every session.
func (s *Server) Shutdown() error {
	err := s.server.Shutdown()
	s.Close()
	return err
}

// Close discards all sessions, cancelling outstanding questions.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ctrl := range s.sessions {
		ctrl.Close()
		delete(s.sessions, id)
		s.metrics.SessionsActive.Dec()
	}
}

func (s *Server) newSession() (string, *conversation.Controller) {
	opts := []conversation.Option{conversation.WithLogger(s.logger)}
	if s.config.Suggestions != nil {
		opts = append(opts, conversation.WithSuggestions(s.config.Suggestions))
	}
	ctrl := conversation.New(s.generator, opts...)
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = ctrl
	s.mu.Unlock()

	s.metrics.SessionsCreated.Inc()
	s.metrics.SessionsActive.Inc()
	return id, ctrl
}

func (s *Server) session(id string) (*conversation.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.sessions[id]
	return ctrl, ok
}

func (s *Server) removeSession(id string) (*conversation.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctrl, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		s.metrics.SessionsActive.Dec()
	}
	return ctrl, ok
}

func sessionNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
}

// handleCreateSession starts an empty conversation.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	id, ctrl := s.newSession()
	s.logger.Debug("session created", zap.String("session", id))

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// handleGetSession returns the conversation, draft, pending flag and, while
// the conversation is empty, the suggestions.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	ctrl, ok := s.session(id)
	if !ok {
		return sessionNotFound(c)
	}

	return c.JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// handleDeleteSession is the exit affordance: the conversation is discarded.
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	ctrl, ok := s.removeSession(id)
	if !ok {
		return sessionNotFound(c)
	}
	ctrl.Close()
	s.logger.Debug("session discarded", zap.String("session", id))

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleUpdateDraft(c *fiber.Ctx) error {
	id := c.Params("id")
	ctrl, ok := s.session(id)
	if !ok {
		return sessionNotFound(c)
	}

	var req textRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}
	ctrl.UpdateDraft(req.Text)

	return c.JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	return s.ask(c, (*conversation.Controller).Submit)
}

func (s *Server) handleSelectSuggestion(c *fiber.Ctx) error {
	return s.ask(c, (*conversation.Controller).SelectSuggestion)
}

func (s *Server) handleCancel(c *fiber.Ctx) error {
	id := c.Params("id")
	ctrl, ok := s.session(id)
	if !ok {
		return sessionNotFound(c)
	}
	ctrl.Cancel()

	return c.JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// ask submits the request text through submit. The reply is 202 with the
// pending placeholder, or 200 with the settled answer when ?wait=true.
func (s *Server) ask(c *fiber.Ctx, submit func(*conversation.Controller, string) (*conversation.Reply, error)) error {
	id := c.Params("id")
	ctrl, ok := s.session(id)
	if !ok {
		return sessionNotFound(c)
	}

	var req textRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	reply, err := submit(ctrl, req.Text)
	switch {
	case errors.Is(err, conversation.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: "a question is already being answered"})
	case errors.Is(err, conversation.ErrClosed):
		return c.Status(fiber.StatusGone).JSON(llm.ErrorResponse{Error: "session closed"})
	case err != nil:
		s.logger.Error("submit failed", zap.String("session", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "internal error"})
	}

	// Blank input is a no-op.
	if reply == nil {
		return c.JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
	}

	s.logger.Debug("question submitted",
		zap.String("session", id),
		zap.String("question_preview", truncate(req.Text, 50)),
	)

	if c.Query("wait") != "true" {
		return c.Status(fiber.StatusAccepted).JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
	}

	if _, err := reply.Wait(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{Error: "server shutting down"})
	}

	return c.JSON(SessionResponse{ID: id, Snapshot: ctrl.Snapshot()})
}

// truncate flattens s to one line of at most maxLen cells for log previews.
func truncate(s string, maxLen int) string {
	return ansi.Truncate(strings.ReplaceAll(s, "\n", " "), maxLen, "...")
}
