// Package server wires stores, services, and handlers into the HTTP router.
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/helpline/internal/email"
	"github.com/dukerupert/helpline/internal/handler"
	"github.com/dukerupert/helpline/internal/helprequest"
	"github.com/dukerupert/helpline/internal/middleware"
	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/pairing"
	"github.com/dukerupert/helpline/internal/realtime"
	"github.com/dukerupert/helpline/internal/store"
	"github.com/dukerupert/helpline/internal/token"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type Options struct {
	Token          token.Config
	ResetTTL       time.Duration
	Mailer         *email.Client
	AllowedOrigins []string
}

type Server struct {
	hub          *realtime.Hub
	tokens       *token.Service
	authH        *handler.AuthHandler
	connectionH  *handler.ConnectionHandler
	helpRequestH *handler.HelpRequestHandler
	resetStore   *store.PasswordResetStore
	rateLimiter  *middleware.RateLimiter
	wsOptions    realtime.HandlerOptions
	logger       *slog.Logger
}

func New(db *sql.DB, opts Options, logger *slog.Logger) (*Server, error) {
	accountStore := store.NewAccountStore(db)
	linkStore := store.NewLinkStore(db)
	helpRequestStore := store.NewHelpRequestStore(db)
	resetStore := store.NewPasswordResetStore(db)

	tokens, err := token.NewService(opts.Token, accountStore)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	hub := realtime.NewHub(tokens, logger.With("component", "realtime"))
	resolver := pairing.NewResolver(accountStore, linkStore, hub, logger.With("component", "pairing"))
	helpSvc := helprequest.NewService(helpRequestStore, linkStore, hub, logger.With("component", "help_request"))

	return &Server{
		hub:          hub,
		tokens:       tokens,
		authH:        handler.NewAuthHandler(accountStore, resetStore, resolver, tokens, opts.Mailer, opts.ResetTTL, logger.With("component", "auth")),
		connectionH:  handler.NewConnectionHandler(resolver, linkStore, logger.With("component", "connection")),
		helpRequestH: handler.NewHelpRequestHandler(helpSvc, logger.With("component", "help_request")),
		resetStore:   resetStore,
		rateLimiter:  middleware.NewRateLimiter(),
		wsOptions:    realtime.HandlerOptions{OriginPatterns: opts.AllowedOrigins},
		logger:       logger,
	}, nil
}

// Hub returns the realtime hub for shutdown.
func (s *Server) Hub() *realtime.Hub {
	return s.hub
}

// PasswordResetStore returns the reset store for cleanup tasks.
func (s *Server) PasswordResetStore() *store.PasswordResetStore {
	return s.resetStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /auth/signup", s.rateLimitedHandler(s.authH.Signup))
	outerMux.HandleFunc("POST /auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /auth/password-reset", s.rateLimitedHandler(s.authH.RequestPasswordReset))
	outerMux.HandleFunc("POST /auth/password-reset/confirm", s.rateLimitedHandler(s.authH.ConfirmPasswordReset))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// The websocket handshake verifies its own credential.
	outerMux.HandleFunc("GET /ws", realtime.HandleWebSocket(s.hub, s.wsOptions))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireAuth(s.tokens)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	supervisors := middleware.RequireRole(model.RoleSupervisor, model.RoleEducator)
	dependents := middleware.RequireRole(model.RoleDependent)

	mux.HandleFunc("GET /me", s.authH.Me)

	mux.Handle("POST /connections/by-student-code", supervisors(http.HandlerFunc(s.connectionH.ByStudentCode)))
	mux.Handle("POST /connections/by-caregiver-code", dependents(http.HandlerFunc(s.connectionH.ByCaregiverCode)))
	mux.HandleFunc("GET /connections", s.connectionH.List)
	mux.HandleFunc("PATCH /connections/{id}", s.connectionH.UpdateStatus)

	mux.Handle("POST /help-requests", dependents(http.HandlerFunc(s.helpRequestH.Create)))
	mux.HandleFunc("GET /help-requests", s.helpRequestH.List)
	mux.HandleFunc("GET /help-requests/{id}", s.helpRequestH.Get)
	mux.Handle("PATCH /help-requests/{id}", supervisors(http.HandlerFunc(s.helpRequestH.Update)))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.hub.SessionCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIPAndPath, authRateLimit, authRateWindow)
	return rl(h).ServeHTTP
}
