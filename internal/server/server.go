package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongminglow/expense-api/internal/auth"
	"github.com/hongminglow/expense-api/internal/config"
	"github.com/hongminglow/expense-api/internal/events"
	"github.com/hongminglow/expense-api/internal/expenses"
	"github.com/hongminglow/expense-api/internal/http/handlers"
	"github.com/hongminglow/expense-api/internal/middleware"
	"github.com/hongminglow/expense-api/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, publisher events.Publisher, logger zerolog.Logger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, publisher, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler with the full middleware chain.
func NewHandler(cfg config.Config, store storage.Store, publisher events.Publisher, logger zerolog.Logger) http.Handler {
	debug := cfg.IsDevelopment()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	users := auth.NewDirectory(store)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(auth.NewService(users, tokens), debug).Register(mux)
	handlers.NewExpenseHandler(
		expenses.NewService(store, publisher),
		auth.NewGuard(tokens, users),
		debug,
	).Register(mux)

	return middleware.Logging(logger, middleware.Recover(debug, middleware.CORS(cfg.CORSOrigins, mux)))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
