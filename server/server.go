// Package server exposes the portfolio service over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/etnz/papertrade/common"
	"github.com/etnz/papertrade/service"
	"github.com/go-chi/chi/v5"
)

// Server routes HTTP requests to the portfolio service.
type Server struct {
	router *chi.Mux
	svc    *service.Service
	logger *common.Logger
}

// New creates a server with every route and middleware installed.
func New(svc *service.Service, logger *common.Logger) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Server{
		router: chi.NewRouter(),
		svc:    svc,
		logger: logger,
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	// Applied in order: the first one runs first.
	s.router.Use(
		recoveryMiddleware(s.logger),
		corsMiddleware,
		correlationIDMiddleware,
		loggingMiddleware(s.logger),
	)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/register", s.handleRegister)
	s.router.Post("/token", s.handleToken)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireUser)
		r.Post("/add-money", s.handleAddMoney)
		r.Post("/buy", s.handleBuy)
		r.Post("/sell", s.handleSell)
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/transactions", s.handleTransactions)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found", "not_found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "method_not_allowed")
	})
}

// NewHTTPServer returns an http.Server listening on cfg.
func NewHTTPServer(cfg common.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		Handler:           h,
	}
}
