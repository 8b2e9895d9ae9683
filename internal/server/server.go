// Package server sets up the HTTP server, router and route definitions.
//
// This package is the composition root: it receives an opened store and wires
// services, handlers and middleware around it. It does not open or close the
// store; the caller owns its lifetime.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/sakif/starwars-api/internal/auth"
	"github.com/sakif/starwars-api/internal/handler"
	"github.com/sakif/starwars-api/internal/middleware"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository"
	"github.com/sakif/starwars-api/internal/service"
)

// Store is everything the API needs from persistence. *sqldb.DB satisfies it.
type Store interface {
	repository.CatalogRepository
	repository.UserRepository
	repository.FavoriteRepository
	handler.Pinger
}

// Config holds server configuration.
type Config struct {
	Port            int
	CurrentUserID   int64
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Server represents the HTTP server and its router.
type Server struct {
	router *chi.Mux
	routes *handler.RouteIndex
	config Config
	logger *slog.Logger
}

// New wires the dependency chain and registers every route:
//
//	Store → CatalogService / UserService / FavoriteService → handlers → router
func New(cfg Config, store Store, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(store)
	return s
}

// setupRoutes configures middleware and handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                         → route index (JSON)
//	GET    /healthz                  → store reachability
//	GET    /character                → list characters
//	GET    /character/{id}           → get character
//	GET    /planet                   → list planets
//	GET    /planet/{id}              → get planet
//	GET    /user                     → list users
//	GET    /user/{id}                → get user
//	GET    /user/favorite            → favorites of every user
//	GET    /user/{id}/favorite       → favorites of one user
//	POST   /favorite/character/{id}  → add character favorite
//	POST   /favorite/planet/{id}     → add planet favorite
//	DELETE /favorite/character/{id}  → remove character favorite
//	DELETE /favorite/planet/{id}     → remove planet favorite
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs before Logger so every log line carries the id. StripSlashes
// makes "/planet/" and "/planet" the same route. CORS answers preflight
// requests before routing. WithCurrentUser attaches the caller identity.
//
// Unknown paths, unknown favorite kinds, wrong methods and recovered panics
// all answer with the same JSON error body as the handlers.
func (s *Server) setupRoutes(store Store) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recoverer(s.logger))
	s.router.Use(chimiddleware.StripSlashes)
	s.router.Use(s.cors().Handler)
	s.router.Use(auth.WithCurrentUser(s.config.CurrentUserID))

	s.router.NotFound(handler.HandleNotFound)
	s.router.MethodNotAllowed(handler.HandleMethodNotAllowed)

	catalogService := service.NewCatalogService(store, s.logger)
	userService := service.NewUserService(store, s.logger)
	favoriteService := service.NewFavoriteService(store, store, store, s.logger)

	catalogHandler := handler.NewCatalogHandler(catalogService, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService, s.logger)
	healthHandler := handler.NewHealthHandler(store, s.logger)
	s.routes = handler.NewRouteIndex(s.router, s.logger)

	s.router.Get("/", s.routes.HandleIndex)
	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Get("/character", catalogHandler.HandleListCharacters)
	s.router.Get("/character/{id}", catalogHandler.HandleGetCharacter)
	s.router.Get("/planet", catalogHandler.HandleListPlanets)
	s.router.Get("/planet/{id}", catalogHandler.HandleGetPlanet)

	// Static segments win over {id} in chi, so /user/favorite never reaches
	// the user lookup.
	s.router.Get("/user", userHandler.HandleList)
	s.router.Get("/user/favorite", favoriteHandler.HandleListAll)
	s.router.Get("/user/{id}", userHandler.HandleGet)
	s.router.Get("/user/{id}/favorite", favoriteHandler.HandleListForUser)

	for _, kind := range []model.Kind{model.KindCharacter, model.KindPlanet} {
		path := "/favorite/" + kind.String() + "/{id}"
		s.router.Post(path, favoriteHandler.HandleAdd(kind))
		s.router.Delete(path, favoriteHandler.HandleRemove(kind))
	}
}

// cors builds the CORS middleware. A "*" entry allows any origin.
func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

// Handler returns the fully wired router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes lists every registered route.
func (s *Server) Routes() ([]handler.Route, error) {
	return s.routes.Routes()
}

// Start serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully:
//  1. stop accepting new connections
//  2. wait up to ShutdownTimeout for in-flight requests
//
// Every favorites write runs in its own transaction, so requests cut off by
// the timeout roll back instead of leaving partial rows.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.Int64("current_user_id", s.config.CurrentUserID),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
