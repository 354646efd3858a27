// Package server wires handlers, middleware and routes into the HTTP API.
// It is the composition root: the backend client, rate limiter, services and
// handlers are all assembled here and nowhere else.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/blogia/internal/auth"
	"github.com/sakif/blogia/internal/handler"
	"github.com/sakif/blogia/internal/middleware"
	"github.com/sakif/blogia/internal/ratelimit"
	"github.com/sakif/blogia/internal/service"
	"github.com/sakif/blogia/internal/supabase"
)

// Config holds server configuration.
type Config struct {
	Port      int
	Supabase  supabase.Config
	JWTSecret string
}

// Server owns the router and the shared infrastructure behind it.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	limiter *ratelimit.Limiter
}

// New creates a Server and assembles the full dependency chain: backend
// client → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		limiter: ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultMaxRequests),
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	backend := supabase.New(s.config.Supabase)
	if !backend.Configured() {
		// The server still starts: every backend call returns the
		// configuration error so the problem is obvious, not a panic.
		s.logger.Warn("backend credentials missing or malformed, API calls will fail until configured")
	}

	verifier, err := auth.NewTokenVerifier(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token verifier: %w", err)
	}

	profileService := service.NewProfileService(backend, s.limiter, s.logger)
	authService := service.NewAuthService(backend, s.limiter, profileService, s.logger)
	postService := service.NewPostService(backend, s.limiter, s.logger)
	commentService := service.NewCommentService(backend, s.limiter, s.logger)
	engagementService := service.NewEngagementService(backend, s.limiter, s.logger)
	imageService := service.NewImageService(backend, s.limiter, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	postHandler := handler.NewPostHandler(postService, engagementService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	engagementHandler := handler.NewEngagementHandler(engagementService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	uploadHandler := handler.NewUploadHandler(imageService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Auth endpoints take credentials, not tokens.
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)

		// Public reads. OptionalAuth lets signed-in readers see their own
		// drafts and their liked/bookmarked flags.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(verifier))
			r.Get("/posts", postHandler.HandleList)
			r.Get("/posts/{id}", postHandler.HandleGet)
			r.Get("/posts/{id}/comments", commentHandler.HandleList)
			r.Get("/profiles/{id}", profileHandler.HandleGet)
		})

		// Everything that writes requires a verified identity.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(verifier))
			r.Post("/auth/logout", authHandler.HandleLogout)

			r.Post("/posts", postHandler.HandleCreate)
			r.Patch("/posts/{id}", postHandler.HandleUpdate)
			r.Delete("/posts/{id}", postHandler.HandleDelete)

			r.Post("/posts/{id}/comments", commentHandler.HandleAdd)
			r.Delete("/comments/{id}", commentHandler.HandleDelete)

			r.Post("/posts/{id}/like", engagementHandler.HandleToggleLike)
			r.Post("/posts/{id}/bookmark", engagementHandler.HandleToggleBookmark)
			r.Get("/bookmarks", engagementHandler.HandleListBookmarks)

			r.Get("/me", profileHandler.HandleMe)
			r.Patch("/me", profileHandler.HandleUpdate)

			r.Post("/images", uploadHandler.HandleUpload)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, stop the
// limiter janitor.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	janitorStop := make(chan struct{})
	s.limiter.StartJanitor(5*time.Minute, janitorStop)
	defer close(janitorStop)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.Bool("backendConfigured", s.config.Supabase.IsConfigured()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
