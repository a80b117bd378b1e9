package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/descope/go-sdk/descope/client"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/cache"
	"github.com/rpupo63/portfolio-backend/chat"
	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/editor"
	"github.com/rpupo63/portfolio-backend/services"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg *config.Config, db database.Database, opts ...func(*router)) (Server, error) {
	// Capture startup time
	startupTime := time.Now()

	if cfg.DescopeProjectID != "" {
		descopeClient, err := client.NewWithConfig(&client.Config{ProjectID: cfg.DescopeProjectID})
		if err != nil {
			return Server{}, fmt.Errorf("creating descope client: %w", err)
		}
		opts = append(opts, withSessionValidator(descopeClient.Auth))
	}

	opts = append([]func(*router){WithStartupTime(startupTime)}, opts...)
	router := newRouter(cfg, db, opts...)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,  // Timeout for reading the entire request
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second, // Timeout for writing the response
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,  // Timeout for idle connections
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config      *config.Config
	startupTime time.Time
	cache       cache.Cache
	revalidator editor.Revalidator
	alerter     Alerter
	chat        *chat.Service
	github      *services.GitHubActivity
	markdown    *services.MarkdownRenderer
	sessions    sessionValidator
}

func WithStartupTime(startupTime time.Time) func(*router) {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

// WithCache enables the public page cache.
func WithCache(c cache.Cache) func(*router) {
	return func(r *router) {
		r.cache = c
	}
}

func WithRevalidator(revalidator *services.Revalidator) func(*router) {
	return func(r *router) {
		if revalidator != nil {
			r.revalidator = revalidator
		}
	}
}

// WithNotifier mails unexpected server errors to the developer.
func WithNotifier(notifier *services.Notifier) func(*router) {
	return func(r *router) {
		if notifier != nil && notifier.Enabled() {
			r.alerter = notifier
		}
	}
}

func WithChatService(service *chat.Service) func(*router) {
	return func(r *router) {
		r.chat = service
	}
}

func WithGitHubActivity(github *services.GitHubActivity) func(*router) {
	return func(r *router) {
		r.github = github
	}
}

func withSessionValidator(sessions sessionValidator) func(*router) {
	return func(r *router) {
		r.sessions = sessions
	}
}

func newRouter(cfg *config.Config, db database.Database, opts ...func(*router)) *chi.Mux {
	router := router{config: cfg, markdown: services.NewMarkdownRenderer()}
	for _, opt := range opts {
		opt(&router)
	}
	if router.startupTime.IsZero() {
		router.startupTime = time.Now()
	}

	chiRouter := chi.NewRouter()
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(requestTokenMiddleware)

	// Initialize all handlers
	handlers := initializeHandlers(db, router)

	// Admin routes are open only in development when no auth is configured
	open := cfg.IsDevelopment() && !cfg.AuthEnabled()
	authMiddleware := newAuthMiddleware(cfg.AuthJWTSecret, router.sessions, cfg.LoginURL, open)

	// Apply CORS middleware
	chiRouter.Use(CORSCheckMiddleware(cfg.AcceptedOrigins))
	chiRouter.Use(corsMiddleware(cfg.AcceptedOrigins))
	chiRouter.Use(ColoredHTTPLoggingMiddleware(cfg.IsDevelopment()))

	chiRouter.NotFound(handlers.siteHandler.notFound())
	chiRouter.MethodNotAllowed(handlers.siteHandler.methodNotAllowed())

	// validated when the config was parsed
	proxies, _ := cfg.TrustedProxyNets()
	chatLimit := rateLimitMiddleware(newClientRateLimiter(cfg.ChatRPS, cfg.ChatBurst), proxies, "chat")
	setupPublicRoutes(chiRouter, handlers, pageCacheMiddleware(router.cache, cfg.CacheTTL), chatLimit)
	setupAdminRoutes(chiRouter, handlers, authMiddleware)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
