// Package server provides the HTTP and WebSocket front end of the arena.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/s376930/Chat-Arena/internal/ai"
	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/internal/conversation"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/pairing"
	"github.com/s376930/Chat-Arena/internal/provider"
	"github.com/s376930/Chat-Arena/internal/session"
	"github.com/s376930/Chat-Arena/pkg/types"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Host          string
	Port          int
	EnableCORS    bool
	AdminPassword string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        8000,
		EnableCORS:  true,
		ReadTimeout: 30 * time.Second,
		// No write timeout: SSE and websocket streams stay open.
		WriteTimeout: 0,
	}
}

// ConfigFrom builds a server Config from the application configuration.
func ConfigFrom(appConfig *types.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	if appConfig.Server.Host != "" {
		cfg.Host = appConfig.Server.Host
	}
	if appConfig.Server.Port > 0 {
		cfg.Port = appConfig.Server.Port
	}
	cfg.EnableCORS = appConfig.Server.EnableCORS
	cfg.AdminPassword = appConfig.Server.AdminPassword
	return cfg
}

// Server is the HTTP server. It owns the session table and the pairing
// engine; the REST surface, the SSE feed and the websocket dispatcher all
// hang off its router.
type Server struct {
	config  *Config
	router  *chi.Mux
	httpSrv *http.Server
	log     zerolog.Logger

	table         *session.Table
	queue         *pairing.Queue
	pairer        *pairing.Pairer
	evictor       *pairing.Evictor
	catalog       *catalog.Store
	conversations *conversation.Log
	providers     *provider.Registry
	ai            *ai.Registry

	minThinkChars int
	startedAt     time.Time
}

// New creates a new Server instance and wires the chat engine over the given
// collaborators. aiReg may be nil, which disables the AI fallback entirely.
func New(cfg *Config, appConfig *types.Config, cat *catalog.Store, conversations *conversation.Log, providers *provider.Registry, aiReg *ai.Registry) *Server {
	r := chi.NewRouter()

	table := session.NewTable()
	queue := pairing.NewQueue(appConfig.Pairing.Delay())

	// A nil *ai.Registry must stay a nil interface inside the pairer.
	var aiFallback pairing.AI
	if aiReg != nil {
		aiFallback = aiReg
	}
	pairer := pairing.New(table, queue, cat, conversations, aiFallback, appConfig)

	s := &Server{
		config:        cfg,
		router:        r,
		log:           logging.Component("server"),
		table:         table,
		queue:         queue,
		pairer:        pairer,
		evictor:       pairing.NewEvictor(table, pairer, appConfig),
		catalog:       cat,
		conversations: conversations,
		providers:     providers,
		ai:            aiReg,
		minThinkChars: appConfig.Chat.MinThinkChars,
		startedAt:     time.Now(),
	}

	// Finished AI replies come back through the registry callback and are
	// delivered to the human partner here.
	if aiReg != nil {
		aiReg.OnMessage(s.deliverAIMessage)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RealIP)

	if s.config.EnableCORS {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Admin-Password"},
			ExposedHeaders:   []string{"Link", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
}

// Start launches the inactivity evictor and serves HTTP until the listener
// closes.
func (s *Server) Start() error {
	s.evictor.Start()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.evictor.Stop()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
