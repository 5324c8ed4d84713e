package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/s376930/Chat-Arena/internal/ai"
	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/internal/conversation"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/persona"
	"github.com/s376930/Chat-Arena/internal/provider"
	"github.com/s376930/Chat-Arena/internal/server"
	"github.com/s376930/Chat-Arena/internal/storage"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the arena server",
	Long: `Start the Chat-Arena server.

The server exposes the participant websocket on /ws and the admin
REST API under /api.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Pick up API keys from a local .env before the config layer reads the
	// environment.
	_ = godotenv.Load()

	appConfig, err := loadConfig()
	if err != nil {
		return err
	}

	if servePort != 0 {
		appConfig.Server.Port = servePort
	}
	if serveHost != "" {
		appConfig.Server.Host = serveHost
	}

	logging.Info().
		Str("version", Version).
		Str("data_dir", appConfig.Data.Dir).
		Msg("starting arena server")

	store := storage.New(appConfig.Data.Dir)
	cat := catalog.New(store)
	conversations := conversation.NewLog(store)

	watcher, err := catalog.NewWatcher(appConfig.Data.Dir, cat)
	if err != nil {
		logging.Warn().Err(err).Msg("catalog file watching disabled")
	} else {
		watcher.Start()
	}

	ctx := context.Background()
	providers := provider.InitializeProviders(ctx, appConfig)

	var aiReg *ai.Registry
	if appConfig.AI.Enabled {
		personas := persona.NewRegistry()
		if appConfig.AI.PersonasFile != "" {
			if err := personas.LoadFile(appConfig.AI.PersonasFile); err != nil {
				logging.Warn().Err(err).Str("path", appConfig.AI.PersonasFile).Msg("failed to load personas file")
			}
		}
		aiReg = ai.NewRegistry(appConfig.AI, providers, personas)
	}

	srv := server.New(server.ConfigFrom(appConfig), appConfig, cat, conversations, providers, aiReg)

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	if aiReg != nil {
		aiReg.Shutdown(shutdownCtx)
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logging.Warn().Err(err).Msg("catalog watcher stop error")
		}
	}

	logging.Info().Msg("server stopped")
	return nil
}
