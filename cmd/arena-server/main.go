// Package main provides the entry point for the Chat-Arena server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/s376930/Chat-Arena/internal/ai"
	"github.com/s376930/Chat-Arena/internal/catalog"
	"github.com/s376930/Chat-Arena/internal/config"
	"github.com/s376930/Chat-Arena/internal/conversation"
	"github.com/s376930/Chat-Arena/internal/logging"
	"github.com/s376930/Chat-Arena/internal/persona"
	"github.com/s376930/Chat-Arena/internal/provider"
	"github.com/s376930/Chat-Arena/internal/server"
	"github.com/s376930/Chat-Arena/internal/storage"
)

var (
	port       = flag.Int("port", 0, "Server port (overrides config)")
	host       = flag.String("host", "", "Listen address (overrides config)")
	dataDir    = flag.String("data", "", "Data directory (overrides config)")
	configFile = flag.String("config", "", "Path to a configuration file")
	logLevel   = flag.String("log-level", "", "Log level (debug|info|warn|error)")
	pretty     = flag.Bool("pretty", false, "Human-readable console logs")
	version    = flag.Bool("version", false, "Print version and exit")
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("arena-server %s (%s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Pick up API keys from a local .env before the config layer reads the
	// environment.
	_ = godotenv.Load()

	logging.Init(logging.Config{Level: resolveLogLevel(*logLevel), Pretty: *pretty})

	workDir, err := os.Getwd()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to get working directory")
	}

	appConfig, err := config.LoadWith(workDir, *configFile)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Flags win over config file and environment.
	if *port != 0 {
		appConfig.Server.Port = *port
	}
	if *host != "" {
		appConfig.Server.Host = *host
	}
	if *dataDir != "" {
		appConfig.Data.Dir = *dataDir
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

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down server")

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
}

// resolveLogLevel prefers the flag, then the LOG_LEVEL environment variable.
func resolveLogLevel(flagLevel string) string {
	if flagLevel != "" {
		return flagLevel
	}
	return os.Getenv("LOG_LEVEL")
}
