package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"vibewatch/api"
	"vibewatch/config"
	"vibewatch/handlers"
	"vibewatch/services/history"
	"vibewatch/services/kvstore"
	"vibewatch/services/metadata"
	"vibewatch/services/playback"
	"vibewatch/services/recommend"
	"vibewatch/services/scraper"
	"vibewatch/services/watchlist"
	"vibewatch/utils/httpclient"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 vibewatch backend starting...")

	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[main] could not read .env: %v", err)
	}

	configPath := os.Getenv("VIBEWATCH_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	settings.ApplyEnv()

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	ctx := context.Background()

	if dir := filepath.Dir(settings.Database.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("failed to create database directory %s: %v", dir, err)
		}
	}
	store, err := kvstore.OpenSQLite(ctx, settings.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	historySvc, err := history.NewService(store)
	if err != nil {
		log.Fatalf("failed to init history service: %v", err)
	}
	listSvc, err := watchlist.NewService(store)
	if err != nil {
		log.Fatalf("failed to init watchlist service: %v", err)
	}

	metadataTimeout := time.Duration(settings.Metadata.TimeoutSeconds) * time.Second
	metadataSvc := metadata.NewService(metadata.Config{
		BaseURL:  settings.Metadata.BaseURL,
		APIKey:   settings.Metadata.APIKey,
		Language: settings.Metadata.Language,
	}, httpclient.MustNew(metadataTimeout, settings.Network.ProxyURL))

	var generator recommend.TextGenerator
	if settings.Recommendations.Enabled {
		generator = recommend.NewChatClient(
			settings.Recommendations.BaseURL,
			settings.Recommendations.APIKey,
			settings.Recommendations.Model,
			httpclient.MustNew(60*time.Second, settings.Network.ProxyURL),
		)
	}
	recommendSvc := recommend.NewService(generator, metadataSvc)

	playbackSvc := playback.NewService(
		settings.Playback.EmbedBaseURL,
		httpclient.MustNew(15*time.Second, settings.Network.ProxyURL),
	)

	registry := scraper.BuildFromConfig(settings)

	slog.Info("startup configuration",
		"config", cfgManager.Path(),
		"database", settings.Database.Path,
		"scrapers", registry.AvailableSources(),
		"metadataLanguage", metadataSvc.Language(),
		"recommendations", recommendSvc.Enabled(),
		"proxy", settings.Network.ProxyURL != "",
	)
	if registry.Len() == 0 {
		slog.Warn("no torrent scrapers enabled; searches will return nothing", "config", cfgManager.Path())
	}

	torrentsHandler := handlers.NewTorrentsHandler(registry, historySvc, playbackSvc)
	settingsHandler := handlers.NewSettingsHandler(cfgManager)
	settingsHandler.SetTorrentsHandler(torrentsHandler)
	settingsHandler.SetMetadataCache(metadataSvc)

	r := mux.NewRouter()
	api.Register(r, api.Handlers{
		Settings:        settingsHandler,
		Torrents:        torrentsHandler,
		Metadata:        handlers.NewMetadataHandler(metadataSvc),
		History:         handlers.NewHistoryHandler(historySvc),
		Lists:           handlers.NewListsHandler(listSvc),
		Recommendations: handlers.NewRecommendationsHandler(recommendSvc),
		Playback:        handlers.NewPlaybackHandler(playbackSvc),
	})

	addr := settings.Server.Addr()
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
