package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"flixhaven/api"
	"flixhaven/config"
	"flixhaven/handlers"
	"flixhaven/internal/database"
	"flixhaven/services/catalog"
	"flixhaven/services/playback"
	syncsvc "flixhaven/services/sync"
	"flixhaven/utils"
)

func main() {
	settingsPath := flag.String("settings", "data/settings.json", "path to the settings file")
	flag.Parse()

	configManager := config.NewManager(*settingsPath)
	settings, err := configManager.Load()
	if err != nil {
		log.Fatalf("[main] Failed to load settings: %v", err)
	}

	if settings.Server.LogPath != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   settings.Server.LogPath,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		})
	}

	db, err := database.Open(settings.Database.Path)
	if err != nil {
		log.Fatalf("[main] Failed to open database: %v", err)
	}
	defer db.Close()

	repo := database.NewMediaRepository(db)

	catalogClient := catalog.NewClient(settings.Catalog.BaseURL, &http.Client{
		Timeout: time.Duration(settings.Catalog.TimeoutSeconds) * time.Second,
	})
	syncService := syncsvc.NewService(catalogClient, repo, settings.Sync.BatchSize, configManager)
	playbackService := playback.NewService(repo, settings.Proxy.BasePath)

	cronHandler := handlers.NewCronHandler(syncService, settings.CronSecret(), settings.Sync.WorkerBaseURL)
	playbackHandler := handlers.NewPlaybackHandler(playbackService)
	proxyHandler := handlers.NewProxyHandler()
	versionHandler := handlers.NewVersionHandler()

	// 120 req/min per IP covers HLS segment traffic through the proxy while
	// still capping abusive players.
	streamLimiter := api.NewIPRateLimiter(rate.Every(500*time.Millisecond), 120)

	router := utils.NewRouter(settings.Server.AllowedOrigins)
	router.HandleFunc("/cron-trigger", cronHandler.Trigger).Methods(http.MethodGet)
	router.HandleFunc("/run-cron", cronHandler.Run).Methods(http.MethodGet)
	router.HandleFunc("/stop-cron", cronHandler.Stop).Methods(http.MethodGet)
	router.HandleFunc("/sync-status", cronHandler.SyncStatus).Methods(http.MethodGet)
	router.HandleFunc("/version", versionHandler.GetVersion).Methods(http.MethodGet)
	router.HandleFunc("/api/watch/{kind}/{id}", api.RateLimitHandlerFunc(streamLimiter, playbackHandler.Watch)).Methods(http.MethodGet)
	router.HandleFunc("/api/proxy", api.RateLimitHandlerFunc(streamLimiter, proxyHandler.Fetch)).Methods(http.MethodGet)

	server := &http.Server{
		Addr:              settings.Server.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] Listening on %s", settings.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] Shutting down")
	syncService.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[main] Shutdown error: %v", err)
	}
}
