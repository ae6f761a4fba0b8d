package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"norelock.dev/listenify/grabber/internal/api"
	"norelock.dev/listenify/grabber/internal/api/handlers"
	"norelock.dev/listenify/grabber/internal/cache"
	"norelock.dev/listenify/grabber/internal/config"
	"norelock.dev/listenify/grabber/internal/db/redis"
	"norelock.dev/listenify/grabber/internal/services/delivery"
	"norelock.dev/listenify/grabber/internal/services/media"
	"norelock.dev/listenify/grabber/internal/services/selection"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/transcode"
	"norelock.dev/listenify/grabber/internal/utils"
	"norelock.dev/listenify/grabber/pkg/mediaproxy"
)

func main() {
	// Create a context that will be canceled on interrupt signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("Received shutdown signal")
		cancel()
	}()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := utils.NewLogger(utils.LoggerOptions{
		Development:      cfg.Environment == "development",
		Level:            utils.ParseLevel(cfg.Logging.Level),
		Format:           cfg.Logging.Format,
		OutputPaths:      cfg.Logging.OutputPaths,
		ErrorOutputPaths: cfg.Logging.ErrorOutputPaths,
	})
	defer logger.Sync()
	utils.GlobalLogger = logger

	logger.Info("Starting grabber server", "environment", cfg.Environment)
	logger.Debug("Configuration loaded\n" + config.GetConfigString(cfg))

	metrics := system.NewMetricsService(logger)

	// Initialize the result cache
	var checkers []system.Checker
	var resultCache cache.ResultCache
	switch cfg.Cache.Driver {
	case config.CacheRedis:
		redisClient, err := redis.NewClient(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer redisClient.Close()

		redisCache := redis.NewResultCache(redisClient, cfg.Cache.KeyPrefix, cfg.Cache.TTL)
		resultCache = redisCache
		checkers = append(checkers, system.Checker{Name: "redis", Check: redisCache.Ping, Critical: true})
	default:
		resultCache = cache.NewMemoryCache(cfg.Cache.MaxEntries)
	}
	logger.Info("Result cache ready", "driver", resultCache.Name())

	// Initialize media providers
	httpClient := &http.Client{}

	var searchProvider media.SearchProvider
	switch cfg.ResolvedSearchProvider() {
	case config.SearchYouTubeAPI:
		searchProvider = media.NewYouTubeAPIProvider(cfg.Media.YouTubeAPIKey, logger)
	default:
		searchProvider = media.NewScrapeSearchProvider(logger)
	}
	logger.Info("Search provider ready", "provider", searchProvider.GetType())

	metadataProvider := media.NewYouTubeMetadataProvider(httpClient, logger)

	searchService := media.NewSearchService(searchProvider, metadataProvider, resultCache, metrics, logger,
		media.SearchServiceConfig{
			Limit:           cfg.Media.SearchLimit,
			UpstreamTimeout: cfg.Media.UpstreamTimeout,
		})

	// Initialize delivery
	ffmpeg := transcode.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.AudioBitrate, logger)
	if cfg.Media.Delivery == config.DeliveryStream {
		if err := ffmpeg.Check(ctx); err != nil {
			logger.Warn("ffmpeg not found; audio downloads will fail until it is installed", "path", cfg.Media.FFmpegPath)
		}
		checkers = append(checkers, system.Checker{Name: "ffmpeg", Check: ffmpeg.Check})
	}

	streamer := delivery.NewStreamer(mediaproxy.NewMediaProxy(mediaproxy.WithHTTPClient(httpClient)), ffmpeg, metrics, logger)

	flow := selection.NewFlow(searchService, logger)
	mediaHandler := handlers.NewMediaHandler(flow, searchService, streamer, cfg.Media.Delivery, metrics, logger)

	// Initialize system services
	healthService := system.NewHealthService(logger, system.HealthServiceConfig{
		Version:     "1.0.0",
		Environment: cfg.Environment,
	}, checkers...)
	healthService.Start(ctx)

	// Initialize API router
	router := api.NewRouter(mediaHandler, healthService, metrics, cfg, logger)

	// Create HTTP server for API
	apiAddr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:         apiAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start HTTP server for API
	go func() {
		logger.Info("Server is running", "address", apiAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("Shutting down server")

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// In-flight streams are cut off when the deadline passes
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
		_ = server.Close()
	}

	logger.Info("Server shutdown complete")
}
