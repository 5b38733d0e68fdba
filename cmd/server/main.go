package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/auth"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/config"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/database"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/executor"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/gateway"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/monitor"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/notify"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/scanner"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/session"
	"github.com/Sribabu-Mandraju/polymarket-bot/internal/sizing"
	"github.com/Sribabu-Mandraju/polymarket-bot/pkg/middleware"
	"github.com/Sribabu-Mandraju/polymarket-bot/pkg/response"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main wires the trading pipeline and runs the API server with graceful
// shutdown. The durable store being unreachable at boot is the only
// process-fatal condition; runtime failures stay session/market scoped.
func main() {
	cfg := config.Load()

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Pipeline context: cancelled on shutdown so every loop exits at its
	// next iteration boundary.
	pipelineCtx, pipelineCancel := context.WithCancel(context.Background())
	defer pipelineCancel()

	// Notification sink: Telegram when a token is configured, log otherwise.
	var sink notify.Sink = notify.LogSink{}
	if cfg.TelegramBotToken != "" {
		sink = notify.NewTelegramSink(cfg.TelegramBotToken)
	}

	// Trading pipeline
	gw := gateway.NewClient(cfg.ClobHost)
	resolver := sizing.NewResolver(gw)
	orders := executor.New(gw, resolver, sink)

	sessionService := session.NewService(db, session.Defaults{
		PriceThreshold:  cfg.PriceThreshold,
		MaxOrderSize:    cfg.MaxOrderSize,
		SellTargetPrice: cfg.SellTargetPrice,
		AutoOrder:       cfg.AutoOrder,
	})

	scan := scanner.New(sessionService, gw, orders, sink, cfg.ScanInterval, cfg.ScanOutcome)
	scanSupervisor := scanner.NewSupervisor(pipelineCtx, scan)
	scanSupervisor.ResumeActive()

	watches := monitor.New(gw, sink, cfg.MonitorInterval, cfg.MonitorDuration)
	watchSupervisor := monitor.NewSupervisor(pipelineCtx, watches)

	// Auth for the chat front-end collaborator
	authService := auth.NewService(cfg.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	if key := os.Getenv("API_KEY"); key != "" {
		authService.RegisterAPICredentials(key, os.Getenv("API_SECRET"))
	}

	sessionHandlers := session.NewGinHandlers(sessionService, scanSupervisor)
	monitorHandlers := monitor.NewGinHandlers(watchSupervisor)

	router := gin.Default()
	router.Use(middleware.RateLimit())
	setupRoutes(router, cfg, sessionService, authHandlers, sessionHandlers, monitorHandlers)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down...")

	// Stop all polling loops before the API goes away
	pipelineCancel()
	scanSupervisor.StopAll()
	watchSupervisor.StopAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers:
// - Auth routes: public token issuance for the front-end
// - Session routes: JWT-protected configuration and scan/monitor control
// - Status routes: public health and bot status
func setupRoutes(
	router *gin.Engine,
	cfg config.Config,
	sessions *session.Service,
	authHandlers *auth.GinHandlers,
	sessionHandlers *session.GinHandlers,
	monitorHandlers *monitor.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			response.Success(c, gin.H{"status": "ok"})
		})

		v1.GET("/status", func(c *gin.Context) {
			active, err := sessions.ListActive()
			if err != nil {
				response.InternalError(c, err.Error())
				return
			}
			response.Success(c, gin.H{
				"active_sessions":       len(active),
				"scan_interval_seconds": int(cfg.ScanInterval / time.Second),
				"scan_outcome":          cfg.ScanOutcome,
			})
		})

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		sessionGroup := v1.Group("/sessions")
		sessionGroup.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			sessionGroup.GET("/:session_id/config", sessionHandlers.GetConfigHandler())
			sessionGroup.PUT("/:session_id/config", sessionHandlers.SetConfigHandler())
			sessionGroup.POST("/:session_id/scan/start", sessionHandlers.StartScanHandler())
			sessionGroup.POST("/:session_id/scan/stop", sessionHandlers.StopScanHandler())
			sessionGroup.POST("/:session_id/monitor/start", monitorHandlers.StartWatchHandler())
			sessionGroup.POST("/:session_id/monitor/stop", monitorHandlers.StopWatchHandler())
		}
	}
}
