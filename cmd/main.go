package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/satriahrh/juru/server/internal/api"
	"github.com/satriahrh/juru/server/internal/config"
	"github.com/satriahrh/juru/server/internal/metrics"
	"github.com/satriahrh/juru/server/internal/registry"
	"github.com/satriahrh/juru/server/internal/websocket"
	"github.com/satriahrh/juru/server/usecase"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		// No logger yet
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Invalid configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(promRegistry)

	// Initialize adapters
	speechToText, err := newSpeechToText(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech-to-text", zap.Error(err))
	}
	if closer, ok := speechToText.(io.Closer); ok {
		defer closer.Close()
	}
	translator, err := newTranslator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize translator", zap.Error(err))
	}
	callControl, err := newCallControl(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize telephony", zap.Error(err))
	}

	// Initialize relay
	connections := registry.New()
	accumulator := registry.NewAccumulator(cfg.Relay.ThresholdBytes)
	dispatcher := usecase.NewDispatcher(speechToText, translator, cfg.Audio, logger)
	router := usecase.NewRouter(connections, callControl, logger)
	pipeline := usecase.NewPipeline(accumulator, dispatcher, router, m, usecase.PipelineConfig{
		MaxConcurrent: cfg.Relay.MaxConcurrentDispatches,
		Timeout:       cfg.Relay.DispatchTimeout,
	}, logger)

	hub := websocket.NewHub(connections, pipeline, m, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	api.InitRoutes(e, hub, connections, promRegistry, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Relay started",
		zap.String("port", cfg.Server.Port),
		zap.Int("thresholdBytes", accumulator.Threshold()),
		zap.String("sttProvider", cfg.STT.Provider),
		zap.String("translatorProvider", cfg.Translator.Provider),
		zap.String("telephonyProvider", cfg.Telephony.Provider))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Relay.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Error("Call legs did not close in time", zap.Error(err))
	}
	if err := pipeline.Wait(shutdownCtx); err != nil {
		logger.Error("In-flight segments abandoned", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapConfig.Level = atomicLevel
	return zapConfig.Build()
}
