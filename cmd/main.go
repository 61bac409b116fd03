package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"fileshare-web/internal/adapters/fileapi"
	"fileshare-web/internal/adapters/server"
	"fileshare-web/internal/config"
	"fileshare-web/internal/router"
	"fileshare-web/internal/usecases"
)

// defaultShutdownTimeout макс время на корректное завершение, если в конфиге не задано.
const defaultShutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := config.LoadEnv(".env"); err != nil {
		logrus.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.LoadConfig(*configPath)
	setupLogging(cfg.Logging)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// сервер ходит в API напрямую, браузер получает ссылки через api.url.
	fileService := fileapi.NewClient(
		cfg.APIBaseURL(),
		fileapi.WithPublicURL(cfg.APIPublicURL()),
		fileapi.WithMetrics(fileapi.NewMetrics(registry)),
	)

	// роутер один на процесс, передаётся явно.
	pageRouter, err := router.New(router.DefaultRoutes()...)
	if err != nil {
		logrus.Fatalf("Failed to build router: %v", err)
	}
	pageRouter.BeforeEach(router.TitleHook(cfg.UI.TitlePrefix, cfg.UI.DefaultTitle))

	fileUsecase := usecases.NewFileSharingUseCase(fileService, pageRouter, cfg)

	handler, err := server.NewHandler(fileUsecase, pageRouter, cfg.UI, cfg.Upload.MaxSize, cfg.Messages)
	if err != nil {
		logrus.Fatalf("Failed to create handler: %v", err)
	}

	e, err := server.NewServer(cfg, handler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err != nil {
		logrus.Fatalf("Failed to create server: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// graceful shutdown.
	go func() {
		logrus.WithField("api", fileService.BaseURL()).Infof("Server running on %s", addr)
		if startErr := e.Start(addr); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			logrus.Fatalf("Server failed: %v", startErr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownTimeout := defaultShutdownTimeout
	if cfg.Server.ShutdownSeconds > 0 {
		shutdownTimeout = time.Duration(cfg.Server.ShutdownSeconds) * time.Second
	}

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	} else {
		logrus.Info("Server stopped gracefully")
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
