package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-widget/internal/config"
	"github.com/fakhrymubarak/weather-widget/internal/handler"
	"github.com/fakhrymubarak/weather-widget/internal/middleware"
	"github.com/fakhrymubarak/weather-widget/internal/redis"
	"github.com/fakhrymubarak/weather-widget/internal/repository"
	"github.com/fakhrymubarak/weather-widget/internal/service"
	"github.com/fakhrymubarak/weather-widget/internal/session"
)

// newServer wires the widget: redis-backed sessions and cache, the
// OpenWeatherMap repository, the lookup service and the HTTP routes.
func newServer(ctx context.Context) (*http.Server, error) {
	client := redis.GetClient()
	store := session.NewRedisStore(client, config.GetSessionTTL())
	repo := repository.NewWeatherRepository()
	svc := service.NewWeatherService(repo, store)

	h, err := handler.NewWeatherHandler(svc)
	if err != nil {
		return nil, err
	}
	h.Ping = redis.Ping

	limiter := middleware.NewRateLimiterFromConfig()
	limiter.StartCleanup(ctx, time.Minute)

	return &http.Server{
		Addr:              ":" + config.GetServerPort(),
		Handler:           h.Routes(limiter),
		ReadHeaderTimeout: config.GetServerTimeout("read_header_timeout"),
		ReadTimeout:       config.GetServerTimeout("read_timeout"),
		WriteTimeout:      config.GetServerTimeout("write_timeout"),
		IdleTimeout:       config.GetServerTimeout("idle_timeout"),
	}, nil
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	if config.GetOpenWeatherMapAPIKey() == "" {
		logger.Warn("OPENWEATHERMAP_API_KEY is not set, every lookup will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := redis.Ping(ctx); err != nil {
		logger.Warnw("Redis is unreachable, sessions and cache will fail until it is back", "addr", config.GetRedisAddr(), "error", err)
	}

	srv, err := newServer(ctx)
	if err != nil {
		logger.Fatalw("Failed to build server", "error", err)
	}

	go func() {
		logger.Infow("Weather widget running", "port", config.GetServerPort())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetServerTimeout("shutdown_timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Graceful shutdown failed", "error", err)
	}
	if err := redis.Close(); err != nil {
		logger.Warnw("Closing redis client", "error", err)
	}
}
