package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bookday/backend/internal/config"
	"bookday/backend/internal/service/booking"
	"bookday/backend/internal/store/postgres"
	httpTransport "bookday/backend/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "bookday-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "bookday-server"),
	)
	slog.SetDefault(log)

	log.Info("starting", slog.String("http_addr", cfg.HTTPAddr()), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	appointments := postgres.NewAppointmentRepo(db)
	directory := postgres.NewDirectoryRepo(db)
	svc := booking.NewService(appointments, directory, directory)

	gin.SetMode(gin.ReleaseMode)
	limiter := httpTransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	router := httpTransport.NewServer(svc, log).Router(limiter)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           http.TimeoutHandler(router, cfg.HTTPRequestTimeout, `{"error":"timed out"}`),
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthServer := grpc.NewServer()
	healthState := health.NewServer()
	healthpb.RegisterHealthServer(healthServer, healthState)

	healthLis, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		log.Error("health listen failed", slog.Any("err", err), slog.String("health_addr", cfg.HealthAddr))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	go func() {
		errCh <- healthServer.Serve(healthLis)
	}()

	healthState.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	log.Info("server started", slog.String("http_addr", cfg.HTTPAddr()), slog.String("health_addr", cfg.HealthAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		healthState.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		shutdown(log, httpServer, healthServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, httpServer *http.Server, healthServer *grpc.Server, timeout time.Duration) {
	log.Info("shutting down", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed; forcing close", slog.Any("err", err))
		_ = httpServer.Close()
	}

	done := make(chan struct{})
	go func() {
		healthServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("server stopped")
	case <-ctx.Done():
		log.Warn("health graceful shutdown timed out; forcing stop")
		healthServer.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
