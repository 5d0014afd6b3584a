package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-social-shop/pkg/interceptors"

	"github.com/pribylovaa/go-social-shop/internal/auth"
	"github.com/pribylovaa/go-social-shop/internal/cache"
	"github.com/pribylovaa/go-social-shop/internal/config"
	shophttp "github.com/pribylovaa/go-social-shop/internal/http"
	"github.com/pribylovaa/go-social-shop/internal/payment"
	"github.com/pribylovaa/go-social-shop/internal/service"
	shopmongo "github.com/pribylovaa/go-social-shop/internal/storage/mongo"

	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	// .env необязателен: переменные могут прийти и из окружения.
	_ = godotenv.Load()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting shop-service", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	store, err := shopmongo.New(dbCtx, cfg)
	dbCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()
	log.Info("mongo_connected")

	svc := service.New(store, payment.New(cfg.Payment), *cfg)

	if pc := connectCache(rootCtx, cfg.Cache, log); pc != nil {
		svc.SetProductCache(pc)
		defer func() { _ = pc.Close() }()
	}
	log.Info("service_initialized")

	var ready atomic.Bool

	httpSrv := newHTTPServer(cfg, svc, store, &ready, log)
	grpcServer, hs := newGRPCServer(cfg, log)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr())
	if err != nil {
		log.Error("grpc_listen_failed", slog.String("addr", cfg.GRPC.Addr()), slog.String("err", err.Error()))
		return err
	}
	log.Info("grpc_listen_start", slog.String("addr", cfg.GRPC.Addr()))

	serveErrCh := make(chan error, 2)

	go func() {
		log.Info("http_listen_start", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}()

	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
	}()

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	ready.Store(true)
	log.Info("service_ready")

	var serveErr error
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		log.Error("serve_failed", slog.String("err", serveErr.Error()))
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	stopGRPC(shutdownCtx, grpcServer, log)

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	return serveErr
}

// connectCache поднимает кэш товаров, если задан REDIS_URL.
// Redis необязателен: при сбое подключения сервис работает напрямую с MongoDB.
func connectCache(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) cache.ProductCache {
	if cfg.RedisURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix)
	if err != nil {
		log.Warn("redis_connect_failed", slog.String("err", err.Error()))
		return nil
	}

	log.Info("redis_connected")
	return pc
}

// newHTTPServer — публичный API плюс /livez, /healthz (с пингом MongoDB) и /metrics.
func newHTTPServer(cfg *config.Config, svc *service.Service, store *shopmongo.Mongo, ready *atomic.Bool, log *slog.Logger) *http.Server {
	api := shophttp.NewRouter(svc, auth.NewParser(cfg.Auth), shophttp.Options{
		Logger:       log,
		Timeout:      cfg.Timeouts.Service,
		PaymentKeyID: cfg.Payment.KeyID,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			http.Error(w, "mongo unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	return &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// newGRPCServer — gRPC-порт с health-check для оркестратора; reflection только в local/dev.
func newGRPCServer(cfg *config.Config, log *slog.Logger) (*grpc.Server, *health.Server) {
	grpc_prometheus.EnableHandlingTimeHistogram()

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.Logging(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(srv)
	}

	grpc_prometheus.Register(srv)

	return srv, hs
}

// stopGRPC ждёт GracefulStop до дедлайна ctx, затем останавливает принудительно.
func stopGRPC(ctx context.Context, srv *grpc.Server, log *slog.Logger) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-ctx.Done():
		log.Warn("grpc_force_stop")
		srv.Stop()
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
