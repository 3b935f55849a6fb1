package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/neomorfeo/assetiq/internal/adapter/fsm"
	"github.com/neomorfeo/assetiq/internal/adapter/kafka"
	"github.com/neomorfeo/assetiq/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/assetiq/internal/adapter/river"
	"github.com/neomorfeo/assetiq/internal/adapter/sqlite"
	"github.com/neomorfeo/assetiq/internal/app"
	"github.com/neomorfeo/assetiq/internal/config"
	"github.com/neomorfeo/assetiq/internal/domain"

	handler "github.com/neomorfeo/assetiq/internal/adapter/http"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// runtime holds the adapters shared by the server and the CLI commands.
type runtime struct {
	store *sqlite.Store
	queue *riveradapter.Client
	svc   domain.DecompositionService
}

// openRuntime opens the instrumented database, runs both migration sets and
// wires the service. Events enqueued through the store are delivered to sink
// once the queue is started.
func openRuntime(ctx context.Context, cfg config.Config, sink domain.EventSink, logger *slog.Logger) (*runtime, error) {
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	queue, err := riveradapter.Setup(ctx, db, sink)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("river: %w", err)
	}

	store, err := sqlite.NewFromDB(db, sqlite.WithOutbox(riveradapter.NewPublisher(queue)))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	svc, err := otel.NewTracingService(app.NewService(store,
		fsm.NewRequestValidator(),
		fsm.NewAssetValidator(),
		app.WithLogger(logger),
	))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	return &runtime{store: store, queue: queue, svc: svc}, nil
}

func (rt *runtime) Close() error {
	return rt.store.Close()
}

// newSink picks Kafka when brokers are configured and the log otherwise.
// The returned close function releases the producer.
func newSink(cfg config.Config, logger *slog.Logger) (domain.EventSink, func() error) {
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		sink := kafka.NewSink(brokers, cfg.KafkaTopic)
		return otel.NewTracingSink(sink), sink.Close
	}
	return otel.NewTracingSink(riveradapter.NewLogSink(logger)), func() error { return nil }
}

func newRouter(cfg config.Config, svc domain.DecompositionService) http.Handler {
	router := chi.NewMux()
	router.Use(otelchi.Middleware(cfg.OTelServiceName, otelchi.WithChiRoutes(router)))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(handler.Authenticator(handler.AuthConfig{JWTSecret: cfg.JWTSecret}))

	api := humachi.New(router, huma.DefaultConfig("assetiq", cfg.OTelServiceVersion))
	handler.Register(api, svc)
	return router
}

// run serves the API and the event worker until ctx is cancelled, then
// shuts both down gracefully.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	sink, closeSink := newSink(cfg, logger)
	defer func() {
		if err := closeSink(); err != nil {
			logger.Error("closing event sink", "error", err)
		}
	}()

	rt, err := openRuntime(ctx, cfg, sink, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.queue.Start(ctx); err != nil {
		return fmt.Errorf("starting river: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, rt.svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("assetiq listening", "addr", srv.Addr, "docs", "http://localhost:"+cfg.Port+"/docs")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = rt.queue.Stop(stopCtx)
			return fmt.Errorf("server: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := rt.queue.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("river shutdown: %w", err))
	}
	logger.Info("stopped")
	return errors.Join(errs...)
}
