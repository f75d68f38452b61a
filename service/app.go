package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cardboard/app/config"
	"cardboard/app/logging"
	"cardboard/app/middleware"
	"cardboard/app/repositories"
	"cardboard/app/repositories/mongostore"
	"cardboard/app/routes"
	"cardboard/app/services"
	"cardboard/app/storage"
	"cardboard/app/telemetry"
	"cardboard/app/validation"
)

// backend is an opened document store.
type backend struct {
	posts   repositories.PostRepository
	reviews repositories.ReviewRepository
	ping    func(context.Context) error
	close   func(context.Context) error
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	switch cfg.Store {
	case config.StoreMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return &backend{
			posts:   store.Posts(),
			reviews: store.Reviews(),
			ping:    store.Ping,
			close:   store.Close,
		}, nil
	default:
		store, err := repositories.Open(cfg.BadgerPath, logger)
		if err != nil {
			return nil, err
		}
		return &backend{
			posts:   store.Posts(),
			reviews: store.Reviews(),
			ping:    store.Ping,
			close:   func(context.Context) error { return store.Close() },
		}, nil
	}
}

// newHandler builds the full HTTP handler for cfg on top of an opened store.
func titleLimiter(cfg *config.Config) *middleware.RateLimiter {
	rl := middleware.NewRateLimiter(cfg.TitleProbe.Rate, cfg.TitleProbe.Burst)
	rl.TrustProxy = cfg.TitleProbe.TrustProxy
	return rl
}

func newHandler(ctx context.Context, cfg *config.Config, b *backend, logger *slog.Logger) (http.Handler, error) {
	images, err := storage.New(ctx, cfg.Storage())
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}

	v := validation.New()
	postService := services.NewPostService(b.posts, b.reviews, images, v, cfg.Pagination().PerPage)
	reviewService := services.NewReviewService(b.reviews, b.posts, v)

	router, err := routes.SetupRoutes(postService, reviewService, routes.Options{
		Logger:     logger,
		MaxUpload:  cfg.MaxUploadBytes(),
		TitleProbe: titleLimiter(cfg),
		Health:     b.ping,
	})
	if err != nil {
		return nil, err
	}
	return routes.Handler(router), nil
}

// RunAppServer serves the marketplace until SIGINT or SIGTERM.
func RunAppServer(cfg *config.Config, version string) error {
	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(c)
	}()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store, err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.close(c); err != nil {
			logger.Error("closing store", slog.Any("error", err))
		}
	}()

	handler, err := newHandler(ctx, cfg, b, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("store", cfg.Store),
			slog.String("uploads", cfg.Uploads.Driver),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
	return nil
}
