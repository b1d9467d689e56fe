package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/keiranhall/keiran-live/internal/config"
	"github.com/keiranhall/keiran-live/internal/database/postgres"
	"github.com/keiranhall/keiran-live/internal/profile"
	"github.com/keiranhall/keiran-live/internal/service"
	pkgpostgres "github.com/keiranhall/keiran-live/pkg/postgres"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/keiranhall/keiran-live/internal/api/http"
)

const migrationsPath = "file://migrations"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("site-api", httplog.Options{
		JSON:     cfg.Env == config.EnvProd,
		LogLevel: logLevel(cfg.Env),
		Concise:  cfg.Env != config.EnvProd,
	})

	g, ctx := errgroup.WithContext(ctx)

	db, err := pkgpostgres.New(
		ctx,
		cfg.Postgres.DSN(),
		pkgpostgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pkgpostgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pkgpostgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pkgpostgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	if err := pkgpostgres.RunMigrations(migrationsPath, cfg.Postgres.DSN()); err != nil {
		return err
	}

	urlRepo := postgres.NewURLRepository(db)
	rateRepo := postgres.NewRateLimitRepository(db)

	urlSvc := service.NewURLService(
		urlRepo,
		logger.Logger,
		cfg.Shortener.CodeLength,
		cfg.Shortener.MaxAttempts,
		cfg.Shortener.TrackTimeout,
	)
	limiter := service.NewRateLimiter(rateRepo, cfg.Shortener.RateLimitPerHour)

	profiles, err := profile.NewClient(
		"https://"+cfg.Profile.BioHost,
		cfg.Profile.Timeout,
		cfg.Profile.CacheTTL,
		cfg.Profile.CacheMaxEntries,
	)
	if err != nil {
		return err
	}
	defer profiles.Close()

	r := myhttp.NewRouter(logger, urlSvc, limiter, profiles, cfg.Shortener.BaseURL, cfg.Profile.BioHost)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	g.Go(func() error {
		return runCleanup(ctx, logger.Logger, cfg.Cleanup.Interval, urlSvc, rateRepo)
	})

	return g.Wait()
}

// runCleanup periodically drops expired short urls and stale rate limit windows.
func runCleanup(ctx context.Context, logger *slog.Logger, interval time.Duration, urlSvc *service.URLService, rateRepo *postgres.RateLimitRepository) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(ctx, time.Minute)

			if deleted, err := urlSvc.CleanupExpired(cleanupCtx); err != nil {
				logger.Error("failed to cleanup expired urls", slog.Any("err", err))
			} else if deleted > 0 {
				logger.Info("removed expired short urls", slog.Int64("count", deleted))
			}

			if err := rateRepo.PurgeExpired(cleanupCtx); err != nil {
				logger.Error("failed to purge expired rate limits", slog.Any("err", err))
			}

			cancel()
		}
	}
}

func logLevel(env string) slog.Level {
	if env == config.EnvProd {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
