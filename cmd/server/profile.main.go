package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"profile-service/internal/capture"
	"profile-service/internal/card"
	"profile-service/internal/config"
	"profile-service/internal/events"
	"profile-service/internal/handler"
	"profile-service/internal/realtime"
	"profile-service/internal/repository"
	"profile-service/internal/service"
	"profile-service/pkg/cache"
	"profile-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("profile service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	repo, closeRepo, err := openRepository(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	// redis is optional: without it there is no cache and no rate limiting
	var profileCache *cache.Cache
	candidate := cache.NewCache(strings.Split(cfg.RedisAddr, ","), cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	if err := candidate.Ping(pingCtx); err != nil {
		zlog.Warn("redis unavailable, running without cache and rate limits",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = candidate.Close()
	} else {
		profileCache = candidate
		defer profileCache.Close()
	}
	cancel()

	hub := realtime.NewHub(zlog)
	publishers := []events.Publisher{hub}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic, zlog), zlog)
		defer kp.Close()
		publishers = append(publishers, kp)
		zlog.Info("publishing profile events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	profiles := service.NewProfileService(repo, profileCache, events.NewFanout(zlog, publishers...), zlog)
	uploads, err := service.NewUploadService(cfg.UploadDir, cfg.MaxUploadBytes, cfg.MaxPhotoSide, zlog)
	if err != nil {
		return err
	}

	renderer, err := card.NewRenderer()
	if err != nil {
		return err
	}
	browser := capture.NewRodBrowser(cfg.CaptureBin, cfg.CaptureHeadless, zlog)
	defer browser.Close()
	exporter := capture.NewExporter(browser, renderer, capture.DefaultSettings(), zlog)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.NewRouter(handler.RouterDeps{
			Config:   cfg,
			Profiles: profiles,
			Uploads:  uploads,
			Renderer: renderer,
			Exporter: exporter,
			Hub:      hub,
			Cache:    profileCache,
			Logger:   zlog,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("profile service listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		hub.Heartbeat(gctx, 30*time.Second)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down...")
		hub.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRepository(ctx context.Context, cfg config.Config, zlog *zap.Logger) (repository.ProfileRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := config.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		zlog.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return repository.NewSQLiteProfileRepo(db), func() { _ = db.Close() }, nil
	default:
		pool, err := config.ConnectDB(ctx, cfg.DBConnString, zlog)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPGProfileRepo(pool), pool.Close, nil
	}
}
