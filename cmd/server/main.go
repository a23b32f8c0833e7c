package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/vidtube/internal/auth"
	"github.com/iliyamo/vidtube/internal/config"
	"github.com/iliyamo/vidtube/internal/database"
	"github.com/iliyamo/vidtube/internal/handler"
	"github.com/iliyamo/vidtube/internal/media"
	"github.com/iliyamo/vidtube/internal/middleware"
	"github.com/iliyamo/vidtube/internal/queue"
	"github.com/iliyamo/vidtube/internal/repository"
	"github.com/iliyamo/vidtube/internal/response"
	"github.com/iliyamo/vidtube/internal/router"
	"github.com/iliyamo/vidtube/internal/service"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		slog.Error("load env file", "err", err)
		os.Exit(1)
	}
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(ctx)
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	mediaCfg := config.LoadMediaConfig()
	if err := os.MkdirAll(mediaCfg.TempDir, 0o750); err != nil {
		return err
	}
	s3, err := media.NewS3Uploader(ctx, mediaCfg)
	if err != nil {
		return err
	}
	uploader := &media.ResizingUploader{Next: s3, MaxWidth: mediaCfg.MaxImageWidth}

	queueCfg := config.LoadQueueConfig()
	var events queue.Publisher = queue.NopPublisher{}
	if queueCfg.PublishEnabled {
		events = queue.NewAMQPPublisher(queueCfg.URL, logger)
	}
	if queueCfg.ConsumerEnabled {
		consumer := queue.NewActivityConsumer(queueCfg.URL, queueCfg.ActivityLogPath, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activity consumer stopped", "err", err)
			}
		}()
	}

	users := repository.NewUserRepo(db)
	videos := repository.NewVideoRepo(db)
	issuer := auth.NewIssuer(cfg)

	sessions := service.NewSessionManager(users, auth.NewHasher(cfg.BcryptCost), issuer, uploader, events, logger)
	videoSvc := service.NewVideoService(videos, users, uploader, events, logger)

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(sessions, mediaCfg.TempDir, cfg.CookieSecure),
		Users:         handler.NewUserHandler(sessions, service.NewProfileService(users, videos), mediaCfg.TempDir),
		Videos:        handler.NewVideoHandler(videoSvc, mediaCfg.TempDir),
		Comments:      handler.NewCommentHandler(service.NewCommentService(repository.NewCommentRepo(db), videos)),
		Likes:         handler.NewLikeHandler(service.NewLikeService(repository.NewLikeRepo(db), videos)),
		Playlists:     handler.NewPlaylistHandler(service.NewPlaylistService(repository.NewPlaylistRepo(db), users)),
		Subscriptions: handler.NewSubscriptionHandler(service.NewSubscriptionService(repository.NewSubscriptionRepo(db), users)),
		Tweets:        handler.NewTweetHandler(service.NewTweetService(repository.NewTweetRepo(db), users)),
		Protect:       middleware.VerifyJWT(issuer, users),
		RateLimit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		VideoCache:    middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
		MaxUploadMB:   mediaCfg.MaxUploadMB,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler(logger)
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(logger), middleware.Metrics())
	router.RegisterRoutes(e, db)
	router.RegisterAPI(e, h)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
