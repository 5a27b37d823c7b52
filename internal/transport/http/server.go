package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"quillblog/internal/cache"
	"quillblog/internal/config"
	"quillblog/internal/database"
	"quillblog/internal/handler"
	"quillblog/internal/logging"
	"quillblog/internal/queue"
	"quillblog/internal/redis"
	"quillblog/internal/repository"
	"quillblog/internal/service"
	"quillblog/internal/worker"
)

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log := logging.LogService("Server")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.WithError(err).Error("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	publisher := queue.NewPublisher(redisClient.Client)
	statsCache := cache.NewStatsCache(redisClient.Client, cfg.StatsCacheTTL)

	// 4. Repositories
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	reportRepo := repository.NewReportRepository(db)
	postRepo := repository.NewPostRepository(db)
	userRepo := repository.NewCachedUserRepository(repository.NewUserRepository(db), cfg.UserCacheSize, cfg.UserCacheTTL)

	// 5. Services
	policy := service.PolicyFromConfig(cfg)
	commentService := service.NewCommentService(commentRepo, postRepo, userRepo, likeRepo, db, publisher, policy)
	likeService := service.NewLikeService(commentRepo, likeRepo, db)
	moderationService := service.NewModerationService(commentRepo, db, publisher, statsCache)
	reportService := service.NewReportService(reportRepo, commentRepo, db, publisher, policy)

	// 6. Stream relay workers
	workerCfg := worker.DefaultManagerConfig()
	workerCfg.WorkerCount = cfg.WorkerCount
	manager := worker.NewManager(queue.NewConsumer(redisClient.Client), worker.NewHandler(publisher, statsCache), workerCfg)
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	defer manager.Stop()

	// 7. Setup Server
	router := NewRouter(RouterConfig{
		CommentHandler:    handler.NewCommentHandler(commentService),
		LikeHandler:       handler.NewLikeHandler(likeService),
		ModerationHandler: handler.NewModerationHandler(moderationService),
		ReportHandler:     handler.NewReportHandler(reportService),
		JWTSecret:         cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
