package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/fanout-timeline/config"
	"github.com/d60-Lab/fanout-timeline/internal/api"
	"github.com/d60-Lab/fanout-timeline/internal/api/handler"
	"github.com/d60-Lab/fanout-timeline/internal/repository"
	"github.com/d60-Lab/fanout-timeline/internal/service"
	"github.com/d60-Lab/fanout-timeline/internal/timeline"
	"github.com/d60-Lab/fanout-timeline/pkg/database"
	"github.com/d60-Lab/fanout-timeline/pkg/logger"
	"github.com/d60-Lab/fanout-timeline/pkg/tracing"
)

// @title Fanout Timeline API
// @version 1.0
// @description 写扩散时间线服务
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
		os.Exit(1)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("open database failed", zap.Error(err))
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}
	rdb, err := database.InitRedis(ctx, cfg)
	if err != nil {
		logger.Error("connect redis failed", zap.Error(err))
		os.Exit(1)
	}
	defer rdb.Close()

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	lists := repository.NewListRepository(db)
	follows := repository.NewFollowRepository(db)
	fans := repository.NewFanRepository(db)
	relRepo := repository.NewRelationRepository(db)

	fanout := service.NewFanoutTimelineService(repository.NewTimelineStore(rdb), timeline.LimitsFromConfig(cfg.Timeline), cfg.Timeline.KeyTTL)
	social := service.NewSocialGraphCache(rdb, relRepo, follows, cfg.Timeline.RelationsTTL)
	endpoint := service.NewFanoutTimelineEndpointService(fanout, posts, social)
	timelines := service.NewTimelineService(endpoint, posts, users, lists, repository.NewChannelRepository(db), follows)

	replicator := service.NewFanReplicator(fans, 0)
	stopReplicator := replicator.Start(cfg.Fanout.Workers)
	rels := service.NewRelationshipService(follows, fans, relRepo, users, social, replicator)

	worker := service.NewFanoutWorker(db, fans, lists, fanout,
		cfg.Fanout.Workers, cfg.Fanout.BatchSize, cfg.Fanout.ClaimLimit, cfg.Fanout.PollInterval).
		WithReclaimAfter(cfg.Fanout.ReclaimAfter)
	stopWorker := worker.Start()

	h := handler.New(timelines, service.NewPublisher(db), rels, lists)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: api.NewRouter(cfg, h)}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopWorker(shutdownCtx); err != nil {
		logger.Warn("fanout worker shutdown", zap.Error(err))
	}
	if err := stopReplicator(shutdownCtx); err != nil {
		logger.Warn("replicator shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}
