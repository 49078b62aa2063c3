package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/snapgram/config"
	"github.com/d60-Lab/snapgram/internal/api/handler"
	"github.com/d60-Lab/snapgram/internal/api/router"
	"github.com/d60-Lab/snapgram/internal/cache"
	"github.com/d60-Lab/snapgram/internal/repository"
	"github.com/d60-Lab/snapgram/internal/service"
	"github.com/d60-Lab/snapgram/internal/token"
	"github.com/d60-Lab/snapgram/pkg/database"
	"github.com/d60-Lab/snapgram/pkg/logger"
	redisclient "github.com/d60-Lab/snapgram/pkg/redis"
	"github.com/d60-Lab/snapgram/pkg/tracing"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := must(tracing.Init(ctx, cfg, "snapgram"))
	defer func() { _ = shutdownTracing(context.Background()) }()

	db := must(database.InitDB(cfg))
	rdb := must(redisclient.InitRedis(cfg))

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)

	replicator := service.NewFanReplicator(fanRepo, 100000, 0)
	stopReplicator := replicator.Start(8)

	followerCache := cache.NewFollowerCache(db, rdb, 5*time.Minute)

	codec := must(token.NewCodec(token.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
	}))

	sessionSvc := service.NewSessionService(userRepo, codec)
	relSvc := service.NewRelationshipService(followRepo, fanRepo, replicator, followerCache)

	h := handler.New(sessionSvc, relSvc, followerCache, codec)
	engine := router.New(cfg, h, codec, userRepo)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	// 等冗余队列排空再退出
	_ = stopReplicator(shutdownCtx)
}
