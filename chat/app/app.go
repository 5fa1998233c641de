package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookshare-service/chat/config"
	"github.com/Astemirdum/bookshare-service/chat/internal/handler"
	"github.com/Astemirdum/bookshare-service/chat/internal/hub"
	"github.com/Astemirdum/bookshare-service/chat/internal/repository"
	"github.com/Astemirdum/bookshare-service/chat/internal/retention"
	"github.com/Astemirdum/bookshare-service/chat/internal/service"
	"github.com/Astemirdum/bookshare-service/chat/migrations"
	"github.com/Astemirdum/bookshare-service/pkg/auth"
	"github.com/Astemirdum/bookshare-service/pkg/logger"
	"github.com/Astemirdum/bookshare-service/pkg/postgres"
	"github.com/Astemirdum/bookshare-service/pkg/server"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "chat")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	rt := hub.New(log)
	svc := service.NewService(repo, users.NewClient(cfg.Users, log), rt, log)
	h := handler.New(svc, rt, auth.NewVerifier(cfg.Auth), log)
	srv := server.NewServer(cfg.Server.Server(), h.NewRouter())
	purge := retention.New(cfg.Retention, svc, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Run(gctx)
	})
	g.Go(func() error {
		return purge.Run(gctx)
	})
	g.Go(func() error {
		log.Info("http server start ON: ", zap.String("addr", srv.Addr()))
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown")
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("run", zap.Error(err))
	}

	db.Close()
	log.Info("Graceful shutdown finished")
}
