package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookshare-service/library/config"
	"github.com/Astemirdum/bookshare-service/library/internal/handler"
	"github.com/Astemirdum/bookshare-service/library/internal/kpi"
	"github.com/Astemirdum/bookshare-service/library/internal/notifier"
	"github.com/Astemirdum/bookshare-service/library/internal/repository"
	"github.com/Astemirdum/bookshare-service/library/internal/service"
	"github.com/Astemirdum/bookshare-service/library/migrations"
	"github.com/Astemirdum/bookshare-service/pkg/auth"
	"github.com/Astemirdum/bookshare-service/pkg/kafka"
	"github.com/Astemirdum/bookshare-service/pkg/logger"
	"github.com/Astemirdum/bookshare-service/pkg/mailer"
	"github.com/Astemirdum/bookshare-service/pkg/postgres"
	"github.com/Astemirdum/bookshare-service/pkg/server"
	"github.com/Astemirdum/bookshare-service/pkg/users"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
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
	rdb, err := kpi.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("redis init", zap.Error(err))
	}
	producer, err := kafka.NewAsyncProducer(cfg.Kafka, log)
	if err != nil {
		log.Fatal("kafka.NewAsyncProducer", zap.Error(err))
	}
	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.NotificationConsumerGroup)
	if err != nil {
		log.Fatal("kafka.NewConsumer", zap.Error(err))
	}

	svc := service.NewService(
		repo,
		users.NewClient(cfg.Users, log),
		notifier.NewKafka(producer, kafka.NotificationTopic),
		mailer.NewSender(cfg.Mail, log),
		kpi.NewCounters(rdb),
		log,
	)
	h := handler.New(svc, auth.NewVerifier(cfg.Auth), log)
	srv := server.NewServer(cfg.Server.Server(), h.NewRouter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return kafka.Consume(gctx, consumer, handler.NewConsumer(svc.SaveNotification, log), kafka.NotificationTopic)
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

	svc.Wait()
	if err := producer.Close(); err != nil {
		log.Warn("producer.Close", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		log.Warn("redis.Close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
