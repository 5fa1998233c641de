package retention

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	Enabled bool   `envconfig:"CHAT_RETENTION_PURGE" default:"false"`
	Days    int    `envconfig:"CHAT_RETENTION_DAYS" default:"30"`
	Cron    string `envconfig:"CHAT_RETENTION_CRON" default:"0 3 * * *"`
}

func (c Config) Period() time.Duration {
	return time.Duration(c.Days) * 24 * time.Hour
}

type Purger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// Job periodically deletes chat messages older than the retention period.
type Job struct {
	cfg    Config
	purger Purger
	log    *zap.Logger
}

func New(cfg Config, purger Purger, log *zap.Logger) *Job {
	return &Job{
		cfg:    cfg,
		purger: purger,
		log:    log.Named("retention"),
	}
}

// Run schedules the purge and blocks until ctx is done. A disabled job
// returns immediately.
func (j *Job) Run(ctx context.Context) error {
	if !j.cfg.Enabled {
		j.log.Info("message purge disabled")
		return nil
	}
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()
	if _, err := scheduler.Cron(j.cfg.Cron).Do(j.Purge, ctx); err != nil {
		return errors.Wrap(err, "schedule purge")
	}
	scheduler.StartAsync()
	j.log.Info("message purge scheduled", zap.String("cron", j.cfg.Cron), zap.Int("days", j.cfg.Days))

	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func (j *Job) Purge(ctx context.Context) {
	n, err := j.purger.PurgeExpired(ctx, j.cfg.Period())
	if err != nil {
		j.log.Error("purge expired messages", zap.Error(err))
		return
	}
	j.log.Info("purged expired messages", zap.Int64("deleted", n))
}
