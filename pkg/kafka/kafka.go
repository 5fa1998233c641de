package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	NotificationTopic         = "notifications"
	NotificationConsumerGroup = "notification-inbox"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

// NewAsyncProducer returns a fire-and-forget producer; delivery errors are
// drained and logged until the producer is closed.
func NewAsyncProducer(cfg Config, log *zap.Logger) (sarama.AsyncProducer, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Producer.RequiredAcks = sarama.WaitForLocal
	defaultCfg.Producer.Return.Errors = true
	defaultCfg.Producer.Return.Successes = false

	producer, err := sarama.NewAsyncProducer(cfg.Addrs, defaultCfg)
	if err != nil {
		return nil, err
	}
	log = log.Named("producer")
	go func() {
		for perr := range producer.Errors() {
			log.Warn("kafka delivery failed",
				zap.String("topic", perr.Msg.Topic),
				zap.Error(perr.Err))
		}
	}()
	return producer, nil
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the consumer group session loop until ctx is cancelled.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topics ...string) error {
	defer group.Close()
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return errors.Wrap(err, "kafka.Consume")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
