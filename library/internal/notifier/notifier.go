package notifier

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/Astemirdum/bookshare-service/library/internal/model"
)

// Kafka publishes notification events keyed by recipient, so one user's
// notifications stay ordered within a partition. Create waits for the
// producer to take the message; delivery itself is asynchronous.
type Kafka struct {
	producer sarama.AsyncProducer
	topic    string
}

func NewKafka(producer sarama.AsyncProducer, topic string) *Kafka {
	return &Kafka{
		producer: producer,
		topic:    topic,
	}
}

func (k *Kafka) Create(ctx context.Context, n model.NotificationEvent) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(n.UserID),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case k.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
