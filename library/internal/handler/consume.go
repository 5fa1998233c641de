package handler

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshare-service/library/internal/errs"
	"github.com/Astemirdum/bookshare-service/library/internal/model"
)

type saveNotification func(ctx context.Context, e model.NotificationEvent) error

// Consumer stores notification events from the broker in the recipients' inboxes.
type Consumer struct {
	save  saveNotification
	log   *zap.Logger
	ready chan bool
}

func NewConsumer(save saveNotification, log *zap.Logger) *Consumer {
	return &Consumer{
		save:  save,
		log:   log.Named("consumer"),
		ready: make(chan bool),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-consumer.ready:
	default:
		close(consumer.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event model.NotificationEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("malformed notification", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.save(session.Context(), event); err != nil {
				if errors.Is(err, errs.ErrValidation) {
					consumer.log.Error("invalid notification", zap.Error(err))
					session.MarkMessage(message, "")
					continue
				}
				// ending the session keeps the committed offset before this
				// message, so the next session starts from it again
				consumer.log.Error("consumer.save", zap.String("id", event.ID), zap.Error(err))
				return errors.Wrapf(err, "save notification at offset %d", message.Offset)
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
