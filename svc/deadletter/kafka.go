package deadletter

import (
	"context"

	k "github.com/segmentio/kafka-go"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/kafka"
)

// KafkaHandler classifies each dead-lettered message and acknowledges all of
// them, so a message is never redelivered from the dead-letter topic.
func (c *Classifier) KafkaHandler() kafka.Handler {
	return func(ctx context.Context, msgs []k.Message) []kafka.Result {
		batch := make([]Message, len(msgs))
		for i, msg := range msgs {
			batch[i] = Message{
				ID:         kafka.MessageID(msg),
				Body:       msg.Value,
				RetryCount: kafka.RetryCount(msg),
				Attributes: kafka.Headers(msg),
			}
		}
		c.HandleBatch(ctx, batch)

		results := make([]kafka.Result, len(msgs))
		for i := range results {
			results[i].Disposition = kafka.Ack
		}
		return results
	}
}
