package ingress

import (
	"context"

	k "github.com/segmentio/kafka-go"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/kafka"
)

// KafkaHandler runs each fetched batch through HandleBatch. Successful items
// are acknowledged, retryable failures are redelivered and terminal ones go
// to the dead-letter topic. A batch rejected as a whole is dead-lettered.
func (a *Adapter) KafkaHandler() kafka.Handler {
	return func(ctx context.Context, msgs []k.Message) []kafka.Result {
		items := make([]Item, len(msgs))
		for i, msg := range msgs {
			items[i] = Item{
				ID:         kafka.MessageID(msg),
				Body:       msg.Value,
				RetryCount: kafka.RetryCount(msg),
			}
		}

		results := make([]kafka.Result, len(msgs))
		sum, err := a.HandleBatch(ctx, items)
		if err != nil {
			for i := range results {
				results[i] = kafka.Result{Disposition: kafka.DeadLetter, Reason: err.Error()}
			}
			return results
		}

		for i, out := range sum.Results {
			switch {
			case out.Success:
				results[i] = kafka.Result{Disposition: kafka.Ack}
			case out.Retryable:
				results[i] = kafka.Result{Disposition: kafka.Retry, Reason: out.Error}
			default:
				results[i] = kafka.Result{Disposition: kafka.DeadLetter, Reason: out.Error}
			}
		}
		return results
	}
}
