package deadletter

import (
	"context"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// BatchSummary counts the classifications of one dead-letter batch.
type BatchSummary struct {
	Processed int                            `json:"processed"`
	ByType    map[notification.ErrorType]int `json:"byType"`
	Timestamp time.Time                      `json:"timestamp"`
}

// HandleBatch classifies every message in order.
func (c *Classifier) HandleBatch(ctx context.Context, msgs []Message) BatchSummary {
	sum := BatchSummary{ByType: map[notification.ErrorType]int{}}
	for _, msg := range msgs {
		sum.ByType[c.Handle(ctx, msg)]++
		sum.Processed++
	}
	sum.Timestamp = c.now().UTC()
	c.logger.InfoContext(ctx, "dead letter batch processed", logger.BatchSize(sum.Processed))
	return sum
}
