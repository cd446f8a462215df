package store

import (
	"context"
	"fmt"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// Store is the delivery state store used by the orchestrator and the
// history endpoint.
type Store interface {
	ErrorSink
	CreatePending(ctx context.Context, r notification.Record) error
	Transition(ctx context.Context, id string, createdAt time.Time, status notification.Status, attrs notification.TransitionAttrs) error
	History(ctx context.Context, userID string, limit int) ([]notification.Record, error)
}

// ErrorSink receives diagnostic records. The dead letter classifier only
// needs this half of a Store.
type ErrorSink interface {
	AppendError(ctx context.Context, rec notification.ErrorRecord) error
	AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error
}

// CheckTransition reports whether a record in current may move to target.
func CheckTransition(current, target notification.Status) error {
	if !target.Terminal() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, target)
	}
	if current == notification.StatusPending || current == target {
		return nil
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, target)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MongoStore)(nil)
)
