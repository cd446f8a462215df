package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/statemachine"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
)

type event string

const (
	eventDelivered event = "delivered"
	eventFailed    event = "failed"
)

// transition is the payload handed to the lifecycle actions.
type transition struct {
	id        string
	createdAt time.Time
	attrs     notification.TransitionAttrs
}

func newLifecycle(st store.Store) *statemachine.Definition[notification.Status, event] {
	persist := func(ctx context.Context, _, to notification.Status, _ event, data any) error {
		t, ok := data.(transition)
		if !ok {
			return fmt.Errorf("unexpected transition payload %T", data)
		}
		return st.Transition(ctx, t.id, t.createdAt, to, t.attrs)
	}

	return statemachine.NewDefinition[notification.Status, event](notification.StatusSent, notification.StatusFailed).
		Allow(statemachine.Transition[notification.Status, event]{
			From:    notification.StatusPending,
			To:      notification.StatusSent,
			Event:   eventDelivered,
			Actions: []statemachine.Action[notification.Status, event]{persist},
		}).
		Allow(statemachine.Transition[notification.Status, event]{
			From:    notification.StatusPending,
			To:      notification.StatusFailed,
			Event:   eventFailed,
			Actions: []statemachine.Action[notification.Status, event]{persist},
		})
}
