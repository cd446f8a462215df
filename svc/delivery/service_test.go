package delivery_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/email"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/delivery"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/templates"
)

type fakeTemplates struct {
	bundles     map[notification.Type]templates.Bundle
	err         error
	invalidated []notification.Type
}

func (f *fakeTemplates) Invalidate(t notification.Type) {
	f.invalidated = append(f.invalidated, t)
}

func (f *fakeTemplates) Get(_ context.Context, t notification.Type) (templates.Bundle, error) {
	if f.err != nil {
		return templates.Bundle{}, f.err
	}
	b, ok := f.bundles[t]
	if !ok {
		return templates.Bundle{}, fmt.Errorf("%w: %s", templates.ErrTemplateNotFound, t)
	}
	return b, nil
}

func welcomeTemplates() *fakeTemplates {
	return &fakeTemplates{bundles: map[notification.Type]templates.Bundle{
		notification.TypeWelcome: {
			Type:    notification.TypeWelcome,
			Subject: "Welcome, {{fullname}}!",
			HTML:    "<p>Hello {{fullname}}</p><p>ref {{notificationId}} for {{userId}}</p>",
			Text:    "Hello {{fullname}}",
		},
	}}
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []email.SendEmailParams
	err      error
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeSender) SendEmail(_ context.Context, p email.SendEmailParams) (string, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return fmt.Sprintf("pm-%d", len(f.sent)), nil
}

// failingStore injects errors into selected MemoryStore operations.
type failingStore struct {
	*store.MemoryStore
	createErr     error
	transitionErr error
	appendErr     error
	historyLimit  int
}

func (s *failingStore) CreatePending(ctx context.Context, r notification.Record) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.MemoryStore.CreatePending(ctx, r)
}

func (s *failingStore) Transition(ctx context.Context, id string, createdAt time.Time, st notification.Status, a notification.TransitionAttrs) error {
	if s.transitionErr != nil {
		return s.transitionErr
	}
	return s.MemoryStore.Transition(ctx, id, createdAt, st, a)
}

func (s *failingStore) AppendError(ctx context.Context, rec notification.ErrorRecord) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	return s.MemoryStore.AppendError(ctx, rec)
}

func (s *failingStore) History(ctx context.Context, userID string, limit int) ([]notification.Record, error) {
	s.historyLimit = limit
	return s.MemoryStore.History(ctx, userID, limit)
}

func welcomeEnvelope() notification.Envelope {
	return notification.Envelope{
		ID:        "client-1",
		Type:      notification.TypeWelcome,
		UserEmail: "a@b.com",
		UserID:    "u1",
		Payload:   notification.WelcomeData{FullName: "Ana"},
	}
}

func TestProcess_Welcome(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	sender := &fakeSender{}
	svc := delivery.NewService(st, welcomeTemplates(), sender)

	id, err := svc.Process(context.Background(), welcomeEnvelope())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Contains(t, msg.Subject, "Ana")
	assert.Equal(t, "a@b.com", msg.SendTo)
	assert.Contains(t, msg.BodyHTML, "ref "+id+" for u1")
	assert.Equal(t, string(notification.TypeWelcome), msg.Tag)

	records := st.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, notification.StatusSent, rec.Status)
	assert.Equal(t, "pm-1", rec.TransportMessageID)
	assert.Equal(t, "client-1", rec.OriginalNotificationID)
	assert.Equal(t, "Ana", rec.Data["fullname"])
	require.NotNil(t, rec.SentAt)
	assert.Empty(t, st.Errors())
}

func TestProcess_TerminalOnFailure(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("postmark unavailable")

	tests := []struct {
		name      string
		templates *fakeTemplates
		sender    *fakeSender
		kind      notification.ErrorType
		retryable bool
	}{
		{
			name:      "transport failure",
			templates: welcomeTemplates(),
			sender:    &fakeSender{err: transportErr},
			kind:      notification.ErrorTransport,
			retryable: true,
		},
		{
			name:      "recipient rejected by the sender",
			templates: welcomeTemplates(),
			sender:    &fakeSender{err: fmt.Errorf("%w: SendTo must be a valid email address", email.ErrInvalidParams)},
			kind:      notification.ErrorValidation,
		},
		{
			name:      "template not found",
			templates: &fakeTemplates{},
			sender:    &fakeSender{},
			kind:      notification.ErrorTemplateNotFound,
		},
		{
			name:      "template fetch failure",
			templates: &fakeTemplates{err: fmt.Errorf("%w: timeout", templates.ErrTemplateFetch)},
			sender:    &fakeSender{},
			kind:      notification.ErrorTemplateFetch,
			retryable: true,
		},
		{
			name: "render failure",
			templates: &fakeTemplates{bundles: map[notification.Type]templates.Bundle{
				notification.TypeWelcome: {Subject: "Hi {{#if fullname}}{{fullname}}", HTML: "x", Text: "x"},
			}},
			sender: &fakeSender{},
			kind:   notification.ErrorRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := store.NewMemoryStore()
			svc := delivery.NewService(st, tt.templates, tt.sender)

			id, err := svc.Process(context.Background(), welcomeEnvelope())
			require.Error(t, err)
			assert.Empty(t, id)

			var derr *notification.DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.kind, derr.Kind)
			assert.Equal(t, tt.retryable, derr.Retryable())

			records := st.Records()
			require.Len(t, records, 1)
			assert.Equal(t, notification.StatusFailed, records[0].Status)
			assert.NotEmpty(t, records[0].ErrorMessage)
			assert.Equal(t, derr.NotificationID, records[0].ID)

			errs := st.Errors()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.kind, errs[0].ErrorType)
			assert.Equal(t, notification.SourceDelivery, errs[0].Source)
			assert.Equal(t, "u1", errs[0].UserID)
			assert.Contains(t, errs[0].OriginalMessage, `"fullname":"Ana"`)

			stats := st.Statistics()
			require.Len(t, stats, 1)
			assert.Equal(t, tt.kind, stats[0].ErrorType)
			assert.Equal(t, string(notification.TypeWelcome), stats[0].NotificationType)
			assert.Equal(t, 1, stats[0].Count)
		})
	}
}

func TestProcess_RenderFailureInvalidatesTemplate(t *testing.T) {
	t.Parallel()

	tpl := &fakeTemplates{bundles: map[notification.Type]templates.Bundle{
		notification.TypeWelcome: {Subject: "{{#if fullname}}Hi", HTML: "x", Text: "x"},
	}}
	svc := delivery.NewService(store.NewMemoryStore(), tpl, &fakeSender{})

	_, err := svc.Process(context.Background(), welcomeEnvelope())
	assert.Equal(t, notification.ErrorRender, notification.KindOf(err))
	assert.Equal(t, []notification.Type{notification.TypeWelcome}, tpl.invalidated)

	tpl.invalidated = nil
	_, err = svc.Process(context.Background(), func() notification.Envelope {
		env := welcomeEnvelope()
		env.Type = notification.TypeUserLogin
		env.Payload = notification.UserData{Date: "2024-01-15"}
		return env
	}())
	assert.Equal(t, notification.ErrorTemplateNotFound, notification.KindOf(err))
	assert.Empty(t, tpl.invalidated)
}

func TestProcess_ErrorSink(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	sink := store.NewMemoryStore()
	svc := delivery.NewService(st, welcomeTemplates(), &fakeSender{err: errors.New("smtp")},
		delivery.WithErrorSink(sink),
	)

	_, err := svc.Process(context.Background(), welcomeEnvelope())
	assert.Equal(t, notification.ErrorTransport, notification.KindOf(err))

	assert.Empty(t, st.Errors())
	assert.Empty(t, st.Statistics())
	require.Len(t, sink.Errors(), 1)
	require.Len(t, sink.Statistics(), 1)
	assert.Equal(t, notification.ErrorTransport, sink.Statistics()[0].ErrorType)
	assert.Equal(t, notification.StatusFailed, st.Records()[0].Status)
}

func TestProcess_StoreFailures(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("db down")

	t.Run("pending write aborts before sending", func(t *testing.T) {
		t.Parallel()
		st := &failingStore{MemoryStore: store.NewMemoryStore(), createErr: dbErr}
		sender := &fakeSender{}
		svc := delivery.NewService(st, welcomeTemplates(), sender)

		_, err := svc.Process(context.Background(), welcomeEnvelope())
		assert.Equal(t, notification.ErrorStore, notification.KindOf(err))
		assert.ErrorIs(t, err, dbErr)
		assert.Empty(t, sender.sent)
		assert.Empty(t, st.Records())
	})

	t.Run("terminal write failure surfaces store error", func(t *testing.T) {
		t.Parallel()
		st := &failingStore{MemoryStore: store.NewMemoryStore(), transitionErr: dbErr}
		svc := delivery.NewService(st, welcomeTemplates(), &fakeSender{})

		_, err := svc.Process(context.Background(), welcomeEnvelope())
		var derr *notification.DeliveryError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, notification.ErrorStore, derr.Kind)
		assert.True(t, derr.Retryable())

		records := st.Records()
		require.Len(t, records, 1)
		assert.Equal(t, notification.StatusPending, records[0].Status)
	})

	t.Run("error record write failure is not propagated", func(t *testing.T) {
		t.Parallel()
		st := &failingStore{MemoryStore: store.NewMemoryStore(), appendErr: dbErr}
		svc := delivery.NewService(st, welcomeTemplates(), &fakeSender{err: errors.New("smtp")})

		_, err := svc.Process(context.Background(), welcomeEnvelope())
		assert.Equal(t, notification.ErrorTransport, notification.KindOf(err))
		assert.NotErrorIs(t, err, dbErr)
		assert.Equal(t, notification.StatusFailed, st.Records()[0].Status)
	})
}

func TestProcess_CancelledDuringSend(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	st := store.NewMemoryStore()
	sender := &cancellingSender{cancel: cancel}
	svc := delivery.NewService(st, welcomeTemplates(), sender)

	_, err := svc.Process(ctx, welcomeEnvelope())
	require.Error(t, err)
	assert.Equal(t, notification.StatusFailed, st.Records()[0].Status)
}

type cancellingSender struct {
	cancel context.CancelFunc
}

func (s *cancellingSender) SendEmail(ctx context.Context, _ email.SendEmailParams) (string, error) {
	s.cancel()
	return "", ctx.Err()
}

func TestProcess_NilPayload(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	svc := delivery.NewService(st, welcomeTemplates(), &fakeSender{})

	env := welcomeEnvelope()
	env.Payload = nil
	_, err := svc.Process(context.Background(), env)
	assert.ErrorIs(t, err, delivery.ErrNilEnvelopePayload)
	assert.Equal(t, notification.ErrorValidation, notification.KindOf(err))
	assert.Empty(t, st.Records())
}

func TestProcess_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	st := store.NewMemoryStore()
	svc := delivery.NewService(st, welcomeTemplates(), &fakeSender{}, delivery.WithMetrics(reg))

	_, err := svc.Process(context.Background(), welcomeEnvelope())
	require.NoError(t, err)

	env := welcomeEnvelope()
	env.Type = notification.TypeUserUpdate
	env.Payload = notification.UserData{Date: "2025-01-01"}
	_, err = svc.Process(context.Background(), env)
	require.Error(t, err)

	expected := `
# HELP notifier_delivery_failures_total Delivery failures by error type
# TYPE notifier_delivery_failures_total counter
notifier_delivery_failures_total{kind="TEMPLATE_NOT_FOUND"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "notifier_delivery_failures_total"))
	count, err := testutil.GatherAndCount(reg, "notifier_delivery_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
