package kafka_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	k "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/kafka"
)

// fakeReader serves queued messages and then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []k.Message
	committed []k.Message
	commitErr error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (k.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return k.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...k.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Committed() []k.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]k.Message(nil), r.committed...)
}

type fakeWriter struct {
	mu      sync.Mutex
	written []k.Message
	err     error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...k.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Written() []k.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]k.Message(nil), w.written...)
}

func msg(offset int64, value string, headers ...k.Header) k.Message {
	return k.Message{Topic: "notifications.pending", Offset: offset, Key: []byte(value), Value: []byte(value), Headers: headers}
}

var cfg = kafka.Config{
	DLQTopic:    "notifications.dlq",
	MaxAttempts: 3,
	BatchSize:   5,
	BatchWait:   20 * time.Millisecond,
}

// runUntil runs the consumer until cond holds or the deadline passes.
func runUntil(t *testing.T, c *kafka.Consumer, cond func() bool) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Eventually(t, cond, time.Second, 5*time.Millisecond)
	cancel()
	return <-done
}

func TestConsumer_Settlement(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{queue: []k.Message{
		msg(1, "ok"),
		msg(2, "retry-fresh"),
		msg(3, "retry-exhausted", k.Header{Key: kafka.RetryCountHeader, Value: []byte("2")}),
		msg(4, "terminal"),
	}}
	writer := &fakeWriter{}
	reg := prometheus.NewRegistry()

	handler := func(_ context.Context, msgs []k.Message) []kafka.Result {
		out := make([]kafka.Result, len(msgs))
		for i, m := range msgs {
			switch string(m.Value) {
			case "ok":
				out[i] = kafka.Result{Disposition: kafka.Ack}
			case "terminal":
				out[i] = kafka.Result{Disposition: kafka.DeadLetter, Reason: "VALIDATION_ERROR"}
			default:
				out[i] = kafka.Result{Disposition: kafka.Retry, Reason: "TRANSPORT_ERROR"}
			}
		}
		return out
	}

	c := kafka.NewConsumer(cfg, reader, writer, handler, kafka.WithConsumerMetrics(reg, "pending"))
	err := runUntil(t, c, func() bool { return len(reader.Committed()) == 4 })
	require.NoError(t, err)

	written := writer.Written()
	require.Len(t, written, 3)

	byValue := map[string]k.Message{}
	for _, m := range written {
		byValue[string(m.Value)] = m
	}

	fresh := byValue["retry-fresh"]
	assert.Equal(t, "notifications.pending", fresh.Topic)
	assert.Equal(t, 1, kafka.RetryCount(fresh))
	reason, _ := kafka.Header(fresh, kafka.LastErrorHeader)
	assert.Equal(t, "TRANSPORT_ERROR", reason)

	exhausted := byValue["retry-exhausted"]
	assert.Equal(t, "notifications.dlq", exhausted.Topic)
	assert.Equal(t, 3, kafka.RetryCount(exhausted))
	source, _ := kafka.Header(exhausted, kafka.SourceTopicHeader)
	assert.Equal(t, "notifications.pending", source)

	terminal := byValue["terminal"]
	assert.Equal(t, "notifications.dlq", terminal.Topic)
	assert.Equal(t, 1, kafka.RetryCount(terminal))

	assert.Equal(t, float64(1), testutil.ToFloat64(c.SettledCounter().WithLabelValues("ack")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.SettledCounter().WithLabelValues("retry")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.SettledCounter().WithLabelValues("dead_letter")))
}

func TestConsumer_BatchesRespectSize(t *testing.T) {
	t.Parallel()

	queue := make([]k.Message, 12)
	for i := range queue {
		queue[i] = msg(int64(i), "ok")
	}
	reader := &fakeReader{queue: queue}

	var (
		mu    sync.Mutex
		sizes []int
	)
	handler := func(_ context.Context, msgs []k.Message) []kafka.Result {
		mu.Lock()
		sizes = append(sizes, len(msgs))
		mu.Unlock()
		return make([]kafka.Result, len(msgs))
	}

	c := kafka.NewConsumer(cfg, reader, &fakeWriter{}, handler)
	require.NoError(t, runUntil(t, c, func() bool { return len(reader.Committed()) == 12 }))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{5, 5, 2}, sizes)
}

func TestConsumer_Failures(t *testing.T) {
	t.Parallel()

	retryAll := func(_ context.Context, msgs []k.Message) []kafka.Result {
		out := make([]kafka.Result, len(msgs))
		for i := range out {
			out[i] = kafka.Result{Disposition: kafka.Retry}
		}
		return out
	}

	t.Run("publish failure stops without commit", func(t *testing.T) {
		t.Parallel()
		reader := &fakeReader{queue: []k.Message{msg(1, "a")}}
		c := kafka.NewConsumer(cfg, reader, &fakeWriter{err: errors.New("broker down")}, retryAll)

		err := c.Run(context.Background())
		assert.ErrorIs(t, err, kafka.ErrPublishFailed)
		assert.Empty(t, reader.Committed())
	})

	t.Run("commit failure is returned", func(t *testing.T) {
		t.Parallel()
		reader := &fakeReader{queue: []k.Message{msg(1, "a")}, commitErr: errors.New("rebalance")}
		c := kafka.NewConsumer(cfg, reader, &fakeWriter{}, func(_ context.Context, msgs []k.Message) []kafka.Result {
			return make([]kafka.Result, len(msgs))
		})

		assert.ErrorIs(t, c.Run(context.Background()), kafka.ErrCommitFailed)
	})

	t.Run("handler result mismatch", func(t *testing.T) {
		t.Parallel()
		reader := &fakeReader{queue: []k.Message{msg(1, "a")}}
		c := kafka.NewConsumer(cfg, reader, &fakeWriter{}, func(context.Context, []k.Message) []kafka.Result {
			return nil
		})

		assert.ErrorIs(t, c.Run(context.Background()), kafka.ErrHandlerMismatch)
	})

	t.Run("cancellation returns nil", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := kafka.NewConsumer(cfg, &fakeReader{}, &fakeWriter{}, retryAll)
		assert.NoError(t, c.Run(ctx))
	})
}

func TestPublisher(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	p := kafka.NewPublisher(w, "notifications.pending")

	err := p.Publish(context.Background(), "id-1", []byte(`{}`), map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)

	written := w.Written()
	require.Len(t, written, 1)
	assert.Equal(t, "notifications.pending", written[0].Topic)
	assert.Equal(t, []byte("id-1"), written[0].Key)
	assert.Equal(t, []k.Header{{Key: "a", Value: []byte("1")}, {Key: "b", Value: []byte("2")}}, written[0].Headers)

	failing := kafka.NewPublisher(&fakeWriter{err: errors.New("nope")}, "t")
	assert.ErrorIs(t, failing.Publish(context.Background(), "", nil, nil), kafka.ErrPublishFailed)
}

func TestHeaders(t *testing.T) {
	t.Parallel()

	m := msg(1, "x",
		k.Header{Key: kafka.RetryCountHeader, Value: []byte("1")},
		k.Header{Key: kafka.RetryCountHeader, Value: []byte("4")},
		k.Header{Key: "trace", Value: []byte("abc")},
	)
	assert.Equal(t, 4, kafka.RetryCount(m))
	assert.Equal(t, map[string]string{kafka.RetryCountHeader: "4", "trace": "abc"}, kafka.Headers(m))

	assert.Equal(t, 0, kafka.RetryCount(msg(1, "x", k.Header{Key: kafka.RetryCountHeader, Value: []byte("bad")})))
	assert.Equal(t, "notifications.pending/0/7", kafka.MessageID(msg(7, "x")))
}

func TestNewClients_RequireBrokers(t *testing.T) {
	t.Parallel()

	_, err := kafka.NewWriter(kafka.Config{})
	assert.ErrorIs(t, err, kafka.ErrNoBrokers)
	_, err = kafka.NewReader(kafka.Config{}, "t", "g")
	assert.ErrorIs(t, err, kafka.ErrNoBrokers)

	w, err := kafka.NewWriter(kafka.Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Empty(t, w.Topic)
}
