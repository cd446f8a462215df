package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	k "github.com/segmentio/kafka-go"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/logger"
)

// Disposition tells the consumer what to do with a handled message.
type Disposition int

const (
	Ack Disposition = iota
	Retry
	DeadLetter
)

func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	case DeadLetter:
		return "dead_letter"
	}
	return "unknown"
}

// Handler processes one batch and returns one Result per message, in the
// same order.
type Handler func(ctx context.Context, msgs []k.Message) []Result

// Result is the settlement of one message. Reason, when non-empty, is
// attached to republished messages as LastErrorHeader.
type Result struct {
	Disposition Disposition
	Reason      string
}

type Consumer struct {
	reader      MessageReader
	writer      MessageWriter
	handler     Handler
	dlqTopic    string
	maxAttempts int
	batchSize   int
	batchWait   time.Duration
	logger      *slog.Logger
	settled     *prometheus.CounterVec
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConsumerMetrics registers the settled messages counter on reg.
func WithConsumerMetrics(reg prometheus.Registerer, name string) ConsumerOption {
	return func(c *Consumer) {
		c.settled = newSettledCounter(reg, name)
	}
}

// NewConsumer builds a batch consumer. writer may be nil when handler only
// ever acks.
func NewConsumer(cfg Config, reader MessageReader, writer MessageWriter, handler Handler, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:      reader,
		writer:      writer,
		handler:     handler,
		dlqTopic:    cfg.DLQTopic,
		maxAttempts: max(cfg.MaxAttempts, 1),
		batchSize:   max(cfg.BatchSize, 1),
		batchWait:   cfg.BatchWait,
		logger:      slog.Default(),
		settled:     newSettledCounter(nil, ""),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("kafka-consumer"))
	return c
}

func newSettledCounter(reg prometheus.Registerer, name string) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Namespace:   "notifier",
		Subsystem:   "consumer",
		Name:        "messages_total",
		Help:        "Consumed messages by disposition",
		ConstLabels: prometheus.Labels{"consumer": name},
	}, []string{"disposition"})
}

// Run consumes until ctx ends. It returns nil on cancellation and an error
// when the broker fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		batch, err := c.collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := c.process(ctx, batch); err != nil {
			return err
		}
	}
}

// collect blocks for the first message, then gathers more until the batch
// is full or batchWait elapsed.
func (c *Consumer) collect(ctx context.Context) ([]k.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	batch := []k.Message{first}
	if c.batchSize == 1 || c.batchWait <= 0 {
		return batch, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.batchWait)
	defer cancel()
	for len(batch) < c.batchSize {
		msg, err := c.reader.FetchMessage(waitCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		batch = append(batch, msg)
	}
	return batch, nil
}

func (c *Consumer) process(ctx context.Context, batch []k.Message) error {
	results := c.handler(ctx, batch)
	if len(results) != len(batch) {
		return fmt.Errorf("%w: %d messages, %d results", ErrHandlerMismatch, len(batch), len(results))
	}

	var out []k.Message
	counts := map[Disposition]int{}
	for i, msg := range batch {
		d, republish := c.settle(msg, results[i])
		counts[d]++
		if republish != nil {
			out = append(out, *republish)
		}
	}

	// Settlement writes must survive shutdown of ctx to avoid dropping retries.
	writeCtx := context.WithoutCancel(ctx)
	if len(out) > 0 {
		if err := c.writer.WriteMessages(writeCtx, out...); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
	}
	if err := c.reader.CommitMessages(writeCtx, batch...); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}

	for d, n := range counts {
		c.settled.WithLabelValues(d.String()).Add(float64(n))
	}
	c.logger.InfoContext(ctx, "batch settled",
		logger.BatchSize(len(batch)),
		slog.Int("acked", counts[Ack]),
		slog.Int("retried", counts[Retry]),
		slog.Int("dead_lettered", counts[DeadLetter]),
	)
	return nil
}

// settle returns the effective disposition and the message to republish.
func (c *Consumer) settle(msg k.Message, r Result) (Disposition, *k.Message) {
	if r.Disposition == Ack {
		return Ack, nil
	}

	attempt := RetryCount(msg) + 1
	headers := withHeader(msg.Headers, RetryCountHeader, strconv.Itoa(attempt))
	if r.Reason != "" {
		headers = withHeader(headers, LastErrorHeader, r.Reason)
	}

	if r.Disposition == Retry && attempt < c.maxAttempts {
		return Retry, &k.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value, Headers: headers}
	}

	headers = withHeader(headers, SourceTopicHeader, msg.Topic)
	c.logger.Warn("message dead-lettered",
		logger.MessageID(MessageID(msg)),
		logger.RetryCount(attempt),
		slog.String("reason", r.Reason),
	)
	return DeadLetter, &k.Message{Topic: c.dlqTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
}

// MessageID identifies a consumed message as topic/partition/offset.
func MessageID(msg k.Message) string {
	return fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

// SettledCounter exposes the settled messages counter.
func (c *Consumer) SettledCounter() *prometheus.CounterVec {
	return c.settled
}
