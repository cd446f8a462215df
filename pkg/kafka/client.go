package kafka

import (
	"context"
	"time"

	k "github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (k.Message, error)
	CommitMessages(ctx context.Context, msgs ...k.Message) error
}

// MessageWriter is the part of *kafka.Writer used by Consumer and Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...k.Message) error
}

// NewWriter returns a writer without a fixed topic; every message names its
// own topic.
func NewWriter(cfg Config) (*k.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	return &k.Writer{
		Addr:         k.TCP(cfg.Brokers...),
		Balancer:     &k.LeastBytes{},
		BatchTimeout: 5 * time.Millisecond,
		RequiredAcks: k.RequireAll,
	}, nil
}

// NewReader returns a consumer group reader with explicit commits.
func NewReader(cfg Config, topic, groupID string) (*k.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	return k.NewReader(k.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1e3,
		MaxBytes: 10e6,
		MaxWait:  100 * time.Millisecond,
	}), nil
}
