package kafka

import (
	"context"
	"fmt"
	"maps"
	"slices"

	k "github.com/segmentio/kafka-go"
)

type Publisher struct {
	writer MessageWriter
	topic  string
}

func NewPublisher(w MessageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// Publish writes value keyed by key. Headers are written in key order.
func (p *Publisher) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	msg := k.Message{Topic: p.topic, Key: []byte(key), Value: value}
	for _, name := range slices.Sorted(maps.Keys(headers)) {
		msg.Headers = append(msg.Headers, k.Header{Key: name, Value: []byte(headers[name])})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrPublishFailed, p.topic, err)
	}
	return nil
}
