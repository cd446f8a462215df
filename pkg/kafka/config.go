package kafka

import "time"

type Config struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	PendingTopic string        `env:"KAFKA_PENDING_TOPIC" envDefault:"notifications.pending"`
	DLQTopic     string        `env:"KAFKA_DLQ_TOPIC" envDefault:"notifications.dlq"`
	GroupID      string        `env:"KAFKA_GROUP_ID" envDefault:"notifier"`
	DLQGroupID   string        `env:"KAFKA_DLQ_GROUP_ID" envDefault:"notifier-dlq"`
	MaxAttempts  int           `env:"KAFKA_MAX_ATTEMPTS" envDefault:"3"`
	BatchSize    int           `env:"KAFKA_BATCH_SIZE" envDefault:"10"`
	BatchWait    time.Duration `env:"KAFKA_BATCH_WAIT" envDefault:"1s"`
}
