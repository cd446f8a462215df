package deadletter_test

import (
	"context"
	"testing"

	k "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/kafka"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/deadletter"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/store"
)

func TestClassifier_KafkaHandler(t *testing.T) {
	t.Parallel()

	st := store.NewMemoryStore()
	handler := deadletter.NewClassifier(st, deadletter.WithClock(clock)).KafkaHandler()

	results := handler(context.Background(), []k.Message{
		{Topic: "notifications.dlq", Partition: 0, Offset: 7, Value: []byte(invalidBody), Headers: []k.Header{
			{Key: kafka.RetryCountHeader, Value: []byte("3")},
			{Key: kafka.SourceTopicHeader, Value: []byte("notifications.pending")},
		}},
		{Topic: "notifications.dlq", Partition: 0, Offset: 8, Value: []byte("garbage")},
	})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, kafka.Ack, r.Disposition)
	}

	recs := st.Errors()
	require.Len(t, recs, 2)
	byType := map[notification.ErrorType]notification.ErrorRecord{}
	for _, rec := range recs {
		byType[rec.ErrorType] = rec
	}

	schemaRec := byType[notification.ErrorSchemaValidation]
	assert.Equal(t, 3, schemaRec.RetryCount)
	assert.Equal(t, "notifications.dlq/0/7", schemaRec.SourceMessageID)
	assert.Equal(t, "notifications.pending", schemaRec.Attributes[kafka.SourceTopicHeader])
	assert.Contains(t, byType, notification.ErrorParse)
}
