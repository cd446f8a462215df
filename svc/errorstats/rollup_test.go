package errorstats_test

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/errorstats"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

func TestField(t *testing.T) {
	t.Parallel()

	f := errorstats.Field(notification.ErrorSchemaValidation, "CARD.CREATE", 7)
	assert.Equal(t, "SCHEMA_VALIDATION_ERROR|CARD.CREATE|07", f)

	b, ok := errorstats.ParseField(f)
	require.True(t, ok)
	assert.Equal(t, notification.ErrorSchemaValidation, b.ErrorType)
	assert.Equal(t, "CARD.CREATE", b.NotificationType)
	assert.Equal(t, 7, b.Hour)

	assert.Equal(t, "PARSE_ERROR|unknown|00", errorstats.Field(notification.ErrorParse, "", 0))

	piped := errorstats.Field(notification.ErrorSchemaValidation, "CARD|CREATE", 3)
	b, ok = errorstats.ParseField(piped)
	require.True(t, ok, piped)
	assert.Equal(t, notification.ErrorSchemaValidation, b.ErrorType)
	assert.Equal(t, "CARD|CREATE", b.NotificationType)
	assert.Equal(t, 3, b.Hour)

	for _, bad := range []string{"", "a|b", "a|b|c", "a|b|24", "a|b|c|d", "|x|01", "a||01"} {
		_, ok := errorstats.ParseField(bad)
		assert.False(t, ok, bad)
	}
}

func TestSortBuckets(t *testing.T) {
	t.Parallel()

	b := []errorstats.Bucket{
		{ErrorType: "B", NotificationType: "x", Hour: 2},
		{ErrorType: "A", NotificationType: "y", Hour: 2},
		{ErrorType: "A", NotificationType: "x", Hour: 2},
		{ErrorType: "Z", NotificationType: "x", Hour: 1},
	}
	errorstats.SortBuckets(b)
	assert.Equal(t, []errorstats.Bucket{
		{ErrorType: "Z", NotificationType: "x", Hour: 1},
		{ErrorType: "A", NotificationType: "x", Hour: 2},
		{ErrorType: "A", NotificationType: "y", Hour: 2},
		{ErrorType: "B", NotificationType: "x", Hour: 2},
	}, b)
}

func TestRedisRollup_InvalidDate(t *testing.T) {
	t.Parallel()

	r := errorstats.NewRedisRollup(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}))
	_, err := r.Day(context.Background(), "yesterday")
	assert.ErrorIs(t, err, errorstats.ErrInvalidDate)
}

// setupTestRedis connects to REDIS_TEST_URL, or localhost DB 15, and skips
// when no server answers.
func setupTestRedis(t *testing.T) *goredis.Client {
	t.Helper()

	opts := &goredis.Options{Addr: "localhost:6379", DB: 15}
	if url := os.Getenv("REDIS_TEST_URL"); url != "" {
		parsed, err := goredis.ParseURL(url)
		require.NoError(t, err)
		opts = parsed
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRollup_Integration(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	prefix := "notifier:test:" + time.Now().Format("150405.000000")
	rollup := errorstats.NewRedisRollup(client, errorstats.WithPrefix(prefix), errorstats.WithRetention(time.Minute))
	t.Cleanup(func() { client.Del(context.Background(), prefix+":2025-06-01") })

	for range 3 {
		require.NoError(t, rollup.AppendStatistic(ctx, notification.NewErrorStatistic(notification.ErrorParse, "", now)))
	}
	require.NoError(t, rollup.AppendStatistic(ctx, notification.NewErrorStatistic(notification.ErrorTransport, "WELCOME", now.Add(-time.Hour))))

	buckets, err := rollup.Day(ctx, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, []errorstats.Bucket{
		{ErrorType: notification.ErrorTransport, NotificationType: "WELCOME", Hour: 16, Count: 1},
		{ErrorType: notification.ErrorParse, NotificationType: notification.Unknown, Hour: 17, Count: 3},
	}, buckets)

	ttl, err := client.TTL(ctx, prefix+":2025-06-01").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
