package errorstats

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

const (
	DefaultPrefix    = "notifier:errors"
	DefaultRetention = 30 * 24 * time.Hour
)

// Bucket is one counter of a day rollup.
type Bucket struct {
	ErrorType        notification.ErrorType `json:"errorType"`
	NotificationType string                 `json:"notificationType"`
	Hour             int                    `json:"hour"`
	Count            int64                  `json:"count"`
}

type RedisRollup struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

type Option func(*RedisRollup)

func WithPrefix(prefix string) Option {
	return func(r *RedisRollup) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func WithRetention(d time.Duration) Option {
	return func(r *RedisRollup) {
		if d > 0 {
			r.retention = d
		}
	}
}

func NewRedisRollup(client redis.UniversalClient, opts ...Option) *RedisRollup {
	r := &RedisRollup{client: client, prefix: DefaultPrefix, retention: DefaultRetention}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRollup) key(date string) string {
	return r.prefix + ":" + date
}

// AppendStatistic adds stat.Count to its day counter.
func (r *RedisRollup) AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error {
	key := r.key(stat.Date)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, Field(stat.ErrorType, stat.NotificationType, stat.Hour), int64(max(stat.Count, 1)))
		pipe.Expire(ctx, key, r.retention)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRollupFailed, err)
	}
	return nil
}

// Day returns the counters of date (YYYY-MM-DD) ordered by hour, then error
// type, then notification type.
func (r *RedisRollup) Day(ctx context.Context, date string) ([]Bucket, error) {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	fields, err := r.client.HGetAll(ctx, r.key(date)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRollupFailed, err)
	}

	buckets := make([]Bucket, 0, len(fields))
	for field, value := range fields {
		b, ok := ParseField(field)
		if !ok {
			continue
		}
		if b.Count, err = strconv.ParseInt(value, 10, 64); err != nil {
			continue
		}
		buckets = append(buckets, b)
	}
	SortBuckets(buckets)
	return buckets, nil
}

// Field builds the hash field of one counter.
func Field(errType notification.ErrorType, notificationType string, hour int) string {
	if notificationType == "" {
		notificationType = notification.Unknown
	}
	return fmt.Sprintf("%s|%s|%02d", errType, notificationType, hour)
}

// ParseField is the inverse of Field. Count is left zero. The notification
// type is taken verbatim from between the first and the last separator, so
// types read from malformed messages may contain "|".
func ParseField(field string) (Bucket, bool) {
	errType, rest, ok := strings.Cut(field, "|")
	if !ok || errType == "" {
		return Bucket{}, false
	}
	i := strings.LastIndex(rest, "|")
	if i <= 0 {
		return Bucket{}, false
	}
	hour, err := strconv.Atoi(rest[i+1:])
	if err != nil || hour < 0 || hour > 23 {
		return Bucket{}, false
	}
	return Bucket{
		ErrorType:        notification.ErrorType(errType),
		NotificationType: rest[:i],
		Hour:             hour,
	}, true
}

func SortBuckets(b []Bucket) {
	slices.SortFunc(b, func(x, y Bucket) int {
		if x.Hour != y.Hour {
			return x.Hour - y.Hour
		}
		if c := strings.Compare(string(x.ErrorType), string(y.ErrorType)); c != 0 {
			return c
		}
		return strings.Compare(x.NotificationType, y.NotificationType)
	})
}
