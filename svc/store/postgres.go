package store

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SantiagoAlvPer/infernoBank-notifications/pkg/pg"
	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertRecordSQL = `
INSERT INTO notifications (
    id, created_at, type, user_email, user_id, status, data,
    original_notification_id, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
ON CONFLICT (id, created_at) DO NOTHING`

func (s *PostgresStore) CreatePending(ctx context.Context, r notification.Record) error {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := s.db.Exec(ctx, insertRecordSQL,
		r.ID, notification.Truncate(r.CreatedAt), string(r.Type), r.UserEmail, r.UserID,
		string(r.Status), data, r.OriginalNotificationID, notification.Truncate(r.UpdatedAt),
	)
	if err != nil {
		return storeErr("create pending", err)
	}
	return nil
}

const transitionSQL = `
UPDATE notifications SET
    status = $3,
    sent_at = COALESCE($4, sent_at),
    transport_message_id = COALESCE(NULLIF($5, ''), transport_message_id),
    error_message = COALESCE(NULLIF($6, ''), error_message),
    updated_at = COALESCE($7, updated_at)
WHERE id = $1 AND created_at = $2 AND (status = 'PENDING' OR status = $3)`

func (s *PostgresStore) Transition(ctx context.Context, id string, createdAt time.Time, status notification.Status, attrs notification.TransitionAttrs) error {
	if !status.Terminal() {
		return CheckTransition(notification.StatusPending, status)
	}
	createdAt = notification.Truncate(createdAt)

	var sentAt, updatedAt *time.Time
	if attrs.SentAt != nil {
		t := notification.Truncate(*attrs.SentAt)
		sentAt = &t
	}
	if !attrs.UpdatedAt.IsZero() {
		t := notification.Truncate(attrs.UpdatedAt)
		updatedAt = &t
	}

	tag, err := s.db.Exec(ctx, transitionSQL,
		id, createdAt, string(status), sentAt, attrs.TransportMessageID, attrs.ErrorMessage, updatedAt,
	)
	if err != nil {
		return storeErr("transition", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRow(ctx, `SELECT status FROM notifications WHERE id = $1 AND created_at = $2`, id, createdAt).Scan(&current)
	switch {
	case pg.IsNotFoundError(err):
		return ErrRecordNotFound
	case err != nil:
		return storeErr("transition", err)
	}
	return CheckTransition(notification.Status(current), status)
}

const insertErrorSQL = `
INSERT INTO notification_errors (
    id, created_at, error_type, source, original_message, source_message_id,
    notification_id, notification_type, user_email, user_id, missing_fields,
    invalid_fields, validation_errors, schema_used, retry_count, error_message, attributes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (id, created_at) DO NOTHING`

func (s *PostgresStore) AppendError(ctx context.Context, rec notification.ErrorRecord) error {
	_, err := s.db.Exec(ctx, insertErrorSQL,
		rec.ID, notification.Truncate(rec.CreatedAt), string(rec.ErrorType), rec.Source,
		rec.OriginalMessage, rec.SourceMessageID, rec.NotificationID, rec.NotificationType,
		rec.UserEmail, rec.UserID, nonNil(rec.MissingFields), nonNil(rec.InvalidFields),
		nonNil(rec.ValidationErrors), rec.SchemaUsed, rec.RetryCount, rec.ErrorMessage,
		nonNilMap(rec.Attributes),
	)
	if err != nil {
		return storeErr("append error", err)
	}
	return nil
}

const insertStatSQL = `
INSERT INTO notification_error_stats (
    id, created_at, error_type, notification_type, date, hour, count
) VALUES ($1, $2, $3, $4, $5::date, $6, $7)
ON CONFLICT (id, created_at) DO NOTHING`

func (s *PostgresStore) AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error {
	_, err := s.db.Exec(ctx, insertStatSQL,
		stat.ID, notification.Truncate(stat.CreatedAt), string(stat.ErrorType),
		stat.NotificationType, stat.Date, stat.Hour, stat.Count,
	)
	if err != nil {
		return storeErr("append statistic", err)
	}
	return nil
}

const historySQL = `
SELECT id, created_at, type, user_email, user_id, status, data,
       COALESCE(original_notification_id, ''), sent_at,
       COALESCE(transport_message_id, ''), COALESCE(error_message, ''), updated_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

func (s *PostgresStore) History(ctx context.Context, userID string, limit int) ([]notification.Record, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}
	rows, err := s.db.Query(ctx, historySQL, userID, limit)
	if err != nil {
		return nil, storeErr("history", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.Record, error) {
		var (
			r      notification.Record
			typ    string
			status string
		)
		err := row.Scan(
			&r.ID, &r.CreatedAt, &typ, &r.UserEmail, &r.UserID, &status, &r.Data,
			&r.OriginalNotificationID, &r.SentAt, &r.TransportMessageID, &r.ErrorMessage, &r.UpdatedAt,
		)
		r.Type = notification.Type(typ)
		r.Status = notification.Status(status)
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		return r, err
	})
	if err != nil {
		return nil, storeErr("history", err)
	}
	return records, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
