package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/SantiagoAlvPer/infernoBank-notifications/svc/notification"
)

// Default collection names.
const (
	NotificationsCollection = "notifications"
	ErrorsCollection        = "notification_errors"
	StatisticsCollection    = "notification_error_stats"
)

type MongoStore struct {
	notifications *mongo.Collection
	errs          *mongo.Collection
	stats         *mongo.Collection
}

type MongoOption func(*mongoNames)

type mongoNames struct {
	notifications, errs, stats string
}

// WithCollections overrides the collection names. Empty names keep the default.
func WithCollections(notifications, errs, stats string) MongoOption {
	return func(n *mongoNames) {
		if notifications != "" {
			n.notifications = notifications
		}
		if errs != "" {
			n.errs = errs
		}
		if stats != "" {
			n.stats = stats
		}
	}
}

func NewMongoStore(db *mongo.Database, opts ...MongoOption) *MongoStore {
	names := mongoNames{
		notifications: NotificationsCollection,
		errs:          ErrorsCollection,
		stats:         StatisticsCollection,
	}
	for _, opt := range opts {
		opt(&names)
	}
	return &MongoStore{
		notifications: db.Collection(names.notifications),
		errs:          db.Collection(names.errs),
		stats:         db.Collection(names.stats),
	}
}

// EnsureIndexes creates the unique record key and the history index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.notifications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return storeErr("ensure indexes", err)
	}
	_, err = s.errs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return storeErr("ensure indexes", err)
	}
	return nil
}

func (s *MongoStore) CreatePending(ctx context.Context, r notification.Record) error {
	r.CreatedAt = notification.Truncate(r.CreatedAt)
	r.UpdatedAt = notification.Truncate(r.UpdatedAt)
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if _, err := s.notifications.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return storeErr("create pending", err)
	}
	return nil
}

func (s *MongoStore) Transition(ctx context.Context, id string, createdAt time.Time, status notification.Status, attrs notification.TransitionAttrs) error {
	if !status.Terminal() {
		return CheckTransition(notification.StatusPending, status)
	}
	createdAt = notification.Truncate(createdAt)

	set := bson.D{{Key: "status", Value: status}}
	if attrs.SentAt != nil {
		set = append(set, bson.E{Key: "sentAt", Value: notification.Truncate(*attrs.SentAt)})
	}
	if attrs.TransportMessageID != "" {
		set = append(set, bson.E{Key: "transportMessageId", Value: attrs.TransportMessageID})
	}
	if attrs.ErrorMessage != "" {
		set = append(set, bson.E{Key: "errorMessage", Value: attrs.ErrorMessage})
	}
	if !attrs.UpdatedAt.IsZero() {
		set = append(set, bson.E{Key: "updatedAt", Value: notification.Truncate(attrs.UpdatedAt)})
	}

	filter := bson.D{
		{Key: "id", Value: id},
		{Key: "createdAt", Value: createdAt},
		{Key: "status", Value: bson.D{{Key: "$in", Value: bson.A{notification.StatusPending, status}}}},
	}
	res, err := s.notifications.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return storeErr("transition", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	var current notification.Record
	err = s.notifications.FindOne(ctx, bson.D{{Key: "id", Value: id}, {Key: "createdAt", Value: createdAt}}).Decode(&current)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrRecordNotFound
	case err != nil:
		return storeErr("transition", err)
	}
	return CheckTransition(current.Status, status)
}

func (s *MongoStore) AppendError(ctx context.Context, rec notification.ErrorRecord) error {
	rec.CreatedAt = notification.Truncate(rec.CreatedAt)
	if _, err := s.errs.InsertOne(ctx, rec); err != nil && !mongo.IsDuplicateKeyError(err) {
		return storeErr("append error", err)
	}
	return nil
}

func (s *MongoStore) AppendStatistic(ctx context.Context, stat notification.ErrorStatistic) error {
	stat.CreatedAt = notification.Truncate(stat.CreatedAt)
	if _, err := s.stats.InsertOne(ctx, stat); err != nil && !mongo.IsDuplicateKeyError(err) {
		return storeErr("append statistic", err)
	}
	return nil
}

func (s *MongoStore) History(ctx context.Context, userID string, limit int) ([]notification.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.notifications.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, storeErr("history", err)
	}

	records := make([]notification.Record, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, storeErr("history", err)
	}
	for i := range records {
		records[i].CreatedAt = records[i].CreatedAt.UTC()
		records[i].UpdatedAt = records[i].UpdatedAt.UTC()
	}
	return records, nil
}
