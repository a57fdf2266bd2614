// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jaothui-api-server/internal/store"
)

const (
	colProfiles      = "profiles"
	colFarms         = "farms"
	colFarmMembers   = "farm_members"
	colAnimals       = "animals"
	colActivities    = "activities"
	colReminders     = "activity_reminders"
	colSubscriptions = "push_subscriptions"
	colNotifications = "notifications"
)

// Store is the MongoDB implementation of store.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	// transactions requires a replica set; standalone servers run WithTx without one.
	transactions bool
	sess         mongo.Session
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server, and ensures indexes on dbName.
func Connect(ctx context.Context, uri, dbName string, transactions bool) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	s := New(client, client.Database(dbName), transactions)
	if err := s.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func New(client *mongo.Client, db *mongo.Database, transactions bool) *Store {
	return &Store{client: client, db: db, transactions: transactions}
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Database exposes the handle used by seeding.
func (s *Store) Database() *mongo.Database { return s.db }

func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.sess != nil || !s.transactions {
		return fn(s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(&Store{client: s.client, db: s.db, transactions: true, sess: sess})
	})
	return err
}

// ctx binds ctx to the store's session when running inside WithTx.
func (s *Store) ctx(ctx context.Context) context.Context {
	if s.sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, s.sess)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the unique keys the service relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		colProfiles: {
			{Keys: bson.D{{Key: "externalUserID", Value: 1}}, Options: unique},
			{
				Keys: bson.D{{Key: "phoneNumber", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"phoneNumber": bson.M{"$type": "string"}}),
			},
		},
		colFarms: {
			{Keys: bson.D{{Key: "farmCode", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "ownerID", Value: 1}}},
		},
		colFarmMembers: {
			{Keys: bson.D{{Key: "farmID", Value: 1}, {Key: "userID", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "userID", Value: 1}}},
		},
		colAnimals: {
			{Keys: bson.D{{Key: "farmID", Value: 1}, {Key: "animalID", Value: 1}}, Options: unique},
		},
		colActivities: {
			{Keys: bson.D{{Key: "farmID", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "reminderDate", Value: 1}}},
		},
		colReminders: {
			{Keys: bson.D{{Key: "activityID", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "reminderDate", Value: 1}, {Key: "notificationSent", Value: 1}}},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "userID", Value: 1}, {Key: "endpoint", Value: 1}}, Options: unique},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "userID", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, ims := range indexes {
		if _, err := s.col(name).Indexes().CreateMany(ctx, ims); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

func findOptions(sortField string, desc bool, limit, offset int) *options.FindOptions {
	dir := 1
	if desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: dir}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
		if offset > 0 {
			opts.SetSkip(int64(offset))
		}
	}
	return opts
}

func sortField(fields map[string]string, sortBy, fallback string) string {
	if f, ok := fields[sortBy]; ok {
		return f
	}
	return fields[fallback]
}
