package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-manager/backend/logging"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	projectsCollection = "projects"
	tasksCollection    = "tasks"
	issuesCollection   = "issues"
)

type MongoOptions struct {
	URI      string
	Database string
	// Transactions wraps multi-document writes in a session transaction.
	// The server must be a replica set or sharded cluster.
	Transactions   bool
	BreakerTimeout time.Duration
}

type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	breaker      *gobreaker.CircuitBreaker
	transactions bool
	now          func() time.Time
}

// NewMongoStore connects and pings the server before returning.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Connected to MongoDB database %s", opts.Database)

	return &MongoStore{
		client:       client,
		db:           client.Database(opts.Database),
		breaker:      newBreaker("mongo-store", opts.BreakerTimeout),
		transactions: opts.Transactions,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

// isBreakerSuccess treats answers from a healthy server (missing document,
// unique index hit, caller cancellation) as successes.
func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		errors.Is(err, ErrNotFound) ||
		mongo.IsDuplicateKeyError(err) ||
		errors.Is(err, context.Canceled)
}

// do runs fn through the circuit breaker and maps driver errors onto the
// store's sentinels.
func (s *MongoStore) do(fn func() error) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return translateError(err)
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (s *MongoStore) Users() Users       { return &mongoUsers{s: s, coll: s.db.Collection(usersCollection)} }
func (s *MongoStore) Projects() Projects { return &mongoProjects{s: s, coll: s.db.Collection(projectsCollection)} }
func (s *MongoStore) Tasks() Tasks       { return &mongoTasks{s: s, coll: s.db.Collection(tasksCollection)} }
func (s *MongoStore) Issues() Issues     { return &mongoIssues{s: s, coll: s.db.Collection(issuesCollection)} }

func (s *MongoStore) Transactional() bool { return s.transactions }

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// EnsureIndexes creates the unique and lookup indexes the service relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		projectsCollection: {
			{Keys: bson.D{{Key: "userIds", Value: 1}}},
			{Keys: bson.D{{Key: "startDate", Value: 1}, {Key: "endDate", Value: 1}}},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "projectId", Value: 1}}},
		},
		issuesCollection: {
			{Keys: bson.D{{Key: "projectId", Value: 1}}},
		},
	}

	for coll, indexes := range specs {
		names, err := s.db.Collection(coll).Indexes().CreateMany(ctx, indexes)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		logging.Logger.Infof("Event ID: DB_INDEXES_READY, Description: Indexes on %s: %v", coll, names)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.do(func() error { return s.client.Ping(ctx, nil) })
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var sortByID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)
