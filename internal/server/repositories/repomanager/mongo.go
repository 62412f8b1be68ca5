package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/multierr"
)

// MongoStore calls fn directly: every repository write touches a single
// document.
type MongoStore struct {
	client *mongo.Client
	repo   notes.Repository
}

// OpenMongo connects to uri and prepares the notes collection of dbName.
func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, multierr.Append(fmt.Errorf("ping mongo: %w", err), client.Disconnect(ctx))
	}

	repo := notes.NewMongoRepository(client.Database(dbName))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, multierr.Append(err, client.Disconnect(ctx))
	}
	return &MongoStore{client: client, repo: repo}, nil
}

func (s *MongoStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repo notes.Repository) error) error {
	return fn(ctx, s.repo)
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
