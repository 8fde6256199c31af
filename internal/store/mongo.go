package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists documents to a MongoDB collection, one document per
// (type, url), upserted in place rather than appended.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects to uri and pings it before returning, so
// construction failures surface immediately rather than on the first
// write.
func NewMongoStore(uri, database, collection string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "_metadata.type", Value: 1}, {Key: "_metadata.url", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb index create: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: coll,
		logger:     logger.With("component", "store.mongo"),
	}, nil
}

func (s *MongoStore) filter(resourceType, url string) bson.D {
	return bson.D{{Key: "_metadata.type", Value: resourceType}, {Key: "_metadata.url", Value: url}}
}

func (s *MongoStore) Upsert(ctx context.Context, resourceType, url string, document map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.collection.ReplaceOne(ctx, s.filter(resourceType, url), document, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb upsert: %w", err)
	}
	s.logger.Debug("document upserted", "type", resourceType, "url", url)
	return nil
}

func (s *MongoStore) Get(ctx context.Context, resourceType, url string) (map[string]any, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc map[string]any
	err := s.collection.FindOne(ctx, s.filter(resourceType, url)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongodb get: %w", err)
	}
	return doc, true, nil
}

func (s *MongoStore) ETag(ctx context.Context, resourceType, url string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc struct {
		Metadata struct {
			ETag string `bson:"etag"`
		} `bson:"_metadata"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "_metadata.etag", Value: 1}})
	err := s.collection.FindOne(ctx, s.filter(resourceType, url), opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongodb etag lookup: %w", err)
	}
	if doc.Metadata.ETag == "" {
		return "", false, nil
	}
	return doc.Metadata.ETag, true, nil
}

func (s *MongoStore) Version(ctx context.Context, resourceType, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var doc struct {
		Metadata struct {
			Version int `bson:"version"`
		} `bson:"_metadata"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "_metadata.version", Value: 1}})
	err := s.collection.FindOne(ctx, s.filter(resourceType, url), opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("mongodb version lookup: %w", err)
	}
	return doc.Metadata.Version, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
