package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/world"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for the MongoDB world store.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. mudmap
	Collection string // e.g. worlds
}

// MongoWorldStore keeps one document per world.
type MongoWorldStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type worldDocument struct {
	Name     string    `bson:"_id"`
	Snapshot *Snapshot `bson:"snapshot"`
}

// NewMongoWorldStore establishes connection and returns the store.
func NewMongoWorldStore(cfg MongoConfig) (*MongoWorldStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "mudmap"
	}
	if cfg.Collection == "" {
		cfg.Collection = "worlds"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logging.Info("🍃 MongoDB подключена: %s/%s", cfg.Database, cfg.Collection)
	return &MongoWorldStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}, nil
}

// SaveWorld upserts the world document.
func (m *MongoWorldStore) SaveWorld(ctx context.Context, name string, w *world.World) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	doc := worldDocument{Name: name, Snapshot: NewSnapshot(w)}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo save world %q: %w", name, err)
	}
	return nil
}

// LoadWorld fetches and restores the world.
func (m *MongoWorldStore) LoadWorld(ctx context.Context, name string) (*world.World, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc worldDocument
	err := m.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: %q", ErrWorldNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo load world %q: %w", name, err)
	}
	if doc.Snapshot == nil {
		return nil, fmt.Errorf("%w: empty document %q", ErrCorruptSnapshot, name)
	}
	return doc.Snapshot.Restore()
}

// DeleteWorld removes the world document.
func (m *MongoWorldStore) DeleteWorld(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("mongo delete world %q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %q", ErrWorldNotFound, name)
	}
	return nil
}

// ListWorlds returns stored world names sorted ascending.
func (m *MongoWorldStore) ListWorlds(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list worlds: %w", err)
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		names = append(names, doc.Name)
	}
	return names, cur.Err()
}

// Close terminates connection.
func (m *MongoWorldStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
