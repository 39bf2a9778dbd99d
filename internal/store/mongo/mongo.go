// Package mongo stores each collection as one document keyed by name in a
// single MongoDB collection. Conditional writes filter on the version field.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carebook/internal/store"
	"carebook/pkg/platform/sentinel"
)

const defaultCollection = "collections"

type document struct {
	Name    string `bson:"_id"`
	Version int64  `bson:"version"`
	Records string `bson:"records"`
}

type Backend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect opens a client and pings the server.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func New(client *mongo.Client, database string) *Backend {
	return &Backend{
		client: client,
		coll:   client.Database(database).Collection(defaultCollection),
	}
}

func (b *Backend) Load(ctx context.Context, name string) (store.Document, error) {
	var doc document
	err := b.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Document{}, nil
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("load %s: %w", name, err)
	}
	return store.Document{Version: doc.Version, Payload: []byte(doc.Records)}, nil
}

func (b *Backend) Swap(ctx context.Context, name string, expected int64, payload []byte) (int64, error) {
	if expected == 0 {
		_, err := b.coll.InsertOne(ctx, document{Name: name, Version: 1, Records: string(payload)})
		if mongo.IsDuplicateKeyError(err) {
			return 0, sentinel.ErrConflict
		}
		if err != nil {
			return 0, fmt.Errorf("swap %s: %w", name, err)
		}
		return 1, nil
	}
	res, err := b.coll.UpdateOne(ctx,
		bson.M{"_id": name, "version": expected},
		bson.M{
			"$set": bson.M{"records": string(payload)},
			"$inc": bson.M{"version": int64(1)},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("swap %s: %w", name, err)
	}
	if res.MatchedCount == 0 {
		return 0, sentinel.ErrConflict
	}
	return expected + 1, nil
}

func (b *Backend) Put(ctx context.Context, name string, payload []byte) (int64, error) {
	var doc document
	err := b.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{
			"$set": bson.M{"records": string(payload)},
			"$inc": bson.M{"version": int64(1)},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", name, err)
	}
	return doc.Version, nil
}

// LoadMany fetches several collections with one query.
func (b *Backend) LoadMany(ctx context.Context, names []string) (map[string]store.Document, error) {
	cur, err := b.coll.Find(ctx, bson.M{"_id": bson.M{"$in": names}})
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	out := make(map[string]store.Document, len(names))
	for _, name := range names {
		out[name] = store.Document{}
	}
	for _, d := range docs {
		out[d.Name] = store.Document{Version: d.Version, Payload: []byte(d.Records)}
	}
	return out, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, nil)
}
