//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContainer wraps a testcontainers MongoDB instance.
type MongoContainer struct {
	Container testcontainers.Container
	URI       string
	Client    *mongo.Client
}

func newMongoContainer(t *testing.T) *MongoContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get mongo connection string: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping mongo: %v", err)
	}

	return &MongoContainer{Container: container, URI: uri, Client: client}
}

// DropDatabase removes a test database. Use between tests to ensure isolation.
func (m *MongoContainer) DropDatabase(ctx context.Context, name string) error {
	return m.Client.Database(name).Drop(ctx)
}
