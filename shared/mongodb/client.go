// shared/mongodb/client.go
package mongodb

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client represents a wrapper around *mongo.Client for easier management.
type Client struct {
	mongoClient *mongo.Client
	database    string
}

// IndexSpec describes a single-field index to create at startup.
type IndexSpec struct {
	Collection string
	Field      string
	Unique     bool
}

// NewClient establishes a connection to the MongoDB server and returns a new Client instance.
func NewClient(connStr, databaseName string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connStr))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if disconnectErr := client.Disconnect(context.Background()); disconnectErr != nil {
			log.Printf("WARN: Failed to disconnect MongoDB client after ping failure: %v", disconnectErr)
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Printf("INFO: Connected to MongoDB database %q", databaseName)
	return &Client{
		mongoClient: client,
		database:    databaseName,
	}, nil
}

// Collection returns a mongo.Collection for the specified collection name.
func (mc *Client) Collection(collectionName string) *mongo.Collection {
	return mc.mongoClient.Database(mc.database).Collection(collectionName)
}

// EnsureIndexes creates the given single-field ascending indexes. Existing
// identical indexes are left untouched by the server.
func (mc *Client) EnsureIndexes(ctx context.Context, specs ...IndexSpec) error {
	for _, spec := range specs {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: spec.Field, Value: 1}},
			Options: options.Index().SetUnique(spec.Unique),
		}
		if _, err := mc.Collection(spec.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s.%s: %w", spec.Collection, spec.Field, err)
		}
	}
	return nil
}

// Ping checks that the primary is reachable.
func (mc *Client) Ping(ctx context.Context) error {
	return mc.mongoClient.Ping(ctx, readpref.Primary())
}

// Disconnect closes the MongoDB client connection.
func (mc *Client) Disconnect(ctx context.Context) error {
	log.Println("INFO: Disconnecting from MongoDB...")
	return mc.mongoClient.Disconnect(ctx)
}
