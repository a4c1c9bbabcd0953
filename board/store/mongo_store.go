// board/store/mongo_store.go
package store

import (
	"context"
	"fmt"

	"github.com/Ftotnem/LIVEBOARD/shared/config"
	"github.com/Ftotnem/LIVEBOARD/shared/mongodb"
)

// MongoStore combines the per-collection stores into a Store.
type MongoStore struct {
	*MongoAgentStore
	*MongoTeamStore
	*MongoUserStore
	*MongoNotificationStore
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore binds the collections named in cfg and creates the indexes
// the queries rely on.
func NewMongoStore(ctx context.Context, client *mongodb.Client, cfg *config.BoardServiceConfig) (*MongoStore, error) {
	err := client.EnsureIndexes(ctx,
		mongodb.IndexSpec{Collection: cfg.MongoDBUsersCollection, Field: "email", Unique: true},
		mongodb.IndexSpec{Collection: cfg.MongoDBTeamsCollection, Field: "tl_id"},
		mongodb.IndexSpec{Collection: cfg.MongoDBAgentsCollection, Field: "team_id"},
		mongodb.IndexSpec{Collection: cfg.MongoDBAgentsCollection, Field: "last_submission_reset"},
		mongodb.IndexSpec{Collection: cfg.MongoDBNotificationsCollection, Field: "is_active"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare board collections: %w", err)
	}

	return &MongoStore{
		MongoAgentStore:        NewMongoAgentStore(client.Collection(cfg.MongoDBAgentsCollection)),
		MongoTeamStore:         NewMongoTeamStore(client.Collection(cfg.MongoDBTeamsCollection)),
		MongoUserStore:         NewMongoUserStore(client.Collection(cfg.MongoDBUsersCollection)),
		MongoNotificationStore: NewMongoNotificationStore(client.Collection(cfg.MongoDBNotificationsCollection)),
	}, nil
}
