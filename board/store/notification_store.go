// board/store/notification_store.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationStore is the MongoDB data store for takeover notifications.
type MongoNotificationStore struct {
	collection *mongo.Collection
}

func NewMongoNotificationStore(collection *mongo.Collection) *MongoNotificationStore {
	return &MongoNotificationStore{collection: collection}
}

func (s *MongoNotificationStore) GetActiveNotification(ctx context.Context) (*models.Notification, error) {
	var n models.Notification
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.collection.FindOne(ctx, bson.M{"is_active": true}, opts).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("active notification: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active notification: %w", err)
	}
	return &n, nil
}

func (s *MongoNotificationStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if _, err := s.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *MongoNotificationStore) DeactivateNotification(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"_id": id, "is_active": true}
	res, err := s.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return false, fmt.Errorf("failed to deactivate notification %s: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoNotificationStore) ClearActiveNotifications(ctx context.Context) (int, error) {
	res, err := s.collection.UpdateMany(ctx, bson.M{"is_active": true}, bson.M{"$set": bson.M{"is_active": false}})
	if err != nil {
		return 0, fmt.Errorf("failed to clear active notifications: %w", err)
	}
	return int(res.ModifiedCount), nil
}
