// board/store/user_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserStore is the MongoDB data store for admins and team leaders.
// Emails are stored lower-cased; a unique index backs ErrDuplicate.
type MongoUserStore struct {
	collection *mongo.Collection
}

func NewMongoUserStore(collection *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{collection: collection}
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M, what string) (*models.User, error) {
	var user models.User
	if err := s.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &user, nil
}

func (s *MongoUserStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, "user "+id)
}

func (s *MongoUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(email)}, "user with email "+email)
}

func (s *MongoUserStore) CreateUser(ctx context.Context, user *models.User) error {
	doc := *user
	doc.Email = strings.ToLower(doc.Email)
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user %s: %w", user.ID, err)
	}
	return nil
}

func (s *MongoUserStore) SetUserTeam(ctx context.Context, userID, teamID string) error {
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"team_id": teamID}})
	if err != nil {
		return fmt.Errorf("failed to set team for user %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}
