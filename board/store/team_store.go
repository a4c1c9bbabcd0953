// board/store/team_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTeamStore is the MongoDB data store for teams.
type MongoTeamStore struct {
	collection *mongo.Collection
}

func NewMongoTeamStore(collection *mongo.Collection) *MongoTeamStore {
	return &MongoTeamStore{collection: collection}
}

func (s *MongoTeamStore) findOne(ctx context.Context, filter bson.M, what string) (*models.Team, error) {
	var team models.Team
	if err := s.collection.FindOne(ctx, filter).Decode(&team); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &team, nil
}

func (s *MongoTeamStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	return s.findOne(ctx, bson.M{"_id": id}, "team "+id)
}

func (s *MongoTeamStore) GetTeamByOwner(ctx context.Context, userID string) (*models.Team, error) {
	return s.findOne(ctx, bson.M{"tl_id": userID}, "team owned by "+userID)
}

// GetAllTeams retrieves all team documents ordered by ID.
func (s *MongoTeamStore) GetAllTeams(ctx context.Context) ([]models.Team, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find all teams: %w", err)
	}
	defer cursor.Close(ctx)

	teams := []models.Team{}
	if err = cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode all teams: %w", err)
	}
	return teams, nil
}

func (s *MongoTeamStore) CreateTeam(ctx context.Context, team *models.Team) error {
	if _, err := s.collection.InsertOne(ctx, team); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("team %s: %w", team.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create team %s: %w", team.ID, err)
	}
	return nil
}

// UpdateTeamStats overwrites the cached aggregate fields of a team.
func (s *MongoTeamStore) UpdateTeamStats(ctx context.Context, id string, stats models.TeamStats, now time.Time) error {
	update := bson.M{"$set": bson.M{
		"avg_activation":    stats.AvgActivation,
		"total_activations": stats.TotalActivations,
		"total_submissions": stats.TotalSubmissions,
		"total_points":      stats.TotalPoints,
		"last_updated":      now,
	}}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update stats for team %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return nil
}
