// board/store/agent_store.go
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

// MongoAgentStore is the MongoDB data store for agents.
type MongoAgentStore struct {
	collection *mongo.Collection
}

func NewMongoAgentStore(collection *mongo.Collection) *MongoAgentStore {
	return &MongoAgentStore{collection: collection}
}

var agentSort = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func (s *MongoAgentStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	var agent models.Agent
	if err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&agent); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get agent %s: %w", id, err)
	}
	return &agent, nil
}

func (s *MongoAgentStore) find(ctx context.Context, filter bson.M) ([]models.Agent, error) {
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(agentSort))
	if err != nil {
		return nil, fmt.Errorf("failed to find agents: %w", err)
	}
	defer cursor.Close(ctx)

	agents := []models.Agent{}
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, fmt.Errorf("failed to decode agents: %w", err)
	}
	return agents, nil
}

func (s *MongoAgentStore) GetAgentsByTeam(ctx context.Context, teamID string) ([]models.Agent, error) {
	return s.find(ctx, bson.M{"team_id": teamID})
}

func (s *MongoAgentStore) GetAllAgents(ctx context.Context) ([]models.Agent, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoAgentStore) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if _, err := s.collection.InsertOne(ctx, agent); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("agent %s: %w", agent.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create agent %s: %w", agent.ID, err)
	}
	return nil
}

func (s *MongoAgentStore) UpdateAgent(ctx context.Context, id string, patch models.AgentPatch) (*models.Agent, error) {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.PhotoURL != nil {
		set["photo_url"] = *patch.PhotoURL
	}
	if patch.ActivationTarget != nil {
		set["activation_target"] = *patch.ActivationTarget
	}
	if len(set) == 0 {
		return s.GetAgent(ctx, id)
	}

	var agent models.Agent
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update agent %s: %w", id, err)
	}
	return &agent, nil
}

// clampedAdd builds {$max: [0, {$add: ["$field", delta]}]} for a pipeline update.
func clampedAdd(field string, delta int) bson.D {
	return bson.D{{Key: "$max", Value: bson.A{
		0,
		bson.D{{Key: "$add", Value: bson.A{"$" + field, delta}}},
	}}}
}

// ApplyAgentDelta runs the clamp inside a single pipeline update, so the
// server serializes concurrent deltas on the same document.
func (s *MongoAgentStore) ApplyAgentDelta(ctx context.Context, id string, delta models.CounterDelta) (*models.Agent, error) {
	set := bson.D{}
	if delta.Submissions != nil {
		set = append(set, bson.E{Key: "submissions", Value: clampedAdd("submissions", *delta.Submissions)})
	}
	if delta.Activations != nil {
		set = append(set, bson.E{Key: "activations", Value: clampedAdd("activations", *delta.Activations)})
	}
	if delta.Points != nil {
		set = append(set, bson.E{Key: "points", Value: clampedAdd("points", *delta.Points)})
	}
	if len(set) == 0 {
		return s.GetAgent(ctx, id)
	}

	update := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var agent models.Agent
	if err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&agent); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to apply delta to agent %s: %w", id, err)
	}
	return &agent, nil
}

func (s *MongoAgentStore) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoAgentStore) ResetSubmissions(ctx context.Context, cutoff, now time.Time) (int, error) {
	filter := bson.M{"last_submission_reset": bson.M{"$lt": cutoff}}
	update := bson.M{"$set": bson.M{"submissions": 0, "last_submission_reset": now}}
	res, err := s.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to reset daily submissions: %w", err)
	}
	return int(res.ModifiedCount), nil
}
