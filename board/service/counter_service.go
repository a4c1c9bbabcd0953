// board/service/counter_service.go
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// CounterService applies counter deltas to agents. Both the REST endpoint
// and the WebSocket message go through ApplyDelta.
type CounterService struct {
	auth   *AuthService
	agents store.AgentStore
	teams  store.TeamStore
	board  *LeaderboardService
	hub    Broadcaster
	clock  clock.Clock
}

func NewCounterService(authSvc *AuthService, agents store.AgentStore, teams store.TeamStore, board *LeaderboardService, b Broadcaster, clk clock.Clock) *CounterService {
	return &CounterService{auth: authSvc, agents: agents, teams: teams, board: board, hub: b, clock: clk}
}

func (s *CounterService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	return s.auth.Authenticate(ctx, token)
}

// Submit authenticates the token and applies the delta.
func (s *CounterService) Submit(ctx context.Context, token, agentID string, delta models.CounterDelta) (*models.Agent, error) {
	caller, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.ApplyDelta(ctx, caller, agentID, delta)
}

// ApplyDelta checks the caller may touch the agent, applies the clamped
// delta atomically in the store, then announces the sale (for positive
// activation deltas) and the refreshed leaderboard. Nothing is broadcast
// unless the store write succeeded.
func (s *CounterService) ApplyDelta(ctx context.Context, caller *models.User, agentID string, delta models.CounterDelta) (*models.Agent, error) {
	teamID, err := ownTeam(ctx, s.teams, caller)
	if err != nil {
		return nil, err
	}

	current, err := s.agents.GetAgent(ctx, agentID)
	if err != nil {
		return nil, notFound(err, "agent "+agentID)
	}
	if teamID != "" && current.TeamID != teamID {
		return nil, fmt.Errorf("%w: agent %s is not in team %s", ErrForbidden, agentID, teamID)
	}
	if delta.Empty() {
		return nil, validationf("delta must set at least one of submissions, activations, points")
	}
	if !delta.InRange() {
		return nil, validationf("each delta field must be within ±%d", models.MaxDeltaStep)
	}

	updated, err := s.agents.ApplyAgentDelta(ctx, agentID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to apply delta to agent %s: %w", agentID, notFound(err, "agent "+agentID))
	}
	log.Printf("INFO: %s %s applied delta to agent %s: activations=%d submissions=%d points=%d",
		caller.Role, caller.ID, agentID, updated.Activations, updated.Submissions, updated.Points)

	if delta.ActivationsIncreased() {
		s.hub.BroadcastAll(hub.Event{Type: hub.EventSaleActivation, Data: hub.SaleActivation{
			AgentID:            updated.ID,
			AgentName:          updated.Name,
			PhotoURL:           updated.PhotoURL,
			TeamID:             updated.TeamID,
			NewActivationCount: updated.Activations,
			Timestamp:          s.clock.Now(),
		}})
	}

	if _, err := s.board.Publish(ctx); err != nil {
		// The delta is already durable; viewers catch up on the next publish.
		log.Printf("ERROR: Failed to publish leaderboard after delta on agent %s: %v", agentID, err)
	}
	return updated, nil
}
