// board/service/agent_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// CreateAgentRequest is the agent form. TeamID may be omitted by a team
// leader; an admin must name the team.
type CreateAgentRequest struct {
	Name             string `json:"name"`
	PhotoURL         string `json:"photoUrl"`
	TeamID           string `json:"teamId"`
	ActivationTarget int    `json:"activationTarget"`
}

// AgentService manages agent profiles for team leaders and admins.
type AgentService struct {
	agents store.AgentStore
	teams  store.TeamStore
	board  *LeaderboardService
	clock  clock.Clock
}

func NewAgentService(agents store.AgentStore, teams store.TeamStore, board *LeaderboardService, clk clock.Clock) *AgentService {
	return &AgentService{agents: agents, teams: teams, board: board, clock: clk}
}

// ListAgents returns the caller's own team, or every agent for an admin.
func (s *AgentService) ListAgents(ctx context.Context, caller *models.User) ([]models.Agent, error) {
	teamID, err := ownTeam(ctx, s.teams, caller)
	if err != nil {
		return nil, err
	}
	if teamID == "" {
		return s.agents.GetAllAgents(ctx)
	}
	return s.agents.GetAgentsByTeam(ctx, teamID)
}

func (s *AgentService) CreateAgent(ctx context.Context, caller *models.User, req CreateAgentRequest) (*models.Agent, error) {
	teamID, err := ownTeam(ctx, s.teams, caller)
	if err != nil {
		return nil, err
	}
	switch {
	case teamID == "" && req.TeamID == "":
		return nil, validationf("teamId is required")
	case teamID == "":
		if _, err := s.teams.GetTeam(ctx, req.TeamID); err != nil {
			return nil, notFound(err, "team "+req.TeamID)
		}
		teamID = req.TeamID
	case req.TeamID != "" && req.TeamID != teamID:
		return nil, fmt.Errorf("%w: team leaders may only add agents to their own team", ErrForbidden)
	}

	if !minLen(req.Name, 1) {
		return nil, validationf("name is required")
	}
	if req.ActivationTarget < 1 {
		return nil, validationf("activationTarget must be at least 1")
	}
	if req.PhotoURL != "" && !absoluteURL(req.PhotoURL) {
		return nil, validationf("photoUrl must be an absolute URL")
	}

	now := s.clock.Now()
	agent := &models.Agent{
		ID:                  uuid.NewString(),
		Name:                strings.TrimSpace(req.Name),
		PhotoURL:            req.PhotoURL,
		TeamID:              teamID,
		ActivationTarget:    req.ActivationTarget,
		LastSubmissionReset: now,
		CreatedAt:           now,
	}
	if err := s.agents.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}
	log.Printf("INFO: %s %s created agent %s in team %s", caller.Role, caller.ID, agent.ID, teamID)
	s.republish(ctx, "create agent "+agent.ID)
	return agent, nil
}

func (s *AgentService) UpdateAgent(ctx context.Context, caller *models.User, id string, patch models.AgentPatch) (*models.Agent, error) {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}
	switch {
	case patch.Empty():
		return nil, validationf("nothing to update")
	case patch.Name != nil && !minLen(*patch.Name, 1):
		return nil, validationf("name must not be empty")
	case patch.ActivationTarget != nil && *patch.ActivationTarget < 1:
		return nil, validationf("activationTarget must be at least 1")
	case patch.PhotoURL != nil && *patch.PhotoURL != "" && !absoluteURL(*patch.PhotoURL):
		return nil, validationf("photoUrl must be an absolute URL")
	}

	agent, err := s.agents.UpdateAgent(ctx, id, patch)
	if err != nil {
		return nil, notFound(err, "agent "+id)
	}
	s.republish(ctx, "update agent "+id)
	return agent, nil
}

func (s *AgentService) DeleteAgent(ctx context.Context, caller *models.User, id string) error {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return err
	}
	if err := s.agents.DeleteAgent(ctx, id); err != nil {
		return notFound(err, "agent "+id)
	}
	log.Printf("INFO: %s %s deleted agent %s", caller.Role, caller.ID, id)
	s.republish(ctx, "delete agent "+id)
	return nil
}

// authorize loads the agent and checks the caller may manage it.
func (s *AgentService) authorize(ctx context.Context, caller *models.User, id string) (*models.Agent, error) {
	teamID, err := ownTeam(ctx, s.teams, caller)
	if err != nil {
		return nil, err
	}
	agent, err := s.agents.GetAgent(ctx, id)
	if err != nil {
		return nil, notFound(err, "agent "+id)
	}
	if teamID != "" && agent.TeamID != teamID {
		return nil, fmt.Errorf("%w: agent %s is not in team %s", ErrForbidden, id, teamID)
	}
	return agent, nil
}

func (s *AgentService) republish(ctx context.Context, what string) {
	if _, err := s.board.Publish(ctx); err != nil {
		log.Printf("ERROR: Failed to publish leaderboard after %s: %v", what, err)
	}
}
