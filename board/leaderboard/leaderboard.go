// board/leaderboard/leaderboard.go
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// NoAgentsName is shown in TopStats when there are no agents at all.
const NoAgentsName = "No agents"

// AgentSummary is an agent as rendered inside a team card.
type AgentSummary struct {
	models.Agent
	ActivationRate int `json:"activationRate"`
}

// TeamSummary is one ranked row of the leaderboard.
type TeamSummary struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	TLID             string         `json:"tlId"`
	TLName           string         `json:"tlName,omitempty"`
	TLPhotoURL       string         `json:"tlPhotoUrl,omitempty"`
	AvgActivation    int            `json:"avgActivation"`
	TotalActivations int            `json:"totalActivations"`
	TotalSubmissions int            `json:"totalSubmissions"`
	TotalPoints      int            `json:"totalPoints"`
	Agents           []AgentSummary `json:"agents"`
}

// Stats returns the cacheable aggregate fields of the summary.
func (t TeamSummary) Stats() models.TeamStats {
	return models.TeamStats{
		AvgActivation:    t.AvgActivation,
		TotalActivations: t.TotalActivations,
		TotalSubmissions: t.TotalSubmissions,
		TotalPoints:      t.TotalPoints,
	}
}

type TopAgentMonth struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photoUrl"`
	Activations int    `json:"activations"`
}

type TopAgentToday struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photoUrl"`
	Submissions int    `json:"submissions"`
}

type TopStats struct {
	TopAgentMonth    TopAgentMonth `json:"topAgentMonth"`
	TopAgentToday    TopAgentToday `json:"topAgentToday"`
	TotalActivations int           `json:"totalActivations"`
	TotalSubmissions int           `json:"totalSubmissions"`
	TotalPoints      int           `json:"totalPoints"`
}

// Board is the payload of a leaderboard update.
type Board struct {
	Teams    []TeamSummary `json:"teams"`
	TopStats TopStats      `json:"topStats"`
}

// ComputeLeaderboard ranks teams by average activation rate, then total
// points, then non-empty before empty, then team ID. The result depends only
// on the input values, not on their order.
func ComputeLeaderboard(teams []models.Team, agents []models.Agent, users []models.User) []TeamSummary {
	byTeam := make(map[string][]models.Agent, len(teams))
	for _, a := range agents {
		byTeam[a.TeamID] = append(byTeam[a.TeamID], a)
	}
	leaders := make(map[string]models.User, len(users))
	for _, u := range users {
		leaders[u.ID] = u
	}

	out := make([]TeamSummary, 0, len(teams))
	for _, team := range teams {
		members := byTeam[team.ID]
		sort.Slice(members, func(i, j int) bool {
			if members[i].Activations != members[j].Activations {
				return members[i].Activations > members[j].Activations
			}
			return members[i].ID < members[j].ID
		})

		s := TeamSummary{
			ID:     team.ID,
			Name:   team.Name,
			TLID:   team.TLID,
			Agents: make([]AgentSummary, 0, len(members)),
		}
		if tl, ok := leaders[team.TLID]; ok {
			s.TLName = tl.Name
			s.TLPhotoURL = tl.AvatarURL
		}

		rateSum := 0
		for _, a := range members {
			rate := a.ActivationRate()
			rateSum += rate
			s.TotalActivations += a.Activations
			s.TotalSubmissions += a.Submissions
			s.TotalPoints += a.Points
			s.Agents = append(s.Agents, AgentSummary{Agent: a, ActivationRate: rate})
		}
		if len(members) > 0 {
			s.AvgActivation = models.RoundHalfUp(float64(rateSum) / float64(len(members)))
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.AvgActivation != b.AvgActivation {
			return a.AvgActivation > b.AvgActivation
		}
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if (len(a.Agents) == 0) != (len(b.Agents) == 0) {
			return len(a.Agents) > 0
		}
		return a.ID < b.ID
	})
	return out
}

// ComputeTopStats picks the agents with the most activations and the most
// submissions. Ties go to the lowest agent ID.
func ComputeTopStats(agents []models.Agent) TopStats {
	stats := TopStats{
		TopAgentMonth: TopAgentMonth{Name: NoAgentsName},
		TopAgentToday: TopAgentToday{Name: NoAgentsName},
	}
	var month, today *models.Agent
	for i := range agents {
		a := &agents[i]
		stats.TotalActivations += a.Activations
		stats.TotalSubmissions += a.Submissions
		stats.TotalPoints += a.Points

		if month == nil || a.Activations > month.Activations || (a.Activations == month.Activations && a.ID < month.ID) {
			month = a
		}
		if today == nil || a.Submissions > today.Submissions || (a.Submissions == today.Submissions && a.ID < today.ID) {
			today = a
		}
	}
	if month != nil {
		stats.TopAgentMonth = TopAgentMonth{ID: month.ID, Name: month.Name, PhotoURL: month.PhotoURL, Activations: month.Activations}
	}
	if today != nil {
		stats.TopAgentToday = TopAgentToday{ID: today.ID, Name: today.Name, PhotoURL: today.PhotoURL, Submissions: today.Submissions}
	}
	return stats
}

// Snapshot is the read side of the store the engine needs.
type Snapshot interface {
	GetAllTeams(ctx context.Context) ([]models.Team, error)
	GetAllAgents(ctx context.Context) ([]models.Agent, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Engine computes board views from the current store contents.
type Engine struct {
	snapshot Snapshot
}

func NewEngine(snapshot Snapshot) *Engine {
	return &Engine{snapshot: snapshot}
}

// Board reads one snapshot and computes both views from it.
func (e *Engine) Board(ctx context.Context) (*Board, error) {
	teams, err := e.snapshot.GetAllTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read teams for leaderboard: %w", err)
	}
	agents, err := e.snapshot.GetAllAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents for leaderboard: %w", err)
	}

	// Team leader lookups are cosmetic; a missing user leaves the name blank.
	users := make([]models.User, 0, len(teams))
	for _, t := range teams {
		if t.TLID == "" {
			continue
		}
		if u, err := e.snapshot.GetUser(ctx, t.TLID); err == nil {
			users = append(users, *u)
		}
	}

	return &Board{
		Teams:    ComputeLeaderboard(teams, agents, users),
		TopStats: ComputeTopStats(agents),
	}, nil
}

func (e *Engine) Leaderboard(ctx context.Context) ([]TeamSummary, error) {
	b, err := e.Board(ctx)
	if err != nil {
		return nil, err
	}
	return b.Teams, nil
}

func (e *Engine) TopStats(ctx context.Context) (TopStats, error) {
	agents, err := e.snapshot.GetAllAgents(ctx)
	if err != nil {
		return TopStats{}, fmt.Errorf("failed to read agents for top stats: %w", err)
	}
	return ComputeTopStats(agents), nil
}
