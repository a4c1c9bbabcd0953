// board/store/memory_store.go
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// MemoryStore keeps everything in process memory behind one lock.
type MemoryStore struct {
	mu            sync.RWMutex
	agents        map[string]models.Agent
	teams         map[string]models.Team
	users         map[string]models.User
	notifications map[string]models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agents:        make(map[string]models.Agent),
		teams:         make(map[string]models.Team),
		users:         make(map[string]models.User),
		notifications: make(map[string]models.Notification),
	}
}

var _ Store = (*MemoryStore)(nil)

// sortAgents orders by creation time then ID so listings are stable.
func sortAgents(agents []models.Agent) {
	sort.Slice(agents, func(i, j int) bool {
		if !agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].CreatedAt.Before(agents[j].CreatedAt)
		}
		return agents[i].ID < agents[j].ID
	})
}

func (m *MemoryStore) GetAgent(_ context.Context, id string) (*models.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return &a, nil
}

func (m *MemoryStore) GetAgentsByTeam(_ context.Context, teamID string) ([]models.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Agent{}
	for _, a := range m.agents {
		if a.TeamID == teamID {
			out = append(out, a)
		}
	}
	sortAgents(out)
	return out, nil
}

func (m *MemoryStore) GetAllAgents(_ context.Context) ([]models.Agent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	sortAgents(out)
	return out, nil
}

func (m *MemoryStore) CreateAgent(_ context.Context, agent *models.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.agents[agent.ID]; exists {
		return fmt.Errorf("agent %s: %w", agent.ID, ErrDuplicate)
	}
	m.agents[agent.ID] = *agent
	return nil
}

func (m *MemoryStore) UpdateAgent(_ context.Context, id string, patch models.AgentPatch) (*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.PhotoURL != nil {
		a.PhotoURL = *patch.PhotoURL
	}
	if patch.ActivationTarget != nil {
		a.ActivationTarget = *patch.ActivationTarget
	}
	m.agents[id] = a
	return &a, nil
}

func (m *MemoryStore) ApplyAgentDelta(_ context.Context, id string, delta models.CounterDelta) (*models.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	a = delta.ApplyTo(a)
	m.agents[id] = a
	return &a, nil
}

func (m *MemoryStore) DeleteAgent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[id]; !ok {
		return fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	delete(m.agents, id)
	return nil
}

func (m *MemoryStore) ResetSubmissions(_ context.Context, cutoff, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, a := range m.agents {
		if a.LastSubmissionReset.Before(cutoff) {
			a.Submissions = 0
			a.LastSubmissionReset = now
			m.agents[id] = a
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) GetTeam(_ context.Context, id string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return &t, nil
}

func (m *MemoryStore) GetTeamByOwner(_ context.Context, userID string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.teams {
		if t.TLID == userID {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("team owned by %s: %w", userID, ErrNotFound)
}

func (m *MemoryStore) GetAllTeams(_ context.Context) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateTeam(_ context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.teams[team.ID]; exists {
		return fmt.Errorf("team %s: %w", team.ID, ErrDuplicate)
	}
	m.teams[team.ID] = *team
	return nil
}

func (m *MemoryStore) UpdateTeamStats(_ context.Context, id string, stats models.TeamStats, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	t.AvgActivation = stats.AvgActivation
	t.TotalActivations = stats.TotalActivations
	t.TotalSubmissions = stats.TotalSubmissions
	t.TotalPoints = stats.TotalPoints
	t.LastUpdated = &now
	m.teams[id] = t
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.ID]; exists {
		return fmt.Errorf("user %s: %w", user.ID, ErrDuplicate)
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) SetUserTeam(_ context.Context, userID, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	u.TeamID = teamID
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) GetActiveNotification(_ context.Context) (*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Notification
	for _, n := range m.notifications {
		if !n.IsActive {
			continue
		}
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) {
			n := n
			latest = &n
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("active notification: %w", ErrNotFound)
	}
	return latest, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.notifications[n.ID]; exists {
		return fmt.Errorf("notification %s: %w", n.ID, ErrDuplicate)
	}
	m.notifications[n.ID] = *n
	return nil
}

func (m *MemoryStore) DeactivateNotification(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || !n.IsActive {
		return false, nil
	}
	n.IsActive = false
	m.notifications[id] = n
	return true, nil
}

func (m *MemoryStore) ClearActiveNotifications(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cleared := 0
	for id, n := range m.notifications {
		if n.IsActive {
			n.IsActive = false
			m.notifications[id] = n
			cleared++
		}
	}
	return cleared, nil
}

// CountActiveNotifications is used by tests to check the single-active rule.
func (m *MemoryStore) CountActiveNotifications() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, x := range m.notifications {
		if x.IsActive {
			n++
		}
	}
	return n
}
