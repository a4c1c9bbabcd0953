// board/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// AgentStore persists agents. ApplyAgentDelta must serialize concurrent
// updates to the same agent so no delta is lost.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	GetAgentsByTeam(ctx context.Context, teamID string) ([]models.Agent, error)
	GetAllAgents(ctx context.Context) ([]models.Agent, error)
	CreateAgent(ctx context.Context, agent *models.Agent) error
	UpdateAgent(ctx context.Context, id string, patch models.AgentPatch) (*models.Agent, error)
	ApplyAgentDelta(ctx context.Context, id string, delta models.CounterDelta) (*models.Agent, error)
	DeleteAgent(ctx context.Context, id string) error
	// ResetSubmissions zeroes submissions of agents last reset before cutoff
	// and stamps them with now. It returns the number of agents reset.
	ResetSubmissions(ctx context.Context, cutoff, now time.Time) (int, error)
}

type TeamStore interface {
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	GetTeamByOwner(ctx context.Context, userID string) (*models.Team, error)
	GetAllTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, team *models.Team) error
	UpdateTeamStats(ctx context.Context, id string, stats models.TeamStats, now time.Time) error
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SetUserTeam(ctx context.Context, userID, teamID string) error
}

type NotificationStore interface {
	// GetActiveNotification returns ErrNotFound when nothing is active.
	GetActiveNotification(ctx context.Context) (*models.Notification, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	// DeactivateNotification reports whether the notification was active.
	DeactivateNotification(ctx context.Context, id string) (bool, error)
	ClearActiveNotifications(ctx context.Context) (int, error)
}

// Store is everything the board service reads and writes.
type Store interface {
	AgentStore
	TeamStore
	UserStore
	NotificationStore
}
