package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ftotnem/LIVEBOARD/board/auth"
	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

var epoch = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// recorder captures broadcasts instead of delivering them.
type recorder struct {
	mu     sync.Mutex
	events []hub.Event
}

func (r *recorder) BroadcastAll(ev hub.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return 1
}

func (r *recorder) ofType(typ string) []hub.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []hub.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fixture struct {
	st     *store.MemoryStore
	clk    *clock.FakeClock
	rec    *recorder
	tokens *auth.TokenIssuer

	auth     *AuthService
	board    *LeaderboardService
	counters *CounterService
	agents   *AgentService
	notes    *NotificationService

	admin, tl1, tl2, orphan *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithAgents(t, nil)
}

// newFixtureWithAgents lets a test swap the agent store, e.g. for failure injection.
func newFixtureWithAgents(t *testing.T, wrap func(*store.MemoryStore) store.AgentStore) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		st:  store.NewMemoryStore(),
		clk: clock.NewFake(epoch),
		rec: &recorder{},
	}
	f.tokens = auth.NewTokenIssuer("test-secret", time.Hour, f.clk)

	f.admin = &models.User{ID: "u-admin", Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin}
	f.tl1 = &models.User{ID: "u-tl1", Name: "John Smith", Email: "tl1@example.com", Role: models.RoleTL, TeamID: "t1"}
	f.tl2 = &models.User{ID: "u-tl2", Name: "Maria Garcia", Email: "tl2@example.com", Role: models.RoleTL, TeamID: "t2"}
	f.orphan = &models.User{ID: "u-orphan", Name: "No Team", Email: "orphan@example.com", Role: models.RoleTL}
	for _, u := range []*models.User{f.admin, f.tl1, f.tl2, f.orphan} {
		hash, err := auth.HashPassword("pass-" + u.ID)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		u.PasswordHash = hash
		if err := f.st.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	mustNil(t, f.st.CreateTeam(ctx, &models.Team{ID: "t1", Name: "Team Alpha", TLID: "u-tl1"}))
	mustNil(t, f.st.CreateTeam(ctx, &models.Team{ID: "t2", Name: "Team Bravo", TLID: "u-tl2"}))
	mustNil(t, f.st.CreateAgent(ctx, &models.Agent{ID: "a1", Name: "Ana", PhotoURL: "https://example.com/ana.png", TeamID: "t1", ActivationTarget: 20, Activations: 15, CreatedAt: epoch}))
	mustNil(t, f.st.CreateAgent(ctx, &models.Agent{ID: "b1", Name: "Ben", TeamID: "t2", ActivationTarget: 10, Activations: 3, Points: 4, CreatedAt: epoch}))

	var agents store.AgentStore = f.st
	if wrap != nil {
		agents = wrap(f.st)
	}

	f.board = NewLeaderboardService(leaderboard.NewEngine(f.st), f.st, f.rec, f.clk)
	f.auth = NewAuthService(f.st, f.st, f.tokens, f.clk, f.board)
	f.counters = NewCounterService(f.auth, agents, f.st, f.board, f.rec, f.clk)
	f.agents = NewAgentService(agents, f.st, f.board, f.clk)
	f.notes = NewNotificationService(f.st, f.rec, f.clk, 15*time.Second)
	t.Cleanup(f.notes.Close)
	return f
}

func (f *fixture) token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := f.tokens.Issue(u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (f *fixture) agent(t *testing.T, id string) *models.Agent {
	t.Helper()
	a, err := f.st.GetAgent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAgent(%s): %v", id, err)
	}
	return a
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
