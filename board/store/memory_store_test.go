package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newAgent(id, team string) *models.Agent {
	return &models.Agent{ID: id, Name: "Agent " + id, TeamID: team, ActivationTarget: 10, CreatedAt: now, LastSubmissionReset: now}
}

func TestMemoryStoreApplyDeltaClamps(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	a := newAgent("a1", "t1")
	a.Activations = 3
	if err := st.CreateAgent(ctx, a); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	d := models.CounterDelta{Activations: models.Int(-5)}
	for i := 0; i < 2; i++ {
		got, err := st.ApplyAgentDelta(ctx, "a1", d)
		if err != nil {
			t.Fatalf("ApplyAgentDelta: %v", err)
		}
		if got.Activations != 0 {
			t.Fatalf("application %d: activations = %d, want 0", i+1, got.Activations)
		}
	}

	if _, err := st.ApplyAgentDelta(ctx, "missing", d); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing agent err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreConcurrentDeltasAreNotLost(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_ = st.CreateAgent(ctx, newAgent("a1", "t1"))

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = st.ApplyAgentDelta(ctx, "a1", models.CounterDelta{Points: models.Int(2)})
		}()
	}
	wg.Wait()

	got, _ := st.GetAgent(ctx, "a1")
	if got.Points != 2*workers {
		t.Fatalf("points = %d, want %d", got.Points, 2*workers)
	}
}

func TestMemoryStoreUpdateAndDeleteAgent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_ = st.CreateAgent(ctx, newAgent("a1", "t1"))

	got, err := st.UpdateAgent(ctx, "a1", models.AgentPatch{Name: strPtr("Renamed"), ActivationTarget: models.Int(25)})
	if err != nil {
		t.Fatalf("UpdateAgent: %v", err)
	}
	if got.Name != "Renamed" || got.ActivationTarget != 25 {
		t.Fatalf("UpdateAgent = %+v", got)
	}

	if err := st.DeleteAgent(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAgent: %v", err)
	}
	if err := st.DeleteAgent(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreResetSubmissions(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	stale := newAgent("stale", "t1")
	stale.Submissions = 9
	stale.LastSubmissionReset = now.Add(-26 * time.Hour)
	fresh := newAgent("fresh", "t1")
	fresh.Submissions = 4
	_ = st.CreateAgent(ctx, stale)
	_ = st.CreateAgent(ctx, fresh)

	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	n, err := st.ResetSubmissions(ctx, midnight, now)
	if err != nil || n != 1 {
		t.Fatalf("ResetSubmissions = %d, %v; want 1, nil", n, err)
	}
	a, _ := st.GetAgent(ctx, "stale")
	if a.Submissions != 0 || !a.LastSubmissionReset.Equal(now) {
		t.Fatalf("stale agent after reset = %+v", a)
	}
	b, _ := st.GetAgent(ctx, "fresh")
	if b.Submissions != 4 {
		t.Fatalf("fresh agent submissions = %d, want 4", b.Submissions)
	}
}

func TestMemoryStoreNotifications(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if _, err := st.GetActiveNotification(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store err = %v, want ErrNotFound", err)
	}
	_ = st.CreateNotification(ctx, &models.Notification{ID: "n1", Type: models.NotificationText, IsActive: true, CreatedAt: now})

	ok, err := st.DeactivateNotification(ctx, "n1")
	if err != nil || !ok {
		t.Fatalf("DeactivateNotification = %v, %v", ok, err)
	}
	ok, _ = st.DeactivateNotification(ctx, "n1")
	if ok {
		t.Fatalf("second deactivate should report false")
	}

	_ = st.CreateNotification(ctx, &models.Notification{ID: "n2", IsActive: true, CreatedAt: now})
	_ = st.CreateNotification(ctx, &models.Notification{ID: "n3", IsActive: true, CreatedAt: now.Add(time.Second)})
	active, _ := st.GetActiveNotification(ctx)
	if active.ID != "n3" {
		t.Fatalf("active = %s, want newest n3", active.ID)
	}
	if n, _ := st.ClearActiveNotifications(ctx); n != 2 {
		t.Fatalf("cleared %d, want 2", n)
	}
	if st.CountActiveNotifications() != 0 {
		t.Fatalf("notifications still active after clear")
	}
}

func TestMemoryStoreUsersAndTeams(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_ = st.CreateUser(ctx, &models.User{ID: "u1", Email: "Lead@Example.com", Role: models.RoleTL})

	if err := st.CreateUser(ctx, &models.User{ID: "u2", Email: "lead@example.com", Role: models.RoleTL}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email err = %v, want ErrDuplicate", err)
	}
	u, err := st.GetUserByEmail(ctx, "lead@example.com")
	if err != nil || u.ID != "u1" {
		t.Fatalf("GetUserByEmail = %v, %v", u, err)
	}

	_ = st.CreateTeam(ctx, &models.Team{ID: "t1", Name: "Alpha", TLID: "u1"})
	team, err := st.GetTeamByOwner(ctx, "u1")
	if err != nil || team.ID != "t1" {
		t.Fatalf("GetTeamByOwner = %v, %v", team, err)
	}
	if err := st.UpdateTeamStats(ctx, "t1", models.TeamStats{AvgActivation: 80, TotalPoints: 5}, now); err != nil {
		t.Fatalf("UpdateTeamStats: %v", err)
	}
	team, _ = st.GetTeam(ctx, "t1")
	if team.AvgActivation != 80 || team.TotalPoints != 5 || team.LastUpdated == nil {
		t.Fatalf("team after stats update = %+v", team)
	}
}

func strPtr(s string) *string { return &s }
