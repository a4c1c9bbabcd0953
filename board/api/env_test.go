package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ftotnem/LIVEBOARD/board/auth"
	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/board/ratelimit"
	"github.com/Ftotnem/LIVEBOARD/board/service"
	"github.com/Ftotnem/LIVEBOARD/board/store"
	sharedapi "github.com/Ftotnem/LIVEBOARD/shared/api"
	"github.com/Ftotnem/LIVEBOARD/shared/clock"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

var epoch = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	st       *store.MemoryStore
	clk      *clock.FakeClock
	hub      *hub.Hub
	tokens   *auth.TokenIssuer
	handlers *BoardAPIHandlers
	srv      *httptest.Server
}

// newTestEnv serves the full router over a memory store with two teams:
// t1 (owned by u-tl1, agent a1 at 15/20) and t2 (owned by u-tl2, agent b1 at 3/10).
func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()
	ctx := context.Background()
	e := &testEnv{
		st:  store.NewMemoryStore(),
		clk: clock.NewFake(epoch),
		hub: hub.New(),
	}
	e.tokens = auth.NewTokenIssuer("test-secret", time.Hour, e.clk)

	users := []*models.User{
		{ID: "u-admin", Name: "Admin User", Email: "admin@example.com", Role: models.RoleAdmin},
		{ID: "u-tl1", Name: "John Smith", Email: "tl1@example.com", Role: models.RoleTL, TeamID: "t1"},
		{ID: "u-tl2", Name: "Maria Garcia", Email: "tl2@example.com", Role: models.RoleTL, TeamID: "t2"},
	}
	for _, u := range users {
		hash, err := auth.HashPassword("pass-" + u.ID)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		u.PasswordHash = hash
		mustNil(t, e.st.CreateUser(ctx, u))
	}
	mustNil(t, e.st.CreateTeam(ctx, &models.Team{ID: "t1", Name: "Team Alpha", TLID: "u-tl1"}))
	mustNil(t, e.st.CreateTeam(ctx, &models.Team{ID: "t2", Name: "Team Bravo", TLID: "u-tl2"}))
	mustNil(t, e.st.CreateAgent(ctx, &models.Agent{ID: "a1", Name: "Ana", TeamID: "t1", ActivationTarget: 20, Activations: 15, CreatedAt: epoch}))
	mustNil(t, e.st.CreateAgent(ctx, &models.Agent{ID: "b1", Name: "Ben", TeamID: "t2", ActivationTarget: 10, Activations: 3, CreatedAt: epoch}))

	board := service.NewLeaderboardService(leaderboard.NewEngine(e.st), e.st, e.hub, e.clk)
	authSvc := service.NewAuthService(e.st, e.st, e.tokens, e.clk, board)
	notes := service.NewNotificationService(e.st, e.hub, e.clk, 15*time.Second)
	t.Cleanup(notes.Close)

	e.handlers = &BoardAPIHandlers{
		Auth:           authSvc,
		Counters:       service.NewCounterService(authSvc, e.st, e.st, board, e.hub, e.clk),
		Agents:         service.NewAgentService(e.st, e.st, board, e.clk),
		Notifications:  notes,
		Board:          board,
		Limiter:        limiter,
		Hub:            e.hub,
		WSSendBuffer:   16,
		WSPingInterval: time.Minute,
	}

	bs := sharedapi.NewBaseServer(":0", log.New(io.Discard, "", 0))
	e.handlers.RegisterRoutes(bs.Router)
	e.srv = httptest.NewServer(bs.Router)
	t.Cleanup(e.srv.Close)
	return e
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := e.tokens.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

// do sends a JSON request and decodes the response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			buf, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			rd = bytes.NewReader(buf)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) agent(t *testing.T, id string) *models.Agent {
	t.Helper()
	a, err := e.st.GetAgent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAgent(%s): %v", id, err)
	}
	return a
}

// wireEvent is an event as a viewer sees it on the socket.
type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// dialViewer connects a viewer and waits until the hub has registered it.
// Frames are delivered on the returned channel until the socket closes.
func (e *testEnv) dialViewer(t *testing.T) (*websocket.Conn, <-chan wireEvent) {
	t.Helper()
	before := e.hub.Count()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, "viewer registered", func() bool { return e.hub.Count() > before })

	events := make(chan wireEvent, 32)
	go func() {
		defer close(events)
		for {
			var ev wireEvent
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			events <- ev
		}
	}()
	return conn, events
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
