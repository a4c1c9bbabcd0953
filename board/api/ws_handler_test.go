package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/leaderboard"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
	"github.com/Ftotnem/LIVEBOARD/shared/testutil"
)

const eventTimeout = 2 * time.Second

func TestViewerReceivesSaleThenLeaderboard(t *testing.T) {
	e := newTestEnv(t, nil)
	_, events := e.dialViewer(t)

	if status := e.do(t, http.MethodPatch, "/api/tl/agents/a1/increment", e.token(t, "u-tl1"), `{"activations": 1}`, nil); status != http.StatusOK {
		t.Fatalf("increment status = %d", status)
	}

	ev := testutil.RequireReceive(t, events, eventTimeout, "waiting for sale event")
	if ev.Type != hub.EventSaleActivation {
		t.Fatalf("first event = %s, want %s", ev.Type, hub.EventSaleActivation)
	}
	var sale hub.SaleActivation
	mustNil(t, json.Unmarshal(ev.Data, &sale))
	if sale.AgentID != "a1" || sale.NewActivationCount != 16 || sale.TeamID != "t1" {
		t.Fatalf("sale = %+v", sale)
	}

	ev = testutil.RequireReceive(t, events, eventTimeout, "waiting for leaderboard event")
	if ev.Type != hub.EventLeaderboardUpdate {
		t.Fatalf("second event = %s, want %s", ev.Type, hub.EventLeaderboardUpdate)
	}
	var board leaderboard.Board
	mustNil(t, json.Unmarshal(ev.Data, &board))
	if board.Teams[0].ID != "t1" || board.Teams[0].AvgActivation != 80 {
		t.Fatalf("board teams = %+v", board.Teams)
	}
}

func TestDuplicateDecrementOverBothTransportsFloorsAtZero(t *testing.T) {
	e := newTestEnv(t, nil)
	conn, events := e.dialViewer(t)
	tl2 := e.token(t, "u-tl2")

	var agent models.Agent
	if status := e.do(t, http.MethodPatch, "/api/tl/agents/b1/increment", tl2, `{"activations": -5}`, &agent); status != http.StatusOK {
		t.Fatalf("increment status = %d", status)
	}
	if agent.Activations != 0 {
		t.Fatalf("activations after REST = %d, want 0", agent.Activations)
	}
	ev := testutil.RequireReceive(t, events, eventTimeout, "waiting for leaderboard after REST")
	if ev.Type != hub.EventLeaderboardUpdate {
		t.Fatalf("event = %s, want %s", ev.Type, hub.EventLeaderboardUpdate)
	}

	msg := WSMessage{Type: MsgUpdateCounters, Token: tl2, Data: json.RawMessage(`{"agentId": "b1", "delta": {"activations": -5}}`)}
	mustNil(t, conn.WriteJSON(msg))
	ev = testutil.RequireReceive(t, events, eventTimeout, "waiting for leaderboard after streamed update")
	if ev.Type != hub.EventLeaderboardUpdate {
		t.Fatalf("event = %s, want %s", ev.Type, hub.EventLeaderboardUpdate)
	}

	if got := e.agent(t, "b1").Activations; got != 0 {
		t.Fatalf("activations = %d, want 0", got)
	}
}

func TestStreamedUpdateRequiresToken(t *testing.T) {
	e := newTestEnv(t, nil)
	conn, events := e.dialViewer(t)

	rejected := []WSMessage{
		{Type: MsgUpdateCounters, Data: json.RawMessage(`{"agentId": "a1", "delta": {"activations": 1}}`)},
		{Type: MsgUpdateCounters, Token: "forged", Data: json.RawMessage(`{"agentId": "a1", "delta": {"activations": 1}}`)},
		{Type: MsgUpdateCounters, Token: e.token(t, "u-tl1"), Data: json.RawMessage(`{"agentId": "b1", "delta": {"activations": 1}}`)},
		{Type: MsgUpdateCounters, Token: e.token(t, "u-tl1"), Data: json.RawMessage(`"not an object"`)},
	}
	for _, msg := range rejected {
		mustNil(t, conn.WriteJSON(msg))
	}
	testutil.RequireNoReceive(t, events, 200*time.Millisecond, "rejected updates must not broadcast")

	// The connection is still usable after the rejections.
	valid := WSMessage{Type: MsgUpdateCounters, Token: e.token(t, "u-tl1"), Data: json.RawMessage(`{"agentId": "a1", "delta": {"activations": 1}}`)}
	mustNil(t, conn.WriteJSON(valid))
	ev := testutil.RequireReceive(t, events, eventTimeout, "waiting for sale event")
	if ev.Type != hub.EventSaleActivation {
		t.Fatalf("event = %s, want %s", ev.Type, hub.EventSaleActivation)
	}

	if got := e.agent(t, "a1").Activations; got != 16 {
		t.Fatalf("a1 activations = %d, want 16", got)
	}
	if got := e.agent(t, "b1").Activations; got != 3 {
		t.Fatalf("b1 activations = %d, want 3", got)
	}
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	e := newTestEnv(t, nil)
	conn, events := e.dialViewer(t)

	mustNil(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	mustNil(t, conn.WriteJSON(WSMessage{Type: "bogus"}))
	mustNil(t, conn.WriteJSON(WSMessage{Type: MsgJoin, Room: "floor-2"}))
	waitFor(t, "room join", func() bool { return e.hub.RoomSize("floor-2") == 1 })
	testutil.RequireNoReceive(t, events, 50*time.Millisecond, "no events expected")
}

func TestStreamedNotificationPush(t *testing.T) {
	e := newTestEnv(t, nil)
	conn, events := e.dialViewer(t)

	push := WSMessage{Type: MsgPushNotification, Token: e.token(t, "u-tl1"), Data: json.RawMessage(`{"type": "text", "message": "Hi"}`)}
	mustNil(t, conn.WriteJSON(push))
	testutil.RequireNoReceive(t, events, 100*time.Millisecond, "tl push must be dropped")

	push.Token = e.token(t, "u-admin")
	push.Data = json.RawMessage(`{"type": "text", "title": "Lunch", "message": "Pizza in the kitchen", "duration": 2000}`)
	mustNil(t, conn.WriteJSON(push))

	ev := testutil.RequireReceive(t, events, eventTimeout, "waiting for notification")
	if ev.Type != hub.EventNotificationActive {
		t.Fatalf("event = %s, want %s", ev.Type, hub.EventNotificationActive)
	}
	var n models.Notification
	mustNil(t, json.Unmarshal(ev.Data, &n))
	if n.Title != "Lunch" || n.Duration != 2000 || !n.IsActive {
		t.Fatalf("notification = %+v", n)
	}

	e.clk.WaitForTimers(1)
	e.clk.Advance(2 * time.Second)
	ev = testutil.RequireReceive(t, events, eventTimeout, "waiting for clear")
	if ev.Type != hub.EventNotificationClear {
		t.Fatalf("event = %s, want %s", ev.Type, hub.EventNotificationClear)
	}
}

func TestDisconnectRemovesViewer(t *testing.T) {
	e := newTestEnv(t, nil)
	conn, _ := e.dialViewer(t)
	mustNil(t, conn.WriteJSON(WSMessage{Type: MsgJoin, Room: "tv"}))
	waitFor(t, "room join", func() bool { return e.hub.RoomSize("tv") == 1 })

	conn.Close()
	waitFor(t, "viewer removal", func() bool { return e.hub.Count() == 0 && e.hub.RoomSize("tv") == 0 })
}
