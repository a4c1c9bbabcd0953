// board/api/ws_handler.go
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ftotnem/LIVEBOARD/board/hub"
	"github.com/Ftotnem/LIVEBOARD/board/service"
	"github.com/Ftotnem/LIVEBOARD/shared/models"
)

// Inbound message types.
const (
	MsgJoin             = "join"
	MsgUpdateCounters   = "tl:updateCounters"
	MsgPushNotification = "admin:pushNotification"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is a message sent by a viewer or a team-leader console.
type WSMessage struct {
	Type  string          `json:"type"`
	Room  string          `json:"room,omitempty"`
	Token string          `json:"token,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// CounterUpdate is the data of a tl:updateCounters message.
type CounterUpdate struct {
	AgentID string              `json:"agentId"`
	Delta   models.CounterDelta `json:"delta"`
}

// WebSocketHandler GET /ws
// Every connection receives broadcasts. Rejected messages are logged and
// dropped without closing the connection.
func (h *BoardAPIHandlers) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN: WebSocket upgrade failed: %v", err)
		return
	}

	session := hub.NewSession(h.WSSendBuffer)
	h.Hub.Add(session)
	log.Printf("INFO: Viewer %s connected from %s (%d connected)", session.ID, r.RemoteAddr, h.Hub.Count())

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		h.writePump(conn, session)
	}()

	h.readLoop(r.Context(), conn, session)

	h.Hub.Remove(session.ID)
	<-pumpDone
	conn.Close()
	log.Printf("INFO: Viewer %s disconnected (%d connected)", session.ID, h.Hub.Count())
}

func (h *BoardAPIHandlers) pingInterval() time.Duration {
	if h.WSPingInterval <= 0 {
		return 30 * time.Second
	}
	return h.WSPingInterval
}

func (h *BoardAPIHandlers) pongWait() time.Duration {
	return 2 * h.pingInterval()
}

// writePump is the only writer on conn. It drains queued frames and pings
// until the session is closed or a write fails.
func (h *BoardAPIHandlers) writePump(conn *websocket.Conn, session *hub.Session) {
	ticker := time.NewTicker(h.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case frame := <-session.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("WARN: Write to viewer %s failed: %v", session.ID, err)
				conn.Close() // unblocks the read loop
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		case <-session.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (h *BoardAPIHandlers) readLoop(ctx context.Context, conn *websocket.Conn, session *hub.Session) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: Viewer %s read error: %v", session.ID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(h.pongWait()))

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WARN: Dropping malformed message from %s: %v", session.ID, err)
			continue
		}
		h.dispatch(ctx, session, msg)
	}
}

func (h *BoardAPIHandlers) dispatch(ctx context.Context, session *hub.Session, msg WSMessage) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch msg.Type {
	case MsgJoin:
		if err := h.Hub.Join(session.ID, msg.Room); err != nil {
			log.Printf("WARN: Viewer %s could not join room %q: %v", session.ID, msg.Room, err)
		}

	case MsgUpdateCounters:
		var update CounterUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			log.Printf("WARN: Dropping %s from %s: invalid data: %v", msg.Type, session.ID, err)
			return
		}
		if _, err := h.Counters.Submit(ctx, msg.Token, update.AgentID, update.Delta); err != nil {
			log.Printf("WARN: Rejected %s for agent %s from %s: %v", msg.Type, update.AgentID, session.ID, err)
		}

	case MsgPushNotification:
		var req service.PushRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Printf("WARN: Dropping %s from %s: invalid data: %v", msg.Type, session.ID, err)
			return
		}
		user, err := h.Auth.Authenticate(ctx, msg.Token)
		if err != nil {
			log.Printf("WARN: Rejected %s from %s: %v", msg.Type, session.ID, err)
			return
		}
		if _, err := h.Notifications.Push(ctx, user, req); err != nil {
			log.Printf("WARN: Rejected %s from %s: %v", msg.Type, session.ID, err)
		}

	default:
		log.Printf("WARN: Ignoring unknown message type %q from %s", msg.Type, session.ID)
	}
}
