// board/hub/event.go
package hub

import "time"

// Event types pushed to viewers.
const (
	EventLeaderboardUpdate  = "leaderboard:update"
	EventSaleActivation     = "sale:activation"
	EventNotificationActive = "notification:active"
	EventNotificationClear  = "notification:clear"
)

// Event is the frame written to every viewer: {"type": ..., "data": ...}.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SaleActivation celebrates an activation. NewActivationCount is the agent's
// total after the change, not the delta.
type SaleActivation struct {
	AgentID            string    `json:"agentId"`
	AgentName          string    `json:"agentName"`
	PhotoURL           string    `json:"photoUrl"`
	TeamID             string    `json:"teamId"`
	NewActivationCount int       `json:"newActivationCount"`
	Timestamp          time.Time `json:"timestamp"`
}
