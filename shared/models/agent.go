// shared/models/agent.go
package models

import "time"

// Agent is a tracked salesperson. Counters never go below zero.
type Agent struct {
	ID                  string    `bson:"_id" json:"id"`
	Name                string    `bson:"name" json:"name"`
	PhotoURL            string    `bson:"photo_url" json:"photoUrl"`
	TeamID              string    `bson:"team_id" json:"teamId"`
	ActivationTarget    int       `bson:"activation_target" json:"activationTarget"`
	Activations         int       `bson:"activations" json:"activations"`
	Submissions         int       `bson:"submissions" json:"submissions"`
	Points              int       `bson:"points" json:"points"`
	LastSubmissionReset time.Time `bson:"last_submission_reset" json:"lastSubmissionReset"`
	CreatedAt           time.Time `bson:"created_at" json:"createdAt"`
}

// AgentPatch carries profile edits. Nil fields are left unchanged; counters
// are only ever changed through a CounterDelta.
type AgentPatch struct {
	Name             *string `json:"name,omitempty"`
	PhotoURL         *string `json:"photoUrl,omitempty"`
	ActivationTarget *int    `json:"activationTarget,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p AgentPatch) Empty() bool {
	return p.Name == nil && p.PhotoURL == nil && p.ActivationTarget == nil
}

// ActivationRate is round(100 * activations / target), 0 when target is 0.
func (a Agent) ActivationRate() int {
	if a.ActivationTarget <= 0 {
		return 0
	}
	return RoundHalfUp(100 * float64(a.Activations) / float64(a.ActivationTarget))
}
