// shared/models/team.go
package models

import "time"

// Team is owned by one team leader. The aggregate fields are a cache of the
// last leaderboard computation and are rewritten wholesale after every change.
type Team struct {
	ID               string     `bson:"_id" json:"id"`
	Name             string     `bson:"name" json:"name"`
	TLID             string     `bson:"tl_id" json:"tlId"`
	AvgActivation    int        `bson:"avg_activation" json:"avgActivation"`
	TotalActivations int        `bson:"total_activations" json:"totalActivations"`
	TotalSubmissions int        `bson:"total_submissions" json:"totalSubmissions"`
	TotalPoints      int        `bson:"total_points" json:"totalPoints"`
	CreatedAt        *time.Time `bson:"created_at,omitempty" json:"createdAt,omitempty"`
	LastUpdated      *time.Time `bson:"last_updated,omitempty" json:"lastUpdated,omitempty"`
}

// TeamStats is the derived part of a Team.
type TeamStats struct {
	AvgActivation    int `bson:"avg_activation" json:"avgActivation"`
	TotalActivations int `bson:"total_activations" json:"totalActivations"`
	TotalSubmissions int `bson:"total_submissions" json:"totalSubmissions"`
	TotalPoints      int `bson:"total_points" json:"totalPoints"`
}
