// shared/models/delta.go
package models

import "math"

// CounterDelta is a signed adjustment to an agent's counters. Absent fields
// are not touched.
type CounterDelta struct {
	Submissions *int `json:"submissions,omitempty" bson:"submissions,omitempty"`
	Activations *int `json:"activations,omitempty" bson:"activations,omitempty"`
	Points      *int `json:"points,omitempty" bson:"points,omitempty"`
}

// Empty reports whether no field is present.
func (d CounterDelta) Empty() bool {
	return d.Submissions == nil && d.Activations == nil && d.Points == nil
}

// MaxDeltaStep bounds the magnitude of each field in one delta.
const MaxDeltaStep = 1_000_000

// InRange reports whether every present field is within ±MaxDeltaStep.
func (d CounterDelta) InRange() bool {
	for _, v := range []*int{d.Submissions, d.Activations, d.Points} {
		if v != nil && (*v > MaxDeltaStep || *v < -MaxDeltaStep) {
			return false
		}
	}
	return true
}

// ActivationsIncreased reports whether the delta adds activations.
func (d CounterDelta) ActivationsIncreased() bool {
	return d.Activations != nil && *d.Activations > 0
}

// ApplyTo returns a copy of a with every present field clamped at zero.
func (d CounterDelta) ApplyTo(a Agent) Agent {
	if d.Submissions != nil {
		a.Submissions = ClampAdd(a.Submissions, *d.Submissions)
	}
	if d.Activations != nil {
		a.Activations = ClampAdd(a.Activations, *d.Activations)
	}
	if d.Points != nil {
		a.Points = ClampAdd(a.Points, *d.Points)
	}
	return a
}

// ClampAdd returns max(0, old+delta), saturating at math.MaxInt.
func ClampAdd(old, delta int) int {
	if delta > 0 && old > math.MaxInt-delta {
		return math.MaxInt
	}
	if n := old + delta; n > 0 {
		return n
	}
	return 0
}

// RoundHalfUp rounds to the nearest integer with halves rounded up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Int returns a pointer to v, for building deltas and patches.
func Int(v int) *int { return &v }
