package models

import (
	"math"
	"testing"
	"time"
)

func TestClampAdd(t *testing.T) {
	cases := []struct{ old, delta, want int }{
		{3, 2, 5},
		{3, -2, 1},
		{3, -3, 0},
		{3, -5, 0},
		{0, -1, 0},
		{0, 0, 0},
		{4, math.MaxInt, math.MaxInt},
		{math.MaxInt, 1, math.MaxInt},
		{4, math.MinInt, 0},
	}
	for _, c := range cases {
		if got := ClampAdd(c.old, c.delta); got != c.want {
			t.Errorf("ClampAdd(%d, %d) = %d, want %d", c.old, c.delta, got, c.want)
		}
	}
}

func TestCounterDeltaApplyTo(t *testing.T) {
	a := Agent{Activations: 3, Submissions: 10, Points: 7}
	d := CounterDelta{Activations: Int(-5), Points: Int(4)}

	got := d.ApplyTo(a)
	if got.Activations != 0 || got.Submissions != 10 || got.Points != 11 {
		t.Fatalf("ApplyTo = %+v", got)
	}
	// Applying the same clamping delta again converges on the floor.
	again := d.ApplyTo(got)
	if again.Activations != 0 {
		t.Fatalf("second application activations = %d, want 0", again.Activations)
	}
	if a.Activations != 3 {
		t.Fatalf("ApplyTo mutated its input")
	}
}

func TestCounterDeltaFlags(t *testing.T) {
	if !(CounterDelta{}).Empty() {
		t.Fatalf("zero delta should be empty")
	}
	if (CounterDelta{Points: Int(0)}).Empty() {
		t.Fatalf("explicit zero field is still present")
	}
	if (CounterDelta{Activations: Int(0)}).ActivationsIncreased() {
		t.Fatalf("zero activations is not an increase")
	}
	if !(CounterDelta{Activations: Int(1)}).ActivationsIncreased() {
		t.Fatalf("+1 activations is an increase")
	}
}

func TestActivationRate(t *testing.T) {
	cases := []struct {
		activations, target, want int
	}{
		{16, 20, 80},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{5, 0, 0},
		{30, 20, 150},
	}
	for _, c := range cases {
		a := Agent{Activations: c.activations, ActivationTarget: c.target}
		if got := a.ActivationRate(); got != c.want {
			t.Errorf("rate(%d/%d) = %d, want %d", c.activations, c.target, got, c.want)
		}
	}
}

func TestNotificationTypes(t *testing.T) {
	if !NotificationAudio.Valid() || NotificationType("gif").Valid() {
		t.Fatalf("Valid misclassifies types")
	}
	if NotificationText.NeedsMedia() || !NotificationVideo.NeedsMedia() {
		t.Fatalf("NeedsMedia misclassifies types")
	}
}

func TestCounterDeltaInRange(t *testing.T) {
	if !(CounterDelta{Points: Int(MaxDeltaStep), Activations: Int(-MaxDeltaStep)}).InRange() {
		t.Fatalf("bounds should be accepted")
	}
	if (CounterDelta{Points: Int(MaxDeltaStep + 1)}).InRange() {
		t.Fatalf("oversized positive step accepted")
	}
	if (CounterDelta{Submissions: Int(math.MinInt)}).InRange() {
		t.Fatalf("oversized negative step accepted")
	}
}

func TestNotificationExpiresAtSaturates(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	n := Notification{CreatedAt: created, Duration: math.MaxInt64}
	if !n.ExpiresAt().After(created) {
		t.Fatalf("ExpiresAt = %v, want after %v", n.ExpiresAt(), created)
	}
	n.Duration = 1500
	if want := created.Add(1500 * time.Millisecond); !n.ExpiresAt().Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", n.ExpiresAt(), want)
	}
}
