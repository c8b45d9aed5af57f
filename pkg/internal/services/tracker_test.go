package services

import (
	"testing"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/models"
)

func TestOutcomeTrackerFirstWriterWins(t *testing.T) {
	tracker := NewOutcomeTracker(time.Minute)

	if !tracker.RecordOutcome("call-1", models.CallOutcomeTimedOut) {
		t.Fatal("first outcome should be accepted")
	}
	if tracker.RecordOutcome("call-1", models.CallOutcomeRejected) {
		t.Fatal("late conflicting outcome must be dropped")
	}
	if got := tracker.GetOutcome("call-1"); got != models.CallOutcomeTimedOut {
		t.Fatalf("expected timed_out, got %s", got)
	}
}

func TestOutcomeTrackerUnknown(t *testing.T) {
	tracker := NewOutcomeTracker(time.Minute)
	if got := tracker.GetOutcome("nope"); got != models.CallOutcomeUnknown {
		t.Fatalf("expected unknown for absent entry, got %s", got)
	}
}

func TestOutcomeTrackerSweep(t *testing.T) {
	now := time.Now()
	tracker := NewOutcomeTracker(time.Minute)
	tracker.now = func() time.Time { return now }

	tracker.RecordOutcome("call-1", models.CallOutcomeEnded)

	now = now.Add(30 * time.Second)
	if removed := tracker.Sweep(); removed != 0 {
		t.Fatalf("entry expired before retention, removed %d", removed)
	}

	now = now.Add(time.Minute)
	if removed := tracker.Sweep(); removed != 1 {
		t.Fatalf("expected 1 expired entry, removed %d", removed)
	}
	if got := tracker.GetOutcome("call-1"); got != models.CallOutcomeUnknown {
		t.Fatalf("swept entry should read unknown, got %s", got)
	}
}
