package services

import (
	"sync"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

type outcomeEntry struct {
	outcome    models.CallOutcome
	recordedAt time.Time
}

// OutcomeTracker remembers the terminal outcome of recent calls so that
// duplicate or out-of-order terminal signals from the transport can be
// recognized and dropped. Entries expire after a short retention window.
type OutcomeTracker struct {
	mu      sync.RWMutex
	entries map[string]outcomeEntry

	retention time.Duration
	now       func() time.Time
}

func NewOutcomeTracker(retention time.Duration) *OutcomeTracker {
	return &OutcomeTracker{
		entries:   make(map[string]outcomeEntry),
		retention: retention,
		now:       time.Now,
	}
}

// RecordOutcome keeps the first terminal outcome per call id. Returns false
// when an outcome was already recorded; the late signal must then be
// dropped, not reprocessed.
func (t *OutcomeTracker) RecordOutcome(callId string, outcome models.CallOutcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.entries[callId]; ok {
		if prev.outcome != outcome {
			log.Debug().
				Str("call", callId).
				Str("recorded", prev.outcome).
				Str("late", outcome).
				Msg("Dropped a late conflicting call outcome...")
		}
		return false
	}
	t.entries[callId] = outcomeEntry{outcome: outcome, recordedAt: t.now()}
	return true
}

func (t *OutcomeTracker) GetOutcome(callId string) models.CallOutcome {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if entry, ok := t.entries[callId]; ok {
		return entry.outcome
	}
	return models.CallOutcomeUnknown
}

// Sweep drops entries past retention. Returns the number removed.
func (t *OutcomeTracker) Sweep() int {
	deadline := t.now().Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	var removed int
	for callId, entry := range t.entries {
		if entry.recordedAt.Before(deadline) {
			delete(t.entries, callId)
			removed++
		}
	}
	return removed
}
