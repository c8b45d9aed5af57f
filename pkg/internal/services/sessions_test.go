package services

import (
	"testing"
	"time"
)

func TestSessionStoreUnknownIsUnreachable(t *testing.T) {
	store := NewSessionStore(5 * time.Minute)
	if store.IsReachable(42) {
		t.Fatal("an identity without a session must be unreachable, not a fault")
	}
}

func TestSessionStoreReachability(t *testing.T) {
	now := time.Now()
	store := NewSessionStore(5 * time.Minute)
	store.now = func() time.Time { return now }

	store.SetOnline(1, true)
	if !store.IsReachable(1) {
		t.Fatal("online identity within threshold should be reachable")
	}

	// A crashed client leaves the flag stuck; staleness catches it.
	now = now.Add(6 * time.Minute)
	if store.IsReachable(1) {
		t.Fatal("stale session must not count as reachable")
	}

	store.Heartbeat(1)
	if !store.IsReachable(1) {
		t.Fatal("heartbeat should refresh reachability")
	}

	store.SetOnline(1, false)
	if store.IsReachable(1) {
		t.Fatal("offline identity must be unreachable")
	}
}

func TestSessionStoreLastSeenMonotonic(t *testing.T) {
	now := time.Now()
	store := NewSessionStore(5 * time.Minute)
	store.now = func() time.Time { return now }

	store.SetOnline(1, true)
	first, _ := store.Get(1)

	// Clock skew backwards must not rewind last seen.
	now = now.Add(-time.Minute)
	store.SetOnline(1, false)
	second, _ := store.Get(1)

	if second.LastSeenAt.Before(first.LastSeenAt) {
		t.Fatalf("last seen went back in time: %v -> %v", first.LastSeenAt, second.LastSeenAt)
	}
	if second.IsOnline {
		t.Fatal("online flag should still have been updated")
	}
}
