package services

import (
	"testing"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/models"
)

func TestDirectChannelIDSymmetry(t *testing.T) {
	if models.DirectChannelID(1, 2) != models.DirectChannelID(2, 1) {
		t.Fatalf("pair id must not depend on argument order")
	}
	if models.DirectChannelID(1, 2) != "conv-1-2" {
		t.Fatalf("unexpected pair id: %s", models.DirectChannelID(1, 2))
	}
	if ResolveTopic(models.DirectChannelID(7, 3)) != ResolveTopic(models.DirectChannelID(3, 7)) {
		t.Fatalf("topic must not depend on argument order")
	}
}

func TestResolveTopic(t *testing.T) {
	if got := ResolveTopic("conv-1-2"); got != "conv-1-2" {
		t.Errorf("direct pair id should already be the topic, got %s", got)
	}
	if got := ResolveTopic("prayer-circle"); got != "chan-prayer-circle" {
		t.Errorf("group channels get the chan prefix, got %s", got)
	}
}

func TestParseDirectChannelID(t *testing.T) {
	first, second, ok := ParseDirectChannelID("conv-3-9")
	if !ok || first != 3 || second != 9 {
		t.Fatalf("got (%d, %d, %v)", first, second, ok)
	}

	for _, bad := range []string{"conv-9-3", "conv-1", "chan-a", "conv-x-y", "conv-4-4"} {
		if _, _, ok := ParseDirectChannelID(bad); ok {
			t.Errorf("%q should not parse", bad)
		}
	}
}

func TestChannelRegistryJoinIdempotent(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)

	registry.Join("prayer-circle", models.ChannelTypeGroupTyping, 1)
	registry.Join("prayer-circle", models.ChannelTypeGroupTyping, 1)
	registry.Join("prayer-circle", models.ChannelTypeGroupTyping, 2)

	if members := registry.Members("prayer-circle"); len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
	if !registry.IsMember("prayer-circle", 1) {
		t.Fatal("member 1 should be present")
	}
}

func TestChannelRegistrySweep(t *testing.T) {
	now := time.Now()
	registry := NewChannelRegistry(time.Minute)
	registry.now = func() time.Time { return now }

	registry.Join("prayer-circle", models.ChannelTypeGroupTyping, 1)
	registry.Leave("prayer-circle", 1)

	// Still within grace
	now = now.Add(30 * time.Second)
	if reaped := registry.SweepEmpty(); len(reaped) != 0 {
		t.Fatalf("channel reaped before grace period: %v", reaped)
	}

	// Rejoin clears the tombstone
	registry.Join("prayer-circle", models.ChannelTypeGroupTyping, 2)
	now = now.Add(2 * time.Minute)
	if reaped := registry.SweepEmpty(); len(reaped) != 0 {
		t.Fatalf("channel with members must not be reaped: %v", reaped)
	}

	registry.Leave("prayer-circle", 2)
	now = now.Add(2 * time.Minute)
	reaped := registry.SweepEmpty()
	if len(reaped) != 1 || reaped[0] != "prayer-circle" {
		t.Fatalf("expected the empty channel reaped, got %v", reaped)
	}
	if registry.IsMember("prayer-circle", 2) {
		t.Fatal("reaped channel should be gone")
	}
}

func TestChannelRegistryJoinedChannels(t *testing.T) {
	registry := NewChannelRegistry(time.Minute)
	registry.Join("alpha", models.ChannelTypeConversation, 1)
	registry.Join("bravo", models.ChannelTypeConversation, 1)
	registry.Join("bravo", models.ChannelTypeConversation, 2)

	if got := registry.JoinedChannels(1); len(got) != 2 {
		t.Fatalf("expected 2 channels for member 1, got %v", got)
	}
	if got := registry.JoinedChannels(3); got != nil {
		t.Fatalf("expected none for a stranger, got %v", got)
	}
}
