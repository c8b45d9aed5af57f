package services

import (
	"errors"
	"testing"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/models"
)

func TestTypingDirectChannel(t *testing.T) {
	out := &recorderConn{}
	broadcaster := NewStatusBroadcaster(NewChannelRegistry(time.Hour), out)

	if err := broadcaster.SetTypingStatus("conv-1-2", alice, true); err != nil {
		t.Fatal(err)
	}
	if err := broadcaster.SetTypingStatus("conv-1-2", alice, true); err != nil {
		t.Fatal(err)
	}

	// Typing is stateless; every send goes out as-is.
	if out.count(models.SignalTyping) != 2 {
		t.Fatalf("expected two typing frames, got %d", out.count(models.SignalTyping))
	}
	frame := out.last()
	if frame.topic != "conv-1-2" || frame.envelope.ChannelID != "conv-1-2" {
		t.Fatalf("typing relayed wrong: %+v", frame)
	}

	// Carol is not part of the pair encoded in the channel id.
	if err := broadcaster.SetTypingStatus("conv-1-2", carol, true); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestTypingGroupChannelMembership(t *testing.T) {
	out := &recorderConn{}
	registry := NewChannelRegistry(time.Hour)
	broadcaster := NewStatusBroadcaster(registry, out)

	if err := broadcaster.SetTypingStatus("chan-standup", alice, true); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant before joining, got %v", err)
	}

	registry.Join("chan-standup", models.ChannelTypeGroupTyping, alice.ID)
	if err := broadcaster.SetTypingStatus("chan-standup", alice, true); err != nil {
		t.Fatal(err)
	}
	if out.count(models.SignalTyping) != 1 {
		t.Fatalf("expected one typing frame, got %d", out.count(models.SignalTyping))
	}
}

func TestMarkReadQueuesReceipt(t *testing.T) {
	out := &recorderConn{}
	broadcaster := NewStatusBroadcaster(NewChannelRegistry(time.Hour), out)

	if err := broadcaster.MarkRead("conv-1-2", bob, 42); err != nil {
		t.Fatal(err)
	}
	if out.count(models.SignalReadReceipt) != 1 {
		t.Fatalf("expected one receipt frame, got %d", out.count(models.SignalReadReceipt))
	}

	// Re-reading the same message overwrites the pending row instead of
	// queueing a duplicate.
	if err := broadcaster.MarkRead("conv-1-2", bob, 42); err != nil {
		t.Fatal(err)
	}
	broadcaster.receiptsMu.Lock()
	pending := len(broadcaster.receipts)
	receipt := broadcaster.receipts[receiptKey{messageId: 42, readerId: bob.ID}]
	broadcaster.receiptsMu.Unlock()
	if pending != 1 {
		t.Fatalf("expected one pending receipt, got %d", pending)
	}
	if receipt.ChannelID != "conv-1-2" || receipt.MessageID != 42 {
		t.Fatalf("unexpected queued receipt: %+v", receipt)
	}
}

func TestMarkReadNonParticipant(t *testing.T) {
	out := &recorderConn{}
	broadcaster := NewStatusBroadcaster(NewChannelRegistry(time.Hour), out)

	if err := broadcaster.MarkRead("chan-standup", bob, 7); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if len(out.frames) != 0 {
		t.Fatal("nothing may be published for a non-participant")
	}
}

func TestTypingDeliveredDespiteTransportFailure(t *testing.T) {
	out := &recorderConn{fails: 1}
	broadcaster := NewStatusBroadcaster(NewChannelRegistry(time.Hour), out)

	// Indicator loss is tolerated; the sender still gets a nil error.
	if err := broadcaster.SetTypingStatus("conv-1-2", alice, true); err != nil {
		t.Fatalf("typing must not surface transport errors, got %v", err)
	}
	if len(out.frames) != 0 {
		t.Fatal("frame should have been dropped by the failing transport")
	}
}
