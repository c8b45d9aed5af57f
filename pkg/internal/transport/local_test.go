package transport

import (
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/cadencehq/beacon/pkg/internal/models"
)

func TestLocalWildcardDelivery(t *testing.T) {
	conn := NewLocal()

	var got []models.UnifiedPush
	cancel, err := conn.Subscribe("conv-*-2", func(data []byte) {
		var frame models.UnifiedPush
		if err := jsoniter.Unmarshal(data, &frame); err != nil {
			t.Error(err)
			return
		}
		got = append(got, frame)
	})
	if err != nil {
		t.Fatal(err)
	}

	_ = conn.Publish("conv-1-2", "calls.offer", map[string]any{"x": 1})
	_ = conn.Publish("conv-1-3", "calls.offer", nil)
	_ = conn.Publish("user-2", "calls.offer", nil)

	if len(got) != 1 {
		t.Fatalf("expected one delivery, got %d", len(got))
	}
	if got[0].Action != "calls.offer" {
		t.Fatalf("unexpected action %s", got[0].Action)
	}

	cancel()
	_ = conn.Publish("conv-1-2", "calls.offer", nil)
	if len(got) != 1 {
		t.Fatal("unsubscribed handler must not receive further frames")
	}
}

func TestLocalExactMatch(t *testing.T) {
	conn := NewLocal()

	var hits int
	_, _ = conn.Subscribe("user-7", func([]byte) { hits++ })

	_ = conn.Publish("user-7", "ping", nil)
	_ = conn.Publish("user-70", "ping", nil)
	_ = conn.Publish("user-7-extra", "ping", nil)

	if hits != 1 {
		t.Fatalf("expected one hit, got %d", hits)
	}
}
