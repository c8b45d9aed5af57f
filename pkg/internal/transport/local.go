package transport

import (
	"strings"
	"sync"

	"github.com/cadencehq/beacon/pkg/internal/models"
)

// Local is an in-process Conn used by tests and single-node deployments
// without a NATS cluster. Delivery is synchronous and best-effort, matching
// the at-most-once semantics of the hosted transport.
type Local struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]*localSub
}

type localSub struct {
	pattern []string
	fn      func(data []byte)
}

func NewLocal() *Local {
	return &Local{subs: make(map[uint64]*localSub)}
}

func matchTopic(pattern, topic []string) bool {
	if len(pattern) != len(topic) {
		return false
	}
	for idx, part := range pattern {
		if part != "*" && part != topic[idx] {
			return false
		}
	}
	return true
}

func (v *Local) Publish(topic string, event string, payload any) error {
	frame := models.UnifiedPush{Action: event, Payload: payload}
	data := frame.Marshal()
	segments := strings.Split(topic, "-")

	v.mu.RLock()
	var hit []*localSub
	for _, sub := range v.subs {
		if matchTopic(sub.pattern, segments) {
			hit = append(hit, sub)
		}
	}
	v.mu.RUnlock()

	for _, sub := range hit {
		sub.fn(data)
	}
	return nil
}

func (v *Local) Subscribe(pattern string, fn func(data []byte)) (func(), error) {
	v.mu.Lock()
	v.next++
	id := v.next
	v.subs[id] = &localSub{pattern: strings.Split(pattern, "-"), fn: fn}
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}, nil
}

func (v *Local) Close() {
	v.mu.Lock()
	clear(v.subs)
	v.mu.Unlock()
}
