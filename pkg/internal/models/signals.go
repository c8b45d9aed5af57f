package models

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

type SignalType = string

const (
	SignalOffer       = SignalType("call.offer")
	SignalAnswer      = SignalType("call.answer")
	SignalCandidate   = SignalType("call.candidate")
	SignalReject      = SignalType("call.reject")
	SignalEnd         = SignalType("call.end")
	SignalTyping      = SignalType("status.typing")
	SignalReadReceipt = SignalType("status.read")
)

// SignalEnvelope is the transient message relayed over the transport.
// It only lives for the duration of one relay, nothing persists it.
type SignalEnvelope struct {
	Type      SignalType     `json:"type"`
	CallID    string         `json:"call_id,omitempty"`
	SenderID  uint           `json:"sender_id"`
	ChannelID string         `json:"channel_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	IssuedAt  time.Time      `json:"issued_at"`
}

// UnifiedPush is the frame pushed to subscriber connections.
type UnifiedPush struct {
	Action  string `json:"a"`
	Payload any    `json:"p,omitempty"`
	Message string `json:"m,omitempty"`
}

func (v UnifiedPush) Marshal() []byte {
	data, _ := jsoniter.Marshal(v)
	return data
}

func UnifiedPushFromError(err error) UnifiedPush {
	return UnifiedPush{
		Action:  "error",
		Message: err.Error(),
	}
}

func FitStruct(src any, out any) {
	raw, _ := jsoniter.Marshal(src)
	_ = jsoniter.Unmarshal(raw, out)
}
