package models

import "time"

type CallPhase = uint8

const (
	CallPhaseIdle = CallPhase(iota)
	CallPhaseRinging
	CallPhaseConnected
	CallPhaseEnded
)

type CallOutcome = string

const (
	CallOutcomeUnknown  = CallOutcome("unknown")
	CallOutcomeAnswered = CallOutcome("answered")
	CallOutcomeRejected = CallOutcome("rejected")
	CallOutcomeTimedOut = CallOutcome("timed_out")
	CallOutcomeEnded    = CallOutcome("ended")
)

// CallRecord is the persisted history of one call between a pair of
// identities. The live state machine is in-memory only; this row is written
// as a fire-and-forget side effect and is not consulted by the relay.
type CallRecord struct {
	BaseModel

	CallID      string      `json:"call_id" gorm:"uniqueIndex"`
	CallerID    uint        `json:"caller_id"`
	CalleeID    uint        `json:"callee_id"`
	Topic       string      `json:"topic"`
	Outcome     CallOutcome `json:"outcome"`
	StartedAt   time.Time   `json:"started_at"`
	ConnectedAt *time.Time  `json:"connected_at"`
	EndedAt     *time.Time  `json:"ended_at"`
}

// ReadReceipt marks a message as seen by a reader, persisted out-of-band of
// the relayed receipt signal.
type ReadReceipt struct {
	BaseModel

	MessageID uint      `json:"message_id" gorm:"uniqueIndex:idx_receipt_once"`
	ReaderID  uint      `json:"reader_id" gorm:"uniqueIndex:idx_receipt_once"`
	ChannelID string    `json:"channel_id"`
	ReadAt    time.Time `json:"read_at"`
}
