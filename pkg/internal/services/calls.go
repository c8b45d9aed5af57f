package services

import (
	"sync"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type activeCall struct {
	id          string
	callerId    uint
	calleeId    uint
	topic       string
	phase       models.CallPhase
	startedAt   time.Time
	connectedAt *time.Time
	ringTimer   *time.Timer
}

// CallSnapshot is the externally visible state of a call.
type CallSnapshot struct {
	ID          string           `json:"id"`
	CallerID    uint             `json:"caller_id"`
	CalleeID    uint             `json:"callee_id"`
	Topic       string           `json:"topic"`
	Phase       models.CallPhase `json:"phase"`
	StartedAt   time.Time        `json:"started_at"`
	ConnectedAt *time.Time       `json:"connected_at,omitempty"`
}

func (v *activeCall) snapshot() CallSnapshot {
	return CallSnapshot{
		ID:          v.id,
		CallerID:    v.callerId,
		CalleeID:    v.calleeId,
		Topic:       v.topic,
		Phase:       v.phase,
		StartedAt:   v.startedAt,
		ConnectedAt: v.connectedAt,
	}
}

func (v *activeCall) isParty(accountId uint) bool {
	return v.callerId == accountId || v.calleeId == accountId
}

// CallDirector drives the per-pair call state machine:
// IDLE -> RINGING -> CONNECTED -> ENDED, with RINGING -> REJECTED and
// RINGING -> TIMED_OUT. One identity holds at most one ringing or connected
// call at a time; a second offer gets the busy signal. All transitions for
// a call happen under the director mutex so concurrent signals from both
// sides cannot race into inconsistent states; publishes happen outside it.
type CallDirector struct {
	mu     sync.Mutex
	byId   map[string]*activeCall
	byUser map[uint]*activeCall

	sessions *SessionStore
	tracker  *OutcomeTracker
	out      transport.Conn

	ringTimeout  time.Duration
	retryBackoff time.Duration

	// Optional hooks; all fire-and-forget relative to the state machine.
	archive     func(models.CallRecord)
	onConnected func(CallSnapshot)
	onEnded     func(CallSnapshot)
}

func NewCallDirector(sessions *SessionStore, tracker *OutcomeTracker, out transport.Conn, ringTimeout time.Duration) *CallDirector {
	return &CallDirector{
		byId:         make(map[string]*activeCall),
		byUser:       make(map[uint]*activeCall),
		sessions:     sessions,
		tracker:      tracker,
		out:          out,
		ringTimeout:  ringTimeout,
		retryBackoff: 250 * time.Millisecond,
	}
}

// Offer starts ringing the callee. The callee must hold a reachable session
// and neither party may already be in a call.
func (d *CallDirector) Offer(caller models.Account, calleeId uint, payload map[string]any) (CallSnapshot, error) {
	if caller.ID == calleeId {
		return CallSnapshot{}, ErrInvalidTarget
	}
	if !d.sessions.IsReachable(calleeId) {
		return CallSnapshot{}, ErrInvalidTarget
	}

	d.mu.Lock()
	if d.byUser[caller.ID] != nil || d.byUser[calleeId] != nil {
		d.mu.Unlock()
		return CallSnapshot{}, ErrAlreadyInCall
	}

	call := &activeCall{
		id:        uuid.NewString(),
		callerId:  caller.ID,
		calleeId:  calleeId,
		topic:     models.DirectChannelID(caller.ID, calleeId),
		phase:     models.CallPhaseRinging,
		startedAt: time.Now(),
	}
	call.ringTimer = time.AfterFunc(d.ringTimeout, func() {
		d.timeout(call.id)
	})
	d.byId[call.id] = call
	d.byUser[caller.ID] = call
	d.byUser[calleeId] = call
	snapshot := call.snapshot()
	d.mu.Unlock()

	d.publish(call.topic, models.SignalEnvelope{
		Type:     models.SignalOffer,
		CallID:   call.id,
		SenderID: caller.ID,
		Payload:  payload,
		IssuedAt: time.Now(),
	}, false)

	return snapshot, nil
}

// Answer moves a ringing call to connected and relays the answer back to
// the caller's topic.
func (d *CallDirector) Answer(callee models.Account, callId string, payload map[string]any) (CallSnapshot, error) {
	d.mu.Lock()
	call := d.byId[callId]
	if call == nil || call.calleeId != callee.ID || call.phase != models.CallPhaseRinging {
		d.mu.Unlock()
		return CallSnapshot{}, ErrCallNotFound
	}
	call.ringTimer.Stop()
	call.phase = models.CallPhaseConnected
	call.connectedAt = lo.ToPtr(time.Now())
	snapshot := call.snapshot()
	d.mu.Unlock()

	d.publish(call.topic, models.SignalEnvelope{
		Type:     models.SignalAnswer,
		CallID:   call.id,
		SenderID: callee.ID,
		Payload:  payload,
		IssuedAt: time.Now(),
	}, false)

	if d.onConnected != nil {
		d.onConnected(snapshot)
	}
	return snapshot, nil
}

// Reject declines a ringing call. A reject arriving after the ring timer
// already resolved the call is silently dropped.
func (d *CallDirector) Reject(callee models.Account, callId string) error {
	d.mu.Lock()
	call := d.byId[callId]
	if call == nil || call.calleeId != callee.ID || call.phase != models.CallPhaseRinging {
		d.mu.Unlock()
		if d.tracker.GetOutcome(callId) != models.CallOutcomeUnknown {
			return nil
		}
		return ErrCallNotFound
	}
	call.ringTimer.Stop()
	d.remove(call)
	d.mu.Unlock()

	if !d.tracker.RecordOutcome(call.id, models.CallOutcomeRejected) {
		return nil
	}
	d.archiveCall(call, models.CallOutcomeRejected)

	d.publish(call.topic, models.SignalEnvelope{
		Type:     models.SignalReject,
		CallID:   call.id,
		SenderID: callee.ID,
		IssuedAt: time.Now(),
	}, true)
	return nil
}

// End hangs up a connected call from either side.
func (d *CallDirector) End(party models.Account, callId string) error {
	d.mu.Lock()
	call := d.byId[callId]
	if call == nil || !call.isParty(party.ID) || call.phase != models.CallPhaseConnected {
		d.mu.Unlock()
		if d.tracker.GetOutcome(callId) != models.CallOutcomeUnknown {
			return nil
		}
		return ErrCallNotFound
	}
	call.phase = models.CallPhaseEnded
	d.remove(call)
	snapshot := call.snapshot()
	d.mu.Unlock()

	if !d.tracker.RecordOutcome(call.id, models.CallOutcomeEnded) {
		return nil
	}
	d.archiveCall(call, models.CallOutcomeEnded)

	d.publish(call.topic, models.SignalEnvelope{
		Type:     models.SignalEnd,
		CallID:   call.id,
		SenderID: party.ID,
		IssuedAt: time.Now(),
	}, true)

	if d.onEnded != nil {
		d.onEnded(snapshot)
	}
	return nil
}

// Candidate relays an ICE candidate while the call rings or is connected.
// Anything else is silently dropped, never an error to the sender.
func (d *CallDirector) Candidate(sender models.Account, callId string, payload map[string]any) {
	d.mu.Lock()
	call := d.byId[callId]
	relayable := call != nil && call.isParty(sender.ID) &&
		(call.phase == models.CallPhaseRinging || call.phase == models.CallPhaseConnected)
	var topic string
	if relayable {
		topic = call.topic
	}
	d.mu.Unlock()

	if !relayable {
		return
	}
	d.publish(topic, models.SignalEnvelope{
		Type:     models.SignalCandidate,
		CallID:   callId,
		SenderID: sender.ID,
		Payload:  payload,
		IssuedAt: time.Now(),
	}, false)
}

// StateWith reports the caller-visible call state against another identity.
func (d *CallDirector) StateWith(accountId, otherId uint) CallSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	call := d.byUser[accountId]
	if call == nil || !call.isParty(otherId) {
		return CallSnapshot{
			Phase: models.CallPhaseIdle,
			Topic: models.DirectChannelID(accountId, otherId),
		}
	}
	return call.snapshot()
}

// timeout fires when a ringing call saw neither answer nor reject. The
// tracker fences it against a racing late reject so the synthetic reject is
// published exactly once.
func (d *CallDirector) timeout(callId string) {
	d.mu.Lock()
	call := d.byId[callId]
	if call == nil || call.phase != models.CallPhaseRinging {
		d.mu.Unlock()
		return
	}
	d.remove(call)
	d.mu.Unlock()

	if !d.tracker.RecordOutcome(call.id, models.CallOutcomeTimedOut) {
		return
	}
	d.archiveCall(call, models.CallOutcomeTimedOut)

	d.publish(call.topic, models.SignalEnvelope{
		Type:     models.SignalReject,
		CallID:   call.id,
		SenderID: call.calleeId,
		Payload:  map[string]any{"reason": "timeout"},
		IssuedAt: time.Now(),
	}, true)
}

// remove must run under d.mu; after it the pair is IDLE again.
func (d *CallDirector) remove(call *activeCall) {
	delete(d.byId, call.id)
	delete(d.byUser, call.callerId)
	delete(d.byUser, call.calleeId)
}

// publish relays one envelope. Non-terminal signals are dropped on
// transport failure since a stale retry is worse than a lost one; terminal
// signals get one retry after a short backoff, then give up with local state
// staying authoritative.
func (d *CallDirector) publish(topic string, envelope models.SignalEnvelope, terminal bool) {
	err := d.out.Publish(topic, envelope.Type, envelope)
	if err == nil {
		return
	}
	if !terminal {
		log.Warn().Err(err).Str("topic", topic).Str("type", envelope.Type).
			Msg("Transport unavailable, signal dropped...")
		return
	}

	time.Sleep(d.retryBackoff)
	if err := d.out.Publish(topic, envelope.Type, envelope); err != nil {
		log.Error().Err(err).Str("topic", topic).Str("type", envelope.Type).
			Msg("Transport unavailable, terminal signal lost after retry...")
	}
}

func (d *CallDirector) archiveCall(call *activeCall, outcome models.CallOutcome) {
	if d.archive == nil {
		return
	}
	d.archive(models.CallRecord{
		CallID:      call.id,
		CallerID:    call.callerId,
		CalleeID:    call.calleeId,
		Topic:       call.topic,
		Outcome:     outcome,
		StartedAt:   call.startedAt,
		ConnectedAt: call.connectedAt,
		EndedAt:     lo.ToPtr(time.Now()),
	})
}
