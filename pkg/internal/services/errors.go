package services

import "errors"

var (
	// ErrInvalidTarget means the target identity has no reachable session.
	ErrInvalidTarget = errors.New("target is not reachable")
	// ErrAlreadyInCall is the busy signal: one of the parties already has an
	// active ringing or connected call.
	ErrAlreadyInCall = errors.New("participant is already in a call")
	// ErrCallNotFound means no in-progress call matches the given id.
	ErrCallNotFound = errors.New("no such call in progress")
	// ErrNotParticipant means the sender does not belong to the channel it
	// tried to signal into.
	ErrNotParticipant = errors.New("not a participant of this channel")
)
