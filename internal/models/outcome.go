package models

import "time"

// ClickResult represents the kind of outcome a resolved click produced
type ClickResult string

const (
	ClickResultWin      ClickResult = "WIN"
	ClickResultMiss     ClickResult = "MISS"
	ClickResultRejected ClickResult = "REJECTED"
)

// RejectionReason represents why a click was rejected without touching the ledger
type RejectionReason string

const (
	RejectionInvalidCoordinates RejectionReason = "INVALID_COORDINATES"
	RejectionAttemptLimit       RejectionReason = "ATTEMPT_LIMIT"
)

// ClickOutcome is the tagged result of resolving a click. Rejections are
// expected business outcomes, not errors; only storage faults travel on the
// error channel.
type ClickOutcome struct {
	Result ClickResult     `json:"result"`
	Reason RejectionReason `json:"reason,omitempty"`
	// Distance and the target coordinates are zero-valued legitimately (a win
	// has distance 0), so they are always serialized.
	Distance float64 `json:"distance"`
	TargetX  int     `json:"targetX"`
	TargetY  int     `json:"targetY"`
	// WonAmount is the pre-reset jackpot claimed by a winning click.
	WonAmount float64 `json:"wonAmount,omitempty"`
	// NewAmount is the jackpot amount after the mutation committed (the base
	// amount on a win, the incremented amount on a miss).
	NewAmount float64 `json:"newAmount"`
}

// GameEvent is the payload handed to the broadcast boundary after a committed
// jackpot mutation so subscribers can be fanned out to by the transport layer.
type GameEvent struct {
	Type           JackpotActionType `json:"type"`
	ActorID        string            `json:"actorId"`
	PreviousAmount float64           `json:"previousAmount"`
	NewAmount      float64           `json:"newAmount"`
	Timestamp      time.Time         `json:"timestamp"`
}
