package models

import (
	"fmt"

	"waitlist-system/internal/status"
)

// Transition is a staff action requested against an entry.
type Transition string

const (
	TransitionCall   Transition = "call"
	TransitionSeat   Transition = "seat"
	TransitionCancel Transition = "cancel"
	TransitionNoShow Transition = "no_show"
)

// Timestamp columns stamped by a successful transition. NextStatus only ever
// returns values from this set, so stores may safely splice them into SQL.
const (
	StampCalledAt    = "called_at"
	StampSeatedAt    = "seated_at"
	StampCancelledAt = "cancelled_at"
	StampNoShowAt    = "no_show_at"
)

// NextStatus is the pure lifecycle decision function. Given the current
// status and a requested transition it returns the resulting status and the
// timestamp column to stamp, or ErrInvalidTransition. A party must be called
// before it can be seated; no transition leaves a terminal status.
func NextStatus(current Status, tr Transition) (Status, string, error) {
	switch current {
	case StatusWaiting:
		switch tr {
		case TransitionCall:
			return StatusCalled, StampCalledAt, nil
		case TransitionCancel:
			return StatusCancelled, StampCancelledAt, nil
		}
	case StatusCalled:
		switch tr {
		case TransitionSeat:
			return StatusSeated, StampSeatedAt, nil
		case TransitionNoShow:
			return StatusNoShow, StampNoShowAt, nil
		}
	}
	return "", "", fmt.Errorf("%w: cannot %s entry in status %q", status.ErrInvalidTransition, tr, current)
}
