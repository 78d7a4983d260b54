// Package statemachine validates payout state transitions. It is pure table
// lookup with no I/O; every component that mutates a transaction consults it
// so there is a single transition path through the system.
package statemachine

import "paydesk/internal/models"

// transitions is the directed edge set. A missing edge is an invalid
// transition. The table is permissive about which signal reaches which
// state because processor signals arrive out of order, and strict about
// terminal states never re-opening.
var transitions = map[string][]string{
	models.StateInitiated: {
		models.StateSubmitted,
		models.StateQueued,
		models.StatePending,
		models.StateFailed,
		models.StateCancelled,
	},
	models.StateSubmitted: {
		models.StateQueued,
		models.StatePending,
		models.StateFailed,
		models.StateCancelled,
	},
	models.StateQueued: {
		models.StatePending,
		models.StateProcessing,
		models.StateCancelled,
		models.StateFailed,
	},
	models.StatePending: {
		models.StateProcessing,
		models.StateCompleted,
		models.StateFailed,
		models.StateReversed,
	},
	models.StateProcessing: {
		models.StateCompleted,
		models.StateFailed,
		models.StateReversed,
	},
	models.StateCompleted: {
		models.StateReversed,
		models.StateRefundPending,
	},
	models.StateRefundPending: {
		models.StateRefundCompleted,
		models.StateFailed,
	},
	models.StateFailed:          {},
	models.StateReversed:        {},
	models.StateCancelled:       {},
	models.StateRefundCompleted: {},
}

// terminal states have no outgoing edges. completed is excluded: bank-side
// reversal and refund initiation are modelled as outgoing edges from it.
var terminal = map[string]bool{
	models.StateFailed:          true,
	models.StateReversed:        true,
	models.StateCancelled:       true,
	models.StateRefundCompleted: true,
}

// IsValidTransition reports whether from -> to is an allowed edge.
func IsValidTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether state accepts no further transitions.
func IsTerminal(state string) bool {
	return terminal[state]
}

// IsKnownState reports whether state is a member of the state enum.
func IsKnownState(state string) bool {
	_, ok := transitions[state]
	return ok
}

// ValidNextStates returns the allowed target states from a given state.
func ValidNextStates(from string) []string {
	next := transitions[from]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// processorStatus maps the processor's payout status vocabulary to internal
// states. Webhook processing and reconciliation share this table so both
// paths converge on identical semantics.
var processorStatus = map[string]string{
	"queued":     models.StateQueued,
	"pending":    models.StatePending,
	"processing": models.StateProcessing,
	"processed":  models.StateCompleted,
	"reversed":   models.StateReversed,
	"cancelled":  models.StateCancelled,
	"rejected":   models.StateFailed,
	"failed":     models.StateFailed,
}

// FromProcessorStatus maps an external payout status to an internal state.
// Unrecognized statuses return ok=false; callers must leave the stored
// state unchanged and flag a discrepancy.
func FromProcessorStatus(status string) (string, bool) {
	state, ok := processorStatus[status]
	return state, ok
}
