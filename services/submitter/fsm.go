package submitter

import (
	"github.com/looplab/fsm"
)

// Attestation request states.
const (
	StatePending   = "PENDING"
	StateFulfilled = "FULFILLED"
	StateRejected  = "REJECTED"
	StateExpired   = "EXPIRED"
)

// Attestation request events.
const (
	EventFulfill = "FULFILL"
	EventReject  = "REJECT"
	EventExpire  = "EXPIRE"
)

// newRequestFSM creates the lifecycle of one attestation request. A request
// starts pending and ends in exactly one of fulfilled, rejected or expired.
func newRequestFSM(callbacks fsm.Callbacks) *fsm.FSM {
	if callbacks == nil {
		callbacks = fsm.Callbacks{}
	}

	return fsm.NewFSM(
		StatePending,
		fsm.Events{
			{
				Name: EventFulfill,
				Src:  []string{StatePending},
				Dst:  StateFulfilled,
			},
			{
				Name: EventReject,
				Src:  []string{StatePending},
				Dst:  StateRejected,
			},
			{
				Name: EventExpire,
				Src:  []string{StatePending},
				Dst:  StateExpired,
			},
		},
		callbacks,
	)
}
