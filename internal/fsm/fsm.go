// Package fsm defines the recording-lifecycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateArmed      State = "armed"
	StateActive     State = "active"
	StateFinalizing State = "finalizing"
)

const (
	EventArm      Event = "arm"
	EventOpened   Event = "opened"
	EventFinalize Event = "finalize"
	EventComplete Event = "complete"
	EventFail     Event = "fail"
	EventDiscard  Event = "discard"
)

// Transition applies one lifecycle event and returns the next state.
// EventFail and EventDiscard reset to idle from anywhere.
func Transition(current State, event Event) (State, error) {
	if event == EventFail || event == EventDiscard {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventArm:
			return StateArmed, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateArmed:
		switch event {
		case EventOpened:
			return StateActive, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateActive:
		switch event {
		case EventFinalize:
			return StateFinalizing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFinalizing:
		switch event {
		case EventComplete:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
