package editor

// State is a panel session's lifecycle state.
type State int

const (
	// StateInitializing: constructed, waiting for the widget's ready signal.
	StateInitializing State = iota
	// StateActive: normal operation, content flows both ways.
	StateActive
	// StateSuspended: backing document closed, disposal timer running.
	StateSuspended
	// StatePendingDisposal: teardown decided, about to execute.
	StatePendingDisposal
	// StateDisposed: terminal.
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StatePendingDisposal:
		return "pending-disposal"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// legalEdges enumerates the permitted transitions. Disposed has no exits.
var legalEdges = map[State][]State{
	StateInitializing:    {StateActive, StateSuspended, StatePendingDisposal},
	StateActive:          {StateSuspended, StatePendingDisposal},
	StateSuspended:       {StateActive, StatePendingDisposal},
	StatePendingDisposal: {StateActive, StateSuspended, StateDisposed},
	StateDisposed:        {},
}

func (s State) canTransition(to State) bool {
	for _, next := range legalEdges[s] {
		if next == to {
			return true
		}
	}
	return false
}
