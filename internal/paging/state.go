package paging

// State is the lifecycle state of a Session.
type State int32

const (
	StateInitializing State = iota
	StateReading
	StateDeriving
	StateAppending
	StateRotating
	StateDraining
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReading:
		return "reading"
	case StateDeriving:
		return "deriving"
	case StateAppending:
		return "appending"
	case StateRotating:
		return "rotating"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }
