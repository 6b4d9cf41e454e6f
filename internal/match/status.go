package match

// Status is the lifecycle stage of an arena.
type Status int

const (
	StatusWaiting   Status = 2
	StatusBeginning Status = 4
	StatusRunning   Status = 6
	StatusResetting Status = 8
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusBeginning:
		return "beginning"
	case StatusRunning:
		return "running"
	case StatusResetting:
		return "resetting"
	default:
		return "unknown"
	}
}

// SessionStatus is what a seated player is doing inside an arena.
type SessionStatus int

const (
	SessionAlive      SessionStatus = 100
	SessionSpectating SessionStatus = 102
	SessionBusy       SessionStatus = 104
)

func (s SessionStatus) String() string {
	switch s {
	case SessionAlive:
		return "alive"
	case SessionSpectating:
		return "spectating"
	case SessionBusy:
		return "busy"
	default:
		return "unknown"
	}
}
