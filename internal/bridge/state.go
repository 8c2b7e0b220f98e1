package bridge

// State is the lifecycle stage of a Connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
