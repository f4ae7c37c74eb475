package modem

// State tells whether a command is waiting for the modem's answer.
//
// While a checked command is pending the processing pass must not clear the
// receive buffer, otherwise the "OK" the command is waiting for could be
// thrown away by a notification that happens to arrive in between.
type State int

const (
	// StateIdle means no command is waiting; each pass clears the buffer.
	StateIdle State = iota
	// StateAwaitingResponse means a command will inspect the buffer once
	// its pause is over.
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// mayClear reports whether the end of a pass may clear the receive buffer.
func (s State) mayClear() bool {
	return s == StateIdle
}
