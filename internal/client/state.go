package client

// State is where the client is in one submission attempt.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "Idle",
	StateSubmitting: "Submitting",
	StateSuccess:    "Success",
	StateFailed:     "Failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Observer is told about every state change, after it happened.
type Observer func(from, to State)
