package service

// State is a step of the lead-intake pipeline. Accepted and the failure
// states are terminal.
type State int

const (
	StateReceived State = iota
	StateRateChecked
	StateSchemaValidated
	StateSanitized
	StateAccepted

	StateRateLimited
	StateRejected
	StateMalformedPayload
	StateInternalError
)

var stateNames = map[State]string{
	StateReceived:         "Received",
	StateRateChecked:      "RateChecked",
	StateSchemaValidated:  "SchemaValidated",
	StateSanitized:        "Sanitized",
	StateAccepted:         "Accepted",
	StateRateLimited:      "RateLimited",
	StateRejected:         "Rejected",
	StateMalformedPayload: "MalformedPayload",
	StateInternalError:    "InternalError",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s State) Terminal() bool {
	return s >= StateAccepted
}
