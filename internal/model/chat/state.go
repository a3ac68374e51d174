package chat

// State is a point-in-time snapshot of a session's observable flags.
type State struct {
	Awaiting       bool   `json:"awaiting"`
	Narrating      bool   `json:"narrating"`
	SpeechEnabled  bool   `json:"speechEnabled"`
	TransientError string `json:"transientError,omitempty"`
	Messages       int    `json:"messages"`
}

// EventKind tags entries on a session's event feed.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventState   EventKind = "state"
	EventNotice  EventKind = "notice"
)

// Event is one entry on a session's event feed. Exactly one of Message,
// State or Notice is populated, per Kind.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message *Message  `json:"message,omitempty"`
	State   *State    `json:"state,omitempty"`
	Notice  string    `json:"notice,omitempty"`
}
