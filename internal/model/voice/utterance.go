package voice

// Utterance is one narration request handed to a synthesis engine.
type Utterance struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// NotificationKind tags engine callbacks about an utterance's lifecycle.
type NotificationKind string

const (
	NotifyStart NotificationKind = "start"
	NotifyEnd   NotificationKind = "end"
	NotifyError NotificationKind = "error"
)
