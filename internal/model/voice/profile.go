package voice

// DefaultProfileID selects the preset used when a session does not pick one.
const DefaultProfileID = "standard"

// Profile captures the narration attributes exposed to the frontend.
type Profile struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Rate        float64 `json:"rate"`
	Pitch       float64 `json:"pitch"`
	Volume      float64 `json:"volume"`
}

// Seed provides the built-in narration presets.
func Seed() []Profile {
	return []Profile{
		{
			ID:          "standard",
			Name:        "Standard",
			Description: "Neutral delivery at natural speed.",
			Rate:        1.0,
			Pitch:       1.0,
			Volume:      1.0,
		},
		{
			ID:          "calm",
			Name:        "Calm",
			Description: "Slower, slightly lower delivery for long answers.",
			Rate:        0.85,
			Pitch:       0.9,
			Volume:      1.0,
		},
		{
			ID:          "bright",
			Name:        "Bright",
			Description: "Faster, lighter delivery.",
			Rate:        1.15,
			Pitch:       1.1,
			Volume:      1.0,
		},
	}
}
