package lock

import "time"

// EventKind classifies an Event.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventRecorded   EventKind = "recorded" // reference code stored
	EventScored     EventKind = "scored"   // attempt compared to the reference
)

// Event is published for every transition and every completed capture.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`
	From State     `json:"from"`
	To   State     `json:"to"`

	// Captured is the number of raw samples recorded before filtering.
	Captured int `json:"captured,omitempty"`
	// Size is the pattern length after filtering and truncation.
	Size     int     `json:"size,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	Match    bool    `json:"match,omitempty"`
	Error    string  `json:"error,omitempty"`
}
