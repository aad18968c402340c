package draw

import (
	"github.com/google/uuid"

	"raffle/internal/models"
)

// EventType labels the session events fanned out to the presentation layer.
type EventType string

const (
	// EventCycle reports a cosmetic cursor advance.
	EventCycle EventType = "cycle"
	// EventCountdown reports the seconds-remaining display value.
	EventCountdown EventType = "countdown"
	// EventDecided carries the selected winner.
	EventDecided EventType = "decided"
	// EventConfetti carries one celebratory particle burst.
	EventConfetti EventType = "confetti"
	// EventClosed reports session teardown.
	EventClosed EventType = "closed"
)

// Origin is a normalized screen coordinate a confetti burst fires from.
type Origin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConfettiBurst is one volley of the celebration effect. Pure presentation;
// nothing else in the system depends on it.
type ConfettiBurst struct {
	ParticleCount int       `json:"particleCount"`
	Origins       [2]Origin `json:"origins"`
}

// Event is a single notification from a draw session.
type Event struct {
	Session     uuid.UUID          `json:"session"`
	Week        int                `json:"week"`
	Type        EventType          `json:"type"`
	Cursor      int                `json:"cursor,omitempty"`
	SecondsLeft int                `json:"secondsLeft,omitempty"`
	Winner      *models.Contestant `json:"winner,omitempty"`
	Burst       *ConfettiBurst     `json:"burst,omitempty"`
}
