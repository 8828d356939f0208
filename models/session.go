package models

import "time"

// Session event types relayed between participants of a shared calculation.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventStateUpdate       = "state_update"
	EventTypingStarted     = "typing_started"
	EventTypingStopped     = "typing_stopped"
)

// Participant identifies one member of a collaborative session.
type Participant struct {
	UserID string `json:"user_id"`
	Label  string `json:"label"`
}

// SessionEvent is the wire payload broadcast to session members. Updates carry
// the full input/result snapshot; there is no incremental diffing, the latest
// broadcast wins at each receiver.
type SessionEvent struct {
	Type        string             `json:"type"`
	SessionID   string             `json:"session_id"`
	Participant *Participant       `json:"participant,omitempty"`
	Inputs      *CalculatorInputs  `json:"inputs,omitempty"`
	Result      *CalculationResult `json:"result,omitempty"`
	SentAt      time.Time          `json:"sent_at"`
}

// ClientMessage is what a websocket client sends inbound.
type ClientMessage struct {
	Type   string             `json:"type"` // "update" or "typing"
	Inputs *CalculatorInputs  `json:"inputs,omitempty"`
	Result *CalculationResult `json:"result,omitempty"`
}
