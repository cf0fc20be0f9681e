package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePotCreated           EventType = "pot_created"
	EventTypeContributionRecorded EventType = "contribution_recorded"
	EventTypePotResolved          EventType = "pot_resolved"
	EventTypePotMadePublic        EventType = "pot_made_public"
	EventTypePotClosed            EventType = "pot_closed"
)

// AllEventTypes lists every event type the service emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypePotCreated,
		EventTypeContributionRecorded,
		EventTypePotResolved,
		EventTypePotMadePublic,
		EventTypePotClosed,
	}
}

// Event is the base interface for all events. Every event belongs to one pot.
type Event interface {
	Type() EventType
	PotKey() uuid.UUID
}

// PotCreatedEvent is emitted once a pot is stored
type PotCreatedEvent struct {
	PotID     uuid.UUID `json:"pot_id"`
	CreatorID uuid.UUID `json:"creator_id"`
	UsageType string    `json:"usage_type"`
	IsPublic  bool      `json:"is_public"`
	Deadline  time.Time `json:"deadline"`
}

func (e PotCreatedEvent) Type() EventType   { return EventTypePotCreated }
func (e PotCreatedEvent) PotKey() uuid.UUID { return e.PotID }

// ContributionRecordedEvent is emitted after a participation is stored.
// ParticipantCount and UserID are creator-only information.
type ContributionRecordedEvent struct {
	PotID            uuid.UUID `json:"pot_id"`
	ParticipationID  uuid.UUID `json:"participation_id"`
	UserID           uuid.UUID `json:"user_id"`
	Amount           int64     `json:"amount"`
	ParticipantCount int       `json:"participant_count"`
}

func (e ContributionRecordedEvent) Type() EventType   { return EventTypeContributionRecorded }
func (e ContributionRecordedEvent) PotKey() uuid.UUID { return e.PotID }

// PotResolvedEvent is emitted when a pot moves to completed
type PotResolvedEvent struct {
	PotID       uuid.UUID `json:"pot_id"`
	WinnerID    uuid.UUID `json:"winner_id"`
	Mode        string    `json:"mode"`
	BallotCount int       `json:"ballot_count"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

func (e PotResolvedEvent) Type() EventType   { return EventTypePotResolved }
func (e PotResolvedEvent) PotKey() uuid.UUID { return e.PotID }

// PotMadePublicEvent is emitted when a private pot becomes public
type PotMadePublicEvent struct {
	PotID uuid.UUID `json:"pot_id"`
}

func (e PotMadePublicEvent) Type() EventType   { return EventTypePotMadePublic }
func (e PotMadePublicEvent) PotKey() uuid.UUID { return e.PotID }

// PotClosedEvent is emitted by the deadline watcher when an open pot's
// deadline passes. The pot row itself is not modified.
type PotClosedEvent struct {
	PotID            uuid.UUID `json:"pot_id"`
	UsageType        string    `json:"usage_type"`
	ParticipantCount int       `json:"participant_count"`
	Deadline         time.Time `json:"deadline"`
}

func (e PotClosedEvent) Type() EventType   { return EventTypePotClosed }
func (e PotClosedEvent) PotKey() uuid.UUID { return e.PotID }
