package interfaces

import (
	"context"
	"time"

	"cagnotte/domain/entities"
	"cagnotte/events"

	"github.com/google/uuid"
)

// CreatePotParams is the creator input for a new pot
type CreatePotParams struct {
	Title       string             `json:"title" validate:"required,notblank,max=120"`
	Purpose     string             `json:"purpose" validate:"required,notblank,max=120"`
	Description string             `json:"description" validate:"max=2000"`
	EntryPrice  int64              `json:"entry_price" validate:"required,entryprice"`
	UsageType   entities.UsageMode `json:"usage_type" validate:"required,oneof=personal competition"`
	IsPublic    *bool              `json:"is_public" validate:"required"`
}

// ParticipantView is a contributor as shown to the pot's creator
type ParticipantView struct {
	UserID        uuid.UUID `json:"user_id"`
	Contributions int       `json:"contributions"`
	TotalAmount   int64     `json:"total_amount"`
}

// PotView is the access-checked read model of one pot. Count and
// participants are only filled for the creator.
type PotView struct {
	Pot              *entities.Pot
	AccessLevel      entities.AccessLevel
	Phase            entities.PotPhase
	Countdown        entities.Countdown
	PublicMessage    string
	ParticipantCount *int
	Participants     []ParticipantView
	TotalCollected   *int64
	ShareLink        string // empty unless the caller has full access
	CanContribute    bool
	CanResolve       bool
	CanMakePublic    bool
}

// PotListItem is one row of a pot listing
type PotListItem struct {
	Pot              *entities.Pot
	Phase            entities.PotPhase
	PublicMessage    string
	ParticipantCount *int // creator only
}

// CagnotteService is the pot lifecycle engine
type CagnotteService interface {
	Create(ctx context.Context, caller entities.Caller, params CreatePotParams) (*entities.Pot, error)
	Contribute(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*entities.Participation, error)
	ResolveByDraw(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error)
	ResolveByPayout(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error)
	MakePublic(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Pot, error)

	GetPot(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*PotView, error)
	ListVisible(ctx context.Context, caller entities.Caller) ([]*PotListItem, error)
	ListMine(ctx context.Context, caller entities.Caller) ([]*PotListItem, error)
}

// EventPublisher receives domain events raised by the lifecycle engine
type EventPublisher interface {
	Publish(event events.Event) error
}

// BallotDrawer picks one ballot index in [0, n)
type BallotDrawer interface {
	Draw(n int) (int, error)
}

// Clock returns the current time
type Clock func() time.Time
