package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPotDuration is the time a pot stays open after creation
const DefaultPotDuration = 20 * time.Hour

// EntryPriceStep and the bounds below define the allowed denominations, in FCFA
const (
	EntryPriceStep = 100
	MinEntryPrice  = 100
	MaxEntryPrice  = 1000
)

// UsageMode selects how a completed pot designates its winner
type UsageMode string

const (
	UsageModePersonal    UsageMode = "personal"    // creator collects the pot
	UsageModeCompetition UsageMode = "competition" // a participant is drawn
)

// IsValid reports whether m is a known usage mode
func (m UsageMode) IsValid() bool {
	return m == UsageModePersonal || m == UsageModeCompetition
}

// PotStatus is the persisted lifecycle state
type PotStatus string

const (
	PotStatusOpen      PotStatus = "open"
	PotStatusCompleted PotStatus = "completed"
)

// Visibility is derived from is_public
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// PotPhase refines the persisted status with the deadline:
// an open pot past its deadline awaits resolution.
type PotPhase string

const (
	PhaseOpen               PotPhase = "open"
	PhaseAwaitingResolution PotPhase = "awaiting_resolution"
	PhaseCompleted          PotPhase = "completed"
)

// Badge returns the status label shown next to a pot
func (p PotPhase) Badge() string {
	switch p {
	case PhaseCompleted:
		return "Gagnant sélectionné"
	case PhaseAwaitingResolution:
		return "Fermée (en attente)"
	default:
		return "Ouverte"
	}
}

// EntryPriceDenominations lists every allowed entry price
func EntryPriceDenominations() []int64 {
	prices := make([]int64, 0, MaxEntryPrice/EntryPriceStep)
	for price := int64(MinEntryPrice); price <= MaxEntryPrice; price += EntryPriceStep {
		prices = append(prices, price)
	}
	return prices
}

// IsValidEntryPrice reports whether amount is one of the denominations
func IsValidEntryPrice(amount int64) bool {
	return amount >= MinEntryPrice && amount <= MaxEntryPrice && amount%EntryPriceStep == 0
}

// Pot is a time-boxed pooled contribution
type Pot struct {
	ID          uuid.UUID  `db:"id"`
	CreatorID   uuid.UUID  `db:"creator_id"`
	Title       string     `db:"title"`
	Purpose     string     `db:"purpose"`
	Description *string    `db:"description"`
	EntryPrice  int64      `db:"entry_price"` // FCFA
	UsageType   UsageMode  `db:"usage_type"`
	IsPublic    bool       `db:"is_public"`
	AccessToken *string    `db:"access_token"` // set only while private
	Deadline    time.Time  `db:"deadline"`
	Status      PotStatus  `db:"status"`
	WinnerID    *uuid.UUID `db:"winner_id"` // NULL until completed
	CreatedAt   time.Time  `db:"created_at"`
}

// PotDraft holds the creator-supplied fields of a new pot
type PotDraft struct {
	Title       string
	Purpose     string
	Description string
	EntryPrice  int64
	UsageType   UsageMode
	IsPublic    bool
}

// NewPot builds an open pot whose deadline is now + duration. Private pots
// receive a fresh access token.
func NewPot(creatorID uuid.UUID, draft PotDraft, now time.Time, duration time.Duration) (*Pot, error) {
	now = now.UTC()
	pot := &Pot{
		ID:         uuid.New(),
		CreatorID:  creatorID,
		Title:      strings.TrimSpace(draft.Title),
		Purpose:    strings.TrimSpace(draft.Purpose),
		EntryPrice: draft.EntryPrice,
		UsageType:  draft.UsageType,
		IsPublic:   draft.IsPublic,
		Deadline:   now.Add(duration),
		Status:     PotStatusOpen,
		CreatedAt:  now,
	}
	if desc := strings.TrimSpace(draft.Description); desc != "" {
		pot.Description = &desc
	}

	if !pot.IsPublic {
		token, err := GenerateAccessToken()
		if err != nil {
			return nil, err
		}
		pot.AccessToken = &token
	}

	if err := pot.Validate(); err != nil {
		return nil, err
	}
	return pot, nil
}

// Validate checks the structural invariants of a pot record
func (p *Pot) Validate() error {
	if p.CreatorID == uuid.Nil {
		return fmt.Errorf("pot %s has no creator", p.ID)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("pot %s has an empty title", p.ID)
	}
	if strings.TrimSpace(p.Purpose) == "" {
		return fmt.Errorf("pot %s has an empty purpose", p.ID)
	}
	if !IsValidEntryPrice(p.EntryPrice) {
		return fmt.Errorf("pot %s has invalid entry price %d", p.ID, p.EntryPrice)
	}
	if !p.UsageType.IsValid() {
		return fmt.Errorf("pot %s has unknown usage type %q", p.ID, p.UsageType)
	}
	if p.IsPublic != (p.AccessToken == nil) {
		return fmt.Errorf("pot %s visibility and access token disagree", p.ID)
	}
	if p.AccessToken != nil && *p.AccessToken == "" {
		return fmt.Errorf("pot %s has an empty access token", p.ID)
	}
	switch p.Status {
	case PotStatusOpen:
		if p.WinnerID != nil {
			return fmt.Errorf("open pot %s already has a winner", p.ID)
		}
	case PotStatusCompleted:
		if p.WinnerID == nil {
			return fmt.Errorf("completed pot %s has no winner", p.ID)
		}
	default:
		return fmt.Errorf("pot %s has unknown status %q", p.ID, p.Status)
	}
	if EvaluateDeadline(p.Deadline, p.CreatedAt) == DeadlineUnknown {
		return fmt.Errorf("pot %s: %w", p.ID, ErrUnknownDeadline)
	}
	return nil
}

// IsCompleted returns true once a winner has been designated
func (p *Pot) IsCompleted() bool {
	return p.Status == PotStatusCompleted
}

// IsPrivate returns true while the pot requires its access token
func (p *Pot) IsPrivate() bool {
	return !p.IsPublic
}

// Visibility returns the pot's visibility
func (p *Pot) Visibility() Visibility {
	if p.IsPublic {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

// IsCreator reports whether userID created the pot
func (p *Pot) IsCreator(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.CreatorID == userID
}

// IsSelfContribution reports whether userID is the creator of a personal
// pot, who collects it and so may not pay into it
func (p *Pot) IsSelfContribution(userID uuid.UUID) bool {
	return p.UsageType == UsageModePersonal && p.IsCreator(userID)
}

// IsExpired reports whether the deadline has passed at now
func (p *Pot) IsExpired(now time.Time) bool {
	return IsExpired(p.Deadline, now)
}

// AcceptsContributions is true while the pot is open and before its deadline
func (p *Pot) AcceptsContributions(now time.Time) bool {
	return p.Status == PotStatusOpen && !p.IsExpired(now)
}

// Phase derives the user-visible lifecycle phase at now
func (p *Pot) Phase(now time.Time) PotPhase {
	switch {
	case p.IsCompleted():
		return PhaseCompleted
	case p.IsExpired(now):
		return PhaseAwaitingResolution
	default:
		return PhaseOpen
	}
}

// Complete records the winner and moves the pot to completed
func (p *Pot) Complete(winnerID uuid.UUID) {
	p.Status = PotStatusCompleted
	p.WinnerID = &winnerID
}

// MakePublic flips the pot to public and discards its access token
func (p *Pot) MakePublic() {
	p.IsPublic = true
	p.AccessToken = nil
}

// TokenMatches compares token with the pot's access token
func (p *Pot) TokenMatches(token string) bool {
	if p.AccessToken == nil || token == "" {
		return false
	}
	return ConstantTimeEqual(*p.AccessToken, token)
}
