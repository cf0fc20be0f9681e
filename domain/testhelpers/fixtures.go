package testhelpers

import (
	"time"

	"cagnotte/domain/entities"

	"github.com/google/uuid"
)

// Reference instant used by domain tests
var BaseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// NewTestPot builds a valid open public competition pot created at BaseTime
func NewTestPot(creatorID uuid.UUID, opts ...func(*entities.Pot)) *entities.Pot {
	pot := &entities.Pot{
		ID:         uuid.New(),
		CreatorID:  creatorID,
		Title:      "Tontine du quartier",
		Purpose:    "Fête de fin d'année",
		EntryPrice: 500,
		UsageType:  entities.UsageModeCompetition,
		IsPublic:   true,
		Deadline:   BaseTime.Add(entities.DefaultPotDuration),
		Status:     entities.PotStatusOpen,
		CreatedAt:  BaseTime,
	}
	for _, opt := range opts {
		opt(pot)
	}
	return pot
}

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}

// WithPrivateToken makes the pot private with the given token
func WithPrivateToken(token string) func(*entities.Pot) {
	return func(p *entities.Pot) {
		p.IsPublic = false
		p.AccessToken = &token
	}
}

// WithUsage sets the usage mode
func WithUsage(usage entities.UsageMode) func(*entities.Pot) {
	return func(p *entities.Pot) {
		p.UsageType = usage
	}
}

// WithWinner marks the pot completed
func WithWinner(winnerID uuid.UUID) func(*entities.Pot) {
	return func(p *entities.Pot) {
		p.Complete(winnerID)
	}
}

// NewTestParticipations creates one participation per user, a minute apart
func NewTestParticipations(pot *entities.Pot, users ...uuid.UUID) []*entities.Participation {
	participations := make([]*entities.Participation, 0, len(users))
	for i, userID := range users {
		participations = append(participations, &entities.Participation{
			ID:                 uuid.New(),
			PotID:              pot.ID,
			UserID:             userID,
			ContributionAmount: pot.EntryPrice,
			CreatedAt:          pot.CreatedAt.Add(time.Duration(i+1) * time.Minute),
		})
	}
	return participations
}
