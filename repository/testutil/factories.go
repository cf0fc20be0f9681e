package testutil

import (
	"time"

	"cagnotte/domain/entities"

	"github.com/google/uuid"
)

// CreateTestPot creates an open public competition pot whose deadline lies
// one hour in the future
func CreateTestPot(creatorID uuid.UUID) *entities.Pot {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entities.Pot{
		ID:         uuid.New(),
		CreatorID:  creatorID,
		Title:      "Tontine du bureau",
		Purpose:    "Pot de départ",
		EntryPrice: 200,
		UsageType:  entities.UsageModeCompetition,
		IsPublic:   true,
		Deadline:   now.Add(time.Hour),
		Status:     entities.PotStatusOpen,
		CreatedAt:  now,
	}
}

// CreateTestPrivatePot creates an open private pot with a fresh token
func CreateTestPrivatePot(creatorID uuid.UUID) *entities.Pot {
	pot := CreateTestPot(creatorID)
	token, err := entities.GenerateAccessToken()
	if err != nil {
		panic(err)
	}
	pot.IsPublic = false
	pot.AccessToken = &token
	return pot
}

// CreateTestExpiredPot creates an open pot whose deadline already passed
func CreateTestExpiredPot(creatorID uuid.UUID) *entities.Pot {
	pot := CreateTestPot(creatorID)
	pot.CreatedAt = pot.CreatedAt.Add(-2 * time.Hour)
	pot.Deadline = pot.CreatedAt.Add(time.Hour)
	return pot
}

// CreateTestParticipation creates a participation of the pot's entry price
func CreateTestParticipation(pot *entities.Pot, userID uuid.UUID) *entities.Participation {
	return entities.NewParticipation(pot, userID, time.Now().UTC().Truncate(time.Microsecond))
}
