package entities

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Participation is one contribution to a pot. Each row is one ballot in a draw.
type Participation struct {
	ID                 uuid.UUID `db:"id"`
	PotID              uuid.UUID `db:"pot_id"`
	UserID             uuid.UUID `db:"user_id"`
	ContributionAmount int64     `db:"contribution_amount"` // FCFA
	CreatedAt          time.Time `db:"created_at"`
}

// NewParticipation records a contribution of the pot's entry price
func NewParticipation(pot *Pot, userID uuid.UUID, now time.Time) *Participation {
	return &Participation{
		ID:                 uuid.New(),
		PotID:              pot.ID,
		UserID:             userID,
		ContributionAmount: pot.EntryPrice,
		CreatedAt:          now.UTC(),
	}
}

// ParticipantSummary aggregates the contributions of one user
type ParticipantSummary struct {
	UserID        uuid.UUID
	Contributions int
	TotalAmount   int64
	FirstAt       time.Time
}

// SummarizeParticipants groups participations per user, ordered by first contribution
func SummarizeParticipants(participations []*Participation) []ParticipantSummary {
	byUser := make(map[uuid.UUID]*ParticipantSummary)
	for _, p := range participations {
		summary, ok := byUser[p.UserID]
		if !ok {
			summary = &ParticipantSummary{UserID: p.UserID, FirstAt: p.CreatedAt}
			byUser[p.UserID] = summary
		}
		summary.Contributions++
		summary.TotalAmount += p.ContributionAmount
		if p.CreatedAt.Before(summary.FirstAt) {
			summary.FirstAt = p.CreatedAt
		}
	}

	result := make([]ParticipantSummary, 0, len(byUser))
	for _, summary := range byUser {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FirstAt.Equal(result[j].FirstAt) {
			return result[i].UserID.String() < result[j].UserID.String()
		}
		return result[i].FirstAt.Before(result[j].FirstAt)
	})
	return result
}

// TotalCollected sums the contributions
func TotalCollected(participations []*Participation) int64 {
	var total int64
	for _, p := range participations {
		total += p.ContributionAmount
	}
	return total
}
