package interfaces

import (
	"context"

	"cagnotte/domain/entities"

	"github.com/google/uuid"
)

// PotRepository is the pot side of the persistent store. Lookups return
// nil, nil when the pot does not exist.
type PotRepository interface {
	Create(ctx context.Context, pot *entities.Pot) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Pot, error)

	// CompleteIfOpen sets status=completed and the winner only while the
	// stored status is still open. applied is false when another writer won.
	CompleteIfOpen(ctx context.Context, id uuid.UUID, winnerID uuid.UUID) (applied bool, err error)

	// MakePublicIfPrivate flips is_public and clears the token only while the
	// stored pot is still private.
	MakePublicIfPrivate(ctx context.Context, id uuid.UUID) (applied bool, err error)

	Query(ctx context.Context, filter entities.PotFilter) ([]*entities.Pot, error)
}

// ParticipationRepository is the participation side of the persistent store
type ParticipationRepository interface {
	// CreateIfOpen inserts the participation only while its pot is open and
	// its deadline lies after participation.CreatedAt, both checked in the
	// same statement. A personal pot's creator is never inserted.
	CreateIfOpen(ctx context.Context, participation *entities.Participation) (applied bool, err error)

	ListByPot(ctx context.Context, potID uuid.UUID) ([]*entities.Participation, error)
	CountByPot(ctx context.Context, potID uuid.UUID) (int, error)
	CountByPots(ctx context.Context, potIDs []uuid.UUID) (map[uuid.UUID]int, error)
}
