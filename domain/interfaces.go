package domain

import (
	"context"

	"cagnotte/events"

	"github.com/google/uuid"
)

// PotChangeFeed delivers the events of a single pot to live subscribers.
// The returned channel is closed once ctx is done.
type PotChangeFeed interface {
	SubscribePot(ctx context.Context, potID uuid.UUID) (<-chan events.Event, error)
}
