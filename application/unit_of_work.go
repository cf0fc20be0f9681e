package application

import (
	"context"

	"cagnotte/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes the events raised inside it
	Commit() error

	// Rollback rolls back the transaction and drops pending events
	Rollback() error

	// Repository getters
	PotRepository() interfaces.PotRepository
	ParticipationRepository() interfaces.ParticipationRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
