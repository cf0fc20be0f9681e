package repository

import (
	"context"
	"errors"
	"fmt"

	"cagnotte/application"
	"cagnotte/database"
	"cagnotte/domain/interfaces"
	"cagnotte/events"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                *database.DB
	tx                pgx.Tx
	ctx               context.Context
	transactionalBus  *events.TransactionalBus
	potRepo           interfaces.PotRepository
	participationRepo interfaces.ParticipationRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Events raised inside
// a unit of work reach publisher only after commit.
func NewUnitOfWorkFactory(db *database.DB, publisher events.Publisher) application.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:        db,
		publisher: publisher,
	}
}

type unitOfWorkFactory struct {
	db        *database.DB
	publisher events.Publisher
}

func (f *unitOfWorkFactory) Create() application.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.publisher),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.potRepo = NewPotRepositoryWithTx(tx)
	u.participationRepo = NewParticipationRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	// Flush pending events after successful commit
	return u.transactionalBus.Flush(u.ctx)
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	u.transactionalBus.Discard()

	return nil
}

// PotRepository returns the pot repository for this unit of work
func (u *unitOfWork) PotRepository() interfaces.PotRepository {
	if u.potRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.potRepo
}

// ParticipationRepository returns the participation repository for this unit of work
func (u *unitOfWork) ParticipationRepository() interfaces.ParticipationRepository {
	if u.participationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.participationRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	return u.transactionalBus
}
