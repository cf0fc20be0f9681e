package application

import (
	"context"
	"errors"
	"time"

	"cagnotte/domain"
	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
	"cagnotte/domain/services"
	"cagnotte/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CagnotteApp runs every lifecycle operation inside its own unit of work.
// Events raised by the engine are published only once the transaction commits.
type CagnotteApp struct {
	uowFactory UnitOfWorkFactory
	cfg        services.CagnotteServiceConfig
	metrics    *observability.MetricsProvider
}

// NewCagnotteApp creates the application facade. metrics may be nil.
func NewCagnotteApp(uowFactory UnitOfWorkFactory, cfg services.CagnotteServiceConfig, metrics *observability.MetricsProvider) *CagnotteApp {
	return &CagnotteApp{
		uowFactory: uowFactory,
		cfg:        cfg,
		metrics:    metrics,
	}
}

var _ interfaces.CagnotteService = (*CagnotteApp)(nil)

// inUnitOfWork runs fn against an engine bound to a fresh transaction,
// committing on success and rolling back on any error
func inUnitOfWork[T any](ctx context.Context, a *CagnotteApp, operation string, fn func(interfaces.CagnotteService) (T, error)) (T, error) {
	start := time.Now()
	var zero T

	result, err := func() (T, error) {
		uow := a.uowFactory.Create()
		if err := uow.Begin(ctx); err != nil {
			return zero, domain.Unavailable("begin transaction", err)
		}
		defer uow.Rollback()

		service := services.NewCagnotteService(
			uow.PotRepository(),
			uow.ParticipationRepository(),
			uow.EventBus(),
			a.cfg,
		)

		result, err := fn(service)
		if err != nil {
			return zero, err
		}

		if err := uow.Commit(); err != nil {
			return zero, domain.Unavailable("commit transaction", err)
		}
		return result, nil
	}()

	a.observe(operation, err, time.Since(start))
	return result, err
}

// observe records the outcome of one operation
func (a *CagnotteApp) observe(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if outcome == "" {
			outcome = "internal"
		}
	}
	a.metrics.RecordOperation(operation, outcome, elapsed)

	if errors.Is(err, domain.ErrAccessDenied) {
		a.metrics.RecordAccessDenied(operation)
	}

	switch domain.KindOf(err) {
	case "":
		if err != nil {
			log.WithFields(log.Fields{
				"operation": operation,
				"error":     err,
			}).Error("Operation failed")
		}
	case domain.KindStoreUnavailable, domain.KindDataIntegrity:
		log.WithFields(log.Fields{
			"operation": operation,
			"error":     err,
		}).Error("Operation failed")
	default:
		log.WithFields(log.Fields{
			"operation": operation,
			"kind":      domain.KindOf(err),
		}).Debug("Operation refused")
	}
}

// Create stores a new pot
func (a *CagnotteApp) Create(ctx context.Context, caller entities.Caller, params interfaces.CreatePotParams) (*entities.Pot, error) {
	pot, err := inUnitOfWork(ctx, a, observability.OperationCreate, func(s interfaces.CagnotteService) (*entities.Pot, error) {
		return s.Create(ctx, caller, params)
	})
	if err == nil {
		a.metrics.RecordPotCreated()
	}
	return pot, err
}

// Contribute records one contribution
func (a *CagnotteApp) Contribute(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*entities.Participation, error) {
	participation, err := inUnitOfWork(ctx, a, observability.OperationContribute, func(s interfaces.CagnotteService) (*entities.Participation, error) {
		return s.Contribute(ctx, caller, potID, token)
	})
	if err == nil {
		a.metrics.RecordContribution()
	}
	return participation, err
}

// ResolveByDraw resolves a competition pot
func (a *CagnotteApp) ResolveByDraw(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error) {
	return a.resolve(ctx, observability.OperationResolveByDraw, entities.ResolutionModeDraw, func(s interfaces.CagnotteService) (*entities.Resolution, error) {
		return s.ResolveByDraw(ctx, caller, potID)
	})
}

// ResolveByPayout resolves a personal pot
func (a *CagnotteApp) ResolveByPayout(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error) {
	return a.resolve(ctx, observability.OperationResolveByPayout, entities.ResolutionModePayout, func(s interfaces.CagnotteService) (*entities.Resolution, error) {
		return s.ResolveByPayout(ctx, caller, potID)
	})
}

func (a *CagnotteApp) resolve(ctx context.Context, operation string, mode entities.ResolutionMode, fn func(interfaces.CagnotteService) (*entities.Resolution, error)) (*entities.Resolution, error) {
	resolution, err := inUnitOfWork(ctx, a, operation, fn)
	switch {
	case err == nil:
		a.metrics.RecordResolution(string(mode))
	case errors.Is(err, domain.ErrStoreConflict):
		a.metrics.RecordResolutionConflict(string(mode))
	}
	return resolution, err
}

// MakePublic turns a private pot public
func (a *CagnotteApp) MakePublic(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Pot, error) {
	return inUnitOfWork(ctx, a, observability.OperationMakePublic, func(s interfaces.CagnotteService) (*entities.Pot, error) {
		return s.MakePublic(ctx, caller, potID)
	})
}

// GetPot returns the access-gated view of one pot
func (a *CagnotteApp) GetPot(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*interfaces.PotView, error) {
	return inUnitOfWork(ctx, a, observability.OperationGetPot, func(s interfaces.CagnotteService) (*interfaces.PotView, error) {
		return s.GetPot(ctx, caller, potID, token)
	})
}

// ListVisible lists the pots the caller may browse
func (a *CagnotteApp) ListVisible(ctx context.Context, caller entities.Caller) ([]*interfaces.PotListItem, error) {
	return inUnitOfWork(ctx, a, observability.OperationListVisible, func(s interfaces.CagnotteService) ([]*interfaces.PotListItem, error) {
		return s.ListVisible(ctx, caller)
	})
}

// ListMine lists the caller's own pots
func (a *CagnotteApp) ListMine(ctx context.Context, caller entities.Caller) ([]*interfaces.PotListItem, error) {
	return inUnitOfWork(ctx, a, observability.OperationListMine, func(s interfaces.CagnotteService) ([]*interfaces.PotListItem, error) {
		return s.ListMine(ctx, caller)
	})
}
