package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
	"cagnotte/events"
	"cagnotte/infrastructure/observability"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DeadlineWorker announces pots whose deadline passed. It never modifies a
// pot: expiry is derived from the deadline, the worker only makes it visible
// to subscribers.
type DeadlineWorker struct {
	uowFactory UnitOfWorkFactory
	interval   time.Duration
	clock      interfaces.Clock
	metrics    *observability.MetricsProvider

	// Sweeps cover disjoint (lastSweep, now] windows, so a pot is announced
	// once per process. A failed sweep leaves the window open for the next one.
	mu        sync.Mutex
	lastSweep time.Time
}

// NewDeadlineWorker creates a worker sweeping every interval. Pots whose
// deadline passed before the worker was created are not announced.
func NewDeadlineWorker(uowFactory UnitOfWorkFactory, interval time.Duration, clock interfaces.Clock, metrics *observability.MetricsProvider) *DeadlineWorker {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &DeadlineWorker{
		uowFactory: uowFactory,
		interval:   interval,
		clock:      clock,
		metrics:    metrics,
		lastSweep:  clock(),
	}
}

// Start schedules the sweep and returns a function that stops it
func (w *DeadlineWorker) Start(ctx context.Context) (func(), error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if _, err := w.Sweep(ctx); err != nil {
				log.WithError(err).Error("Deadline sweep failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("deadline-sweep"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule deadline sweep: %w", err)
	}

	scheduler.Start()
	log.WithField("interval", w.interval).Info("Deadline worker started")

	return func() {
		if err := scheduler.Shutdown(); err != nil {
			log.WithError(err).Warn("Deadline scheduler shutdown failed")
		}
		log.Info("Deadline worker stopped")
	}, nil
}

// Sweep announces every open pot whose deadline fell in (lastSweep, now]
// and returns how many were announced
func (w *DeadlineWorker) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	now := w.clock()

	w.mu.Lock()
	since := w.lastSweep
	w.mu.Unlock()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	open := entities.PotStatusOpen
	pots, err := uow.PotRepository().Query(ctx, entities.PotFilter{
		Status:             &open,
		DeadlineAfter:      &since,
		DeadlineAtOrBefore: &now,
		Order:              entities.OrderDeadlineAsc,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query expired pots: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(pots))
	for _, pot := range pots {
		ids = append(ids, pot.ID)
	}
	counts, err := uow.ParticipationRepository().CountByPots(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}

	announced := 0
	for _, pot := range pots {
		count := counts[pot.ID]
		fields := log.Fields{
			"pot_id":            pot.ID,
			"usage_type":        pot.UsageType,
			"participant_count": count,
			"deadline":          pot.Deadline,
		}
		if count == 0 && pot.UsageType == entities.UsageModeCompetition {
			log.WithFields(fields).Warn("Competition pot closed without participants and cannot be drawn")
		} else {
			log.WithFields(fields).Info("Pot closed, awaiting resolution")
		}

		if err := uow.EventBus().Publish(events.PotClosedEvent{
			PotID:            pot.ID,
			UsageType:        string(pot.UsageType),
			ParticipantCount: count,
			Deadline:         pot.Deadline,
		}); err != nil {
			log.WithFields(fields).WithError(err).Error("Failed to queue pot closed event")
		}
		announced++
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sweep: %w", err)
	}

	w.mu.Lock()
	w.lastSweep = now
	w.mu.Unlock()

	w.metrics.RecordOperation(observability.OperationDeadlineSweep, "ok", time.Since(start))
	return announced, nil
}
