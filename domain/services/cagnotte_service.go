package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cagnotte/domain"
	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
	"cagnotte/events"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CagnotteServiceConfig carries the lifecycle settings and collaborators
// that have sensible defaults
type CagnotteServiceConfig struct {
	PotDuration                  time.Duration
	RequireParticipantsForPayout bool
	ShareBaseURL                 string
	Drawer                       interfaces.BallotDrawer
	Clock                        interfaces.Clock
}

type cagnotteService struct {
	potRepo           interfaces.PotRepository
	participationRepo interfaces.ParticipationRepository
	eventPublisher    interfaces.EventPublisher
	cfg               CagnotteServiceConfig
	validate          *validator.Validate
}

// NewCagnotteService creates the pot lifecycle engine on top of one unit of work's repositories
func NewCagnotteService(
	potRepo interfaces.PotRepository,
	participationRepo interfaces.ParticipationRepository,
	eventPublisher interfaces.EventPublisher,
	cfg CagnotteServiceConfig,
) interfaces.CagnotteService {
	if cfg.PotDuration <= 0 {
		cfg.PotDuration = entities.DefaultPotDuration
	}
	if cfg.Drawer == nil {
		cfg.Drawer = CryptoDrawer{}
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &cagnotteService{
		potRepo:           potRepo,
		participationRepo: participationRepo,
		eventPublisher:    eventPublisher,
		cfg:               cfg,
		validate:          newPotValidator(),
	}
}

// Create validates the input and stores a new open pot
func (s *cagnotteService) Create(ctx context.Context, caller entities.Caller, params interfaces.CreatePotParams) (*entities.Pot, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrAuth
	}

	if err := s.validate.Struct(params); err != nil {
		return nil, translateValidationError(err)
	}

	pot, err := entities.NewPot(caller.UserID, entities.PotDraft{
		Title:       params.Title,
		Purpose:     params.Purpose,
		Description: params.Description,
		EntryPrice:  params.EntryPrice,
		UsageType:   params.UsageType,
		IsPublic:    *params.IsPublic,
	}, s.cfg.Clock(), s.cfg.PotDuration)
	if err != nil {
		return nil, domain.ErrValidation.WithError(err)
	}

	if err := s.potRepo.Create(ctx, pot); err != nil {
		return nil, storeError("create pot", err)
	}

	s.publish(events.PotCreatedEvent{
		PotID:     pot.ID,
		CreatorID: pot.CreatorID,
		UsageType: string(pot.UsageType),
		IsPublic:  pot.IsPublic,
		Deadline:  pot.Deadline,
	})

	log.WithFields(log.Fields{
		"pot_id":      pot.ID,
		"creator_id":  pot.CreatorID,
		"usage_type":  pot.UsageType,
		"entry_price": pot.EntryPrice,
		"is_public":   pot.IsPublic,
		"deadline":    pot.Deadline,
	}).Info("Pot created")

	return pot, nil
}

// Contribute records one participation of the pot's entry price
func (s *cagnotteService) Contribute(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*entities.Participation, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrAuth
	}

	pot, err := s.loadPot(ctx, potID)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Clock()
	if !CanView(pot, caller, token).Allows() {
		log.WithFields(log.Fields{
			"pot_id":    potID,
			"caller_id": caller.UserID,
		}).Debug("Contribution refused: no access")
		return nil, domain.ErrAccessDenied
	}
	if !pot.AcceptsContributions(now) {
		return nil, domain.ErrClosed.WithDetail("pot %s is %s", potID, pot.Phase(now))
	}
	if pot.IsSelfContribution(caller.UserID) {
		return nil, domain.ErrSelfContributionForbidden
	}

	participation := entities.NewParticipation(pot, caller.UserID, now)
	applied, err := s.participationRepo.CreateIfOpen(ctx, participation)
	if err != nil {
		return nil, storeError("record participation", err)
	}
	if !applied {
		// The pot changed between the read and the guarded insert
		return nil, s.classifyRejectedContribution(ctx, potID, caller, now)
	}

	count, err := s.participationRepo.CountByPot(ctx, potID)
	if err != nil {
		return nil, storeError("count participations", err)
	}

	s.publish(events.ContributionRecordedEvent{
		PotID:            potID,
		ParticipationID:  participation.ID,
		UserID:           caller.UserID,
		Amount:           participation.ContributionAmount,
		ParticipantCount: count,
	})

	log.WithFields(log.Fields{
		"pot_id":           potID,
		"participation_id": participation.ID,
		"user_id":          caller.UserID,
		"amount":           participation.ContributionAmount,
	}).Info("Contribution recorded")

	return participation, nil
}

func (s *cagnotteService) classifyRejectedContribution(ctx context.Context, potID uuid.UUID, caller entities.Caller, now time.Time) error {
	pot, err := s.loadPot(ctx, potID)
	if err != nil {
		return err
	}
	if !pot.AcceptsContributions(now) {
		return domain.ErrClosed
	}
	if pot.IsSelfContribution(caller.UserID) {
		return domain.ErrSelfContributionForbidden
	}
	return domain.ErrStoreConflict.WithDetail("guarded insert rejected for open pot %s", potID)
}

// ResolveByDraw completes a competition pot with a uniformly drawn ballot
func (s *cagnotteService) ResolveByDraw(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error) {
	return s.resolve(ctx, caller, potID, entities.ResolutionModeDraw)
}

// ResolveByPayout completes a personal pot in favour of its creator
func (s *cagnotteService) ResolveByPayout(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error) {
	return s.resolve(ctx, caller, potID, entities.ResolutionModePayout)
}

// resolve runs the resolution at most twice: a lost conditional update is
// retried once against a fresh read, which surfaces AlreadyResolved when the
// competing writer completed the pot.
func (s *cagnotteService) resolve(ctx context.Context, caller entities.Caller, potID uuid.UUID, mode entities.ResolutionMode) (*entities.Resolution, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrAuth
	}

	const maxAttempts = 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resolution, err := s.tryResolve(ctx, caller, potID, mode)
		if !errors.Is(err, domain.ErrStoreConflict) {
			return resolution, err
		}
		log.WithFields(log.Fields{
			"pot_id":  potID,
			"mode":    mode,
			"attempt": attempt,
		}).Warn("Pot resolution lost a concurrent update")
	}

	pot, err := s.loadPot(ctx, potID)
	if err != nil {
		return nil, err
	}
	if pot.IsCompleted() {
		return nil, domain.ErrAlreadyResolved
	}
	return nil, domain.ErrStoreConflict.WithDetail("pot %s could not be resolved after retry", potID)
}

func (s *cagnotteService) tryResolve(ctx context.Context, caller entities.Caller, potID uuid.UUID, mode entities.ResolutionMode) (*entities.Resolution, error) {
	pot, err := s.loadPot(ctx, potID)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Clock()
	if err := checkResolvable(pot, caller, mode, now); err != nil {
		return nil, err
	}

	participations, err := s.participationRepo.ListByPot(ctx, potID)
	if err != nil {
		return nil, storeError("list participations", err)
	}

	resolution := &entities.Resolution{
		Mode:           mode,
		BallotCount:    len(participations),
		TotalCollected: entities.TotalCollected(participations),
		ResolvedAt:     now,
	}

	switch mode {
	case entities.ResolutionModeDraw:
		if len(participations) == 0 {
			return nil, domain.ErrNoParticipants
		}
		idx, err := s.cfg.Drawer.Draw(len(participations))
		if err != nil {
			return nil, fmt.Errorf("failed to draw winner: %w", err)
		}
		if idx < 0 || idx >= len(participations) {
			return nil, fmt.Errorf("drawer returned ballot %d out of %d", idx, len(participations))
		}
		resolution.WinnerID = participations[idx].UserID
	case entities.ResolutionModePayout:
		if len(participations) == 0 {
			if s.cfg.RequireParticipantsForPayout {
				return nil, domain.ErrNoParticipants
			}
			resolution.NoParticipants = true
		}
		resolution.WinnerID = pot.CreatorID
	}

	applied, err := s.potRepo.CompleteIfOpen(ctx, potID, resolution.WinnerID)
	if err != nil {
		return nil, storeError("complete pot", err)
	}
	if !applied {
		return nil, domain.ErrStoreConflict.WithDetail("pot %s no longer open", potID)
	}

	pot.Complete(resolution.WinnerID)
	resolution.Pot = pot

	s.publish(events.PotResolvedEvent{
		PotID:       potID,
		WinnerID:    resolution.WinnerID,
		Mode:        string(mode),
		BallotCount: resolution.BallotCount,
		ResolvedAt:  now,
	})

	fields := log.Fields{
		"pot_id":          potID,
		"mode":            mode,
		"winner_id":       resolution.WinnerID,
		"ballot_count":    resolution.BallotCount,
		"total_collected": resolution.TotalCollected,
	}
	if resolution.NoParticipants {
		log.WithFields(fields).Warn("Pot paid out without any participant")
	} else {
		log.WithFields(fields).Info("Pot resolved")
	}

	return resolution, nil
}

// checkResolvable applies the resolution preconditions in a fixed order
func checkResolvable(pot *entities.Pot, caller entities.Caller, mode entities.ResolutionMode, now time.Time) error {
	if !pot.IsCreator(caller.UserID) {
		return domain.ErrNotCreator
	}
	if entities.ModeFor(pot.UsageType) != mode {
		return domain.ErrWrongUsageMode.WithDetail("pot %s is %s, cannot resolve by %s", pot.ID, pot.UsageType, mode)
	}
	if !pot.IsExpired(now) {
		return domain.ErrNotExpiredYet
	}
	if pot.IsCompleted() {
		return domain.ErrAlreadyResolved
	}
	return nil
}

// MakePublic turns a private pot public and discards its token
func (s *cagnotteService) MakePublic(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Pot, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrAuth
	}

	pot, err := s.loadPot(ctx, potID)
	if err != nil {
		return nil, err
	}
	if !pot.IsCreator(caller.UserID) {
		return nil, domain.ErrNotCreator
	}
	if pot.IsPublic {
		return nil, domain.ErrAlreadyPublic
	}

	applied, err := s.potRepo.MakePublicIfPrivate(ctx, potID)
	if err != nil {
		return nil, storeError("make pot public", err)
	}
	if !applied {
		// Only another makePublic can flip visibility, so the pot is public now
		return nil, domain.ErrAlreadyPublic
	}

	pot.MakePublic()
	s.publish(events.PotMadePublicEvent{PotID: potID})

	log.WithFields(log.Fields{
		"pot_id":     potID,
		"creator_id": caller.UserID,
	}).Info("Pot made public")

	return pot, nil
}

// GetPot returns the read model of one pot after the access check
func (s *cagnotteService) GetPot(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*interfaces.PotView, error) {
	pot, err := s.loadPot(ctx, potID)
	if err != nil {
		return nil, err
	}

	level := DisclosureLevel(pot, caller, token)
	if !level.Allows() {
		return nil, domain.ErrAccessDenied
	}

	var participations []*entities.Participation
	var count int
	if level == entities.AccessFull {
		participations, err = s.participationRepo.ListByPot(ctx, potID)
		if err != nil {
			return nil, storeError("list participations", err)
		}
		count = len(participations)
	} else {
		count, err = s.participationRepo.CountByPot(ctx, potID)
		if err != nil {
			return nil, storeError("count participations", err)
		}
	}

	return BuildPotView(pot, caller, token, level, count, participations, s.cfg.ShareBaseURL, s.cfg.Clock()), nil
}

// ListVisible lists public pots and the caller's own pots, newest first
func (s *cagnotteService) ListVisible(ctx context.Context, caller entities.Caller) ([]*interfaces.PotListItem, error) {
	filter := entities.PotFilter{Order: entities.OrderCreatedAtDesc}
	if caller.IsAuthenticated() {
		id := caller.UserID
		filter.VisibleTo = &id
	} else {
		filter.OnlyPublic = true
	}
	return s.list(ctx, caller, filter)
}

// ListMine lists the caller's pots for the creator dashboard
func (s *cagnotteService) ListMine(ctx context.Context, caller entities.Caller) ([]*interfaces.PotListItem, error) {
	if !caller.IsAuthenticated() {
		return nil, domain.ErrAuth
	}
	id := caller.UserID
	return s.list(ctx, caller, entities.PotFilter{CreatorID: &id, Order: entities.OrderCreatedAtDesc})
}

func (s *cagnotteService) list(ctx context.Context, caller entities.Caller, filter entities.PotFilter) ([]*interfaces.PotListItem, error) {
	pots, err := s.potRepo.Query(ctx, filter)
	if err != nil {
		return nil, storeError("query pots", err)
	}
	if len(pots) == 0 {
		return []*interfaces.PotListItem{}, nil
	}

	ids := make([]uuid.UUID, 0, len(pots))
	for _, pot := range pots {
		ids = append(ids, pot.ID)
	}
	counts, err := s.participationRepo.CountByPots(ctx, ids)
	if err != nil {
		return nil, storeError("count participations", err)
	}

	now := s.cfg.Clock()
	items := make([]*interfaces.PotListItem, 0, len(pots))
	for _, pot := range pots {
		items = append(items, BuildListItem(pot, caller, counts[pot.ID], now))
	}
	return items, nil
}

func (s *cagnotteService) loadPot(ctx context.Context, potID uuid.UUID) (*entities.Pot, error) {
	pot, err := s.potRepo.GetByID(ctx, potID)
	if err != nil {
		return nil, storeError("get pot", err)
	}
	if pot == nil {
		return nil, domain.ErrNotFound
	}
	return pot, nil
}

func (s *cagnotteService) publish(event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"pot_id":    event.PotKey(),
			"error":     err,
		}).Error("Failed to publish event")
	}
}

// storeError keeps classified errors and marks everything else as an
// unavailable store
func storeError(op string, err error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.Unavailable(op, err)
}
