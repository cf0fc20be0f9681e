package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cagnotte/domain"
	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
	"cagnotte/domain/testhelpers"
	"cagnotte/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceMocks struct {
	potRepo           *testhelpers.MockPotRepository
	participationRepo *testhelpers.MockParticipationRepository
	publisher         *testhelpers.MockEventPublisher
	drawer            *testhelpers.FixedDrawer
}

// setupCagnotteService builds a service whose clock is frozen at now
func setupCagnotteService(now time.Time, tweak ...func(*CagnotteServiceConfig)) (interfaces.CagnotteService, *serviceMocks) {
	mocks := &serviceMocks{
		potRepo:           new(testhelpers.MockPotRepository),
		participationRepo: new(testhelpers.MockParticipationRepository),
		publisher:         new(testhelpers.MockEventPublisher),
		drawer:            &testhelpers.FixedDrawer{},
	}
	cfg := CagnotteServiceConfig{
		ShareBaseURL: "https://connect-ci.test",
		Drawer:       mocks.drawer,
		Clock:        testhelpers.FixedClock(now),
	}
	for _, fn := range tweak {
		fn(&cfg)
	}
	return NewCagnotteService(mocks.potRepo, mocks.participationRepo, mocks.publisher, cfg), mocks
}

func validParams() interfaces.CreatePotParams {
	return interfaces.CreatePotParams{
		Title:      "Cotisation mariage",
		Purpose:    "Cadeau des mariés",
		EntryPrice: 300,
		UsageType:  entities.UsageModePersonal,
		IsPublic:   testhelpers.Bool(true),
	}
}

var (
	afterDeadline  = testhelpers.BaseTime.Add(entities.DefaultPotDuration + time.Minute)
	beforeDeadline = testhelpers.BaseTime.Add(time.Hour)
)

func TestCagnotteService_Create(t *testing.T) {
	t.Parallel()

	creator := uuid.New()

	t.Run("public pot", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(testhelpers.BaseTime)
		mocks.potRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Pot")).Return(nil)
		mocks.publisher.On("Publish", mock.AnythingOfType("events.PotCreatedEvent")).Return(nil)

		pot, err := service.Create(context.Background(), entities.NewCaller(creator), validParams())
		require.NoError(t, err)

		assert.Equal(t, creator, pot.CreatorID)
		assert.Equal(t, entities.PotStatusOpen, pot.Status)
		assert.Nil(t, pot.AccessToken)
		assert.Equal(t, testhelpers.BaseTime.Add(20*time.Hour), pot.Deadline)
		mocks.potRepo.AssertExpectations(t)
		mocks.publisher.AssertExpectations(t)
	})

	t.Run("private pot receives a token", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(testhelpers.BaseTime)
		mocks.potRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Pot")).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		params := validParams()
		params.IsPublic = testhelpers.Bool(false)
		pot, err := service.Create(context.Background(), entities.NewCaller(creator), params)
		require.NoError(t, err)

		require.NotNil(t, pot.AccessToken)
		assert.GreaterOrEqual(t, len(*pot.AccessToken), 32)
	})

	t.Run("configured duration", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(testhelpers.BaseTime, func(cfg *CagnotteServiceConfig) {
			cfg.PotDuration = 2 * time.Hour
		})
		mocks.potRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		pot, err := service.Create(context.Background(), entities.NewCaller(creator), validParams())
		require.NoError(t, err)
		assert.Equal(t, testhelpers.BaseTime.Add(2*time.Hour), pot.Deadline)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(testhelpers.BaseTime)
		_, err := service.Create(context.Background(), entities.Anonymous(), validParams())
		assert.ErrorIs(t, err, domain.ErrAuth)
		mocks.potRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(testhelpers.BaseTime)
		mocks.potRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		_, err := service.Create(context.Background(), entities.NewCaller(creator), validParams())
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		mocks.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestCagnotteService_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*interfaces.CreatePotParams)
		field  string
	}{
		{"blank title", func(p *interfaces.CreatePotParams) { p.Title = "   " }, "title"},
		{"missing purpose", func(p *interfaces.CreatePotParams) { p.Purpose = "" }, "purpose"},
		{"price off denomination", func(p *interfaces.CreatePotParams) { p.EntryPrice = 250 }, "entry_price"},
		{"price above range", func(p *interfaces.CreatePotParams) { p.EntryPrice = 1100 }, "entry_price"},
		{"price missing", func(p *interfaces.CreatePotParams) { p.EntryPrice = 0 }, "entry_price"},
		{"unknown usage", func(p *interfaces.CreatePotParams) { p.UsageType = "tombola" }, "usage_type"},
		{"visibility missing", func(p *interfaces.CreatePotParams) { p.IsPublic = nil }, "is_public"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, mocks := setupCagnotteService(testhelpers.BaseTime)
			params := validParams()
			tt.mutate(&params)

			_, err := service.Create(context.Background(), entities.NewCaller(uuid.New()), params)
			require.ErrorIs(t, err, domain.ErrValidation)

			var ce *domain.CagnotteError
			require.True(t, errors.As(err, &ce))
			assert.Contains(t, ce.Fields, tt.field)
			mocks.potRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCagnotteService_Contribute(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	contributor := uuid.New()
	ctx := context.Background()

	t.Run("public pot", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CreateIfOpen", ctx, mock.AnythingOfType("*entities.Participation")).Return(true, nil)
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(4, nil)
		mocks.publisher.On("Publish", mock.MatchedBy(func(ev events.ContributionRecordedEvent) bool {
			return ev.PotID == pot.ID && ev.UserID == contributor && ev.ParticipantCount == 4 && ev.Amount == 500
		})).Return(nil)

		participation, err := service.Contribute(ctx, entities.NewCaller(contributor), pot.ID, "")
		require.NoError(t, err)

		assert.Equal(t, pot.ID, participation.PotID)
		assert.Equal(t, contributor, participation.UserID)
		assert.Equal(t, pot.EntryPrice, participation.ContributionAmount)
		mocks.publisher.AssertExpectations(t)
	})

	t.Run("private pot with token", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok-123"))
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CreateIfOpen", ctx, mock.Anything).Return(true, nil)
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(1, nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		_, err := service.Contribute(ctx, entities.NewCaller(contributor), pot.ID, "tok-123")
		assert.NoError(t, err)
	})

	t.Run("competition creator enters their own pot", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CreateIfOpen", ctx, mock.Anything).Return(true, nil)
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(1, nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		participation, err := service.Contribute(ctx, entities.NewCaller(creator), pot.ID, "")
		require.NoError(t, err)
		assert.Equal(t, creator, participation.UserID)
	})

	t.Run("one second before deadline", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		now := pot.Deadline.Add(-time.Second)
		service, mocks := setupCagnotteService(now)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CreateIfOpen", ctx, mock.MatchedBy(func(p *entities.Participation) bool {
			return p.CreatedAt.Equal(now)
		})).Return(true, nil)
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(1, nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		_, err := service.Contribute(ctx, entities.NewCaller(contributor), pot.ID, "")
		assert.NoError(t, err)
		mocks.participationRepo.AssertExpectations(t)
	})

	t.Run("personal private pot", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator,
			testhelpers.WithUsage(entities.UsageModePersonal),
			testhelpers.WithPrivateToken("tok-123"),
		)
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CreateIfOpen", ctx, mock.Anything).Return(true, nil).Once()
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(1, nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		_, err := service.Contribute(ctx, entities.NewCaller(creator), pot.ID, "")
		assert.ErrorIs(t, err, domain.ErrSelfContributionForbidden)

		_, err = service.Contribute(ctx, entities.NewCaller(contributor), pot.ID, "")
		assert.ErrorIs(t, err, domain.ErrAccessDenied)

		_, err = service.Contribute(ctx, entities.NewCaller(contributor), pot.ID, "tok-123")
		assert.NoError(t, err)
		mocks.participationRepo.AssertNumberOfCalls(t, "CreateIfOpen", 1)
	})

	tests := []struct {
		name    string
		pot     *entities.Pot
		caller  entities.Caller
		token   string
		now     time.Time
		wantErr error
	}{
		{
			name:    "anonymous caller",
			pot:     testhelpers.NewTestPot(creator),
			caller:  entities.Anonymous(),
			now:     beforeDeadline,
			wantErr: domain.ErrAuth,
		},
		{
			name:    "private pot without token",
			pot:     testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok-123")),
			caller:  entities.NewCaller(contributor),
			now:     beforeDeadline,
			wantErr: domain.ErrAccessDenied,
		},
		{
			name:    "private pot with wrong token",
			pot:     testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok-123")),
			caller:  entities.NewCaller(contributor),
			token:   "tok-999",
			now:     beforeDeadline,
			wantErr: domain.ErrAccessDenied,
		},
		{
			name:    "access is checked before closure",
			pot:     testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok-123")),
			caller:  entities.NewCaller(contributor),
			now:     afterDeadline,
			wantErr: domain.ErrAccessDenied,
		},
		{
			name:    "exactly at deadline",
			pot:     testhelpers.NewTestPot(creator),
			caller:  entities.NewCaller(contributor),
			now:     testhelpers.BaseTime.Add(entities.DefaultPotDuration),
			wantErr: domain.ErrClosed,
		},
		{
			name:    "completed pot",
			pot:     testhelpers.NewTestPot(creator, testhelpers.WithWinner(uuid.New())),
			caller:  entities.NewCaller(contributor),
			now:     afterDeadline,
			wantErr: domain.ErrClosed,
		},
		{
			name:    "personal pot creator contributing",
			pot:     testhelpers.NewTestPot(creator, testhelpers.WithUsage(entities.UsageModePersonal)),
			caller:  entities.NewCaller(creator),
			now:     beforeDeadline,
			wantErr: domain.ErrSelfContributionForbidden,
		},
		{
			name:    "closure is checked before self contribution",
			pot:     testhelpers.NewTestPot(creator, testhelpers.WithUsage(entities.UsageModePersonal)),
			caller:  entities.NewCaller(creator),
			now:     afterDeadline,
			wantErr: domain.ErrClosed,
		},
		{
			name:    "one second after deadline",
			pot:     testhelpers.NewTestPot(creator),
			caller:  entities.NewCaller(contributor),
			now:     testhelpers.BaseTime.Add(entities.DefaultPotDuration + time.Second),
			wantErr: domain.ErrClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, mocks := setupCagnotteService(tt.now)
			mocks.potRepo.On("GetByID", ctx, tt.pot.ID).Return(tt.pot, nil)

			_, err := service.Contribute(ctx, tt.caller, tt.pot.ID, tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			mocks.participationRepo.AssertNotCalled(t, "CreateIfOpen", mock.Anything, mock.Anything)
			mocks.publisher.AssertNotCalled(t, "Publish", mock.Anything)
		})
	}

	t.Run("unknown pot", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(beforeDeadline)
		potID := uuid.New()
		mocks.potRepo.On("GetByID", ctx, potID).Return(nil, nil)

		_, err := service.Contribute(ctx, entities.NewCaller(contributor), potID, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("pot resolved between read and insert", func(t *testing.T) {
		t.Parallel()

		open := testhelpers.NewTestPot(creator)
		completed := *open
		completed.Complete(uuid.New())

		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, open.ID).Return(open, nil).Once()
		mocks.potRepo.On("GetByID", ctx, open.ID).Return(&completed, nil).Once()
		mocks.participationRepo.On("CreateIfOpen", ctx, mock.Anything).Return(false, nil)

		_, err := service.Contribute(ctx, entities.NewCaller(contributor), open.ID, "")
		assert.ErrorIs(t, err, domain.ErrClosed)
		mocks.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestCagnotteService_ResolveByDraw(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	t.Run("winner is the drawn ballot", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		participations := testhelpers.NewTestParticipations(pot, alice, bob, carol)

		service, mocks := setupCagnotteService(afterDeadline)
		mocks.drawer.Index = 1
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return(participations, nil)
		mocks.potRepo.On("CompleteIfOpen", ctx, pot.ID, bob).Return(true, nil)
		mocks.publisher.On("Publish", mock.MatchedBy(func(ev events.PotResolvedEvent) bool {
			return ev.WinnerID == bob && ev.Mode == "draw" && ev.BallotCount == 3
		})).Return(nil)

		resolution, err := service.ResolveByDraw(ctx, entities.NewCaller(creator), pot.ID)
		require.NoError(t, err)

		assert.Equal(t, bob, resolution.WinnerID)
		assert.Equal(t, entities.ResolutionModeDraw, resolution.Mode)
		assert.Equal(t, 3, resolution.BallotCount)
		assert.Equal(t, int64(1500), resolution.TotalCollected)
		assert.Equal(t, entities.PotStatusCompleted, resolution.Pot.Status)
		assert.Equal(t, []int{3}, mocks.drawer.Calls())
		mocks.potRepo.AssertExpectations(t)
		mocks.publisher.AssertExpectations(t)
	})

	t.Run("each contribution is one ballot", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		participations := testhelpers.NewTestParticipations(pot, alice, alice, bob)

		service, mocks := setupCagnotteService(afterDeadline)
		mocks.drawer.Index = 1
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return(participations, nil)
		mocks.potRepo.On("CompleteIfOpen", ctx, pot.ID, alice).Return(true, nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		resolution, err := service.ResolveByDraw(ctx, entities.NewCaller(creator), pot.ID)
		require.NoError(t, err)
		assert.Equal(t, alice, resolution.WinnerID)
		assert.Equal(t, []int{3}, mocks.drawer.Calls())
	})

	t.Run("no participants", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return([]*entities.Participation{}, nil)

		_, err := service.ResolveByDraw(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrNoParticipants)
		mocks.potRepo.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, mocks.drawer.Calls())
	})

	tests := []struct {
		name    string
		pot     *entities.Pot
		caller  entities.Caller
		now     time.Time
		wantErr error
	}{
		{"anonymous", testhelpers.NewTestPot(creator), entities.Anonymous(), afterDeadline, domain.ErrAuth},
		{"not creator", testhelpers.NewTestPot(creator), entities.NewCaller(alice), afterDeadline, domain.ErrNotCreator},
		{"personal pot", testhelpers.NewTestPot(creator, testhelpers.WithUsage(entities.UsageModePersonal)), entities.NewCaller(creator), afterDeadline, domain.ErrWrongUsageMode},
		{"before deadline", testhelpers.NewTestPot(creator), entities.NewCaller(creator), beforeDeadline, domain.ErrNotExpiredYet},
		{"already resolved", testhelpers.NewTestPot(creator, testhelpers.WithWinner(alice)), entities.NewCaller(creator), afterDeadline, domain.ErrAlreadyResolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			service, mocks := setupCagnotteService(tt.now)
			mocks.potRepo.On("GetByID", ctx, tt.pot.ID).Return(tt.pot, nil)

			_, err := service.ResolveByDraw(ctx, tt.caller, tt.pot.ID)
			assert.ErrorIs(t, err, tt.wantErr)
			mocks.potRepo.AssertNotCalled(t, "CompleteIfOpen", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("lost race surfaces already resolved", func(t *testing.T) {
		t.Parallel()

		open := testhelpers.NewTestPot(creator)
		completed := *open
		completed.Complete(carol)
		participations := testhelpers.NewTestParticipations(open, alice, bob)

		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, open.ID).Return(open, nil).Once()
		mocks.potRepo.On("GetByID", ctx, open.ID).Return(&completed, nil)
		mocks.participationRepo.On("ListByPot", ctx, open.ID).Return(participations, nil)
		mocks.potRepo.On("CompleteIfOpen", ctx, open.ID, alice).Return(false, nil).Once()

		_, err := service.ResolveByDraw(ctx, entities.NewCaller(creator), open.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
		mocks.potRepo.AssertNumberOfCalls(t, "CompleteIfOpen", 1)
		mocks.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("repeated conflict is reported", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		participations := testhelpers.NewTestParticipations(pot, alice)

		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return(participations, nil)
		mocks.potRepo.On("CompleteIfOpen", ctx, pot.ID, alice).Return(false, nil)

		_, err := service.ResolveByDraw(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrStoreConflict)
		mocks.potRepo.AssertNumberOfCalls(t, "CompleteIfOpen", 2)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(nil, errors.New("timeout"))

		_, err := service.ResolveByDraw(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestCagnotteService_ResolveByPayout(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	alice := uuid.New()
	ctx := context.Background()
	personal := func() *entities.Pot {
		return testhelpers.NewTestPot(creator, testhelpers.WithUsage(entities.UsageModePersonal))
	}

	t.Run("creator collects", func(t *testing.T) {
		t.Parallel()

		pot := personal()
		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return(testhelpers.NewTestParticipations(pot, alice), nil)
		mocks.potRepo.On("CompleteIfOpen", ctx, pot.ID, creator).Return(true, nil)
		mocks.publisher.On("Publish", mock.AnythingOfType("events.PotResolvedEvent")).Return(nil)

		resolution, err := service.ResolveByPayout(ctx, entities.NewCaller(creator), pot.ID)
		require.NoError(t, err)

		assert.Equal(t, creator, resolution.WinnerID)
		assert.Equal(t, entities.ResolutionModePayout, resolution.Mode)
		assert.False(t, resolution.NoParticipants)
		assert.Empty(t, mocks.drawer.Calls())
	})

	t.Run("empty pot is flagged", func(t *testing.T) {
		t.Parallel()

		pot := personal()
		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return([]*entities.Participation{}, nil)
		mocks.potRepo.On("CompleteIfOpen", ctx, pot.ID, creator).Return(true, nil)
		mocks.publisher.On("Publish", mock.Anything).Return(nil)

		resolution, err := service.ResolveByPayout(ctx, entities.NewCaller(creator), pot.ID)
		require.NoError(t, err)
		assert.True(t, resolution.NoParticipants)
		assert.Equal(t, creator, resolution.WinnerID)
	})

	t.Run("empty pot refused when participants are required", func(t *testing.T) {
		t.Parallel()

		pot := personal()
		service, mocks := setupCagnotteService(afterDeadline, func(cfg *CagnotteServiceConfig) {
			cfg.RequireParticipantsForPayout = true
		})
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return([]*entities.Participation{}, nil)

		_, err := service.ResolveByPayout(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrNoParticipants)
	})

	t.Run("competition pot", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)

		_, err := service.ResolveByPayout(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrWrongUsageMode)
	})

	t.Run("before deadline", func(t *testing.T) {
		t.Parallel()

		pot := personal()
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)

		_, err := service.ResolveByPayout(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrNotExpiredYet)
	})
}

func TestCagnotteService_MakePublic(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	ctx := context.Background()

	t.Run("private becomes public", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok"))
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.potRepo.On("MakePublicIfPrivate", ctx, pot.ID).Return(true, nil)
		mocks.publisher.On("Publish", events.PotMadePublicEvent{PotID: pot.ID}).Return(nil)

		updated, err := service.MakePublic(ctx, entities.NewCaller(creator), pot.ID)
		require.NoError(t, err)
		assert.True(t, updated.IsPublic)
		assert.Nil(t, updated.AccessToken)
		mocks.publisher.AssertExpectations(t)
	})

	t.Run("already public", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)

		_, err := service.MakePublic(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyPublic)
	})

	t.Run("not creator", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok"))
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)

		_, err := service.MakePublic(ctx, entities.NewCaller(uuid.New()), pot.ID)
		assert.ErrorIs(t, err, domain.ErrNotCreator)
	})

	t.Run("concurrent flip", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok"))
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.potRepo.On("MakePublicIfPrivate", ctx, pot.ID).Return(false, nil)

		_, err := service.MakePublic(ctx, entities.NewCaller(creator), pot.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyPublic)
		mocks.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})
}

func TestCagnotteService_GetPot(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	viewer := uuid.New()
	ctx := context.Background()

	t.Run("creator sees exact participation", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator,
			testhelpers.WithPrivateToken("tok"),
			testhelpers.WithUsage(entities.UsageModePersonal),
		)
		participations := testhelpers.NewTestParticipations(pot, viewer, viewer, uuid.New())

		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("ListByPot", ctx, pot.ID).Return(participations, nil)

		view, err := service.GetPot(ctx, entities.NewCaller(creator), pot.ID, "")
		require.NoError(t, err)

		assert.Equal(t, entities.AccessFull, view.AccessLevel)
		require.NotNil(t, view.ParticipantCount)
		assert.Equal(t, 3, *view.ParticipantCount)
		assert.Len(t, view.Participants, 2)
		assert.Equal(t, entities.MessageSomeParticipants, view.PublicMessage)
		assert.Equal(t, "https://connect-ci.test/requests/cagnotte/"+pot.ID.String()+"?token=tok", view.ShareLink)
		assert.True(t, view.CanMakePublic)
		assert.False(t, view.CanContribute)
		require.NotNil(t, view.Pot.AccessToken)
	})

	t.Run("token holder sees only the bucket", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok"))
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(8, nil)

		view, err := service.GetPot(ctx, entities.NewCaller(viewer), pot.ID, "tok")
		require.NoError(t, err)

		assert.Equal(t, entities.AccessViewOnly, view.AccessLevel)
		assert.Nil(t, view.ParticipantCount)
		assert.Nil(t, view.Participants)
		assert.Empty(t, view.ShareLink)
		assert.Nil(t, view.Pot.AccessToken)
		assert.Equal(t, entities.MessageManyParticipants, view.PublicMessage)
		assert.True(t, view.CanContribute)
		mocks.participationRepo.AssertNotCalled(t, "ListByPot", mock.Anything, mock.Anything)
	})

	t.Run("private pot without token", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator, testhelpers.WithPrivateToken("tok"))
		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)

		_, err := service.GetPot(ctx, entities.Anonymous(), pot.ID, "")
		assert.ErrorIs(t, err, domain.ErrAccessDenied)
	})

	t.Run("awaiting resolution", func(t *testing.T) {
		t.Parallel()

		pot := testhelpers.NewTestPot(creator)
		service, mocks := setupCagnotteService(afterDeadline)
		mocks.potRepo.On("GetByID", ctx, pot.ID).Return(pot, nil)
		mocks.participationRepo.On("CountByPot", ctx, pot.ID).Return(0, nil)

		view, err := service.GetPot(ctx, entities.Anonymous(), pot.ID, "")
		require.NoError(t, err)

		assert.Equal(t, entities.PhaseAwaitingResolution, view.Phase)
		assert.True(t, view.Countdown.IsZero())
		assert.Equal(t, entities.MessageNoParticipants, view.PublicMessage)
		assert.False(t, view.CanContribute)
	})
}

func TestCagnotteService_Lists(t *testing.T) {
	t.Parallel()

	me := uuid.New()
	other := uuid.New()
	ctx := context.Background()

	mine := testhelpers.NewTestPot(me, testhelpers.WithPrivateToken("tok"))
	theirs := testhelpers.NewTestPot(other)

	t.Run("visible pots for a signed in caller", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("Query", ctx, mock.MatchedBy(func(f entities.PotFilter) bool {
			return f.VisibleTo != nil && *f.VisibleTo == me && !f.OnlyPublic && f.Order == entities.OrderCreatedAtDesc
		})).Return([]*entities.Pot{mine, theirs}, nil)
		mocks.participationRepo.On("CountByPots", ctx, []uuid.UUID{mine.ID, theirs.ID}).
			Return(map[uuid.UUID]int{mine.ID: 2, theirs.ID: 9}, nil)

		items, err := service.ListVisible(ctx, entities.NewCaller(me))
		require.NoError(t, err)
		require.Len(t, items, 2)

		require.NotNil(t, items[0].ParticipantCount)
		assert.Equal(t, 2, *items[0].ParticipantCount)
		assert.Nil(t, items[1].ParticipantCount)
		assert.Equal(t, entities.MessageManyParticipants, items[1].PublicMessage)
	})

	t.Run("anonymous caller sees public pots only", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("Query", ctx, mock.MatchedBy(func(f entities.PotFilter) bool {
			return f.OnlyPublic && f.VisibleTo == nil
		})).Return([]*entities.Pot{}, nil)

		items, err := service.ListVisible(ctx, entities.Anonymous())
		require.NoError(t, err)
		assert.Empty(t, items)
		mocks.participationRepo.AssertNotCalled(t, "CountByPots", mock.Anything, mock.Anything)
	})

	t.Run("dashboard requires identity", func(t *testing.T) {
		t.Parallel()

		service, _ := setupCagnotteService(beforeDeadline)
		_, err := service.ListMine(ctx, entities.Anonymous())
		assert.ErrorIs(t, err, domain.ErrAuth)
	})

	t.Run("dashboard filters by creator", func(t *testing.T) {
		t.Parallel()

		service, mocks := setupCagnotteService(beforeDeadline)
		mocks.potRepo.On("Query", ctx, mock.MatchedBy(func(f entities.PotFilter) bool {
			return f.CreatorID != nil && *f.CreatorID == me
		})).Return([]*entities.Pot{mine}, nil)
		mocks.participationRepo.On("CountByPots", ctx, []uuid.UUID{mine.ID}).Return(map[uuid.UUID]int{}, nil)

		items, err := service.ListMine(ctx, entities.NewCaller(me))
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].ParticipantCount)
		assert.Equal(t, 0, *items[0].ParticipantCount)
	})
}
