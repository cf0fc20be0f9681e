package testhelpers

import (
	"context"
	"sync"
	"time"

	"cagnotte/domain/entities"
	"cagnotte/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPotRepository is a mock implementation of PotRepository
type MockPotRepository struct {
	mock.Mock
}

func (m *MockPotRepository) Create(ctx context.Context, pot *entities.Pot) error {
	args := m.Called(ctx, pot)
	return args.Error(0)
}

func (m *MockPotRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Pot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pot), args.Error(1)
}

func (m *MockPotRepository) CompleteIfOpen(ctx context.Context, id uuid.UUID, winnerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, winnerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPotRepository) MakePublicIfPrivate(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPotRepository) Query(ctx context.Context, filter entities.PotFilter) ([]*entities.Pot, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Pot), args.Error(1)
}

// MockParticipationRepository is a mock implementation of ParticipationRepository
type MockParticipationRepository struct {
	mock.Mock
}

func (m *MockParticipationRepository) CreateIfOpen(ctx context.Context, participation *entities.Participation) (bool, error) {
	args := m.Called(ctx, participation)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipationRepository) ListByPot(ctx context.Context, potID uuid.UUID) ([]*entities.Participation, error) {
	args := m.Called(ctx, potID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Participation), args.Error(1)
}

func (m *MockParticipationRepository) CountByPot(ctx context.Context, potID uuid.UUID) (int, error) {
	args := m.Called(ctx, potID)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipationRepository) CountByPots(ctx context.Context, potIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, potIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// FixedDrawer always returns the same ballot index
type FixedDrawer struct {
	Index int
	Err   error

	mu    sync.Mutex
	calls []int
}

func (d *FixedDrawer) Draw(n int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, n)
	return d.Index, d.Err
}

// Calls returns the ballot counts the drawer was asked about
func (d *FixedDrawer) Calls() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.calls...)
}

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
