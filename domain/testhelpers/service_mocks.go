package testhelpers

import (
	"context"

	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCagnotteService is a mock implementation of CagnotteService
type MockCagnotteService struct {
	mock.Mock
}

func (m *MockCagnotteService) Create(ctx context.Context, caller entities.Caller, params interfaces.CreatePotParams) (*entities.Pot, error) {
	args := m.Called(ctx, caller, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pot), args.Error(1)
}

func (m *MockCagnotteService) Contribute(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*entities.Participation, error) {
	args := m.Called(ctx, caller, potID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Participation), args.Error(1)
}

func (m *MockCagnotteService) ResolveByDraw(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error) {
	args := m.Called(ctx, caller, potID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Resolution), args.Error(1)
}

func (m *MockCagnotteService) ResolveByPayout(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Resolution, error) {
	args := m.Called(ctx, caller, potID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Resolution), args.Error(1)
}

func (m *MockCagnotteService) MakePublic(ctx context.Context, caller entities.Caller, potID uuid.UUID) (*entities.Pot, error) {
	args := m.Called(ctx, caller, potID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pot), args.Error(1)
}

func (m *MockCagnotteService) GetPot(ctx context.Context, caller entities.Caller, potID uuid.UUID, token string) (*interfaces.PotView, error) {
	args := m.Called(ctx, caller, potID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.PotView), args.Error(1)
}

func (m *MockCagnotteService) ListVisible(ctx context.Context, caller entities.Caller) ([]*interfaces.PotListItem, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.PotListItem), args.Error(1)
}

func (m *MockCagnotteService) ListMine(ctx context.Context, caller entities.Caller) ([]*interfaces.PotListItem, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*interfaces.PotListItem), args.Error(1)
}
