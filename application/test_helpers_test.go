package application

import (
	"context"
	"sync"

	"cagnotte/domain/interfaces"
	"cagnotte/domain/testhelpers"
	"cagnotte/events"
)

// fakeUnitOfWork hands out shared repository mocks and releases events only
// on commit, like the transactional bus does
type fakeUnitOfWork struct {
	factory *fakeUnitOfWorkFactory
	pending []events.Event
	done    bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	u.factory.begins++
	return u.factory.beginErr
}

func (u *fakeUnitOfWork) Commit() error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	u.done = true
	if u.factory.commitErr != nil {
		u.pending = nil
		return u.factory.commitErr
	}
	u.factory.commits++
	u.factory.published = append(u.factory.published, u.pending...)
	u.pending = nil
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.factory.mu.Lock()
	defer u.factory.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	u.factory.rollbacks++
	u.pending = nil
	return nil
}

func (u *fakeUnitOfWork) PotRepository() interfaces.PotRepository {
	return u.factory.potRepo
}

func (u *fakeUnitOfWork) ParticipationRepository() interfaces.ParticipationRepository {
	return u.factory.participationRepo
}

func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher {
	return u
}

func (u *fakeUnitOfWork) Publish(e events.Event) error {
	u.pending = append(u.pending, e)
	return nil
}

type fakeUnitOfWorkFactory struct {
	potRepo           *testhelpers.MockPotRepository
	participationRepo *testhelpers.MockParticipationRepository

	mu        sync.Mutex
	beginErr  error
	commitErr error
	begins    int
	commits   int
	rollbacks int
	published []events.Event
}

func newFakeUnitOfWorkFactory() *fakeUnitOfWorkFactory {
	return &fakeUnitOfWorkFactory{
		potRepo:           new(testhelpers.MockPotRepository),
		participationRepo: new(testhelpers.MockParticipationRepository),
	}
}

func (f *fakeUnitOfWorkFactory) Create() UnitOfWork {
	return &fakeUnitOfWork{factory: f}
}

func (f *fakeUnitOfWorkFactory) Published() []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.published...)
}
