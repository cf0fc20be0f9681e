package infrastructure

import (
	"context"
	"sync"

	"cagnotte/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// coreSubscriber is the part of NATSClient the feed needs
type coreSubscriber interface {
	SubscribeCore(subject string, handler func(subject string, data []byte)) (func(), error)
}

// NATSPotFeed streams the events of one pot from NATS, so every instance
// sees changes made through any other instance
type NATSPotFeed struct {
	client        coreSubscriber
	subjectMapper *EventSubjectMapper
	bufferSize    int
}

// NewNATSPotFeed creates a pot feed on top of a connected client
func NewNATSPotFeed(client coreSubscriber, subjectMapper *EventSubjectMapper) *NATSPotFeed {
	return &NATSPotFeed{
		client:        client,
		subjectMapper: subjectMapper,
		bufferSize:    32,
	}
}

// SubscribePot returns a channel of the pot's events. The channel is closed
// once ctx is done. Slow readers lose events rather than block delivery.
func (f *NATSPotFeed) SubscribePot(ctx context.Context, potID uuid.UUID) (<-chan events.Event, error) {
	out := make(chan events.Event, f.bufferSize)

	// NATS may still run a callback while the subscription is torn down
	var mu sync.Mutex
	closed := false

	unsubscribe, err := f.client.SubscribeCore(f.subjectMapper.PotSubject(potID), func(subject string, data []byte) {
		event, envelope, err := DecodeEnvelope(data)
		if err != nil {
			log.WithFields(log.Fields{
				"subject": subject,
				"error":   err,
			}).Warn("Dropping undecodable pot event")
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- event:
		default:
			log.WithFields(log.Fields{
				"pot_id":  potID,
				"eventId": envelope.EventID,
			}).Warn("Pot feed subscriber is lagging, event dropped")
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}
