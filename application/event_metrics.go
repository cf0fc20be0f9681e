package application

import (
	"context"

	"cagnotte/events"
	"cagnotte/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// RegisterEventMetrics counts every event type delivered on the local bus.
// In NATS mode the publisher forwards to the same bus, so both modes are counted.
func RegisterEventMetrics(bus *events.Bus, metrics *observability.MetricsProvider) {
	for _, eventType := range events.AllEventTypes() {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) {
			metrics.RecordEventEmitted(string(event.Type()))
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"pot_id":    event.PotKey(),
			}).Debug("Event delivered")
		})
	}
}
