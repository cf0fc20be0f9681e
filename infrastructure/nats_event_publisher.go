package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cagnotte/events"
	"cagnotte/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// messagePublisher is the part of NATSClient the publisher needs
type messagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSEventPublisher publishes pot events to JetStream. Events are also handed
// to the local bus so in-process handlers run without a NATS round trip.
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	local         events.Publisher
	metrics       *observability.MetricsProvider
	timeout       time.Duration
}

// NewNATSEventPublisher creates a new NATS event publisher. local may be nil.
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper, local events.Publisher, metrics *observability.MetricsProvider) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		local:         local,
		metrics:       metrics,
		timeout:       5 * time.Second,
	}
}

// Publish publishes an event to NATS using its pot subject
func (p *NATSEventPublisher) Publish(event events.Event) error {
	if p.local != nil {
		if err := p.local.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event publish failed")
		}
	}

	subject := p.subjectMapper.MapEventToSubject(event)

	data, envelope, err := EncodeEnvelope(event, "cagnotte", time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, subject, data); err != nil {
		// Stream not provisioned yet: core subscribers still received the message
		if strings.Contains(err.Error(), "no response from stream") {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	p.metrics.RecordNATSMessagePublished(string(event.Type()))

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}
