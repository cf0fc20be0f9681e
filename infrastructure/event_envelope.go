package infrastructure

import (
	"encoding/json"
	"fmt"
	"time"

	"cagnotte/events"

	"github.com/google/uuid"
)

// EventEnvelope is the wire format of every event published on NATS
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	PotID         string          `json:"pot_id"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EncodeEnvelope wraps event in a fresh envelope
func EncodeEnvelope(event events.Event, source string, now time.Time) ([]byte, *EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		PotID:         event.PotKey().String(),
		Timestamp:     now.UTC(),
		SourceService: source,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, envelope, nil
}

// DecodeEnvelope unwraps an envelope back into a typed event
func DecodeEnvelope(data []byte) (events.Event, *EventEnvelope, error) {
	var envelope EventEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	event, err := events.Decode(events.EventType(envelope.EventType), envelope.Payload)
	if err != nil {
		return nil, &envelope, err
	}
	return event, &envelope, nil
}
