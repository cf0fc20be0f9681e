package events

import (
	"encoding/json"
	"fmt"
)

// Decode rebuilds a typed event from its type name and JSON payload
func Decode(eventType EventType, payload []byte) (Event, error) {
	var (
		event Event
		err   error
	)

	switch eventType {
	case EventTypePotCreated:
		var e PotCreatedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypeContributionRecorded:
		var e ContributionRecordedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypePotResolved:
		var e PotResolvedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypePotMadePublic:
		var e PotMadePublicEvent
		err = json.Unmarshal(payload, &e)
		event = e
	case EventTypePotClosed:
		var e PotClosedEvent
		err = json.Unmarshal(payload, &e)
		event = e
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", eventType, err)
	}
	return event, nil
}
