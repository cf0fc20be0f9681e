package infrastructure

import (
	"fmt"
	"strings"

	"cagnotte/events"

	"github.com/google/uuid"
)

// SubjectPrefix roots every pot event subject
const SubjectPrefix = "cagnotte.pots"

// EventSubjectMapper handles mapping between pot events and NATS subjects.
// Subjects are cagnotte.pots.<pot id>.<event type>.
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts an event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, event.PotKey(), event.Type())
}

// PotSubject returns the wildcard subject matching every event of one pot
func (m *EventSubjectMapper) PotSubject(potID uuid.UUID) string {
	return fmt.Sprintf("%s.%s.*", SubjectPrefix, potID)
}

// MapSubjectToEventType extracts the event type from a subject
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) (events.EventType, error) {
	rest, ok := strings.CutPrefix(subject, SubjectPrefix+".")
	if !ok {
		return "", fmt.Errorf("subject %q is not a pot event subject", subject)
	}
	potPart, eventType, ok := strings.Cut(rest, ".")
	if !ok || eventType == "" {
		return "", fmt.Errorf("subject %q has no event type", subject)
	}
	if _, err := uuid.Parse(potPart); err != nil {
		return "", fmt.Errorf("subject %q has an invalid pot id: %w", subject, err)
	}
	return events.EventType(eventType), nil
}

// GetAllSubjects returns one wildcard subject per event type
func (m *EventSubjectMapper) GetAllSubjects() []string {
	types := events.AllEventTypes()
	subjects := make([]string, 0, len(types))
	for _, t := range types {
		subjects = append(subjects, fmt.Sprintf("%s.*.%s", SubjectPrefix, t))
	}
	return subjects
}
