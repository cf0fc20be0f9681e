package infrastructure

import (
	"testing"

	"cagnotte/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSubjectMapper(t *testing.T) {
	t.Parallel()

	mapper := NewEventSubjectMapper()
	potID := uuid.MustParse("4f1c2a9e-0a43-4a57-9d59-2c1c6f0f6d11")

	subject := mapper.MapEventToSubject(events.PotResolvedEvent{PotID: potID})
	assert.Equal(t, "cagnotte.pots.4f1c2a9e-0a43-4a57-9d59-2c1c6f0f6d11.pot_resolved", subject)
	assert.Equal(t, "cagnotte.pots.4f1c2a9e-0a43-4a57-9d59-2c1c6f0f6d11.*", mapper.PotSubject(potID))

	eventType, err := mapper.MapSubjectToEventType(subject)
	require.NoError(t, err)
	assert.Equal(t, events.EventTypePotResolved, eventType)

	for _, bad := range []string{
		"wagers.group.state_changed",
		"cagnotte.pots.not-a-uuid.pot_created",
		"cagnotte.pots." + potID.String(),
	} {
		_, err := mapper.MapSubjectToEventType(bad)
		assert.Error(t, err, bad)
	}

	subjects := mapper.GetAllSubjects()
	assert.Len(t, subjects, len(events.AllEventTypes()))
	assert.Contains(t, subjects, "cagnotte.pots.*.pot_resolved")
}
