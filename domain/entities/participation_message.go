package entities

// Public participation messages, from quietest to busiest
const (
	MessageNoParticipants   = "Soyez le premier à participer !"
	MessageFewParticipants  = "Quelques personnes ont déjà contribué."
	MessageSomeParticipants = "La cagnotte commence à attirer du monde."
	MessageManyParticipants = "Beaucoup d'intérêt autour de cette cagnotte."
)

// PublicParticipationMessage buckets a participation count so that
// non-creators never learn the exact number.
func PublicParticipationMessage(count int) string {
	switch {
	case count <= 0:
		return MessageNoParticipants
	case count <= 2:
		return MessageFewParticipants
	case count <= 6:
		return MessageSomeParticipants
	default:
		return MessageManyParticipants
	}
}
