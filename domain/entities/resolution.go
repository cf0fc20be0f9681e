package entities

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionMode names how the winner was designated
type ResolutionMode string

const (
	ResolutionModeDraw   ResolutionMode = "draw"
	ResolutionModePayout ResolutionMode = "payout"
)

// ModeFor returns the resolution mode a usage mode requires
func ModeFor(usage UsageMode) ResolutionMode {
	if usage == UsageModeCompetition {
		return ResolutionModeDraw
	}
	return ResolutionModePayout
}

// Resolution is the outcome of completing a pot
type Resolution struct {
	Pot            *Pot
	Mode           ResolutionMode
	WinnerID       uuid.UUID
	BallotCount    int   // participation rows considered
	TotalCollected int64 // FCFA
	NoParticipants bool  // payout of a pot nobody contributed to
	ResolvedAt     time.Time
}
