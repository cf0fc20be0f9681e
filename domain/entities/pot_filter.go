package entities

import (
	"time"

	"github.com/google/uuid"
)

// PotOrder selects the ordering of pot queries
type PotOrder string

const (
	OrderCreatedAtDesc PotOrder = "created_at_desc"
	OrderDeadlineAsc   PotOrder = "deadline_asc"
)

// PotFilter narrows pot queries. Nil fields do not filter.
type PotFilter struct {
	CreatorID  *uuid.UUID // only pots created by this user
	VisibleTo  *uuid.UUID // public pots plus private pots created by this user
	OnlyPublic bool
	Status     *PotStatus
	// Deadline window, (DeadlineAfter, DeadlineAtOrBefore]
	DeadlineAfter      *time.Time
	DeadlineAtOrBefore *time.Time
	Order              PotOrder
	Limit              int
}

// PotSummary is a list row with its participation count
type PotSummary struct {
	Pot              *Pot
	ParticipantCount int
}
