package api

import (
	"time"

	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
	"cagnotte/events"

	"github.com/google/uuid"
)

// CountdownResponse is the remaining time before a pot closes
type CountdownResponse struct {
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
	Text    string `json:"text"`
}

// PotResponse is the detail view of a pot
type PotResponse struct {
	ID               uuid.UUID                    `json:"id"`
	CreatorID        uuid.UUID                    `json:"creator_id"`
	Title            string                       `json:"title"`
	Purpose          string                       `json:"purpose"`
	Description      *string                      `json:"description,omitempty"`
	EntryPrice       int64                        `json:"entry_price"`
	UsageType        entities.UsageMode           `json:"usage_type"`
	Visibility       entities.Visibility          `json:"visibility"`
	Status           entities.PotPhase            `json:"status"`
	StatusLabel      string                       `json:"status_label"`
	Deadline         time.Time                    `json:"deadline"`
	CreatedAt        time.Time                    `json:"created_at"`
	WinnerID         *uuid.UUID                   `json:"winner_id,omitempty"`
	Countdown        CountdownResponse            `json:"countdown"`
	AccessLevel      string                       `json:"access_level"`
	PublicMessage    string                       `json:"public_message"`
	ParticipantCount *int                         `json:"participant_count,omitempty"`
	TotalCollected   *int64                       `json:"total_collected,omitempty"`
	Participants     []interfaces.ParticipantView `json:"participants,omitempty"`
	ShareLink        string                       `json:"share_link,omitempty"`
	CanContribute    bool                         `json:"can_contribute"`
	CanResolve       bool                         `json:"can_resolve"`
	CanMakePublic    bool                         `json:"can_make_public"`
}

// PotListItemResponse is one row of a pot listing
type PotListItemResponse struct {
	ID               uuid.UUID           `json:"id"`
	Title            string              `json:"title"`
	Purpose          string              `json:"purpose"`
	EntryPrice       int64               `json:"entry_price"`
	UsageType        entities.UsageMode  `json:"usage_type"`
	Visibility       entities.Visibility `json:"visibility"`
	Status           entities.PotPhase   `json:"status"`
	StatusLabel      string              `json:"status_label"`
	Deadline         time.Time           `json:"deadline"`
	PublicMessage    string              `json:"public_message"`
	ParticipantCount *int                `json:"participant_count,omitempty"`
}

// CreatedPotResponse is returned to the creator right after creation
type CreatedPotResponse struct {
	ID         uuid.UUID           `json:"id"`
	Title      string              `json:"title"`
	Visibility entities.Visibility `json:"visibility"`
	Deadline   time.Time           `json:"deadline"`
	ShareLink  string              `json:"share_link"`
}

// ParticipationResponse acknowledges a contribution
type ParticipationResponse struct {
	ID        uuid.UUID `json:"id"`
	PotID     uuid.UUID `json:"pot_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

// ResolutionResponse reports the designated winner
type ResolutionResponse struct {
	PotID          uuid.UUID               `json:"pot_id"`
	Mode           entities.ResolutionMode `json:"mode"`
	WinnerID       uuid.UUID               `json:"winner_id"`
	BallotCount    int                     `json:"ballot_count"`
	TotalCollected int64                   `json:"total_collected"`
	NoParticipants bool                    `json:"no_participants"`
	ResolvedAt     time.Time               `json:"resolved_at"`
}

// PublishedPotResponse confirms a pot became public
type PublishedPotResponse struct {
	ID         uuid.UUID           `json:"id"`
	Visibility entities.Visibility `json:"visibility"`
	ShareLink  string              `json:"share_link"`
}

func toCountdownResponse(c entities.Countdown) CountdownResponse {
	return CountdownResponse{
		Hours:   c.Hours,
		Minutes: c.Minutes,
		Seconds: c.Seconds,
		Text:    c.Text(),
	}
}

func toPotResponse(view *interfaces.PotView) PotResponse {
	pot := view.Pot
	return PotResponse{
		ID:               pot.ID,
		CreatorID:        pot.CreatorID,
		Title:            pot.Title,
		Purpose:          pot.Purpose,
		Description:      pot.Description,
		EntryPrice:       pot.EntryPrice,
		UsageType:        pot.UsageType,
		Visibility:       pot.Visibility(),
		Status:           view.Phase,
		StatusLabel:      view.Phase.Badge(),
		Deadline:         pot.Deadline,
		CreatedAt:        pot.CreatedAt,
		WinnerID:         pot.WinnerID,
		Countdown:        toCountdownResponse(view.Countdown),
		AccessLevel:      view.AccessLevel.String(),
		PublicMessage:    view.PublicMessage,
		ParticipantCount: view.ParticipantCount,
		TotalCollected:   view.TotalCollected,
		Participants:     view.Participants,
		ShareLink:        view.ShareLink,
		CanContribute:    view.CanContribute,
		CanResolve:       view.CanResolve,
		CanMakePublic:    view.CanMakePublic,
	}
}

func toPotListResponse(items []*interfaces.PotListItem) []PotListItemResponse {
	result := make([]PotListItemResponse, 0, len(items))
	for _, item := range items {
		pot := item.Pot
		result = append(result, PotListItemResponse{
			ID:               pot.ID,
			Title:            pot.Title,
			Purpose:          pot.Purpose,
			EntryPrice:       pot.EntryPrice,
			UsageType:        pot.UsageType,
			Visibility:       pot.Visibility(),
			Status:           item.Phase,
			StatusLabel:      item.Phase.Badge(),
			Deadline:         pot.Deadline,
			PublicMessage:    item.PublicMessage,
			ParticipantCount: item.ParticipantCount,
		})
	}
	return result
}

func toResolutionResponse(r *entities.Resolution) ResolutionResponse {
	return ResolutionResponse{
		PotID:          r.Pot.ID,
		Mode:           r.Mode,
		WinnerID:       r.WinnerID,
		BallotCount:    r.BallotCount,
		TotalCollected: r.TotalCollected,
		NoParticipants: r.NoParticipants,
		ResolvedAt:     r.ResolvedAt,
	}
}

// EntryPricesResponse lists the allowed entry prices
type EntryPricesResponse struct {
	Currency    string  `json:"currency"`
	EntryPrices []int64 `json:"entry_prices"`
}

// PublicContribution is what a non-creator learns about a new contribution
type PublicContribution struct {
	PotID         uuid.UUID `json:"pot_id"`
	PublicMessage string    `json:"public_message"`
}

// PublicPotClosed is what a non-creator learns when the deadline passes
type PublicPotClosed struct {
	PotID         uuid.UUID `json:"pot_id"`
	Deadline      time.Time `json:"deadline"`
	PublicMessage string    `json:"public_message"`
}

// PublicPotResolved is what a non-creator learns about the resolution
type PublicPotResolved struct {
	PotID      uuid.UUID `json:"pot_id"`
	WinnerID   uuid.UUID `json:"winner_id"`
	Mode       string    `json:"mode"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// sanitizeEvent returns the payload of event a viewer at level may see
func sanitizeEvent(event events.Event, level entities.AccessLevel) any {
	if level == entities.AccessFull {
		return event
	}
	switch e := event.(type) {
	case events.ContributionRecordedEvent:
		return PublicContribution{
			PotID:         e.PotID,
			PublicMessage: entities.PublicParticipationMessage(e.ParticipantCount),
		}
	case events.PotClosedEvent:
		return PublicPotClosed{
			PotID:         e.PotID,
			Deadline:      e.Deadline,
			PublicMessage: entities.PublicParticipationMessage(e.ParticipantCount),
		}
	case events.PotResolvedEvent:
		return PublicPotResolved{
			PotID:      e.PotID,
			WinnerID:   e.WinnerID,
			Mode:       e.Mode,
			ResolvedAt: e.ResolvedAt,
		}
	default:
		return event
	}
}
