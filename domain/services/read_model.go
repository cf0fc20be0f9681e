package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"
)

// ShareLink builds the link a creator hands out. Private pots carry their token.
func ShareLink(baseURL string, pot *entities.Pot) string {
	link := fmt.Sprintf("%s/requests/cagnotte/%s", strings.TrimRight(baseURL, "/"), pot.ID)
	if pot.IsPrivate() && pot.AccessToken != nil {
		link += "?token=" + url.QueryEscape(*pot.AccessToken)
	}
	return link
}

// BuildPotView assembles the read model of pot for a viewer holding level.
// participations may be nil when level is not full access.
func BuildPotView(
	pot *entities.Pot,
	caller entities.Caller,
	token string,
	level entities.AccessLevel,
	participationCount int,
	participations []*entities.Participation,
	shareBaseURL string,
	now time.Time,
) *interfaces.PotView {
	view := &interfaces.PotView{
		Pot:           redactPot(pot, level),
		AccessLevel:   level,
		Phase:         pot.Phase(now),
		Countdown:     entities.Remaining(pot.Deadline, now),
		PublicMessage: entities.PublicParticipationMessage(participationCount),
		CanContribute: CanContribute(pot, caller, token, now),
		CanResolve:    CanResolve(pot, caller, now),
		CanMakePublic: CanMakePublic(pot, caller),
	}
	if pot.IsCompleted() {
		view.Countdown = entities.Countdown{}
	}

	if level == entities.AccessFull {
		count := participationCount
		total := entities.TotalCollected(participations)
		view.ParticipantCount = &count
		view.TotalCollected = &total
		view.ShareLink = ShareLink(shareBaseURL, pot)

		summaries := entities.SummarizeParticipants(participations)
		view.Participants = make([]interfaces.ParticipantView, 0, len(summaries))
		for _, s := range summaries {
			view.Participants = append(view.Participants, interfaces.ParticipantView{
				UserID:        s.UserID,
				Contributions: s.Contributions,
				TotalAmount:   s.TotalAmount,
			})
		}
	}
	return view
}

// BuildListItem assembles one listing row
func BuildListItem(pot *entities.Pot, caller entities.Caller, participationCount int, now time.Time) *interfaces.PotListItem {
	isCreator := caller.IsAuthenticated() && pot.IsCreator(caller.UserID)
	level := entities.AccessViewOnly
	if isCreator {
		level = entities.AccessFull
	}

	item := &interfaces.PotListItem{
		Pot:           redactPot(pot, level),
		Phase:         pot.Phase(now),
		PublicMessage: entities.PublicParticipationMessage(participationCount),
	}
	if isCreator {
		count := participationCount
		item.ParticipantCount = &count
	}
	return item
}

// redactPot strips the access token from copies shown to anyone but the creator
func redactPot(pot *entities.Pot, level entities.AccessLevel) *entities.Pot {
	clone := *pot
	if level != entities.AccessFull {
		clone.AccessToken = nil
	}
	return &clone
}
