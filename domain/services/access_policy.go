package services

import (
	"time"

	"cagnotte/domain/entities"
)

// CanView decides whether caller may see pot. Public pots are open to
// everyone, private pots to their creator and to holders of the access token.
func CanView(pot *entities.Pot, caller entities.Caller, token string) entities.AccessLevel {
	if pot.IsPublic {
		return entities.AccessFull
	}
	if caller.IsAuthenticated() && pot.IsCreator(caller.UserID) {
		return entities.AccessFull
	}
	if pot.TokenMatches(token) {
		return entities.AccessFull
	}
	return entities.AccessDenied
}

// DisclosureLevel refines a granted view: only the creator gets exact
// participation data, every other viewer is view-only.
func DisclosureLevel(pot *entities.Pot, caller entities.Caller, token string) entities.AccessLevel {
	if !CanView(pot, caller, token).Allows() {
		return entities.AccessDenied
	}
	if caller.IsAuthenticated() && pot.IsCreator(caller.UserID) {
		return entities.AccessFull
	}
	return entities.AccessViewOnly
}

// CanResolve is true for the creator of an open pot whose deadline passed
func CanResolve(pot *entities.Pot, caller entities.Caller, now time.Time) bool {
	return caller.IsAuthenticated() &&
		pot.IsCreator(caller.UserID) &&
		!pot.IsCompleted() &&
		pot.IsExpired(now)
}

// CanMakePublic is true for the creator of a private pot
func CanMakePublic(pot *entities.Pot, caller entities.Caller) bool {
	return caller.IsAuthenticated() && pot.IsCreator(caller.UserID) && pot.IsPrivate()
}

// CanContribute is true for an authenticated caller who can view an open pot
// before its deadline, unless they created it in personal mode
func CanContribute(pot *entities.Pot, caller entities.Caller, token string, now time.Time) bool {
	return caller.IsAuthenticated() &&
		CanView(pot, caller, token).Allows() &&
		pot.AcceptsContributions(now) &&
		!pot.IsSelfContribution(caller.UserID)
}
