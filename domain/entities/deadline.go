package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownDeadline marks a deadline that is missing or cannot be parsed
var ErrUnknownDeadline = errors.New("deadline is unknown")

// DeadlineState is the result of evaluating a deadline against a clock
type DeadlineState int

const (
	DeadlineUnknown DeadlineState = iota
	DeadlineRunning
	DeadlinePassed
)

func (s DeadlineState) String() string {
	switch s {
	case DeadlineRunning:
		return "running"
	case DeadlinePassed:
		return "passed"
	default:
		return "unknown"
	}
}

// EvaluateDeadline classifies deadline at now. A zero deadline is unknown,
// never open and never expired.
func EvaluateDeadline(deadline, now time.Time) DeadlineState {
	if deadline.IsZero() {
		return DeadlineUnknown
	}
	if IsExpired(deadline, now) {
		return DeadlinePassed
	}
	return DeadlineRunning
}

// IsExpired is true when now has reached the deadline
func IsExpired(deadline, now time.Time) bool {
	return !now.Before(deadline)
}

// deadlineLayouts are tried in order after normalizing the date/time separator
var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
}

// ParseDeadline accepts RFC 3339 timestamps as well as PostgreSQL text output
// ("2024-05-01 10:00:00+00"). Timestamps without an offset are read as UTC.
func ParseDeadline(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrUnknownDeadline
	}
	value = strings.Replace(value, " ", "T", 1)

	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDeadline, raw)
}

// Countdown is the remaining time split into display units
type Countdown struct {
	Hours   int
	Minutes int
	Seconds int
}

// Remaining returns the time left before deadline, clamped at zero
func Remaining(deadline, now time.Time) Countdown {
	left := deadline.Sub(now)
	if left <= 0 || deadline.IsZero() {
		return Countdown{}
	}
	total := int(left / time.Second)
	return Countdown{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

// Duration converts the countdown back to a duration
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Hours)*time.Hour + time.Duration(c.Minutes)*time.Minute + time.Duration(c.Seconds)*time.Second
}

// IsZero is true once nothing remains
func (c Countdown) IsZero() bool {
	return c.Hours == 0 && c.Minutes == 0 && c.Seconds == 0
}

// Text renders the countdown the way pot pages display it
func (c Countdown) Text() string {
	if c.IsZero() {
		return "Cagnotte fermée"
	}
	return fmt.Sprintf("Temps restant : %dh %dmin %ds", c.Hours, c.Minutes, c.Seconds)
}
