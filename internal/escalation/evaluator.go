package escalation

import (
	"fmt"
	"time"

	"hallpass-backend/internal/model"
)

// CalculateDuration returns whole minutes elapsed from openedAt to now,
// floored, never negative.
func CalculateDuration(openedAt, now time.Time) int {
	minutes := int(now.Sub(openedAt) / time.Minute)
	if minutes < 0 {
		return 0
	}
	return minutes
}

// DetermineLevel maps an open duration onto an escalation level. Both
// thresholds are inclusive: a duration exactly equal to a threshold already
// escalates.
func DetermineLevel(durationMinutes int, th model.EscalationThresholds) model.EscalationLevel {
	switch {
	case durationMinutes >= th.Alert:
		return model.LevelAlert
	case durationMinutes >= th.Warning:
		return model.LevelWarning
	default:
		return model.LevelNone
	}
}

// IsHigherEscalation reports whether newLevel outranks currentLevel in the
// warning < alert < critical ordering. Equal levels are not higher, so
// re-evaluating at an unchanged level never re-notifies.
func IsHigherEscalation(newLevel, currentLevel model.EscalationLevel) bool {
	return newLevel.Rank() > currentLevel.Rank()
}

// FormatDuration renders minutes as "37m" or "1h 15m" for notification text.
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
