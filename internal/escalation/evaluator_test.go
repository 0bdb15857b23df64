package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hallpass-backend/internal/model"
)

func TestCalculateDuration(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		openedAt time.Time
		now      time.Time
		expected int
	}{
		{"zero elapsed", base, base, 0},
		{"fifteen minutes", base, base.Add(15 * time.Minute), 15},
		{"floors partial minutes", base, base.Add(15*time.Minute + 59*time.Second), 15},
		{"never negative", base, base.Add(-5 * time.Minute), 0},
		{"over an hour", base, base.Add(97 * time.Minute), 97},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CalculateDuration(tc.openedAt, tc.now))
		})
	}
}

func TestDetermineLevel(t *testing.T) {
	thresholds := model.EscalationThresholds{Warning: 10, Alert: 20}

	testCases := []struct {
		name     string
		duration int
		expected model.EscalationLevel
	}{
		{"below warning", 5, model.LevelNone},
		{"one under warning", 9, model.LevelNone},
		{"exactly warning", 10, model.LevelWarning},
		{"between thresholds", 15, model.LevelWarning},
		{"exactly alert", 20, model.LevelAlert},
		{"above alert", 45, model.LevelAlert},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetermineLevel(tc.duration, thresholds))
		})
	}
}

// Level severity must never decrease as duration grows.
func TestDetermineLevelMonotonic(t *testing.T) {
	thresholds := model.EscalationThresholds{Warning: 10, Alert: 20}

	previous := model.LevelNone
	for duration := 0; duration <= 60; duration++ {
		level := DetermineLevel(duration, thresholds)
		assert.GreaterOrEqual(t, level.Rank(), previous.Rank(),
			"level regressed at duration %d", duration)
		previous = level
	}
}

func TestIsHigherEscalation(t *testing.T) {
	assert.True(t, IsHigherEscalation(model.LevelAlert, model.LevelWarning))
	assert.False(t, IsHigherEscalation(model.LevelWarning, model.LevelAlert))
	assert.False(t, IsHigherEscalation(model.LevelWarning, model.LevelWarning))
	assert.True(t, IsHigherEscalation(model.LevelWarning, model.LevelNone))
	assert.True(t, IsHigherEscalation(model.LevelCritical, model.LevelAlert))
	assert.False(t, IsHigherEscalation(model.LevelNone, model.LevelWarning))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", FormatDuration(0))
	assert.Equal(t, "37m", FormatDuration(37))
	assert.Equal(t, "1h 0m", FormatDuration(60))
	assert.Equal(t, "1h 15m", FormatDuration(75))
	assert.Equal(t, "2h 5m", FormatDuration(125))
}
