package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hallpass-backend/internal/clock"
	"hallpass-backend/internal/model"
	"hallpass-backend/internal/store"
)

func TestMonitorEscalationSweep(t *testing.T) {
	gormDB := newTestDB(t)
	appStore := store.NewGormStore(gormDB)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base)
	dispatcher := &fakeDispatcher{}

	require.NoError(t, gormDB.Create(&model.Student{
		ID: "stu-1", UserID: "user-stu-1", FirstName: "Alex", LastName: "Rivera",
	}).Error)
	require.NoError(t, gormDB.Create(&model.Location{
		ID: "lib", Name: "Library", Type: model.LocationLibrary, IsCheckInEligible: true,
		StaffAssignments: []model.StaffAssignment{
			{StaffID: "staff-2", StaffName: "Mr. Okafor", IsPrimary: true},
		},
	}).Error)
	require.NoError(t, gormDB.Create(&model.User{
		ID: "admin-1", Email: "admin@school.test", DisplayName: "Principal Vance",
		Role: model.RoleAdmin, Status: model.UserApproved,
	}).Error)

	pass := testPass("stu-1", "lib", base)
	require.NoError(t, gormDB.Create(pass).Error)

	resolver := NewResolver(appStore, model.EscalationThresholds{Warning: 10, Alert: 20})
	monitor := NewMonitor(appStore, resolver, dispatcher, clk, time.Minute)
	ctx := context.Background()

	// Fresh pass, nothing to do.
	result := monitor.CheckAllActivePasses(ctx)
	assert.Equal(t, BatchResult{Checked: 1}, result)
	assert.Equal(t, 0, dispatcher.count())

	// Crossing the warning threshold escalates and notifies the student,
	// the issuer and the staff at the current location.
	clk.Advance(15 * time.Minute)
	result = monitor.CheckAllActivePasses(ctx)
	assert.Equal(t, BatchResult{Checked: 1, Escalated: 1}, result)
	assert.Equal(t, 3, dispatcher.count())

	var reloaded model.Pass
	require.NoError(t, gormDB.First(&reloaded, "id = ?", pass.ID).Error)
	assert.Equal(t, model.LevelWarning, reloaded.EscalationLevel)
	require.NotNil(t, reloaded.EscalationTriggeredAt)
	assert.Equal(t, base.Add(15*time.Minute), reloaded.EscalationTriggeredAt.UTC())

	var persisted []model.Notification
	require.NoError(t, gormDB.Where("pass_id = ?", pass.ID).Find(&persisted).Error)
	assert.Len(t, persisted, 3)
	recipients := make(map[string]bool)
	for _, n := range persisted {
		recipients[n.UserID] = true
		assert.Equal(t, model.LevelWarning, n.Severity)
		assert.Equal(t, "Pass Escalation - WARNING", n.Title)
	}
	assert.True(t, recipients["user-stu-1"])
	assert.True(t, recipients["staff-1"])
	assert.True(t, recipients["staff-2"])

	// Same level on the next sweep is a no-op.
	result = monitor.CheckAllActivePasses(ctx)
	assert.Equal(t, BatchResult{Checked: 1}, result)
	assert.Equal(t, 3, dispatcher.count())

	// Crossing the alert threshold escalates again and now includes admins.
	clk.Advance(10 * time.Minute)
	result = monitor.CheckAllActivePasses(ctx)
	assert.Equal(t, BatchResult{Checked: 1, Escalated: 1}, result)
	assert.Equal(t, 7, dispatcher.count())

	require.NoError(t, gormDB.First(&reloaded, "id = ?", pass.ID).Error)
	assert.Equal(t, model.LevelAlert, reloaded.EscalationLevel)

	var events []model.PassEvent
	require.NoError(t, gormDB.Where("pass_id = ? AND event_type = ?", pass.ID, model.EventEscalated).
		Find(&events).Error)
	assert.Len(t, events, 2)
}

// A lowered level (student thresholds raised mid-pass) is persisted but
// must not trigger notifications.
func TestMonitorDowngradeDoesNotNotify(t *testing.T) {
	gormDB := newTestDB(t)
	appStore := store.NewGormStore(gormDB)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base.Add(15 * time.Minute))
	dispatcher := &fakeDispatcher{}

	pass := testPass("stu-1", "lib", base)
	pass.EscalationLevel = model.LevelAlert
	triggered := base.Add(12 * time.Minute)
	pass.EscalationTriggeredAt = &triggered
	require.NoError(t, gormDB.Create(pass).Error)

	resolver := NewResolver(appStore, model.EscalationThresholds{Warning: 30, Alert: 60})
	monitor := NewMonitor(appStore, resolver, dispatcher, clk, time.Minute)

	result, err := monitor.CheckAndUpdate(context.Background(), pass)
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.Equal(t, model.LevelNone, result.NewLevel)
	assert.Equal(t, 0, dispatcher.count())

	var reloaded model.Pass
	require.NoError(t, gormDB.First(&reloaded, "id = ?", pass.ID).Error)
	assert.Equal(t, model.LevelNone, reloaded.EscalationLevel)
	assert.Nil(t, reloaded.EscalationTriggeredAt)
}

func TestClearEscalationIdempotent(t *testing.T) {
	gormDB := newTestDB(t)
	appStore := store.NewGormStore(gormDB)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(base)

	pass := testPass("stu-1", "lib", base)
	pass.EscalationLevel = model.LevelWarning
	triggered := base.Add(10 * time.Minute)
	pass.EscalationTriggeredAt = &triggered
	require.NoError(t, gormDB.Create(pass).Error)

	resolver := NewResolver(appStore, model.EscalationThresholds{Warning: 10, Alert: 20})
	monitor := NewMonitor(appStore, resolver, &fakeDispatcher{}, clk, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, monitor.ClearEscalation(ctx, pass.ID))

		var reloaded model.Pass
		require.NoError(t, gormDB.First(&reloaded, "id = ?", pass.ID).Error)
		assert.Equal(t, model.LevelNone, reloaded.EscalationLevel)
		assert.Nil(t, reloaded.EscalationTriggeredAt)
	}
}

func TestMonitorStats(t *testing.T) {
	gormDB := newTestDB(t)
	appStore := store.NewGormStore(gormDB)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	levels := []model.EscalationLevel{
		model.LevelNone, model.LevelNone, model.LevelWarning, model.LevelAlert, model.LevelAlert,
	}
	for i, level := range levels {
		pass := testPass("stu-"+string(rune('a'+i)), "lib", base)
		pass.EscalationLevel = level
		require.NoError(t, gormDB.Create(pass).Error)
	}
	closed := testPass("stu-z", "lib", base)
	closed.Status = model.StatusClosed
	closed.EscalationLevel = model.LevelAlert
	require.NoError(t, gormDB.Create(closed).Error)

	resolver := NewResolver(appStore, model.EscalationThresholds{Warning: 10, Alert: 20})
	monitor := NewMonitor(appStore, resolver, &fakeDispatcher{}, clock.NewFake(base), time.Minute)

	stats, err := monitor.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalActive: 5, Warnings: 1, Alerts: 2}, stats)
}
