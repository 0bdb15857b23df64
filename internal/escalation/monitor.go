package escalation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hallpass-backend/internal/clock"
	"hallpass-backend/internal/model"
	"hallpass-backend/internal/store"
)

// Dispatcher receives structured notifications for delivery. Dispatch is
// fire-and-forget from the monitor's perspective.
type Dispatcher interface {
	Dispatch(notifications []model.Notification)
}

// Result reports the outcome of a single pass check.
type Result struct {
	Updated  bool
	NewLevel model.EscalationLevel
	Duration int
}

// BatchResult aggregates one full sweep over the active passes.
type BatchResult struct {
	Checked   int
	Escalated int
	Errors    int
}

// Stats counts active passes grouped by persisted escalation level.
type Stats struct {
	TotalActive int `json:"totalActive"`
	Warnings    int `json:"warnings"`
	Alerts      int `json:"alerts"`
	Critical    int `json:"critical"`
}

// Monitor periodically re-evaluates all open passes, persists escalation
// level changes and triggers notification dispatch on rising edges.
type Monitor struct {
	store      store.Store
	resolver   *Resolver
	dispatcher Dispatcher
	clock      clock.Clock
	interval   time.Duration
}

// NewMonitor creates an escalation monitor. interval governs the Run loop
// cadence; CheckAllActivePasses can also be driven directly.
func NewMonitor(s store.Store, resolver *Resolver, dispatcher Dispatcher, clk clock.Clock, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		store:      s,
		resolver:   resolver,
		dispatcher: dispatcher,
		clock:      clk,
		interval:   interval,
	}
}

// CheckAndUpdate evaluates one pass. When the computed level differs from
// the persisted one, the escalation fields are written first; notification
// dispatch is best-effort afterwards and only fires on a rising edge.
func (m *Monitor) CheckAndUpdate(ctx context.Context, pass *model.Pass) (Result, error) {
	now := m.clock.Now()
	duration := CalculateDuration(pass.OpenedAt, now)
	thresholds := m.resolver.Resolve(ctx, pass)
	newLevel := DetermineLevel(duration, thresholds)

	if newLevel == pass.EscalationLevel {
		return Result{Updated: false, NewLevel: newLevel, Duration: duration}, nil
	}

	var triggeredAt *time.Time
	if newLevel != model.LevelNone {
		triggeredAt = &now
	}
	if err := m.store.UpdateEscalation(ctx, pass.ID, newLevel, triggeredAt); err != nil {
		return Result{}, err
	}

	if IsHigherEscalation(newLevel, pass.EscalationLevel) {
		if err := m.store.CreateEvent(ctx, &model.PassEvent{
			ID:        uuid.NewString(),
			PassID:    pass.ID,
			StudentID: pass.StudentID,
			ActorID:   "system",
			EventType: model.EventEscalated,
			CreatedAt: now,
		}); err != nil {
			log.Printf("Failed to record escalation event for pass %s: %v", pass.ID, err)
		}
		m.sendEscalationNotifications(ctx, pass, newLevel, duration)
	}

	return Result{Updated: true, NewLevel: newLevel, Duration: duration}, nil
}

// CheckAllActivePasses sweeps every active pass once. A failure on one pass
// is counted and logged but never aborts the batch.
func (m *Monitor) CheckAllActivePasses(ctx context.Context) BatchResult {
	passes, err := m.store.FindAllActivePasses(ctx)
	if err != nil {
		log.Printf("Escalation sweep aborted, could not list active passes: %v", err)
		return BatchResult{Errors: 1}
	}

	var result BatchResult
	result.Checked = len(passes)
	for i := range passes {
		res, err := m.CheckAndUpdate(ctx, &passes[i])
		if err != nil {
			log.Printf("Error checking escalation for pass %s: %v", passes[i].ID, err)
			result.Errors++
			continue
		}
		if res.Updated {
			result.Escalated++
		}
	}
	return result
}

// ClearEscalation resets the escalation fields of a pass. Idempotent.
func (m *Monitor) ClearEscalation(ctx context.Context, passID string) error {
	return m.store.UpdateEscalation(ctx, passID, model.LevelNone, nil)
}

// Stats aggregates currently active passes by persisted escalation level.
func (m *Monitor) Stats(ctx context.Context) (Stats, error) {
	passes, err := m.store.FindAllActivePasses(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{TotalActive: len(passes)}
	for _, pass := range passes {
		switch pass.EscalationLevel {
		case model.LevelWarning:
			stats.Warnings++
		case model.LevelAlert:
			stats.Alerts++
		case model.LevelCritical:
			stats.Critical++
		}
	}
	return stats, nil
}

// Run executes escalation sweeps on a fixed interval until ctx is
// cancelled. Sweeps run serially: a slow sweep delays the next tick rather
// than overlapping it.
func (m *Monitor) Run(ctx context.Context) {
	log.Println("Starting escalation monitor...")

	m.sweep(ctx)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Escalation monitor shutting down.")
			return
		case <-timer.C:
			m.sweep(ctx)
			timer.Reset(m.interval)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	result := m.CheckAllActivePasses(ctx)
	log.Printf("Escalation check: %d passes checked, %d escalated, %d errors",
		result.Checked, result.Escalated, result.Errors)
}

// Start launches Run in the background and returns an idempotent stop
// function that cancels the loop.
func (m *Monitor) Start(ctx context.Context) (stop func()) {
	runCtx, cancel := context.WithCancel(ctx)
	go m.Run(runCtx)
	var once sync.Once
	return func() {
		once.Do(cancel)
	}
}
