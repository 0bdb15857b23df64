package escalation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"hallpass-backend/internal/model"
)

// sendEscalationNotifications fans out one notification per interested
// party: the student, the issuing staff member, staff assigned to the pass's
// current location, and all approved admins for alert and critical levels.
// The rows are persisted first; push delivery is the dispatcher's problem.
// Failures here are logged and never roll back the escalation update.
func (m *Monitor) sendEscalationNotifications(ctx context.Context, pass *model.Pass, level model.EscalationLevel, duration int) {
	now := m.clock.Now()
	title := fmt.Sprintf("Pass Escalation - %s", strings.ToUpper(string(level)))
	elapsed := FormatDuration(duration)

	var notifications []model.Notification
	add := func(userID, message string) {
		notifications = append(notifications, model.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Type:      model.NotifyEscalation,
			Severity:  level,
			Title:     title,
			Message:   message,
			PassID:    pass.ID,
			CreatedAt: now,
		})
	}

	student, err := m.store.GetStudent(ctx, pass.StudentID)
	if err != nil {
		log.Printf("Could not resolve student %s for notification: %v", pass.StudentID, err)
	} else {
		add(student.UserID, fmt.Sprintf("Your pass to %s has been out for %s. Please return promptly.",
			pass.DestinationLocationName, elapsed))
	}

	add(pass.IssuedByID, fmt.Sprintf("Pass issued to %s has been out for %s.", pass.StudentName, elapsed))

	if pass.CurrentLocationID != "" && pass.CurrentLocationID != pass.OriginLocationID {
		location, err := m.store.GetLocation(ctx, pass.CurrentLocationID)
		if err != nil {
			log.Printf("Could not resolve location %s for notification: %v", pass.CurrentLocationID, err)
		} else {
			for _, assignment := range location.StaffAssignments {
				if assignment.StaffID == pass.IssuedByID {
					continue
				}
				add(assignment.StaffID, fmt.Sprintf("%s has been at %s for %s.",
					pass.StudentName, location.Name, elapsed))
			}
		}
	}

	if level == model.LevelAlert || level == model.LevelCritical {
		admins, err := m.store.FindApprovedAdmins(ctx)
		if err != nil {
			log.Printf("Could not resolve admins for notification: %v", err)
		} else {
			for _, admin := range admins {
				add(admin.ID, fmt.Sprintf("Escalation alert: %s has been out for %s.", pass.StudentName, elapsed))
			}
		}
	}

	if len(notifications) == 0 {
		return
	}

	if err := m.store.CreateNotifications(ctx, notifications); err != nil {
		log.Printf("Failed to persist %d notifications for pass %s: %v", len(notifications), pass.ID, err)
	}

	if m.dispatcher != nil {
		m.dispatcher.Dispatch(notifications)
	}
	log.Printf("Sent %d escalation notifications for pass %s", len(notifications), pass.ID)
}
