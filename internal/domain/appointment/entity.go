package appointment

import (
	"time"

	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// CancelByAbsence marca como USER_CANCELLED; devolve false se já estava.
func CancelByAbsence(ap *models.Appointment) bool {
	if Status(ap.Status) == StatusUserCancelled {
		return false
	}
	ap.Status = string(StatusUserCancelled)
	return true
}

// Changes descreve a atualização in-place vinda do CRM.
type Changes struct {
	Status            Status
	StartAt           time.Time
	EndAt             time.Time
	NotificationPhone string
}

// NeedsUpdate compara status e horários com o registro atual.
func NeedsUpdate(ap *models.Appointment, ch Changes) bool {
	return Status(ap.Status) != ch.Status ||
		!ap.ScheduleStartAt.Equal(ch.StartAt) ||
		!ap.ScheduleEndAt.Equal(ch.EndAt)
}

// Apply aplica as mudanças, exceto em status protegidos.
func Apply(ap *models.Appointment, ch Changes) bool {
	if !NeedsUpdate(ap, ch) || IsProtected(Status(ap.Status)) {
		return false
	}

	ap.Status = string(ch.Status)
	ap.ScheduleStartAt = ch.StartAt
	ap.ScheduleEndAt = ch.EndAt
	ap.NotificationPhone = ch.NotificationPhone
	return true
}
