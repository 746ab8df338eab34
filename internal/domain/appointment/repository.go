package appointment

import (
	"context"

	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

// MeetingStore é o que o provisionamento precisa para persistir a reunião.
type MeetingStore interface {
	CreateMeeting(
		ctx context.Context,
		m *models.Meeting,
	) error
}

type Repository interface {
	MeetingStore

	// -------- Transaction --------
	Transaction(
		ctx context.Context,
		fn func(tx Repository) error,
	) error

	// -------- Appointment (read) --------
	ListAppointmentsForClient(
		ctx context.Context,
		clientID uint,
	) ([]models.Appointment, error)

	FindAppointmentByEvent(
		ctx context.Context,
		clientID uint,
		remoteEventID string,
	) (*models.Appointment, error)

	// -------- Appointment (write) --------
	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	UpdateAppointmentStatus(
		ctx context.Context,
		appointmentID uint,
		status Status,
	) error

	// CancelScheduledExcept marca CANCELED os SCHEDULED do cliente,
	// exceto o agendamento informado (0 = nenhum).
	CancelScheduledExcept(
		ctx context.Context,
		clientID uint,
		exceptID uint,
	) (int64, error)

	// CreateAppointments insere em lote; skipDuplicates ignora conflitos em
	// (client_id, remote_event_id).
	CreateAppointments(
		ctx context.Context,
		aps []models.Appointment,
		skipDuplicates bool,
	) (int64, error)
}
