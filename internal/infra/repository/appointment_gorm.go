package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

func (r *AppointmentGormRepository) Transaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx})
	})
}

// --------------------------------------------------
// Meeting
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateMeeting(
	ctx context.Context,
	m *models.Meeting,
) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// --------------------------------------------------
// Appointment (read)
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointmentsForClient(
	ctx context.Context,
	clientID uint,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) FindAppointmentByEvent(
	ctx context.Context,
	clientID uint,
	remoteEventID string,
) (*models.Appointment, error) {

	var ap models.Appointment
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND remote_event_id = ?", clientID, remoteEventID).
		First(&ap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ap, nil
}

// --------------------------------------------------
// Appointment (write)
// --------------------------------------------------

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {

	err := r.db.WithContext(ctx).
		Model(ap).
		Omit(clause.Associations).
		Select(
			"title",
			"status",
			"schedule_start_at",
			"schedule_end_at",
			"notification_phone",
			"meeting_id",
			"meeting_occurrence_id",
		).
		Updates(ap).Error

	return classify(err)
}

func (r *AppointmentGormRepository) UpdateAppointmentStatus(
	ctx context.Context,
	appointmentID uint,
	status domain.Status,
) error {
	return r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", appointmentID).
		Update("status", string(status)).Error
}

func (r *AppointmentGormRepository) CancelScheduledExcept(
	ctx context.Context,
	clientID uint,
	exceptID uint,
) (int64, error) {

	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where(
			"client_id = ? AND status = ? AND id <> ?",
			clientID,
			string(domain.StatusScheduled),
			exceptID,
		).
		Update("status", string(domain.StatusCanceled))

	return res.RowsAffected, res.Error
}

func (r *AppointmentGormRepository) CreateAppointments(
	ctx context.Context,
	aps []models.Appointment,
	skipDuplicates bool,
) (int64, error) {

	if len(aps) == 0 {
		return 0, nil
	}

	q := r.db.WithContext(ctx).Omit(clause.Associations)
	if skipDuplicates {
		q = q.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}, {Name: "remote_event_id"}},
			DoNothing: true,
		})
	}

	res := q.Create(&aps)
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func classify(err error) error {
	if err != nil && httperr.IsUniqueViolation(err) {
		return httperr.Conflict("appointment_conflict", err)
	}
	return err
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
