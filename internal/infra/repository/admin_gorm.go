package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

// AdminQueries atende as rotas de consulta do painel.
type AdminQueries struct {
	db *gorm.DB
}

func NewAdminQueries(db *gorm.DB) *AdminQueries {
	return &AdminQueries{db: db}
}

type AuditFilter struct {
	OrganizationID uint
	Action         string
	Entity         string
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

func (q *AdminQueries) ClientAppointments(
	ctx context.Context,
	remoteContactID string,
) (*models.Client, []models.Appointment, error) {

	var client models.Client
	err := q.db.WithContext(ctx).
		Where("remote_contact_id = ?", remoteContactID).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, httperr.NotFoundf("client_not_found", "client %s not found", remoteContactID)
	}
	if err != nil {
		return nil, nil, err
	}

	var apps []models.Appointment
	if err := q.db.WithContext(ctx).
		Preload("Meeting").
		Where("client_id = ?", client.ID).
		Order("schedule_start_at ASC").
		Find(&apps).Error; err != nil {
		return nil, nil, err
	}

	return &client, apps, nil
}

func (q *AdminQueries) AuditLogs(
	ctx context.Context,
	f AuditFilter,
) ([]models.AuditLog, int64, error) {

	base := q.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("organization_id = ?", f.OrganizationID)

	if f.Action != "" {
		base = base.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		base = base.Where("entity = ?", f.Entity)
	}
	if f.From != nil {
		base = base.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		base = base.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
