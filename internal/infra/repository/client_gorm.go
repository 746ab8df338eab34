package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/client"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type ClientGormRepository struct {
	db *gorm.DB
}

func NewClientGormRepository(db *gorm.DB) *ClientGormRepository {
	return &ClientGormRepository{db: db}
}

func (r *ClientGormRepository) FindClientByRemoteID(
	ctx context.Context,
	remoteContactID string,
) (*models.Client, error) {

	var client models.Client
	err := r.db.WithContext(ctx).
		Where("remote_contact_id = ?", remoteContactID).
		First(&client).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientGormRepository) CreateClientIfAbsent(
	ctx context.Context,
	client *models.Client,
) (bool, error) {

	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "remote_contact_id"}},
			DoNothing: true,
		}).
		Create(client)

	if res.Error != nil {
		if httperr.IsUniqueViolation(res.Error) {
			return false, httperr.Conflict("client_conflict", res.Error)
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ClientGormRepository) UpdateOpportunity(
	ctx context.Context,
	clientID uint,
	status domain.OpportunityStatus,
	value float64,
	opportunityID string,
) error {

	res := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ?", clientID).
		Updates(map[string]any{
			"opportunity_status": string(status),
			"opportunity_value":  value,
			"opportunity_id":     opportunityID,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.NotFoundf("client_not_found", "client %d not found", clientID)
	}
	return nil
}

// Compile-time check
var _ domain.Repository = (*ClientGormRepository)(nil)
