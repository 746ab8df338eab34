package client

import (
	"context"

	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type Repository interface {
	FindClientByRemoteID(
		ctx context.Context,
		remoteContactID string,
	) (*models.Client, error)

	// CreateClientIfAbsent não falha se outro processo criou antes;
	// devolve created=false nesse caso.
	CreateClientIfAbsent(
		ctx context.Context,
		c *models.Client,
	) (bool, error)

	UpdateOpportunity(
		ctx context.Context,
		clientID uint,
		status OpportunityStatus,
		value float64,
		opportunityID string,
	) error
}
