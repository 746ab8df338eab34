package appointment

import (
	"context"

	"github.com/BruksfildServices01/meeting-sync/internal/archive"
	"github.com/BruksfildServices01/meeting-sync/internal/crm"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
	"github.com/BruksfildServices01/meeting-sync/internal/usecase/client"
)

type ContactSource interface {
	GetContact(ctx context.Context, contactID, token string) (*crm.Contact, error)
	GetAppointments(ctx context.Context, contactID, token string) ([]crm.Event, error)
}

type ClientResolver interface {
	FindOrCreate(ctx context.Context, p client.Profile) (*models.Client, error)
}

type SnapshotArchiver interface {
	Put(ctx context.Context, snap archive.Snapshot) (string, error)
}

func profileOf(contactID string, c *crm.Contact) client.Profile {
	id := c.ID
	if id == "" {
		id = contactID
	}
	return client.Profile{
		RemoteContactID: id,
		Name:            c.DisplayName(),
		Email:           c.Email,
		Phone:           c.Phone,
	}
}
