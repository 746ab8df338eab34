package client

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/client"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type Profile struct {
	RemoteContactID string
	Name            string
	Email           string
	Phone           string
}

type OpportunityInput struct {
	Profile

	Status        string
	Value         float64
	OpportunityID string
}

// ======================================================
// USE CASE
// ======================================================

type Upsert struct {
	repo           domain.Repository
	organizationID uint
	mapper         domain.OpportunityMapper
	log            *zap.Logger
}

func NewUpsert(repo domain.Repository, organizationID uint, log *zap.Logger) *Upsert {
	return &Upsert{
		repo:           repo,
		organizationID: organizationID,
		mapper:         domain.NewOpportunityMapper(),
		log:            logger.OrNop(log),
	}
}

// FindOrCreate devolve o cliente do contato, criando-o se preciso.
// Se outro processo criar no meio do caminho, relê o registro vencedor.
func (uc *Upsert) FindOrCreate(ctx context.Context, p Profile) (*models.Client, error) {
	remoteID := strings.TrimSpace(p.RemoteContactID)
	if remoteID == "" {
		return nil, httperr.Validationf("invalid_contact_id", "empty remote contact id")
	}

	existing, err := uc.repo.FindClientByRemoteID(ctx, remoteID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	c := &models.Client{
		OrganizationID:    uc.organizationID,
		RemoteContactID:   remoteID,
		Name:              strings.TrimSpace(p.Name),
		Email:             strings.TrimSpace(p.Email),
		Phone:             strings.TrimSpace(p.Phone),
		OpportunityStatus: string(domain.OpportunityUnknown),
	}

	created, err := uc.repo.CreateClientIfAbsent(ctx, c)
	if err != nil {
		return nil, err
	}
	if created {
		uc.log.Info("client created",
			zap.Uint("client_id", c.ID),
			zap.String("remote_contact_id", remoteID),
		)
		return c, nil
	}

	winner, err := uc.repo.FindClientByRemoteID(ctx, remoteID)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, fmt.Errorf("client %s vanished after concurrent insert", remoteID)
	}
	return winner, nil
}

// UpsertOpportunity grava o estado da oportunidade do CRM no cliente.
func (uc *Upsert) UpsertOpportunity(ctx context.Context, in OpportunityInput) (*models.Client, error) {
	c, err := uc.FindOrCreate(ctx, in.Profile)
	if err != nil {
		return nil, err
	}

	status := uc.mapper.Map(in.Status)
	value := in.Value
	if value < 0 {
		value = 0
	}

	if err := uc.repo.UpdateOpportunity(ctx, c.ID, status, value, in.OpportunityID); err != nil {
		return nil, err
	}

	c.OpportunityStatus = string(status)
	c.OpportunityValue = value
	c.OpportunityID = in.OpportunityID

	uc.log.Info("opportunity updated",
		zap.Uint("client_id", c.ID),
		zap.String("status", string(status)),
		zap.Float64("value", value),
	)
	return c, nil
}
