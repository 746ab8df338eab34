package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/httpresp"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
	ucAppointment "github.com/BruksfildServices01/meeting-sync/internal/usecase/appointment"
	ucClient "github.com/BruksfildServices01/meeting-sync/internal/usecase/client"
)

// ======================================================
// PORTS
// ======================================================

type ContactSyncer interface {
	Execute(ctx context.Context, in ucAppointment.SyncInput) (*ucAppointment.Result, error)
}

type LatestProvisioner interface {
	Execute(ctx context.Context, contactID string) (*ucAppointment.ProvisionResult, error)
}

type OpportunityUpserter interface {
	UpsertOpportunity(ctx context.Context, in ucClient.OpportunityInput) (*models.Client, error)
}

// ======================================================
// HANDLER
// ======================================================

type GoHighLevelHandler struct {
	sync        ContactSyncer
	provision   LatestProvisioner
	opportunity OpportunityUpserter
	log         *zap.Logger
}

func NewGoHighLevelHandler(
	sync ContactSyncer,
	provision LatestProvisioner,
	opportunity OpportunityUpserter,
	log *zap.Logger,
) *GoHighLevelHandler {
	return &GoHighLevelHandler{
		sync:        sync,
		provision:   provision,
		opportunity: opportunity,
		log:         logger.OrNop(log),
	}
}

// ======================================================
// REQUESTS
// ======================================================

type AppointmentCreatedRequest struct {
	ContactID string `json:"contact_id" binding:"required"`
}

type AppointmentUpdatedRequest struct {
	ContactID  string `json:"contact_id" binding:"required"`
	CustomData struct {
		Token       string `json:"token"`
		NotifyPhone string `json:"notifyPhone"`
	} `json:"customData"`
}

type OpportunityStatusRequest struct {
	ContactID string `json:"contact_id" binding:"required"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Status    string `json:"status"`
	LeadValue any    `json:"lead_value"`
	ID        string `json:"id"`
}

// ======================================================
// APPOINTMENT CREATED
// ======================================================

func (h *GoHighLevelHandler) AppointmentCreated(c *gin.Context) {
	var req AppointmentCreatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "contact_id is required.")
		return
	}

	out, err := h.provision.Execute(c.Request.Context(), req.ContactID)
	if err != nil {
		h.log.Warn("appointment webhook failed", zap.String("contact_id", req.ContactID), zap.Error(err))
		writeError(c, err, "Failed to schedule meeting.")
		return
	}

	if out.Status == ucAppointment.ProvisionAlreadyScheduled {
		httpresp.OK(c, out)
		return
	}
	httpresp.Created(c, out)
}

// ======================================================
// APPOINTMENT UPDATED
// ======================================================

func (h *GoHighLevelHandler) AppointmentUpdated(c *gin.Context) {
	var req AppointmentUpdatedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "contact_id is required.")
		return
	}

	res, err := h.sync.Execute(c.Request.Context(), ucAppointment.SyncInput{
		ContactID:   req.ContactID,
		Token:       req.CustomData.Token,
		NotifyPhone: req.CustomData.NotifyPhone,
	})
	if err != nil {
		h.log.Warn("appointment update webhook failed", zap.String("contact_id", req.ContactID), zap.Error(err))
		writeError(c, err, "Failed to sync appointments.")
		return
	}

	httpresp.OK(c, res)
}

// ======================================================
// OPPORTUNITY STATUS
// ======================================================

func (h *GoHighLevelHandler) OpportunityStatus(c *gin.Context) {
	var req OpportunityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "contact_id is required.")
		return
	}

	client, err := h.opportunity.UpsertOpportunity(c.Request.Context(), ucClient.OpportunityInput{
		Profile: ucClient.Profile{
			RemoteContactID: req.ContactID,
			Name:            req.FullName,
			Email:           req.Email,
			Phone:           req.Phone,
		},
		Status:        req.Status,
		Value:         parseAmount(req.LeadValue),
		OpportunityID: req.ID,
	})
	if err != nil {
		h.log.Warn("opportunity webhook failed", zap.String("contact_id", req.ContactID), zap.Error(err))
		writeError(c, err, "Failed to update opportunity.")
		return
	}

	httpresp.OK(c, gin.H{
		"client_id":          client.ID,
		"opportunity_status": client.OpportunityStatus,
		"opportunity_value":  client.OpportunityValue,
	})
}

// o CRM envia lead_value como número ou texto ("1,500.00")
func parseAmount(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		clean := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		clean = strings.TrimPrefix(clean, "$")
		if f, err := strconv.ParseFloat(clean, 64); err == nil {
			return f
		}
	}
	return 0
}
