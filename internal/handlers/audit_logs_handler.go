package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	infraRepo "github.com/BruksfildServices01/meeting-sync/internal/infra/repository"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type AuditLogQuery interface {
	AuditLogs(ctx context.Context, f infraRepo.AuditFilter) ([]models.AuditLog, int64, error)
}

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	query          AuditLogQuery
	organizationID uint
	timezone       string
}

func NewAuditLogsHandler(query AuditLogQuery, organizationID uint, tz string) *AuditLogsHandler {
	return &AuditLogsHandler{query: query, organizationID: organizationID, timezone: tz}
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	// --------------------------------------------------
	// Filtros opcionais
	// --------------------------------------------------

	f := infraRepo.AuditFilter{
		OrganizationID: h.organizationID,
		Action:         c.Query("action"),
		Entity:         c.Query("entity"),
		Limit:          limit,
		Offset:         (page - 1) * limit,
	}

	if from, ok := parseDay(c.Query("from"), h.timezone); ok {
		f.From = &from
	}
	if to, ok := parseDay(c.Query("to"), h.timezone); ok {
		end := endOfDay(to)
		f.To = &end
	}

	logs, total, err := h.query.AuditLogs(c.Request.Context(), f)
	if err != nil {
		httperr.Internal(c, "audit_list_failed", "Failed to list audit logs.")
		return
	}

	c.JSON(200, gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
		"logs":  logs,
	})
}
