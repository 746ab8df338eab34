package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/meeting-sync/internal/dto"
	"github.com/BruksfildServices01/meeting-sync/internal/httpresp"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type ClientAppointmentsQuery interface {
	ClientAppointments(ctx context.Context, remoteContactID string) (*models.Client, []models.Appointment, error)
}

type ClientAppointmentsHandler struct {
	query ClientAppointmentsQuery
}

func NewClientAppointmentsHandler(query ClientAppointmentsQuery) *ClientAppointmentsHandler {
	return &ClientAppointmentsHandler{query: query}
}

// Get lista os agendamentos locais do contato com as reuniões vinculadas.
func (h *ClientAppointmentsHandler) Get(c *gin.Context) {
	client, apps, err := h.query.ClientAppointments(c.Request.Context(), c.Param("contactId"))
	if err != nil {
		writeError(c, err, "Failed to load appointments.")
		return
	}

	if c.Query("view") == "list" {
		list := make([]dto.AppointmentListDTO, 0, len(apps))
		for _, ap := range apps {
			list = append(list, dto.NewAppointmentListDTO(ap))
		}
		httpresp.List(c, list)
		return
	}

	c.JSON(http.StatusOK, dto.NewClientAppointmentsDTO(client, apps))
}
