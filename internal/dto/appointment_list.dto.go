package dto

import (
	"time"

	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type AppointmentListDTO struct {
	ID            uint      `json:"id"`
	RemoteEventID string    `json:"remote_event_id,omitempty"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	MeetingID     *uint     `json:"meeting_id,omitempty"`
	JoinURL       string    `json:"join_url,omitempty"`
	OccurrenceID  string    `json:"occurrence_id,omitempty"`
}

type ClientAppointmentsDTO struct {
	ClientID          uint                 `json:"client_id"`
	RemoteContactID   string               `json:"remote_contact_id"`
	Name              string               `json:"name"`
	OpportunityStatus string               `json:"opportunity_status"`
	Appointments      []AppointmentListDTO `json:"appointments"`
}

func NewAppointmentListDTO(ap models.Appointment) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:            ap.ID,
		RemoteEventID: ap.EventID(),
		Title:         ap.Title,
		StartTime:     ap.ScheduleStartAt,
		EndTime:       ap.ScheduleEndAt,
		Status:        ap.Status,
		MeetingID:     ap.MeetingID,
		OccurrenceID:  ap.MeetingOccurrenceID,
	}
	if ap.Meeting != nil {
		out.JoinURL = ap.Meeting.JoinURL
	}
	return out
}

func NewClientAppointmentsDTO(c *models.Client, apps []models.Appointment) ClientAppointmentsDTO {
	list := make([]AppointmentListDTO, 0, len(apps))
	for _, ap := range apps {
		list = append(list, NewAppointmentListDTO(ap))
	}
	return ClientAppointmentsDTO{
		ClientID:          c.ID,
		RemoteContactID:   c.RemoteContactID,
		Name:              c.Name,
		OpportunityStatus: c.OpportunityStatus,
		Appointments:      list,
	}
}
