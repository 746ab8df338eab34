package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OrganizationID uint `gorm:"index" json:"organization_id"`

	ClientID uint   `gorm:"uniqueIndex:ux_appointment_client_event,priority:1;not null" json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// nil para ocorrências criadas localmente (séries recorrentes)
	RemoteEventID *string `gorm:"size:64;uniqueIndex:ux_appointment_client_event,priority:2" json:"remote_event_id"`

	Title  string `gorm:"size:255" json:"title"`
	Status string `gorm:"size:20;not null;index" json:"status"`

	ScheduleStartAt time.Time `json:"schedule_start_at"`
	ScheduleEndAt   time.Time `json:"schedule_end_at"`

	NotificationPhone string `gorm:"size:30" json:"notification_phone"`

	MeetingID           *uint    `gorm:"index" json:"meeting_id"`
	Meeting             *Meeting `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"meeting,omitempty"`
	MeetingOccurrenceID string   `gorm:"size:64" json:"meeting_occurrence_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventID retorna o id do evento remoto ou "" para ocorrências locais.
func (a Appointment) EventID() string {
	if a.RemoteEventID == nil {
		return ""
	}
	return *a.RemoteEventID
}
