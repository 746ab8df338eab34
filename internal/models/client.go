package models

import "time"

// Cliente espelhado de um contato do CRM
type Client struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	OrganizationID uint `gorm:"index" json:"organization_id"`

	RemoteContactID string `gorm:"size:64;uniqueIndex;not null" json:"remote_contact_id"`

	Name  string `gorm:"size:150" json:"name"`
	Phone string `gorm:"size:30" json:"phone"`
	Email string `gorm:"size:150" json:"email"`

	OpportunityStatus string  `gorm:"size:20;default:'UNKNOWN'" json:"opportunity_status"`
	OpportunityValue  float64 `gorm:"default:0" json:"opportunity_value"`
	OpportunityID     string  `gorm:"size:64" json:"opportunity_id"`

	Appointments []Appointment `json:"appointments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
