package models

import "time"

// Meeting é imutável depois de criado pelo provisionamento.
type Meeting struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ProviderMeetingID int64  `gorm:"index;not null" json:"provider_meeting_id"`
	Password          string `gorm:"size:64" json:"-"`
	Description       string `gorm:"size:255" json:"description,omitempty"`
	Topic             string `gorm:"size:255" json:"topic"`
	Timezone          string `gorm:"size:64" json:"timezone"`
	StartURL          string `gorm:"type:text" json:"-"`
	JoinURL           string `gorm:"type:text" json:"join_url"`

	Recurring      bool       `gorm:"default:false" json:"recurring"`
	RepeatInterval *int       `json:"repeat_interval,omitempty"`
	EndAfter       *int       `json:"end_after,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`

	// JSON com a lista de ocorrências devolvida pelo provedor
	Occurrences string `gorm:"type:text" json:"occurrences,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
