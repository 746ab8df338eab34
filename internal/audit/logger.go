package audit

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(ctx context.Context, ev Event) error {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	row := models.AuditLog{
		OrganizationID: ev.OrganizationID,
		ClientID:       ev.ClientID,
		Action:         ev.Action,
		Entity:         ev.Entity,
		EntityID:       ev.EntityID,
		Metadata:       metaJSON,
	}

	return l.db.WithContext(ctx).Create(&row).Error
}
