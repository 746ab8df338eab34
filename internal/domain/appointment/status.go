package appointment

import (
	"strings"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled     Status = "SCHEDULED"
	StatusUserCancelled Status = "USER_CANCELLED"
	StatusNoShow        Status = "NO_SHOW"
	StatusShowed        Status = "SHOWED"
	StatusCanceled      Status = "CANCELED"
	StatusPaused        Status = "PAUSED"
	StatusSucceeded     Status = "SUCCEEDED"
)

// ===============================
// Status Mapper (CRM -> local)
// ===============================

// StatusMapper traduz o status textual do CRM. A tabela é fixa e privada.
type StatusMapper struct {
	table map[string]Status
}

func NewStatusMapper() StatusMapper {
	return StatusMapper{
		table: map[string]Status{
			"new":         StatusScheduled,
			"confirmed":   StatusScheduled,
			"booked":      StatusScheduled,
			"rescheduled": StatusScheduled,
			"cancelled":   StatusUserCancelled,
			"noshow":      StatusNoShow,
			"showed":      StatusShowed,
		},
	}
}

// Map devolve ok=false para status desconhecido; usado na criação,
// onde eventos não mapeados são descartados.
func (m StatusMapper) Map(raw string) (Status, bool) {
	s, ok := m.table[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

// MapOrScheduled é usado na atualização: status desconhecido vira SCHEDULED.
func (m StatusMapper) MapOrScheduled(raw string) Status {
	if s, ok := m.Map(raw); ok {
		return s
	}
	return StatusScheduled
}

// ===============================
// Validations
// ===============================

// IsProtected: agendamentos PAUSED ou SUCCEEDED não são alterados pela sync.
func IsProtected(current Status) bool {
	switch current {
	case StatusPaused, StatusSucceeded:
		return true
	}
	return false
}

// CanBook define se o último evento do contato pode gerar reunião.
func CanBook(raw string) error {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "new", "confirmed", "booked":
		return nil
	}
	return httperr.NotFoundf("appointment_not_found", "latest event status %q is not bookable", raw)
}

func InitialStatus() Status {
	return StatusScheduled
}
