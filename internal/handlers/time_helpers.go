package handlers

import (
	"time"

	"github.com/BruksfildServices01/meeting-sync/internal/timezone"
)

// parseDay interpreta YYYY-MM-DD como meia-noite no timezone informado.
func parseDay(value string, tz string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", value, timezone.Location(tz))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// endOfDay devolve o último instante do dia de t.
func endOfDay(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Nanosecond)
}
