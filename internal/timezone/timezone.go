package timezone

import (
	"math"
	"strings"
	"time"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
)

const DefaultTimezone = "America/Los_Angeles"

// formatos com offset explícito: o offset prevalece sobre o timezone de origem
var offsetLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-07:00",
}

// formatos "de parede", interpretados no timezone de origem
var wallLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, _ := time.LoadLocation(DefaultTimezone)
	return loc
}

// ===============================
// Normalização
// ===============================

// ParseInZone converte um horário do CRM para um instante UTC.
func ParseInZone(value string, tz string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, httperr.Validationf("invalid_timestamp", "empty timestamp")
	}

	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		return time.Time{}, httperr.Validationf("invalid_timezone", "unknown timezone %q", tz)
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	for _, layout := range wallLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, httperr.Validationf("invalid_timestamp", "malformed timestamp %q", value)
}

// RangeFromDuration converte início (horário do provedor) + duração em minutos.
func RangeFromDuration(value string, minutes int, tz string) (time.Time, time.Time, error) {
	if minutes < 0 {
		return time.Time{}, time.Time{}, httperr.Validationf("invalid_duration", "negative duration %d", minutes)
	}

	start, err := ParseInZone(value, tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return start, start.Add(time.Duration(minutes) * time.Minute), nil
}

func DurationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// FormatInZone formata o instante em RFC3339 no timezone informado.
func FormatInZone(t time.Time, tz string) string {
	return t.In(Location(tz)).Format(time.RFC3339)
}
