package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

func TestStatusMapper_DocumentedValues(t *testing.T) {
	m := NewStatusMapper()

	cases := map[string]Status{
		"new":         StatusScheduled,
		"confirmed":   StatusScheduled,
		"booked":      StatusScheduled,
		"rescheduled": StatusScheduled,
		"cancelled":   StatusUserCancelled,
		"noshow":      StatusNoShow,
		"showed":      StatusShowed,
		"  Confirmed": StatusScheduled,
		"NOSHOW":      StatusNoShow,
	}

	for raw, want := range cases {
		got, ok := m.Map(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
}

// Asymmetry kept on purpose: creation drops unknown statuses while
// update defaults them to SCHEDULED.
func TestStatusMapper_UnmappedAsymmetry(t *testing.T) {
	m := NewStatusMapper()

	for _, raw := range []string{"", "invalid", "canceled", "no_show", "pending"} {
		_, ok := m.Map(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, StatusScheduled, m.MapOrScheduled(raw), raw)
	}

	assert.Equal(t, StatusNoShow, m.MapOrScheduled("noshow"))
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected(StatusPaused))
	assert.True(t, IsProtected(StatusSucceeded))

	for _, s := range []Status{StatusScheduled, StatusUserCancelled, StatusNoShow, StatusShowed, StatusCanceled} {
		assert.False(t, IsProtected(s), s)
	}
}

func TestCanBook(t *testing.T) {
	assert.NoError(t, CanBook("Confirmed"))
	assert.NoError(t, CanBook("new"))
	assert.NoError(t, CanBook("booked"))

	err := CanBook("rescheduled")
	assert.Equal(t, httperr.KindNotFound, httperr.KindOf(err))
}

func TestApply_ProtectedStatusIsKept(t *testing.T) {
	start := time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC)
	ap := &models.Appointment{Status: string(StatusPaused), ScheduleStartAt: start, ScheduleEndAt: start.Add(time.Hour)}

	changed := Apply(ap, Changes{
		Status:  StatusScheduled,
		StartAt: start.Add(24 * time.Hour),
		EndAt:   start.Add(25 * time.Hour),
	})

	assert.False(t, changed)
	assert.Equal(t, string(StatusPaused), ap.Status)
	assert.Equal(t, start, ap.ScheduleStartAt)
}

func TestApply_NoDiffNoWrite(t *testing.T) {
	start := time.Date(2025, 2, 1, 18, 0, 0, 0, time.UTC)
	ap := &models.Appointment{Status: string(StatusScheduled), ScheduleStartAt: start, ScheduleEndAt: start.Add(time.Hour)}

	assert.False(t, Apply(ap, Changes{Status: StatusScheduled, StartAt: start, EndAt: start.Add(time.Hour), NotificationPhone: "+1555"}))
	assert.Empty(t, ap.NotificationPhone)
}

func TestCancelByAbsence_OnlyOnce(t *testing.T) {
	ap := &models.Appointment{Status: string(StatusScheduled)}

	assert.True(t, CancelByAbsence(ap))
	assert.False(t, CancelByAbsence(ap))
	assert.Equal(t, string(StatusUserCancelled), ap.Status)
}
