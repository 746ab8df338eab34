package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/meeting-sync/internal/crm"
	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/meetingprovider"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
)

var (
	t0 = time.Date(2030, 5, 1, 17, 0, 0, 0, time.UTC)
	t1 = t0.Add(24 * time.Hour)
)

func ts(t time.Time) string { return t.Format(time.RFC3339) }

func event(id, status string, start time.Time) crm.Event {
	return crm.Event{
		ID:                id,
		Title:             "Consult " + id,
		StartTime:         ts(start),
		EndTime:           ts(start.Add(30 * time.Minute)),
		AppointmentStatus: status,
	}
}

func testClient() *models.Client {
	return &models.Client{ID: 1, OrganizationID: 1, RemoteContactID: "c-1", Name: "Jane Doe"}
}

func newTestEngine(repo *memRepo, prov *fakeProvisioner) *Engine {
	return NewEngine(EngineConfig{Repo: repo, Provisioner: prov})
}

func seed(repo *memRepo, eventID string, status domain.Status, start time.Time) *models.Appointment {
	id := eventID
	repo.nextAp++
	ap := models.Appointment{
		ID:              repo.nextAp,
		ClientID:        1,
		RemoteEventID:   &id,
		Status:          string(status),
		ScheduleStartAt: start,
		ScheduleEndAt:   start.Add(30 * time.Minute),
	}
	repo.appointments = append(repo.appointments, ap)
	return &repo.appointments[len(repo.appointments)-1]
}

func reconcile(t *testing.T, e *Engine, repo *memRepo, events []crm.Event) *Result {
	t.Helper()
	existing, err := repo.ListAppointmentsForClient(context.Background(), 1)
	require.NoError(t, err)
	res, err := e.Reconcile(context.Background(), ReconcileInput{
		Client:      testClient(),
		Existing:    existing,
		Events:      events,
		NotifyPhone: "+15550001111",
	})
	require.NoError(t, err)
	return res
}

func TestReconcile_BootstrapCreatesScheduledWithMeeting(t *testing.T) {
	repo := newMemRepo()
	prov := &fakeProvisioner{}

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{event("e1", "new", t0)})

	assert.Equal(t, PathBootstrap, res.Path)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.MeetingsProvisioned)
	require.Len(t, repo.appointments, 1)

	ap := repo.appointments[0]
	assert.Equal(t, "e1", ap.EventID())
	assert.Equal(t, string(domain.StatusScheduled), ap.Status)
	require.NotNil(t, ap.MeetingID)
	assert.Equal(t, repo.meetings[0].ID, *ap.MeetingID)
	assert.True(t, ap.ScheduleStartAt.Equal(t0))
	assert.Equal(t, "+15550001111", ap.NotificationPhone)
	assert.Equal(t, []string{"e1"}, prov.refs)
}

func TestReconcile_BootstrapDropsUnmappedAndSkipsMeetingForOthers(t *testing.T) {
	repo := newMemRepo()
	prov := &fakeProvisioner{}

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{
		event("e1", "mystery", t0),
		event("e2", "cancelled", t0),
		event("e3", "showed", t1),
	})

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, prov.calls)
	assert.Nil(t, repo.byEvent("e1"))
	assert.Equal(t, string(domain.StatusUserCancelled), repo.byEvent("e2").Status)
	assert.Nil(t, repo.byEvent("e2").MeetingID)
	assert.Equal(t, string(domain.StatusShowed), repo.byEvent("e3").Status)
}

func TestReconcile_CancellationByAbsenceOnce(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusScheduled, t0)
	e := newTestEngine(repo, &fakeProvisioner{})

	res := reconcile(t, e, repo, nil)
	assert.Equal(t, PathIncremental, res.Path)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, string(domain.StatusUserCancelled), repo.byEvent("e1").Status)
	assert.Len(t, repo.appointments, 1)

	res = reconcile(t, e, repo, nil)
	assert.Zero(t, res.Cancelled)
	assert.Equal(t, string(domain.StatusUserCancelled), repo.byEvent("e1").Status)
}

func TestReconcile_UpdateInPlaceWithoutNewMeeting(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusScheduled, t0)
	prov := &fakeProvisioner{}

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{event("e1", "rescheduled", t1)})

	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.Created)
	assert.Zero(t, prov.calls)
	assert.Empty(t, repo.meetings)

	ap := repo.byEvent("e1")
	assert.True(t, ap.ScheduleStartAt.Equal(t1))
	assert.True(t, ap.ScheduleEndAt.Equal(t1.Add(30*time.Minute)))
	assert.Equal(t, "+15550001111", ap.NotificationPhone)
}

func TestReconcile_ProtectedStatusIsNotUpdated(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusPaused, domain.StatusSucceeded} {
		t.Run(string(status), func(t *testing.T) {
			repo := newMemRepo()
			seed(repo, "e1", status, t0)

			res := reconcile(t, newTestEngine(repo, &fakeProvisioner{}), repo, []crm.Event{event("e1", "showed", t1)})

			assert.Zero(t, res.Updated)
			ap := repo.byEvent("e1")
			assert.Equal(t, string(status), ap.Status)
			assert.True(t, ap.ScheduleStartAt.Equal(t0))
		})
	}
}

func TestReconcile_UnmappedStatusDefaultsToScheduledOnUpdate(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusShowed, t0)
	prov := &fakeProvisioner{}

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{
		event("e1", "mystery", t0),
		event("e2", "mystery", t0),
	})

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Created)
	assert.Equal(t, string(domain.StatusScheduled), repo.byEvent("e1").Status)
	assert.Nil(t, repo.byEvent("e2"))
	assert.Zero(t, prov.calls)
}

func TestReconcile_IncrementalInsertsNewEvents(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusScheduled, t0)
	prov := &fakeProvisioner{}

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{
		event("e1", "confirmed", t0),
		event("e2", "booked", t1),
	})

	assert.Zero(t, res.Updated)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.MeetingsProvisioned)
	require.NotNil(t, repo.byEvent("e2").MeetingID)
}

func TestReconcile_ResyncIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	prov := &fakeProvisioner{}
	e := newTestEngine(repo, prov)
	events := []crm.Event{event("e1", "new", t0), event("e2", "showed", t1)}

	first := reconcile(t, e, repo, events)
	assert.Equal(t, 2, first.Created)
	snapshot := append([]models.Appointment(nil), repo.appointments...)

	second := reconcile(t, e, repo, events)
	assert.Equal(t, PathIncremental, second.Path)
	assert.Zero(t, second.Created)
	assert.Zero(t, second.Updated)
	assert.Zero(t, second.Cancelled)
	assert.Equal(t, 1, prov.calls)
	assert.Equal(t, snapshot, repo.appointments)
}

func TestReconcile_BootstrapAndIncrementalConverge(t *testing.T) {
	repo := newMemRepo()
	e := newTestEngine(repo, &fakeProvisioner{})

	// horário de parede no fuso de origem (PDT, -07:00)
	wall := crm.Event{
		ID:                "e1",
		StartTime:         "2030-05-01 10:00:00",
		EndTime:           "2030-05-01 10:30:00",
		AppointmentStatus: "new",
	}
	reconcile(t, e, repo, []crm.Event{wall})
	assert.True(t, repo.byEvent("e1").ScheduleStartAt.Equal(t0))

	res := reconcile(t, e, repo, []crm.Event{event("e1", "new", t0)})
	assert.Zero(t, res.Updated)
}

func TestReconcile_RollbackOnProvisioningFailure(t *testing.T) {
	repo := newMemRepo()
	prov := &fakeProvisioner{
		err:    httperr.Upstream("meeting_create_failed", errors.New("provider down")),
		failOn: 2,
	}

	_, err := newTestEngine(repo, prov).Reconcile(context.Background(), ReconcileInput{
		Client: testClient(),
		Events: []crm.Event{event("e1", "new", t0), event("e2", "new", t1)},
	})

	require.Error(t, err)
	assert.Equal(t, httperr.KindUpstreamFailure, httperr.KindOf(err))
	assert.Empty(t, repo.appointments)
	assert.Empty(t, repo.meetings)
}

func TestReconcile_RollbackOnWriteFailure(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusScheduled, t0)
	seed(repo, "e2", domain.StatusScheduled, t0)
	repo.updateErr = errors.New("write failed")

	existing, _ := repo.ListAppointmentsForClient(context.Background(), 1)
	_, err := newTestEngine(repo, &fakeProvisioner{}).Reconcile(context.Background(), ReconcileInput{
		Client:   testClient(),
		Existing: existing,
		Events:   []crm.Event{event("e3", "new", t1)},
	})

	require.Error(t, err)
	assert.Len(t, repo.appointments, 2)
	assert.Empty(t, repo.meetings)
}

func TestReconcile_RecurringOccurrencesExpanded(t *testing.T) {
	repo := newMemRepo()
	prov := &fakeProvisioner{occurrences: []meetingprovider.Occurrence{
		{OccurrenceID: "o1", StartTime: ts(t0)},
		{OccurrenceID: "o2", StartTime: ts(t0.Add(7 * 24 * time.Hour))},
		{OccurrenceID: "o3", StartTime: ts(t0.Add(14 * 24 * time.Hour))},
	}}

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{event("e1", "new", t0)})

	assert.Equal(t, 3, res.Created)
	require.Len(t, repo.appointments, 3)

	anchor := repo.byEvent("e1")
	assert.Equal(t, "o1", anchor.MeetingOccurrenceID)

	var local int
	for _, ap := range repo.appointments {
		require.NotNil(t, ap.MeetingID)
		assert.Equal(t, *anchor.MeetingID, *ap.MeetingID)
		if ap.RemoteEventID == nil {
			local++
			assert.Equal(t, string(domain.StatusScheduled), ap.Status)
		}
	}
	assert.Equal(t, 2, local)
}

func TestReconcile_LocalOnlyRowsAreLeftAlone(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusScheduled, t0)
	repo.nextAp++
	repo.appointments = append(repo.appointments, models.Appointment{
		ID:       repo.nextAp,
		ClientID: 1,
		Status:   string(domain.StatusScheduled),
	})

	res := reconcile(t, newTestEngine(repo, &fakeProvisioner{}), repo, nil)

	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, string(domain.StatusScheduled), repo.appointments[1].Status)
}

func TestReconcile_StaleExistingSkipsDuplicateInsert(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusShowed, t0)

	// lista vazia simula outro processo que inseriu depois da leitura
	res, err := newTestEngine(repo, &fakeProvisioner{}).Reconcile(context.Background(), ReconcileInput{
		Client: testClient(),
		Events: []crm.Event{event("e1", "showed", t0)},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, repo.appointments, 1)
}

func TestReconcile_InvalidTimesAreSkipped(t *testing.T) {
	repo := newMemRepo()
	bad := event("e1", "new", t0)
	bad.StartTime = "not-a-time"

	res := reconcile(t, newTestEngine(repo, &fakeProvisioner{}), repo, []crm.Event{bad})
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, repo.appointments)
}

func TestReconcile_EmptyRangeIsSkippedWithoutBlockingOthers(t *testing.T) {
	repo := newMemRepo()
	prov := &fakeProvisioner{}
	zero := event("e2", "new", t1)
	zero.EndTime = zero.StartTime

	res := reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{event("e1", "new", t0), zero})

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, prov.calls)
	assert.True(t, repo.hasEvent(1, "e1"))
	assert.False(t, repo.hasEvent(1, "e2"))
}

func TestReconcile_EmptyRangeDoesNotOverwriteExisting(t *testing.T) {
	repo := newMemRepo()
	seed(repo, "e1", domain.StatusScheduled, t0)
	inverted := event("e1", "confirmed", t1)
	inverted.EndTime = ts(t1.Add(-time.Hour))

	res := reconcile(t, newTestEngine(repo, &fakeProvisioner{}), repo, []crm.Event{inverted, event("e2", "new", t1)})

	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Created)
	assert.True(t, repo.byEvent("e1").ScheduleStartAt.Equal(t0))
}

func TestReconcile_RecurringAnchorUsesFirstOccurrence(t *testing.T) {
	repo := newMemRepo()
	first := t0.Add(2 * time.Hour)
	prov := &fakeProvisioner{occurrences: []meetingprovider.Occurrence{
		{OccurrenceID: "o1", StartTime: ts(first), Duration: 45},
		{OccurrenceID: "o2", StartTime: ts(first.Add(7 * 24 * time.Hour)), Duration: 45},
	}}

	reconcile(t, newTestEngine(repo, prov), repo, []crm.Event{event("e1", "new", t0)})

	anchor := repo.byEvent("e1")
	require.NotNil(t, anchor)
	assert.Equal(t, "o1", anchor.MeetingOccurrenceID)
	assert.True(t, anchor.ScheduleStartAt.Equal(first))
	assert.True(t, anchor.ScheduleEndAt.Equal(first.Add(45*time.Minute)))
}
