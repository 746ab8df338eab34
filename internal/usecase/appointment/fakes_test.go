package appointment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/BruksfildServices01/meeting-sync/internal/archive"
	"github.com/BruksfildServices01/meeting-sync/internal/crm"
	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/meetingprovider"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
	"github.com/BruksfildServices01/meeting-sync/internal/timezone"
	"github.com/BruksfildServices01/meeting-sync/internal/usecase/client"
	"github.com/BruksfildServices01/meeting-sync/internal/usecase/meeting"
)

// ======================================================
// memRepo: repositório em memória com rollback por snapshot
// ======================================================

type memRepo struct {
	mu sync.Mutex

	appointments []models.Appointment
	meetings     []models.Meeting
	nextAp       uint
	nextMeeting  uint

	updateErr error
	txCount   int
}

func newMemRepo() *memRepo {
	return &memRepo{}
}

func (r *memRepo) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	r.mu.Lock()
	r.txCount++
	aps := append([]models.Appointment(nil), r.appointments...)
	ms := append([]models.Meeting(nil), r.meetings...)
	nextAp, nextMeeting := r.nextAp, r.nextMeeting
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.appointments, r.meetings = aps, ms
		r.nextAp, r.nextMeeting = nextAp, nextMeeting
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memRepo) CreateMeeting(_ context.Context, m *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMeeting++
	m.ID = r.nextMeeting
	r.meetings = append(r.meetings, *m)
	return nil
}

func (r *memRepo) ListAppointmentsForClient(_ context.Context, clientID uint) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, ap := range r.appointments {
		if ap.ClientID == clientID {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) FindAppointmentByEvent(_ context.Context, clientID uint, eventID string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ap := range r.appointments {
		if ap.ClientID == clientID && ap.EventID() == eventID && eventID != "" {
			cp := ap
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	for i := range r.appointments {
		if r.appointments[i].ID == ap.ID {
			r.appointments[i] = *ap
			return nil
		}
	}
	return errors.New("appointment not found")
}

func (r *memRepo) UpdateAppointmentStatus(_ context.Context, id uint, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	for i := range r.appointments {
		if r.appointments[i].ID == id {
			r.appointments[i].Status = string(status)
			return nil
		}
	}
	return errors.New("appointment not found")
}

func (r *memRepo) CancelScheduledExcept(_ context.Context, clientID, exceptID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.appointments {
		ap := &r.appointments[i]
		if ap.ClientID == clientID && ap.ID != exceptID && ap.Status == string(domain.StatusScheduled) {
			ap.Status = string(domain.StatusCanceled)
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CreateAppointments(_ context.Context, aps []models.Appointment, skipDuplicates bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range aps {
		if id := aps[i].EventID(); id != "" && r.hasEvent(aps[i].ClientID, id) {
			if skipDuplicates {
				continue
			}
			return n, httperr.Conflict("appointment_conflict", errors.New("duplicate remote event"))
		}
		r.nextAp++
		aps[i].ID = r.nextAp
		r.appointments = append(r.appointments, aps[i])
		n++
	}
	return n, nil
}

func (r *memRepo) hasEvent(clientID uint, eventID string) bool {
	for _, ap := range r.appointments {
		if ap.ClientID == clientID && ap.EventID() == eventID {
			return true
		}
	}
	return false
}

func (r *memRepo) byEvent(eventID string) *models.Appointment {
	for i := range r.appointments {
		if r.appointments[i].EventID() == eventID {
			return &r.appointments[i]
		}
	}
	return nil
}

// ======================================================
// fakeProvisioner
// ======================================================

type fakeProvisioner struct {
	err         error
	failOn      int
	occurrences []meetingprovider.Occurrence

	calls int
	refs  []string
}

func (f *fakeProvisioner) Provision(
	ctx context.Context,
	store domain.MeetingStore,
	start time.Time,
	end time.Time,
	_ *models.Client,
	opts ...meeting.Option,
) (*meeting.Provisioned, error) {
	f.calls++
	var o meeting.Options
	for _, fn := range opts {
		fn(&o)
	}
	f.refs = append(f.refs, o.Reference)
	if f.err != nil && (f.failOn == 0 || f.calls == f.failOn) {
		return nil, f.err
	}

	row := &models.Meeting{ProviderMeetingID: int64(1000 + f.calls), Timezone: "UTC"}
	if err := store.CreateMeeting(ctx, row); err != nil {
		return nil, err
	}

	resp := &meetingprovider.Meeting{
		ID:        row.ProviderMeetingID,
		Type:      meetingprovider.TypeScheduled,
		Timezone:  "UTC",
		StartTime: start.UTC().Format(time.RFC3339),
		Duration:  timezone.DurationMinutes(start, end),
	}
	if len(f.occurrences) > 0 {
		resp.Type = meetingprovider.TypeRecurring
		resp.Occurrences = f.occurrences
	}
	return &meeting.Provisioned{Meeting: row, Response: resp}, nil
}

// ======================================================
// fakeCRM / fakeClients / fakeArchive
// ======================================================

type fakeCRM struct {
	contact    *crm.Contact
	events     []crm.Event
	contactErr error
	eventsErr  error

	tokens []string
}

func (f *fakeCRM) GetContact(_ context.Context, _ string, token string) (*crm.Contact, error) {
	f.tokens = append(f.tokens, token)
	if f.contactErr != nil {
		return nil, f.contactErr
	}
	return f.contact, nil
}

func (f *fakeCRM) GetAppointments(_ context.Context, _ string, token string) ([]crm.Event, error) {
	f.tokens = append(f.tokens, token)
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

type fakeClients struct {
	clients map[string]*models.Client
	nextID  uint
}

func (f *fakeClients) FindOrCreate(_ context.Context, p client.Profile) (*models.Client, error) {
	if f.clients == nil {
		f.clients = map[string]*models.Client{}
	}
	if c, ok := f.clients[p.RemoteContactID]; ok {
		return c, nil
	}
	f.nextID++
	c := &models.Client{ID: f.nextID, OrganizationID: 1, RemoteContactID: p.RemoteContactID, Name: p.Name, Email: p.Email}
	f.clients[p.RemoteContactID] = c
	return c, nil
}

type fakeArchive struct {
	keys []string
	err  error
}

func (f *fakeArchive) Put(_ context.Context, snap archive.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := "snapshots/" + snap.ContactID
	f.keys = append(f.keys, key)
	return key, nil
}
