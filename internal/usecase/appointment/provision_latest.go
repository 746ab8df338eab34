package appointment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/audit"
	"github.com/BruksfildServices01/meeting-sync/internal/crm"
	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/metrics"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
	"github.com/BruksfildServices01/meeting-sync/internal/timezone"
	"github.com/BruksfildServices01/meeting-sync/internal/usecase/meeting"
)

const (
	TriggerAppointmentCreated = "appointment_created"

	ProvisionScheduled        = "scheduled"
	ProvisionAlreadyScheduled = "already_scheduled"
)

// ======================================================
// OUTPUT
// ======================================================

type ProvisionResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	AppointmentID uint   `json:"appointment_id"`
	MeetingID     uint   `json:"meeting_id"`
	Occurrences   int    `json:"occurrences"`
	Cancelled     int64  `json:"cancelled"`
}

// ======================================================
// USE CASE
// ======================================================

type ProvisionLatest struct {
	crm         ContactSource
	clients     ClientResolver
	repo        domain.Repository
	provisioner MeetingProvisioner
	audit       *audit.Dispatcher
	metrics     *metrics.SyncMetrics
	log         *zap.Logger
	timezone    string
	timeout     time.Duration
	now         func() time.Time
}

type ProvisionLatestConfig struct {
	CRM         ContactSource
	Clients     ClientResolver
	Repo        domain.Repository
	Provisioner MeetingProvisioner
	Audit       *audit.Dispatcher
	Metrics     *metrics.SyncMetrics
	Logger      *zap.Logger
	Timezone    string
	Timeout     time.Duration
}

func NewProvisionLatest(cfg ProvisionLatestConfig) *ProvisionLatest {
	tz := cfg.Timezone
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	return &ProvisionLatest{
		crm:         cfg.CRM,
		clients:     cfg.Clients,
		repo:        cfg.Repo,
		provisioner: cfg.Provisioner,
		audit:       cfg.Audit,
		metrics:     cfg.Metrics,
		log:         logger.OrNop(cfg.Logger),
		timezone:    tz,
		timeout:     cfg.Timeout,
		now:         time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

// Execute agenda a reunião do compromisso mais recente do contato,
// cancelando os demais agendamentos SCHEDULED do cliente.
func (uc *ProvisionLatest) Execute(ctx context.Context, contactID string) (*ProvisionResult, error) {
	started := uc.now()
	defer func() {
		uc.metrics.ObserveDuration(TriggerAppointmentCreated, uc.now().Sub(started).Seconds())
	}()

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "appointment.provision_latest")
	defer span.End()
	span.SetAttributes(attribute.String("meeting_sync.contact_id", contactID))

	// --------------------------------------------------
	// 1️⃣ Eventos
	// --------------------------------------------------
	events, err := uc.crm.GetAppointments(ctx, contactID, "")
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, httperr.NotFoundf("appointment_not_found", "no appointments for contact %s", contactID)
	}

	// --------------------------------------------------
	// 2️⃣ Mais recente / passado
	// --------------------------------------------------
	latest, start, err := uc.latest(events)
	if err != nil {
		return nil, err
	}
	if start.Before(uc.now()) {
		return nil, httperr.Validationf("appointment_in_past", "appointment is in the past")
	}

	// --------------------------------------------------
	// 3️⃣ Status
	// --------------------------------------------------
	if err := domain.CanBook(latest.AppointmentStatus); err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4️⃣ Cliente
	// --------------------------------------------------
	contact, err := uc.crm.GetContact(ctx, contactID, "")
	if err != nil {
		return nil, err
	}
	c, err := uc.clients.FindOrCreate(ctx, profileOf(contactID, contact))
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5️⃣ Transação
	// --------------------------------------------------
	var out *ProvisionResult
	err = uc.repo.Transaction(ctx, func(tx domain.Repository) error {
		var txErr error
		out, txErr = uc.provision(ctx, tx, c, latest, start)
		return txErr
	})
	if err != nil {
		uc.metrics.ObserveRun(TriggerAppointmentCreated, "failure")
		span.RecordError(err)
		return nil, err
	}
	uc.metrics.ObserveRun(TriggerAppointmentCreated, "success")

	if out.Status == ProvisionScheduled {
		uc.metrics.ObserveWrites(1+out.Occurrences, 0, int(out.Cancelled))
		uc.audit.Dispatch(audit.Event{
			OrganizationID: c.OrganizationID,
			ClientID:       &c.ID,
			Action:         "meeting_scheduled",
			Entity:         "appointment",
			EntityID:       &out.AppointmentID,
			Metadata:       out,
		})
	}

	uc.log.Info("latest appointment processed",
		zap.String("contact_id", contactID),
		zap.String("remote_event_id", latest.ID),
		zap.String("status", out.Status),
		zap.Uint("appointment_id", out.AppointmentID),
	)
	return out, nil
}

func (uc *ProvisionLatest) provision(
	ctx context.Context,
	tx domain.Repository,
	c *models.Client,
	ev crm.Event,
	start time.Time,
) (*ProvisionResult, error) {

	current, err := tx.FindAppointmentByEvent(ctx, c.ID, ev.ID)
	if err != nil {
		return nil, err
	}
	if current != nil && domain.Status(current.Status) == domain.StatusScheduled && current.MeetingID != nil {
		return &ProvisionResult{
			Status:        ProvisionAlreadyScheduled,
			Message:       "appointment already has a meeting",
			AppointmentID: current.ID,
			MeetingID:     *current.MeetingID,
		}, nil
	}

	var keep uint
	if current != nil {
		keep = current.ID
	}
	cancelled, err := tx.CancelScheduledExcept(ctx, c.ID, keep)
	if err != nil {
		return nil, err
	}

	end, err := timezone.ParseInZone(ev.EndTime, uc.timezone)
	if err != nil {
		return nil, err
	}

	prov, err := uc.provisioner.Provision(ctx, tx, start, end, c, meeting.WithReference(ev.ID))
	if err != nil {
		return nil, err
	}

	anchorStart, anchorEnd, occurrenceID, err := prov.Anchor()
	if err != nil {
		return nil, err
	}

	eventID := ev.ID
	anchor := models.Appointment{
		OrganizationID:      c.OrganizationID,
		ClientID:            c.ID,
		RemoteEventID:       &eventID,
		Title:               ev.Title,
		Status:              string(domain.InitialStatus()),
		ScheduleStartAt:     anchorStart,
		ScheduleEndAt:       anchorEnd,
		MeetingID:           &prov.Meeting.ID,
		MeetingOccurrenceID: occurrenceID,
	}
	if current != nil {
		anchor.NotificationPhone = current.NotificationPhone
	}

	occurrences, err := prov.OccurrenceAppointments(anchor)
	if err != nil {
		return nil, err
	}

	if current != nil {
		anchor.ID = current.ID
		anchor.CreatedAt = current.CreatedAt
		if err := tx.UpdateAppointment(ctx, &anchor); err != nil {
			return nil, err
		}
		if len(occurrences) > 0 {
			if _, err := tx.CreateAppointments(ctx, occurrences, false); err != nil {
				return nil, err
			}
		}
	} else {
		batch := append([]models.Appointment{anchor}, occurrences...)
		if _, err := tx.CreateAppointments(ctx, batch, false); err != nil {
			return nil, err
		}
		anchor.ID = batch[0].ID
	}

	return &ProvisionResult{
		Status:        ProvisionScheduled,
		Message:       "meeting scheduled",
		AppointmentID: anchor.ID,
		MeetingID:     prov.Meeting.ID,
		Occurrences:   len(occurrences),
		Cancelled:     cancelled,
	}, nil
}

// latest escolhe o evento com maior início; eventos com horário inválido
// são ignorados.
func (uc *ProvisionLatest) latest(events []crm.Event) (crm.Event, time.Time, error) {
	var (
		best  crm.Event
		when  time.Time
		found bool
	)
	for _, ev := range events {
		start, err := timezone.ParseInZone(ev.StartTime, uc.timezone)
		if err != nil {
			uc.log.Warn("ignoring event with invalid start", zap.String("remote_event_id", ev.ID), zap.Error(err))
			continue
		}
		if !found || start.After(when) {
			best, when, found = ev, start, true
		}
	}
	if !found {
		return crm.Event{}, time.Time{}, httperr.Validationf("invalid_timestamp", "no event with a valid start time")
	}
	return best, when, nil
}
