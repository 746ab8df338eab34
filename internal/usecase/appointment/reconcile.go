package appointment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/crm"
	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/metrics"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
	"github.com/BruksfildServices01/meeting-sync/internal/timezone"
	"github.com/BruksfildServices01/meeting-sync/internal/usecase/meeting"
)

var tracer = otel.Tracer("meeting-sync/usecase/appointment")

const (
	PathBootstrap   = "bootstrap"
	PathIncremental = "incremental"
)

// MeetingProvisioner cria e persiste a reunião de um agendamento novo.
type MeetingProvisioner interface {
	Provision(
		ctx context.Context,
		store domain.MeetingStore,
		start time.Time,
		end time.Time,
		client *models.Client,
		opts ...meeting.Option,
	) (*meeting.Provisioned, error)
}

// ======================================================
// INPUT / OUTPUT
// ======================================================

type ReconcileInput struct {
	Client      *models.Client
	Existing    []models.Appointment
	Events      []crm.Event
	NotifyPhone string
}

type Result struct {
	Path                string `json:"path"`
	Created             int    `json:"created"`
	Updated             int    `json:"updated"`
	Cancelled           int    `json:"cancelled"`
	Skipped             int    `json:"skipped"`
	MeetingsProvisioned int    `json:"meetings_provisioned"`
}

// ======================================================
// USE CASE
// ======================================================

type Engine struct {
	repo        domain.Repository
	provisioner MeetingProvisioner
	mapper      domain.StatusMapper
	timezone    string
	log         *zap.Logger
	metrics     *metrics.SyncMetrics
}

type EngineConfig struct {
	Repo        domain.Repository
	Provisioner MeetingProvisioner
	Timezone    string
	Logger      *zap.Logger
	Metrics     *metrics.SyncMetrics
}

func NewEngine(cfg EngineConfig) *Engine {
	tz := cfg.Timezone
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	return &Engine{
		repo:        cfg.Repo,
		provisioner: cfg.Provisioner,
		mapper:      domain.NewStatusMapper(),
		timezone:    tz,
		log:         logger.OrNop(cfg.Logger),
		metrics:     cfg.Metrics,
	}
}

// Reconcile aplica os eventos do CRM aos agendamentos locais do cliente.
// Sem agendamentos locais o caminho é bootstrap (só inserção); caso
// contrário incremental. Tudo roda numa única transação.
func (e *Engine) Reconcile(ctx context.Context, in ReconcileInput) (*Result, error) {
	res := &Result{Path: PathIncremental}
	if len(in.Existing) == 0 {
		res.Path = PathBootstrap
	}

	ctx, span := tracer.Start(ctx, "appointment.reconcile", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	span.SetAttributes(
		attribute.String("meeting_sync.path", res.Path),
		attribute.Int64("meeting_sync.client_id", int64(in.Client.ID)),
		attribute.Int("meeting_sync.events", len(in.Events)),
	)

	err := e.repo.Transaction(ctx, func(tx domain.Repository) error {
		// contadores só valem se a transação confirmar
		*res = Result{Path: res.Path}
		if res.Path == PathBootstrap {
			return e.bootstrap(ctx, tx, in, res)
		}
		return e.incremental(ctx, tx, in, res)
	})
	if err != nil {
		e.metrics.ObserveRun(res.Path, "failure")
		span.RecordError(err)
		e.log.Error("reconcile failed",
			zap.String("path", res.Path),
			zap.Uint("client_id", in.Client.ID),
			zap.Error(err),
		)
		return nil, err
	}

	e.metrics.ObserveRun(res.Path, "success")
	e.metrics.ObserveWrites(res.Created, res.Updated, res.Cancelled)

	e.log.Info("reconcile finished",
		zap.String("path", res.Path),
		zap.Uint("client_id", in.Client.ID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("cancelled", res.Cancelled),
		zap.Int("skipped", res.Skipped),
		zap.Int("meetings", res.MeetingsProvisioned),
	)
	return res, nil
}

// ======================================================
// BOOTSTRAP
// ======================================================

func (e *Engine) bootstrap(ctx context.Context, tx domain.Repository, in ReconcileInput, res *Result) error {
	seen := make(map[string]struct{}, len(in.Events))
	var batch []models.Appointment

	for _, ev := range in.Events {
		if _, dup := seen[ev.ID]; dup || ev.ID == "" {
			res.Skipped++
			continue
		}
		seen[ev.ID] = struct{}{}

		rows, err := e.newAppointments(ctx, tx, in, ev, res)
		if err != nil {
			return err
		}
		batch = append(batch, rows...)
	}

	return e.insert(ctx, tx, batch, res)
}

// ======================================================
// INCREMENTAL
// ======================================================

func (e *Engine) incremental(ctx context.Context, tx domain.Repository, in ReconcileInput, res *Result) error {
	remote := make(map[string]crm.Event, len(in.Events))
	for _, ev := range in.Events {
		if _, dup := remote[ev.ID]; dup || ev.ID == "" {
			continue
		}
		remote[ev.ID] = ev
	}

	for i := range in.Existing {
		ap := in.Existing[i]

		// ocorrências locais não têm contraparte no CRM
		if ap.RemoteEventID == nil {
			continue
		}
		id := *ap.RemoteEventID

		ev, present := remote[id]
		if !present {
			if !domain.CancelByAbsence(&ap) {
				continue
			}
			if err := tx.UpdateAppointmentStatus(ctx, ap.ID, domain.StatusUserCancelled); err != nil {
				return err
			}
			res.Cancelled++
			continue
		}
		delete(remote, id)

		start, end, ok := e.normalize(ev)
		if !ok {
			res.Skipped++
			continue
		}

		changed := domain.Apply(&ap, domain.Changes{
			Status:            e.mapper.MapOrScheduled(ev.AppointmentStatus),
			StartAt:           start,
			EndAt:             end,
			NotificationPhone: in.NotifyPhone,
		})
		if !changed {
			continue
		}
		if err := tx.UpdateAppointment(ctx, &ap); err != nil {
			return err
		}
		res.Updated++
	}

	// eventos sem registro local: mesma regra do bootstrap
	var batch []models.Appointment
	for _, ev := range in.Events {
		if _, pending := remote[ev.ID]; !pending {
			continue
		}
		delete(remote, ev.ID)

		rows, err := e.newAppointments(ctx, tx, in, ev, res)
		if err != nil {
			return err
		}
		batch = append(batch, rows...)
	}

	return e.insert(ctx, tx, batch, res)
}

// ======================================================
// HELPERS
// ======================================================

// newAppointments monta o agendamento de um evento novo. Status não mapeado
// descarta o evento; SCHEDULED provisiona a reunião antes.
func (e *Engine) newAppointments(
	ctx context.Context,
	tx domain.Repository,
	in ReconcileInput,
	ev crm.Event,
	res *Result,
) ([]models.Appointment, error) {

	status, ok := e.mapper.Map(ev.AppointmentStatus)
	if !ok {
		res.Skipped++
		return nil, nil
	}

	start, end, ok := e.normalize(ev)
	if !ok {
		res.Skipped++
		return nil, nil
	}

	eventID := ev.ID
	ap := models.Appointment{
		OrganizationID:    in.Client.OrganizationID,
		ClientID:          in.Client.ID,
		RemoteEventID:     &eventID,
		Title:             ev.Title,
		Status:            string(status),
		ScheduleStartAt:   start,
		ScheduleEndAt:     end,
		NotificationPhone: in.NotifyPhone,
	}

	if status != domain.StatusScheduled {
		return []models.Appointment{ap}, nil
	}

	prov, err := e.provisioner.Provision(ctx, tx, start, end, in.Client, meeting.WithReference(ev.ID))
	if err != nil {
		return nil, err
	}
	res.MeetingsProvisioned++

	ap.MeetingID = &prov.Meeting.ID
	if prov.Response.IsRecurring() {
		// a primeira ocorrência vira a âncora
		anchorStart, anchorEnd, occurrenceID, err := prov.Anchor()
		if err != nil {
			return nil, err
		}
		ap.ScheduleStartAt = anchorStart
		ap.ScheduleEndAt = anchorEnd
		ap.MeetingOccurrenceID = occurrenceID
	}

	occurrences, err := prov.OccurrenceAppointments(ap)
	if err != nil {
		return nil, err
	}

	return append([]models.Appointment{ap}, occurrences...), nil
}

func (e *Engine) normalize(ev crm.Event) (time.Time, time.Time, bool) {
	start, err := timezone.ParseInZone(ev.StartTime, e.timezone)
	if err == nil {
		var end time.Time
		end, err = timezone.ParseInZone(ev.EndTime, e.timezone)
		if err == nil && end.After(start) {
			return start, end, true
		}
		if err == nil {
			err = httperr.Validationf("invalid_range", "end %s is not after start %s", ev.EndTime, ev.StartTime)
		}
	}

	e.log.Warn("skipping event with invalid time",
		zap.String("remote_event_id", ev.ID),
		zap.String("start_time", ev.StartTime),
		zap.String("end_time", ev.EndTime),
		zap.Error(err),
	)
	return time.Time{}, time.Time{}, false
}

func (e *Engine) insert(ctx context.Context, tx domain.Repository, batch []models.Appointment, res *Result) error {
	if len(batch) == 0 {
		return nil
	}

	n, err := tx.CreateAppointments(ctx, batch, true)
	if err != nil {
		return err
	}
	res.Created += int(n)

	if skipped := len(batch) - int(n); skipped > 0 {
		res.Skipped += skipped
		e.log.Info("duplicate appointments skipped", zap.Int("count", skipped))
	}
	return nil
}
