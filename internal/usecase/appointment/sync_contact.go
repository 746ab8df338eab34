package appointment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/meeting-sync/internal/archive"
	"github.com/BruksfildServices01/meeting-sync/internal/audit"
	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/metrics"
)

const TriggerAppointmentUpdate = "appointment_update"

// ======================================================
// INPUT
// ======================================================

type SyncInput struct {
	ContactID   string
	Token       string
	NotifyPhone string
}

// ======================================================
// USE CASE
// ======================================================

type SyncContact struct {
	crm     ContactSource
	clients ClientResolver
	repo    domain.Repository
	engine  *Engine
	archive SnapshotArchiver
	audit   *audit.Dispatcher
	metrics *metrics.SyncMetrics
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

type SyncContactConfig struct {
	CRM     ContactSource
	Clients ClientResolver
	Repo    domain.Repository
	Engine  *Engine
	Archive SnapshotArchiver
	Audit   *audit.Dispatcher
	Metrics *metrics.SyncMetrics
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewSyncContact(cfg SyncContactConfig) *SyncContact {
	return &SyncContact{
		crm:     cfg.CRM,
		clients: cfg.Clients,
		repo:    cfg.Repo,
		engine:  cfg.Engine,
		archive: cfg.Archive,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		log:     logger.OrNop(cfg.Logger),
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *SyncContact) Execute(ctx context.Context, in SyncInput) (*Result, error) {
	started := uc.now()
	defer func() {
		uc.metrics.ObserveDuration(TriggerAppointmentUpdate, uc.now().Sub(started).Seconds())
	}()

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "appointment.sync_contact")
	defer span.End()
	span.SetAttributes(attribute.String("meeting_sync.contact_id", in.ContactID))

	// --------------------------------------------------
	// 1️⃣ Contato
	// --------------------------------------------------
	contact, err := uc.crm.GetContact(ctx, in.ContactID, in.Token)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// --------------------------------------------------
	// 2️⃣ Eventos
	// --------------------------------------------------
	events, err := uc.crm.GetAppointments(ctx, in.ContactID, in.Token)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// --------------------------------------------------
	// 3️⃣ Snapshot (best-effort)
	// --------------------------------------------------
	if uc.archive != nil {
		key, err := uc.archive.Put(ctx, archive.Snapshot{
			ContactID: in.ContactID,
			Trigger:   TriggerAppointmentUpdate,
			FetchedAt: uc.now().UTC(),
			Events:    events,
		})
		if err != nil {
			uc.log.Warn("snapshot archive failed", zap.String("contact_id", in.ContactID), zap.Error(err))
		} else if key != "" {
			uc.log.Debug("snapshot archived", zap.String("key", key))
		}
	}

	// --------------------------------------------------
	// 4️⃣ Cliente
	// --------------------------------------------------
	c, err := uc.clients.FindOrCreate(ctx, profileOf(in.ContactID, contact))
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 5️⃣ Reconciliação
	// --------------------------------------------------
	existing, err := uc.repo.ListAppointmentsForClient(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	res, err := uc.engine.Reconcile(ctx, ReconcileInput{
		Client:      c,
		Existing:    existing,
		Events:      events,
		NotifyPhone: in.NotifyPhone,
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6️⃣ Auditoria
	// --------------------------------------------------
	uc.audit.Dispatch(audit.Event{
		OrganizationID: c.OrganizationID,
		ClientID:       &c.ID,
		Action:         "appointments_synced",
		Entity:         "client",
		EntityID:       &c.ID,
		Metadata:       res,
	})

	return res, nil
}
