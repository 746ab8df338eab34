package meeting

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/meeting-sync/internal/domain/appointment"
	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
	"github.com/BruksfildServices01/meeting-sync/internal/logger"
	"github.com/BruksfildServices01/meeting-sync/internal/meetingprovider"
	"github.com/BruksfildServices01/meeting-sync/internal/metrics"
	"github.com/BruksfildServices01/meeting-sync/internal/models"
	"github.com/BruksfildServices01/meeting-sync/internal/timezone"
	"github.com/BruksfildServices01/meeting-sync/internal/validators"
)

const (
	passwordLength   = 8
	passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	tracer       = otel.Tracer("meeting-sync/usecase/meeting")
	keyNamespace = uuid.MustParse("5b7f3c1e-2d4a-4f0b-9a61-0c8e4b2d7f13")
)

// ======================================================
// PORTS
// ======================================================

type ProviderAPI interface {
	CreateMeeting(ctx context.Context, req meetingprovider.CreateMeetingRequest, idempotencyKey string) (*meetingprovider.Meeting, error)
	AddRegistrant(ctx context.Context, meetingID int64, req meetingprovider.RegistrantRequest) (*meetingprovider.RegistrantResponse, error)
}

type ResponseCache interface {
	GetMeeting(ctx context.Context, key string) (*meetingprovider.Meeting, bool, error)
	PutMeeting(ctx context.Context, key string, m *meetingprovider.Meeting) error
}

// ======================================================
// OUTPUT
// ======================================================

type Provisioned struct {
	Meeting       *models.Meeting
	Response      *meetingprovider.Meeting
	RegistrantErr error
}

// OccurrenceRange converte horário local do provedor + duração em UTC,
// usando o timezone da reunião.
func (p *Provisioned) OccurrenceRange(startTime string, minutes int) (time.Time, time.Time, error) {
	return timezone.RangeFromDuration(startTime, minutes, p.Meeting.Timezone)
}

// Anchor devolve o intervalo do agendamento principal: a primeira ocorrência
// em séries recorrentes, senão o início/duração da própria reunião.
func (p *Provisioned) Anchor() (time.Time, time.Time, string, error) {
	if p.Response.IsRecurring() {
		first := p.Response.Occurrences[0]
		start, end, err := p.OccurrenceRange(first.StartTime, p.occurrenceMinutes(first))
		return start, end, first.OccurrenceID, err
	}

	start, end, err := p.OccurrenceRange(p.Response.StartTime, p.Response.Duration)
	return start, end, "", err
}

// RemainingOccurrences são as ocorrências além da âncora.
func (p *Provisioned) RemainingOccurrences() []meetingprovider.Occurrence {
	if !p.Response.IsRecurring() {
		return nil
	}
	return p.Response.Occurrences[1:]
}

func (p *Provisioned) occurrenceMinutes(o meetingprovider.Occurrence) int {
	if o.Duration > 0 {
		return o.Duration
	}
	return p.Response.Duration
}

// OccurrenceAppointments monta os agendamentos locais das ocorrências
// restantes, todos ligados à mesma reunião.
func (p *Provisioned) OccurrenceAppointments(base models.Appointment) ([]models.Appointment, error) {
	rest := p.RemainingOccurrences()
	out := make([]models.Appointment, 0, len(rest))
	for _, o := range rest {
		start, end, err := p.OccurrenceRange(o.StartTime, p.occurrenceMinutes(o))
		if err != nil {
			return nil, err
		}

		ap := base
		ap.ID = 0
		ap.RemoteEventID = nil
		ap.Status = string(domain.StatusScheduled)
		ap.ScheduleStartAt = start
		ap.ScheduleEndAt = end
		ap.MeetingID = &p.Meeting.ID
		ap.MeetingOccurrenceID = o.OccurrenceID
		out = append(out, ap)
	}
	return out, nil
}

// ======================================================
// USE CASE
// ======================================================

type Provisioner struct {
	api      ProviderAPI
	cache    ResponseCache
	timezone string
	log      *zap.Logger
	metrics  *metrics.SyncMetrics
	random   io.Reader
}

type Config struct {
	API      ProviderAPI
	Cache    ResponseCache
	Timezone string
	Logger   *zap.Logger
	Metrics  *metrics.SyncMetrics
}

func NewProvisioner(cfg Config) *Provisioner {
	tz := cfg.Timezone
	if tz == "" {
		tz = timezone.DefaultTimezone
	}
	return &Provisioner{
		api:      cfg.API,
		cache:    cfg.Cache,
		timezone: tz,
		log:      logger.OrNop(cfg.Logger),
		metrics:  cfg.Metrics,
		random:   rand.Reader,
	}
}

type Options struct {
	Reference string
}

type Option func(*Options)

// WithReference entra na chave de idempotência (ex.: id do evento remoto).
func WithReference(ref string) Option {
	return func(o *Options) { o.Reference = ref }
}

// Provision cria a reunião no provedor, persiste o registro local pelo store
// recebido (normalmente a transação do chamador) e inscreve o cliente.
func (p *Provisioner) Provision(
	ctx context.Context,
	store domain.MeetingStore,
	start time.Time,
	end time.Time,
	client *models.Client,
	opts ...Option,
) (*Provisioned, error) {

	var o Options
	for _, fn := range opts {
		fn(&o)
	}

	ctx, span := tracer.Start(ctx, "meeting.provision", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.Int64("meeting_sync.client_id", int64(client.ID)),
		attribute.String("meeting_sync.reference", o.Reference),
	)

	// --------------------------------------------------
	// 1️⃣ Duração
	// --------------------------------------------------
	if !end.After(start) {
		return nil, httperr.Validationf("invalid_range", "meeting end %s is not after start %s", end, start)
	}
	duration := timezone.DurationMinutes(start, end)

	// --------------------------------------------------
	// 2️⃣ Senha
	// --------------------------------------------------
	password, err := generatePassword(p.random, passwordLength)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	// --------------------------------------------------
	// 3️⃣ Payload
	// --------------------------------------------------
	req := meetingprovider.CreateMeetingRequest{
		Topic:     "Appointment with " + client.Name,
		Type:      meetingprovider.TypeScheduled,
		StartTime: timezone.FormatInZone(start, p.timezone),
		Duration:  duration,
		Timezone:  p.timezone,
		Password:  password,
		Settings: &meetingprovider.Settings{
			ApprovalType:    0,
			RegistrantsMail: true,
		},
	}

	// --------------------------------------------------
	// 4️⃣ Provedor (com idempotência)
	// --------------------------------------------------
	key := IdempotencyKey(client.RemoteContactID, o.Reference, start, end)
	resp, err := p.createOrReuse(ctx, req, key)
	if err != nil {
		p.metrics.ObserveProvision(false)
		span.RecordError(err)
		return nil, err
	}

	// --------------------------------------------------
	// 5️⃣ Persistência local
	// --------------------------------------------------
	row, err := toModel(resp, password)
	if err != nil {
		p.metrics.ObserveProvision(false)
		return nil, err
	}
	if err := store.CreateMeeting(ctx, row); err != nil {
		p.metrics.ObserveProvision(false)
		span.RecordError(err)
		return nil, fmt.Errorf("persist meeting %d: %w", resp.ID, err)
	}
	p.metrics.ObserveProvision(true)

	out := &Provisioned{Meeting: row, Response: resp}

	// --------------------------------------------------
	// 6️⃣ Participante (best-effort)
	// --------------------------------------------------
	if validators.IsEmail(client.Email) {
		first, last := splitName(client.Name)
		if _, err := p.api.AddRegistrant(ctx, resp.ID, meetingprovider.RegistrantRequest{
			Email:     strings.TrimSpace(client.Email),
			FirstName: first,
			LastName:  last,
		}); err != nil {
			out.RegistrantErr = err
			p.log.Warn("meeting registrant failed",
				zap.Int64("provider_meeting_id", resp.ID),
				zap.Uint("client_id", client.ID),
				zap.Error(err),
			)
		}
	}

	p.log.Info("meeting provisioned",
		zap.Int64("provider_meeting_id", resp.ID),
		zap.Uint("meeting_id", row.ID),
		zap.Uint("client_id", client.ID),
		zap.Int("type", resp.Type),
	)

	return out, nil
}

func (p *Provisioner) createOrReuse(ctx context.Context, req meetingprovider.CreateMeetingRequest, key string) (*meetingprovider.Meeting, error) {
	if p.cache != nil {
		cached, ok, err := p.cache.GetMeeting(ctx, key)
		if err != nil {
			p.log.Warn("idempotency cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			p.log.Info("reusing provider meeting", zap.String("key", key), zap.Int64("provider_meeting_id", cached.ID))
			return cached, nil
		}
	}

	resp, err := p.api.CreateMeeting(ctx, req, key)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.PutMeeting(ctx, key, resp); err != nil {
			p.log.Warn("idempotency cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

// IdempotencyKey é determinística para (contato, referência, intervalo).
func IdempotencyKey(remoteContactID, reference string, start, end time.Time) string {
	name := strings.Join([]string{
		remoteContactID,
		reference,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	}, "|")
	return uuid.NewSHA1(keyNamespace, []byte(name)).String()
}

func toModel(resp *meetingprovider.Meeting, generated string) (*models.Meeting, error) {
	password := resp.EncryptedPassword
	if password == "" {
		password = resp.Password
	}
	if password == "" {
		password = generated
	}

	row := &models.Meeting{
		ProviderMeetingID: resp.ID,
		Password:          password,
		Topic:             resp.Topic,
		Timezone:          resp.Timezone,
		StartURL:          resp.StartURL,
		JoinURL:           resp.JoinURL,
	}

	if rec := resp.Recurrence; rec != nil {
		row.Recurring = true
		if rec.RepeatInterval > 0 {
			v := rec.RepeatInterval
			row.RepeatInterval = &v
		}
		if rec.EndTimes > 0 {
			v := rec.EndTimes
			row.EndAfter = &v
		}
		if rec.EndDateTime != "" {
			if t, err := time.Parse(time.RFC3339, rec.EndDateTime); err == nil {
				row.EndDate = &t
			}
		}
	}

	if len(resp.Occurrences) > 0 {
		row.Recurring = true
		b, err := json.Marshal(resp.Occurrences)
		if err != nil {
			return nil, fmt.Errorf("encode occurrences: %w", err)
		}
		row.Occurrences = string(b)
	}

	return row, nil
}

func generatePassword(r io.Reader, n int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(r, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(passwordAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	}
	return parts[0], strings.Join(parts[1:], " ")
}
