package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/meeting-sync/internal/archive"
	"github.com/BruksfildServices01/meeting-sync/internal/audit"
	"github.com/BruksfildServices01/meeting-sync/internal/cache"
	"github.com/BruksfildServices01/meeting-sync/internal/config"
	"github.com/BruksfildServices01/meeting-sync/internal/crm"
	"github.com/BruksfildServices01/meeting-sync/internal/handlers"
	"github.com/BruksfildServices01/meeting-sync/internal/httpclient"
	infraRepo "github.com/BruksfildServices01/meeting-sync/internal/infra/repository"
	"github.com/BruksfildServices01/meeting-sync/internal/meetingprovider"
	"github.com/BruksfildServices01/meeting-sync/internal/metrics"
	"github.com/BruksfildServices01/meeting-sync/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/meeting-sync/internal/usecase/appointment"
	ucClient "github.com/BruksfildServices01/meeting-sync/internal/usecase/client"
	ucMeeting "github.com/BruksfildServices01/meeting-sync/internal/usecase/meeting"
)

// Deps reúne o que main constrói e injeta.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	Logger    *zap.Logger
	Gatherer  prometheus.Gatherer
	Metrics   *metrics.SyncMetrics
	Audit     *audit.Dispatcher
	Cache     *cache.IdempotencyCache
	Snapshots *archive.S3Store
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	log := d.Logger

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(d.DB)
	clientRepo := infraRepo.NewClientGormRepository(d.DB)
	adminQueries := infraRepo.NewAdminQueries(d.DB)

	httpOpts := func() httpclient.Options {
		return httpclient.Options{
			Timeout:    cfg.HTTPTimeout,
			MaxRetries: cfg.HTTPMaxRetries,
			BaseDelay:  cfg.HTTPRetryBaseDelay,
			Logger:     log,
		}
	}

	crmOpts := httpOpts()
	crmOpts.BaseURL = cfg.CRMBaseURL
	crmClient := crm.New(crm.Config{
		HTTP:         crmOpts,
		APIVersion:   cfg.CRMAPIVersion,
		DefaultToken: cfg.CRMAPIToken,
	})

	meetingOpts := httpOpts()
	meetingOpts.BaseURL = cfg.MeetingBaseURL
	meetingClient := meetingprovider.New(meetingprovider.Config{
		HTTP:   meetingOpts,
		Token:  cfg.MeetingAPIToken,
		UserID: cfg.MeetingUserID,
	})

	// ======================================================
	// 🧠 USE CASES
	// ======================================================
	provCfg := ucMeeting.Config{
		API:      meetingClient,
		Timezone: cfg.SourceTimezone,
		Logger:   log,
		Metrics:  d.Metrics,
	}
	if d.Cache != nil {
		provCfg.Cache = d.Cache
	}
	provisioner := ucMeeting.NewProvisioner(provCfg)

	clientUpsert := ucClient.NewUpsert(clientRepo, cfg.OrganizationID, log)

	engine := ucAppointment.NewEngine(ucAppointment.EngineConfig{
		Repo:        appointmentRepo,
		Provisioner: provisioner,
		Timezone:    cfg.SourceTimezone,
		Logger:      log,
		Metrics:     d.Metrics,
	})

	syncCfg := ucAppointment.SyncContactConfig{
		CRM:     crmClient,
		Clients: clientUpsert,
		Repo:    appointmentRepo,
		Engine:  engine,
		Audit:   d.Audit,
		Metrics: d.Metrics,
		Logger:  log,
		Timeout: cfg.SyncTimeout,
	}
	if d.Snapshots != nil {
		syncCfg.Archive = d.Snapshots
	}
	syncContactUC := ucAppointment.NewSyncContact(syncCfg)

	provisionLatestUC := ucAppointment.NewProvisionLatest(ucAppointment.ProvisionLatestConfig{
		CRM:         crmClient,
		Clients:     clientUpsert,
		Repo:        appointmentRepo,
		Provisioner: provisioner,
		Audit:       d.Audit,
		Metrics:     d.Metrics,
		Logger:      log,
		Timezone:    cfg.SourceTimezone,
		Timeout:     cfg.SyncTimeout,
	})

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	ghlHandler := handlers.NewGoHighLevelHandler(syncContactUC, provisionLatestUC, clientUpsert, log)
	clientAppointmentsHandler := handlers.NewClientAppointmentsHandler(adminQueries)
	auditLogsHandler := handlers.NewAuditLogsHandler(adminQueries, cfg.OrganizationID, cfg.SourceTimezone)

	var healthHandler *handlers.HealthHandler
	if sqlDB, err := d.DB.DB(); err == nil {
		healthHandler = handlers.NewHealthHandler(sqlDB)
	} else {
		healthHandler = handlers.NewHealthHandler(nil)
	}

	// ======================================================
	// 🩺 INFRA ROUTES
	// ======================================================
	r.GET("/health", healthHandler.Health)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	// ======================================================
	// 🔔 WEBHOOKS
	// ======================================================
	ghl := api.Group("/gohighlevel")
	{
		ghl.POST("/appointment", ghlHandler.AppointmentCreated)
		ghl.POST("/appointment/update", ghlHandler.AppointmentUpdated)
		ghl.POST("/opportunity/status", ghlHandler.OpportunityStatus)
	}

	// ======================================================
	// 🔐 ADMIN
	// ======================================================
	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.AdminJWTSecret))
	{
		admin.GET("/clients/:contactId/appointments", clientAppointmentsHandler.Get)
		admin.GET("/audit-logs", auditLogsHandler.List)
	}
}
