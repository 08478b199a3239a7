package http

import (
	"context"
	"net/http"

	"vigil/internal/config"
	"vigil/internal/domain"
	"vigil/internal/infra/db"
	"vigil/internal/infra/notify"
	"vigil/internal/infra/webhook"
	"vigil/internal/usecase"

	"github.com/gin-gonic/gin"
)

// TaskStore is the server's view of the task read model: the engine's
// TaskSource plus the sync endpoint's upsert.
type TaskStore interface {
	usecase.TaskSource
	Upsert(ctx context.Context, t domain.Task) error
}

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	admin     *usecase.AdminService
	deadlines *usecase.DeadlineCalculator
	detector  *usecase.ViolationDetector
	engine    *usecase.EscalationRuleEngine
	executor  *usecase.EscalationActionExecutor
	tasks     TaskStore

	adminAPIKey string
}

func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r}
	s.initDeps()
	s.routes()
	return s
}

type ServerDeps struct {
	Admin       *usecase.AdminService
	Deadlines   *usecase.DeadlineCalculator
	Detector    *usecase.ViolationDetector
	Engine      *usecase.EscalationRuleEngine
	Executor    *usecase.EscalationActionExecutor
	Tasks       TaskStore
	AdminAPIKey string
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		admin:       deps.Admin,
		deadlines:   deps.Deadlines,
		detector:    deps.Detector,
		engine:      deps.Engine,
		executor:    deps.Executor,
		tasks:       deps.Tasks,
		adminAPIKey: deps.AdminAPIKey,
	}
	s.routes()
	return s
}

func (s *Server) initDeps() {
	s.adminAPIKey = s.cfg.AdminAPIKey
	if s.store == nil {
		return
	}

	var notifier usecase.Notifier = notify.Disabled{}
	if s.cfg.NotifyServiceURL != "" {
		if client, err := notify.NewClient(s.cfg.NotifyServiceURL, nil); err == nil {
			notifier = client
		}
	}
	webhooks := webhook.NewCaller(nil)

	executor := usecase.NewEscalationActionExecutor(s.store.Actions, s.store.Violations, s.store.Tasks, notifier, webhooks)
	executor.MaxRetries = s.cfg.EscalationMaxRetries
	executor.BackoffBase = s.cfg.BackoffBase()
	executor.BackoffCap = s.cfg.BackoffCap()
	executor.Timeout = s.cfg.ActionTimeout()

	s.executor = executor
	s.deadlines = usecase.NewDeadlineCalculator(s.store.Policies, s.store.Calendars)
	s.detector = usecase.NewViolationDetector(s.store.Tasks, s.store.Violations, s.deadlines)
	s.detector.BatchLimit = s.cfg.DetectorBatchLimit
	s.engine = usecase.NewEscalationRuleEngine(s.store.Violations, s.store.Rules, s.store.Actions)
	s.admin = usecase.NewAdminService(s.store.Policies, s.store.Rules, s.store.Calendars, s.store.Violations, s.store.Actions, executor)
	s.tasks = s.store.Tasks
}

// Deps exposes the wired services for the scheduler in cmd.
func (s *Server) Deps() (*usecase.ViolationDetector, *usecase.EscalationRuleEngine, *usecase.EscalationActionExecutor) {
	return s.detector, s.engine, s.executor
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": dbMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.GET("/tenants/:tenant_id/policies", s.handleListPolicies)
		v1.GET("/tenants/:tenant_id/policies/:policy_id", s.handleGetPolicy)
		v1.POST("/tenants/:tenant_id/policies", s.handleCreatePolicy)
		v1.PUT("/tenants/:tenant_id/policies/:policy_id", s.handleUpdatePolicy)
		v1.DELETE("/tenants/:tenant_id/policies/:policy_id", s.handleDeletePolicy)

		v1.GET("/tenants/:tenant_id/policies/:policy_id/rules", s.handleListRules)
		v1.POST("/tenants/:tenant_id/policies/:policy_id/rules", s.handleCreateRule)
		v1.PUT("/tenants/:tenant_id/rules/:rule_id", s.handleUpdateRule)
		v1.DELETE("/tenants/:tenant_id/rules/:rule_id", s.handleDeleteRule)

		v1.GET("/tenants/:tenant_id/calendars", s.handleListCalendars)
		v1.GET("/tenants/:tenant_id/calendars/:calendar_id", s.handleGetCalendar)
		v1.POST("/tenants/:tenant_id/calendars", s.handleCreateCalendar)
		v1.PUT("/tenants/:tenant_id/calendars/:calendar_id", s.handleUpdateCalendar)

		v1.GET("/tenants/:tenant_id/violations", s.handleListViolations)
		v1.POST("/tenants/:tenant_id/violations/:violation_id/resolve", s.handleResolveViolation)

		v1.GET("/tenants/:tenant_id/actions", s.handleListActions)
		v1.POST("/tenants/:tenant_id/actions/:action_id/retry", s.handleRetryAction)

		v1.POST("/tenants/:tenant_id/deadlines/preview", s.handlePreviewDeadlines)
		v1.PUT("/tenants/:tenant_id/tasks/:task_id", s.handleUpsertTask)

		v1.POST("/admin/sweeps/detection", s.handleRunDetection)
		v1.POST("/admin/sweeps/escalation", s.handleRunEscalation)
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}
