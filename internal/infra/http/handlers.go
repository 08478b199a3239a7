package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vigil/internal/domain"
	"vigil/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

type policyRequest struct {
	Name                string `json:"name"`
	Description         string `json:"description,omitempty"`
	TaskType            string `json:"task_type,omitempty"`
	Priority            string `json:"priority,omitempty"`
	ResponseTimeHours   int    `json:"response_time_hours"`
	ResolutionTimeHours int    `json:"resolution_time_hours"`
	CalendarID          string `json:"calendar_id,omitempty"`
	IsActive            *bool  `json:"is_active,omitempty"`
}

type policyResponse struct {
	ID                  string    `json:"id"`
	TenantID            string    `json:"tenant_id"`
	Name                string    `json:"name"`
	Description         string    `json:"description,omitempty"`
	TaskType            string    `json:"task_type,omitempty"`
	Priority            string    `json:"priority,omitempty"`
	ResponseTimeHours   int       `json:"response_time_hours"`
	ResolutionTimeHours int       `json:"resolution_time_hours"`
	CalendarID          string    `json:"calendar_id,omitempty"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type ruleRequest struct {
	Level               int               `json:"level"`
	TriggerAfterMinutes int               `json:"trigger_after_minutes"`
	ActionType          string            `json:"action_type"`
	ActionConfig        map[string]string `json:"action_config,omitempty"`
	IsActive            *bool             `json:"is_active,omitempty"`
}

type ruleResponse struct {
	ID                  string            `json:"id"`
	TenantID            string            `json:"tenant_id"`
	PolicyID            string            `json:"policy_id"`
	Level               int               `json:"level"`
	TriggerAfterMinutes int               `json:"trigger_after_minutes"`
	ActionType          string            `json:"action_type"`
	ActionConfig        map[string]string `json:"action_config,omitempty"`
	IsActive            bool              `json:"is_active"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type holidayInput struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Recurring bool   `json:"recurring"`
}

type calendarRequest struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Timezone     string         `json:"timezone,omitempty"`
	WorkDayStart string         `json:"work_day_start"`
	WorkDayEnd   string         `json:"work_day_end"`
	WorkDays     []int          `json:"work_days"`
	IsDefault    bool           `json:"is_default"`
	IsActive     *bool          `json:"is_active,omitempty"`
	Holidays     []holidayInput `json:"holidays,omitempty"`
}

type calendarResponse struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Timezone     string         `json:"timezone,omitempty"`
	WorkDayStart string         `json:"work_day_start"`
	WorkDayEnd   string         `json:"work_day_end"`
	WorkDays     []int          `json:"work_days"`
	IsDefault    bool           `json:"is_default"`
	IsActive     bool           `json:"is_active"`
	Holidays     []holidayInput `json:"holidays,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type violationResponse struct {
	ID                     string     `json:"id"`
	TenantID               string     `json:"tenant_id"`
	PolicyID               string     `json:"policy_id"`
	TaskID                 string     `json:"task_id"`
	ViolationType          string     `json:"violation_type"`
	ViolationTime          time.Time  `json:"violation_time"`
	Status                 string     `json:"status"`
	Resolution             string     `json:"resolution,omitempty"`
	ResolvedTime           *time.Time `json:"resolved_time,omitempty"`
	CurrentEscalationLevel int        `json:"current_escalation_level"`
}

type actionResponse struct {
	ID           string            `json:"id"`
	TenantID     string            `json:"tenant_id"`
	ViolationID  string            `json:"violation_id"`
	RuleID       string            `json:"rule_id,omitempty"`
	Level        int               `json:"level"`
	ActionType   string            `json:"action_type"`
	ActionConfig map[string]string `json:"action_config,omitempty"`
	ExecutedAt   *time.Time        `json:"executed_at,omitempty"`
	Status       string            `json:"status"`
	Result       string            `json:"result,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	RetryCount   int               `json:"retry_count"`
	NextRetryAt  *time.Time        `json:"next_retry_at,omitempty"`
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
}

type previewRequest struct {
	TaskType  string    `json:"task_type,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type previewResponse struct {
	PolicyID           string    `json:"policy_id"`
	PolicyName         string    `json:"policy_name"`
	ResponseDeadline   time.Time `json:"response_deadline"`
	ResolutionDeadline time.Time `json:"resolution_deadline"`
}

type taskRequest struct {
	Type       string `json:"type,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Status     string `json:"status"`
	AssigneeID string `json:"assignee_id,omitempty"`
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func pageFromQuery(c *gin.Context) usecase.ListPage {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return usecase.ListPage{Page: page, PageSize: size}.Normalize()
}

func (s *Server) handleListPolicies(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	page := pageFromQuery(c)
	policies, total, err := s.admin.Policies.List(c.Request.Context(), c.Param("tenant_id"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, buildPolicyResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"policies": out,
		"meta":     listMeta{Page: page.Page, PageSize: page.PageSize, Total: total},
	})
}

func (s *Server) handleGetPolicy(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	p, err := s.admin.Policies.GetByID(c.Request.Context(), c.Param("tenant_id"), c.Param("policy_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPolicyResponse(*p))
}

func (s *Server) handleCreatePolicy(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	p := domain.SlaPolicy{
		TenantID:            c.Param("tenant_id"),
		Name:                req.Name,
		Description:         req.Description,
		TaskType:            req.TaskType,
		Priority:            req.Priority,
		ResponseTimeHours:   req.ResponseTimeHours,
		ResolutionTimeHours: req.ResolutionTimeHours,
		CalendarID:          req.CalendarID,
		IsActive:            req.IsActive == nil || *req.IsActive,
	}
	created, err := s.admin.CreatePolicy(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildPolicyResponse(created))
}

func (s *Server) handleUpdatePolicy(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	tenantID := c.Param("tenant_id")
	existing, err := s.admin.Policies.GetByID(c.Request.Context(), tenantID, c.Param("policy_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	p := *existing
	p.Name = req.Name
	p.Description = req.Description
	p.TaskType = req.TaskType
	p.Priority = req.Priority
	p.ResponseTimeHours = req.ResponseTimeHours
	p.ResolutionTimeHours = req.ResolutionTimeHours
	p.CalendarID = req.CalendarID
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	updated, err := s.admin.UpdatePolicy(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPolicyResponse(updated))
}

func (s *Server) handleDeletePolicy(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	if err := s.admin.DeletePolicy(c.Request.Context(), c.Param("tenant_id"), c.Param("policy_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListRules(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	rules, err := s.admin.Rules.ListByPolicy(c.Request.Context(), c.Param("tenant_id"), c.Param("policy_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, buildRuleResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}

func (s *Server) handleCreateRule(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	r := domain.EscalationRule{
		TenantID:            c.Param("tenant_id"),
		PolicyID:            c.Param("policy_id"),
		Level:               req.Level,
		TriggerAfterMinutes: req.TriggerAfterMinutes,
		ActionType:          domain.ActionType(req.ActionType),
		ActionConfig:        req.ActionConfig,
		IsActive:            req.IsActive == nil || *req.IsActive,
	}
	created, err := s.admin.CreateRule(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildRuleResponse(created))
}

func (s *Server) handleUpdateRule(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	tenantID := c.Param("tenant_id")
	existing, err := s.admin.Rules.GetByID(c.Request.Context(), tenantID, c.Param("rule_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	r := *existing
	r.Level = req.Level
	r.TriggerAfterMinutes = req.TriggerAfterMinutes
	r.ActionType = domain.ActionType(req.ActionType)
	r.ActionConfig = req.ActionConfig
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
	updated, err := s.admin.UpdateRule(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildRuleResponse(updated))
}

func (s *Server) handleDeleteRule(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	if err := s.admin.DeleteRule(c.Request.Context(), c.Param("tenant_id"), c.Param("rule_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListCalendars(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	page := pageFromQuery(c)
	calendars, total, err := s.admin.Calendars.List(c.Request.Context(), c.Param("tenant_id"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]calendarResponse, 0, len(calendars))
	for _, cal := range calendars {
		out = append(out, buildCalendarResponse(cal))
	}
	c.JSON(http.StatusOK, gin.H{
		"calendars": out,
		"meta":      listMeta{Page: page.Page, PageSize: page.PageSize, Total: total},
	})
}

func (s *Server) handleGetCalendar(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	cal, err := s.admin.Calendars.GetByID(c.Request.Context(), c.Param("tenant_id"), c.Param("calendar_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildCalendarResponse(*cal))
}

func (s *Server) handleCreateCalendar(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	cal, ok := s.bindCalendar(c, domain.BusinessCalendar{TenantID: c.Param("tenant_id"), IsActive: true})
	if !ok {
		return
	}
	created, err := s.admin.CreateCalendar(c.Request.Context(), cal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildCalendarResponse(created))
}

func (s *Server) handleUpdateCalendar(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	tenantID := c.Param("tenant_id")
	existing, err := s.admin.Calendars.GetByID(c.Request.Context(), tenantID, c.Param("calendar_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	cal, ok := s.bindCalendar(c, *existing)
	if !ok {
		return
	}
	cal.ID = existing.ID
	cal.TenantID = tenantID
	updated, err := s.admin.UpdateCalendar(c.Request.Context(), cal)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildCalendarResponse(updated))
}

func (s *Server) bindCalendar(c *gin.Context, base domain.BusinessCalendar) (domain.BusinessCalendar, bool) {
	var req calendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return domain.BusinessCalendar{}, false
	}
	start, err := parseClock(req.WorkDayStart)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_CALENDAR", "invalid work_day_start")
		return domain.BusinessCalendar{}, false
	}
	end, err := parseClock(req.WorkDayEnd)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_CALENDAR", "invalid work_day_end")
		return domain.BusinessCalendar{}, false
	}
	days := make([]time.Weekday, 0, len(req.WorkDays))
	for _, d := range req.WorkDays {
		if d < 0 || d > 6 {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_CALENDAR", "work_days entries must be 0..6")
			return domain.BusinessCalendar{}, false
		}
		days = append(days, time.Weekday(d))
	}
	holidays := make([]domain.Holiday, 0, len(req.Holidays))
	for _, h := range req.Holidays {
		date, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_CALENDAR", "holiday dates must be YYYY-MM-DD")
			return domain.BusinessCalendar{}, false
		}
		holidays = append(holidays, domain.Holiday{
			ID:        h.ID,
			Name:      h.Name,
			Date:      date,
			Recurring: h.Recurring,
		})
	}
	cal := base
	cal.Name = req.Name
	cal.Description = req.Description
	cal.Timezone = req.Timezone
	cal.WorkDayStart = start
	cal.WorkDayEnd = end
	cal.WorkDays = days
	cal.IsDefault = req.IsDefault
	if req.IsActive != nil {
		cal.IsActive = *req.IsActive
	}
	cal.Holidays = holidays
	return cal, true
}

func (s *Server) handleListViolations(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	page := pageFromQuery(c)
	filter := usecase.ViolationFilter{
		TenantID: c.Param("tenant_id"),
		PolicyID: c.Query("policy_id"),
		TaskID:   c.Query("task_id"),
		Status:   domain.ViolationStatus(c.Query("status")),
	}
	violations, total, err := s.admin.ListViolations(c.Request.Context(), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]violationResponse, 0, len(violations))
	for _, v := range violations {
		out = append(out, buildViolationResponse(v))
	}
	c.JSON(http.StatusOK, gin.H{
		"violations": out,
		"meta":       listMeta{Page: page.Page, PageSize: page.PageSize, Total: total},
	})
}

func (s *Server) handleResolveViolation(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if strings.TrimSpace(req.Resolution) == "" {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_RESOLUTION", "resolution is required")
		return
	}
	err := s.admin.ResolveViolation(c.Request.Context(), c.Param("tenant_id"), c.Param("violation_id"), req.Resolution)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListActions(c *gin.Context) {
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	page := pageFromQuery(c)
	filter := usecase.ActionFilter{
		TenantID:    c.Param("tenant_id"),
		ViolationID: c.Query("violation_id"),
		Status:      domain.ActionStatus(c.Query("status")),
	}
	actions, total, err := s.admin.ListActions(c.Request.Context(), filter, page)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, buildActionResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{
		"actions": out,
		"meta":    listMeta{Page: page.Page, PageSize: page.PageSize, Total: total},
	})
}

func (s *Server) handleRetryAction(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.admin == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	out, err := s.admin.RetryAction(c.Request.Context(), c.Param("tenant_id"), c.Param("action_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildActionResponse(out))
}

func (s *Server) handlePreviewDeadlines(c *gin.Context) {
	if s.deadlines == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	createdAt := req.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	task := domain.Task{
		TenantID:  c.Param("tenant_id"),
		Type:      req.TaskType,
		Priority:  req.Priority,
		CreatedAt: createdAt,
	}
	deadlines, err := s.deadlines.Deadlines(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, previewResponse{
		PolicyID:           deadlines.Policy.ID,
		PolicyName:         deadlines.Policy.Name,
		ResponseDeadline:   deadlines.Response,
		ResolutionDeadline: deadlines.Resolution,
	})
}

func (s *Server) handleUpsertTask(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.tasks == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	status := domain.TaskStatus(req.Status)
	switch status {
	case domain.TaskStatusNew, domain.TaskStatusInProgress, domain.TaskStatusCompleted, domain.TaskStatusCancelled:
	default:
		writeErrorCode(c, http.StatusBadRequest, "INVALID_TASK", fmt.Sprintf("unknown status %q", req.Status))
		return
	}
	task := domain.Task{
		ID:         c.Param("task_id"),
		TenantID:   c.Param("tenant_id"),
		Type:       req.Type,
		Priority:   req.Priority,
		Status:     status,
		AssigneeID: req.AssigneeID,
	}
	if err := s.tasks.Upsert(c.Request.Context(), task); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRunDetection(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.detector == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	res, err := s.detector.Run(c.Request.Context(), c.Query("tenant_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks_scanned": res.TasksScanned,
		"created":       res.Created,
		"resolved":      res.Resolved,
		"skipped":       res.Skipped,
		"item_errors":   res.ItemErrors,
	})
}

func (s *Server) handleRunEscalation(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.engine == nil || s.executor == nil {
		writeError(c, domain.ErrNotFound)
		return
	}
	tenantID := c.Query("tenant_id")
	engineRes, err := s.engine.Run(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	execRes, err := s.executor.Run(c.Request.Context(), tenantID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"examined":    engineRes.Examined,
		"dispatched":  engineRes.Dispatched,
		"advanced":    engineRes.Advanced,
		"executed":    execRes.Executed,
		"succeeded":   execRes.Succeeded,
		"failed":      execRes.Failed,
		"exhausted":   execRes.Exhausted,
		"item_errors": append(engineRes.ItemErrors, execRes.ItemErrors...),
	})
}

func buildPolicyResponse(p domain.SlaPolicy) policyResponse {
	return policyResponse{
		ID:                  p.ID,
		TenantID:            p.TenantID,
		Name:                p.Name,
		Description:         p.Description,
		TaskType:            p.TaskType,
		Priority:            p.Priority,
		ResponseTimeHours:   p.ResponseTimeHours,
		ResolutionTimeHours: p.ResolutionTimeHours,
		CalendarID:          p.CalendarID,
		IsActive:            p.IsActive,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func buildRuleResponse(r domain.EscalationRule) ruleResponse {
	return ruleResponse{
		ID:                  r.ID,
		TenantID:            r.TenantID,
		PolicyID:            r.PolicyID,
		Level:               r.Level,
		TriggerAfterMinutes: r.TriggerAfterMinutes,
		ActionType:          string(r.ActionType),
		ActionConfig:        r.ActionConfig,
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func buildCalendarResponse(cal domain.BusinessCalendar) calendarResponse {
	days := make([]int, 0, len(cal.WorkDays))
	for _, d := range cal.WorkDays {
		days = append(days, int(d))
	}
	holidays := make([]holidayInput, 0, len(cal.Holidays))
	for _, h := range cal.Holidays {
		holidays = append(holidays, holidayInput{
			ID:        h.ID,
			Name:      h.Name,
			Date:      h.Date.Format("2006-01-02"),
			Recurring: h.Recurring,
		})
	}
	return calendarResponse{
		ID:           cal.ID,
		TenantID:     cal.TenantID,
		Name:         cal.Name,
		Description:  cal.Description,
		Timezone:     cal.Timezone,
		WorkDayStart: formatClock(cal.WorkDayStart),
		WorkDayEnd:   formatClock(cal.WorkDayEnd),
		WorkDays:     days,
		IsDefault:    cal.IsDefault,
		IsActive:     cal.IsActive,
		Holidays:     holidays,
		CreatedAt:    cal.CreatedAt,
		UpdatedAt:    cal.UpdatedAt,
	}
}

func buildViolationResponse(v domain.SlaViolation) violationResponse {
	return violationResponse{
		ID:                     v.ID,
		TenantID:               v.TenantID,
		PolicyID:               v.PolicyID,
		TaskID:                 v.TaskID,
		ViolationType:          string(v.ViolationType),
		ViolationTime:          v.ViolationTime,
		Status:                 string(v.Status),
		Resolution:             v.Resolution,
		ResolvedTime:           v.ResolvedTime,
		CurrentEscalationLevel: v.CurrentEscalationLevel,
	}
}

func buildActionResponse(a domain.EscalationAction) actionResponse {
	return actionResponse{
		ID:           a.ID,
		TenantID:     a.TenantID,
		ViolationID:  a.ViolationID,
		RuleID:       a.RuleID,
		Level:        a.Level,
		ActionType:   string(a.ActionType),
		ActionConfig: a.ActionConfig,
		ExecutedAt:   a.ExecutedAt,
		Status:       string(a.Status),
		Result:       a.Result,
		ErrorMessage: a.ErrorMessage,
		RetryCount:   a.RetryCount,
		NextRetryAt:  a.NextRetryAt,
	}
}

// parseClock parses an "HH:MM" work window boundary into an offset from
// midnight.
func parseClock(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func formatClock(offset time.Duration) string {
	total := int(offset / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidPolicy):
		status, code = http.StatusBadRequest, "INVALID_POLICY"
	case errors.Is(err, domain.ErrInvalidRule):
		status, code = http.StatusBadRequest, "INVALID_RULE"
	case errors.Is(err, domain.ErrInvalidCalendar):
		status, code = http.StatusBadRequest, "INVALID_CALENDAR"
	case errors.Is(err, domain.ErrInvalidAction):
		status, code = http.StatusBadRequest, "INVALID_ACTION"
	case errors.Is(err, domain.ErrActionTerminal):
		status, code = http.StatusConflict, "ACTION_TERMINAL"
	case errors.Is(err, domain.ErrDuplicateViolation):
		status, code = http.StatusConflict, "DUPLICATE_VIOLATION"
	case errors.Is(err, domain.ErrPolicyNotFound):
		status, code = http.StatusNotFound, "POLICY_NOT_FOUND"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
