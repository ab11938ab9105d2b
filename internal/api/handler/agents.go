package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/agentfeed/internal/domain"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/service"
)

// CycleService runs creator pipelines.
type CycleService interface {
	Roster() []domain.CreatorProfile
	RunCycle(ctx context.Context, roster []domain.CreatorProfile, forceAll bool) *domain.CycleReport
	RunOne(ctx context.Context, key string) (*domain.RunOutcome, error)
}

// StatusReporter summarizes the roster.
type StatusReporter interface {
	Status(ctx context.Context) ([]service.AgentStatus, error)
}

// errCycleRunning is returned while a cycle or single run is in flight.
var errCycleRunning = errors.New("an agent run is already in progress")

// AgentHandler triggers agent runs and reports their state.
type AgentHandler struct {
	cycles CycleService
	status StatusReporter

	mu            sync.RWMutex
	isRunning     bool
	lastRunTime   time.Time
	lastReport    *domain.CycleReport
	lastRunStatus string
}

// NewAgentHandler creates a new agent handler.
// Parameters:
//   - cycles: cycle runner.
//   - status: roster status service.
//
// Returns:
//   - *AgentHandler: initialized handler.
func NewAgentHandler(cycles CycleService, status StatusReporter) *AgentHandler {
	return &AgentHandler{cycles: cycles, status: status}
}

// CycleResponse is returned by RunAll.
type CycleResponse struct {
	CycleID      string              `json:"cycleId"`
	Results      []domain.RunOutcome `json:"results"`
	SuccessCount int                 `json:"successCount"`
	ElapsedMs    int64               `json:"elapsedMs"`
}

// CycleState describes the most recent cycle.
type CycleState struct {
	IsRunning     bool   `json:"isRunning"`
	LastRunTime   string `json:"lastRunTime,omitempty"`
	LastRunStatus string `json:"lastRunStatus,omitempty"`
	LastCycleID   string `json:"lastCycleId,omitempty"`
	SuccessCount  int    `json:"successCount"`
}

// StatusResponse is returned by Status.
type StatusResponse struct {
	Agents []service.AgentStatus `json:"agents"`
	Cycle  CycleState            `json:"cycle"`
}

func (h *AgentHandler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.isRunning {
		return false
	}
	h.isRunning = true
	return true
}

func (h *AgentHandler) finish(report *domain.CycleReport, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isRunning = false
	h.lastRunTime = time.Now()
	h.lastRunStatus = status
	if report != nil {
		h.lastReport = report
	}
}

// RunAll handles POST /api/v1/agents/run. With force=true every creator runs
// regardless of its posting interval.
func (h *AgentHandler) RunAll(c *gin.Context) {
	ctx := c.Request.Context()
	force, _ := strconv.ParseBool(c.Query("force"))

	if !h.begin() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: errCycleRunning.Error()})
		return
	}

	logger.CtxInfo(ctx, "Agent cycle requested: force=%v, client_ip=%s", force, c.ClientIP())

	// The cycle outlives a client disconnect.
	report := h.cycles.RunCycle(context.WithoutCancel(ctx), h.cycles.Roster(), force)
	h.finish(report, "completed")

	c.JSON(http.StatusOK, CycleResponse{
		CycleID:      report.ID,
		Results:      report.Results,
		SuccessCount: report.SuccessCount,
		ElapsedMs:    report.Elapsed.Milliseconds(),
	})
}

// RunOne handles POST /api/v1/agents/:creator/run. The frequency gate is
// bypassed. A failed pipeline still answers 200 with the failed outcome.
func (h *AgentHandler) RunOne(c *gin.Context) {
	key := c.Param("creator")
	ctx := logger.SetCreator(c.Request.Context(), key)

	if !h.begin() {
		c.JSON(http.StatusConflict, ErrorResponse{Error: errCycleRunning.Error()})
		return
	}

	outcome, err := h.cycles.RunOne(context.WithoutCancel(ctx), key)
	if err != nil {
		h.finish(nil, "failed: "+err.Error())
		abortWithError(c, err, "Agent run")
		return
	}

	status := "success"
	if !outcome.Success {
		status = "failed: " + outcome.Error
	}
	h.finish(nil, status)
	c.JSON(http.StatusOK, outcome)
}

// Status handles GET /api/v1/agents/status.
func (h *AgentHandler) Status(c *gin.Context) {
	agents, err := h.status.Status(c.Request.Context())
	if err != nil {
		abortWithError(c, err, "Agent status")
		return
	}

	h.mu.RLock()
	state := CycleState{IsRunning: h.isRunning, LastRunStatus: h.lastRunStatus}
	if !h.lastRunTime.IsZero() {
		state.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}
	if h.lastReport != nil {
		state.LastCycleID = h.lastReport.ID
		state.SuccessCount = h.lastReport.SuccessCount
	}
	h.mu.RUnlock()

	c.JSON(http.StatusOK, StatusResponse{Agents: agents, Cycle: state})
}
