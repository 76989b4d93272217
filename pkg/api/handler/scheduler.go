package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/dto"
	"github.com/LENAX/flow-engine/pkg/core/scheduler"
	"github.com/LENAX/flow-engine/pkg/core/workflow"
	"github.com/LENAX/flow-engine/pkg/storage"
)

// SchedulerHandler 定时任务处理器
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
	executor  workflow.StepExecutor
	history   storage.RunHistoryRepository // 可为nil
}

// NewSchedulerHandler 创建SchedulerHandler
func NewSchedulerHandler(sched *scheduler.Scheduler, exec workflow.StepExecutor, history storage.RunHistoryRepository) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched, executor: exec, history: history}
}

// Register POST /api/v1/scheduler/jobs
// Command作为shell step由注入的执行器执行
func (h *SchedulerHandler) Register(c *gin.Context) {
	var req dto.RegisterScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}

	step := workflow.Step{
		Name:    req.Name,
		Type:    workflow.StepTypeShell,
		Command: req.Command,
	}
	callback := func() (interface{}, error) {
		return h.executor.ExecuteStep(context.Background(), &step)
	}

	job, err := h.scheduler.RegisterJob(req.Name, req.CronExpr, callback, scheduler.ScheduleFrequency(strings.ToUpper(req.Frequency)))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(job))
}

// Unregister DELETE /api/v1/scheduler/jobs/:name
func (h *SchedulerHandler) Unregister(c *gin.Context) {
	if err := h.scheduler.UnregisterJob(c.Param("name")); err != nil {
		h.respondSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("unregistered"))
}

// List GET /api/v1/scheduler/jobs
func (h *SchedulerHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.scheduler.ListJobs()))
}

// Due GET /api/v1/scheduler/due
// 以当前时刻Tick一次，返回到期任务名（只分类不执行）
func (h *SchedulerHandler) Due(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.scheduler.Tick(time.Now())))
}

// RunPending POST /api/v1/scheduler/run-pending
func (h *SchedulerHandler) RunPending(c *gin.Context) {
	outcomes := h.scheduler.RunPending()
	for i := range outcomes {
		h.saveHistory(&outcomes[i])
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(outcomes))
}

// RunJob POST /api/v1/scheduler/jobs/:name/run
// 绕过cron匹配立即执行
func (h *SchedulerHandler) RunJob(c *gin.Context) {
	outcome, err := h.scheduler.RunJob(c.Param("name"))
	if err != nil {
		h.respondSchedulerError(c, err)
		return
	}
	h.saveHistory(outcome)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(outcome))
}

// Enable POST /api/v1/scheduler/jobs/:name/enable
func (h *SchedulerHandler) Enable(c *gin.Context) {
	if err := h.scheduler.EnableJob(c.Param("name")); err != nil {
		h.respondSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("enabled"))
}

// Disable POST /api/v1/scheduler/jobs/:name/disable
func (h *SchedulerHandler) Disable(c *gin.Context) {
	if err := h.scheduler.DisableJob(c.Param("name")); err != nil {
		h.respondSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse("disabled"))
}

// History GET /api/v1/scheduler/history
func (h *SchedulerHandler) History(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(h.scheduler.History()))
}

// respondSchedulerError SchedulerError统一映射：未注册 -> 404，其余 -> 400
func (h *SchedulerHandler) respondSchedulerError(c *gin.Context, err error) {
	var schedErr *scheduler.SchedulerError
	if errors.As(err, &schedErr) && strings.Contains(schedErr.Message, "not registered") {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, err.Error()))
		return
	}
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
}

// saveHistory 落库单次任务执行记录（尽力而为）
func (h *SchedulerHandler) saveHistory(outcome *scheduler.RunOutcome) {
	if h.history == nil {
		return
	}
	status := "FAILED"
	if outcome.Success {
		status = "COMPLETED"
	}
	detail, _ := json.Marshal(outcome)
	saveRunRecord(context.Background(), h.history, &storage.RunRecord{
		Kind:       storage.KindScheduler,
		RefID:      outcome.JobName,
		RefName:    outcome.JobName,
		Status:     status,
		Detail:     string(detail),
		StartedAt:  outcome.RanAt,
		FinishedAt: time.Now(),
	})
}
