package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/dto"
	"github.com/LENAX/flow-engine/pkg/core/workflow"
	"github.com/LENAX/flow-engine/pkg/storage"
)

// WorkflowHandler Workflow执行处理器
type WorkflowHandler struct {
	engine  *workflow.WorkflowEngine
	history storage.RunHistoryRepository // 可为nil
}

// NewWorkflowHandler 创建WorkflowHandler
func NewWorkflowHandler(eng *workflow.WorkflowEngine, history storage.RunHistoryRepository) *WorkflowHandler {
	return &WorkflowHandler{engine: eng, history: history}
}

// Execute POST /api/v1/workflows/execute
// 从请求体构建Workflow并同步执行
func (h *WorkflowHandler) Execute(c *gin.Context) {
	var req dto.ExecuteWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}

	wf := workflow.NewWorkflow(req.Name)
	for _, jobSpec := range req.Jobs {
		steps := make([]workflow.Step, 0, len(jobSpec.Steps))
		for _, stepSpec := range jobSpec.Steps {
			steps = append(steps, workflow.Step{
				Name:    stepSpec.Name,
				Type:    workflow.StepType(stepSpec.Type),
				Command: stepSpec.Command,
			})
		}
		wf.AddJob(workflow.NewJob(jobSpec.Name, steps, jobSpec.DependsOn))
	}

	started := time.Now()
	result, err := h.engine.RunWorkflow(c.Request.Context(), wf)
	if err != nil {
		var wfErr *workflow.WorkflowError
		var cycleErr *workflow.CyclicDependencyError
		if errors.As(err, &wfErr) || errors.As(err, &cycleErr) {
			// 结构/配置错误：任何Job执行前被拒绝
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}

	h.saveHistory(wf, result, started)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// saveHistory 落库运行记录（尽力而为，失败只记日志）
func (h *WorkflowHandler) saveHistory(wf *workflow.Workflow, result *workflow.WorkflowResult, started time.Time) {
	if h.history == nil {
		return
	}
	detail, _ := json.Marshal(result)
	saveRunRecord(context.Background(), h.history, &storage.RunRecord{
		Kind:       storage.KindWorkflow,
		RefID:      wf.ID,
		RefName:    wf.Name,
		Status:     result.Status,
		Detail:     string(detail),
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}
