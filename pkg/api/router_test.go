package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/flow-engine/pkg/core/engine"
	"github.com/LENAX/flow-engine/pkg/core/etl"
	"github.com/LENAX/flow-engine/pkg/core/executor"
	"github.com/LENAX/flow-engine/pkg/core/scheduler"
	"github.com/LENAX/flow-engine/pkg/core/workflow"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	bus := engine.NewEventBus(false)
	t.Cleanup(func() { bus.Close() })

	stepExecutor := executor.NewDefaultStepExecutor()
	return SetupRouter(Deps{
		WorkflowEngine: workflow.NewWorkflowEngine(stepExecutor, 4, bus),
		ETLEngine:      etl.NewETLEngine(bus),
		Scheduler:      scheduler.NewScheduler(bus),
		Executor:       stepExecutor,
		Bus:            bus,
		Version:        "test",
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "workflow-engine")
	assert.Contains(t, w.Body.String(), "etl-engine")
	assert.Contains(t, w.Body.String(), "scheduler")
}

func TestExecuteWorkflow(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/workflows/execute", map[string]interface{}{
		"name": "demo",
		"jobs": []map[string]interface{}{
			{"name": "first", "steps": []map[string]string{{"name": "s1", "type": "shell", "command": "true"}}},
			{"name": "second", "depends_on": []string{"first"}, "steps": []map[string]string{{"name": "s2", "type": "shell", "command": "true"}}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Status      string            `json:"status"`
			JobStatuses map[string]string `json:"job_statuses"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.Data.Status)
	assert.Equal(t, "COMPLETED", resp.Data.JobStatuses["first"])
	assert.Equal(t, "COMPLETED", resp.Data.JobStatuses["second"])
}

func TestExecuteWorkflow_CyclicDependency(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/workflows/execute", map[string]interface{}{
		"name": "cyclic",
		"jobs": []map[string]interface{}{
			{"name": "a", "depends_on": []string{"b"}},
			{"name": "b", "depends_on": []string{"a"}},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteWorkflow_UnknownDependency(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/workflows/execute", map[string]interface{}{
		"name": "broken",
		"jobs": []map[string]interface{}{
			{"name": "a", "depends_on": []string{"ghost"}},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown job")
}

func TestExecuteWorkflow_BadRequest(t *testing.T) {
	router := newTestRouter(t)
	// 缺少必填name字段
	w := doJSON(t, router, http.MethodPost, "/api/v1/workflows/execute", map[string]interface{}{
		"jobs": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteETL(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/etl/execute", map[string]interface{}{
		"source": "inline",
		"target": "counter",
		"extractor": map[string]interface{}{
			"type": "inline",
			"rows": []map[string]interface{}{
				{"name": "apple", "price": 3.5},
				{"name": "banana", "price": 1.2},
				{"name": "cherry", "price": 9.9},
			},
		},
		"transforms": []map[string]interface{}{
			{"type": "field_filter", "fields": []string{"name"}},
		},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data etl.ETLResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Success)
	assert.Equal(t, 3, resp.Data.RowsExtracted)
	assert.Equal(t, 3, resp.Data.RowsLoaded)
}

func TestExecuteETL_UnknownExtractor(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/etl/execute", map[string]interface{}{
		"extractor": map[string]interface{}{"type": "kafka"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported extractor type")
}

func TestGetETLResult_NotFound(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/etl/ghost/result", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSchedulerLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// 注册
	w := doJSON(t, router, http.MethodPost, "/api/v1/scheduler/jobs", map[string]interface{}{
		"name":      "heartbeat",
		"cron_expr": "*/5 * * * *",
		"frequency": "repeating",
		"command":   "true",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 列表
	w = doJSON(t, router, http.MethodGet, "/api/v1/scheduler/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "heartbeat")

	// 强制执行
	w = doJSON(t, router, http.MethodPost, "/api/v1/scheduler/jobs/heartbeat/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"success":true`)

	// 执行历史
	w = doJSON(t, router, http.MethodGet, "/api/v1/scheduler/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "heartbeat")

	// 注销
	w = doJSON(t, router, http.MethodDelete, "/api/v1/scheduler/jobs/heartbeat", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/scheduler/jobs", nil)
	assert.NotContains(t, w.Body.String(), "heartbeat")
}

func TestSchedulerRegister_InvalidCron(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/scheduler/jobs", map[string]interface{}{
		"name":      "bad",
		"cron_expr": "* * *",
		"command":   "true",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid cron expression")
}

func TestSchedulerRun_NotRegistered(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodPost, "/api/v1/scheduler/jobs/ghost/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventsList(t *testing.T) {
	router := newTestRouter(t)

	// 先执行一个Workflow产生事件
	w := doJSON(t, router, http.MethodPost, "/api/v1/workflows/execute", map[string]interface{}{
		"name": "emit",
		"jobs": []map[string]interface{}{
			{"name": "only", "steps": []map[string]string{{"name": "s", "type": "shell", "command": "true"}}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "WorkflowStarted")
	assert.Contains(t, w.Body.String(), "JobCompleted")
}

func TestHistory_StorageDisabled(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/api/v1/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
