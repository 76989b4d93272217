// Package api 提供flow-engine的HTTP API服务
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/handler"
	"github.com/LENAX/flow-engine/pkg/api/middleware"
	"github.com/LENAX/flow-engine/pkg/core/engine"
	"github.com/LENAX/flow-engine/pkg/core/etl"
	"github.com/LENAX/flow-engine/pkg/core/scheduler"
	"github.com/LENAX/flow-engine/pkg/core/workflow"
	"github.com/LENAX/flow-engine/pkg/storage"
)

// Deps API依赖集合（对外导出）
type Deps struct {
	WorkflowEngine *workflow.WorkflowEngine
	ETLEngine      *etl.ETLEngine
	Scheduler      *scheduler.Scheduler
	Executor       workflow.StepExecutor
	Bus            *engine.EventBus
	History        storage.RunHistoryRepository // 可为nil
	Version        string
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	engines := []engine.Engine{deps.WorkflowEngine, deps.ETLEngine, deps.Scheduler}

	workflowHandler := handler.NewWorkflowHandler(deps.WorkflowEngine, deps.History)
	etlHandler := handler.NewETLHandler(deps.ETLEngine, deps.History)
	schedulerHandler := handler.NewSchedulerHandler(deps.Scheduler, deps.Executor, deps.History)
	eventsHandler := handler.NewEventsHandler(deps.Bus, engines...)
	historyHandler := handler.NewHistoryHandler(deps.History)
	healthHandler := handler.NewHealthHandler(deps.Version, engines...)

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		workflows := v1.Group("/workflows")
		{
			workflows.POST("/execute", workflowHandler.Execute)
		}

		etlGroup := v1.Group("/etl")
		{
			etlGroup.POST("/execute", etlHandler.Execute)
			etlGroup.GET("/:id/result", etlHandler.GetResult)
		}

		sched := v1.Group("/scheduler")
		{
			sched.GET("/jobs", schedulerHandler.List)
			sched.POST("/jobs", schedulerHandler.Register)
			sched.DELETE("/jobs/:name", schedulerHandler.Unregister)
			sched.POST("/jobs/:name/run", schedulerHandler.RunJob)
			sched.POST("/jobs/:name/enable", schedulerHandler.Enable)
			sched.POST("/jobs/:name/disable", schedulerHandler.Disable)
			sched.GET("/due", schedulerHandler.Due)
			sched.POST("/run-pending", schedulerHandler.RunPending)
			sched.GET("/history", schedulerHandler.History)
		}

		v1.GET("/events", eventsHandler.List)
		v1.GET("/events/stream", eventsHandler.Stream)
		v1.GET("/history", historyHandler.List)
	}

	return router
}
