// Package handler 提供API请求处理器
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/dto"
	"github.com/LENAX/flow-engine/pkg/core/engine"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	version   string
	startTime time.Time
	engines   []engine.Engine
}

// NewHealthHandler 创建HealthHandler
func NewHealthHandler(version string, engines ...engine.Engine) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: time.Now(),
		engines:   engines,
	}
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	summaries := make([]dto.EngineSummary, 0, len(h.engines))
	for _, eng := range h.engines {
		summaries = append(summaries, dto.EngineSummary{
			Name:       eng.Name(),
			Status:     eng.Status(),
			EventCount: len(eng.Events()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
		"engines": summaries,
	})
}
