package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/dto"
	"github.com/LENAX/flow-engine/pkg/storage"
)

// HistoryHandler 运行历史查询处理器
type HistoryHandler struct {
	history storage.RunHistoryRepository // 可为nil（未开启落库）
}

// NewHistoryHandler 创建HistoryHandler
func NewHistoryHandler(history storage.RunHistoryRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List GET /api/v1/history?kind=<workflow|etl|scheduler>&limit=<n>
func (h *HistoryHandler) List(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "run history storage is not enabled"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := h.history.List(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(records))
}

// saveRunRecord 落库运行记录，失败只记日志（各handler共用）
func saveRunRecord(ctx context.Context, repo storage.RunHistoryRepository, rec *storage.RunRecord) {
	if err := repo.Save(ctx, rec); err != nil {
		log.Printf("⚠️ 运行记录落库失败: kind=%s, ref=%s, err=%v", rec.Kind, rec.RefID, err)
	}
}
