package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/dto"
	"github.com/LENAX/flow-engine/pkg/core/etl"
	"github.com/LENAX/flow-engine/pkg/storage"
)

// ETLHandler ETL管道执行处理器
type ETLHandler struct {
	engine  *etl.ETLEngine
	history storage.RunHistoryRepository // 可为nil
}

// NewETLHandler 创建ETLHandler
func NewETLHandler(eng *etl.ETLEngine, history storage.RunHistoryRepository) *ETLHandler {
	return &ETLHandler{engine: eng, history: history}
}

// Execute POST /api/v1/etl/execute
// 从请求体装配管道（内置抽取/转换/加载函数）并同步执行
func (h *ETLHandler) Execute(c *gin.Context) {
	var req dto.ExecuteETLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}

	extract, err := buildExtractor(req.Extractor)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}
	transforms, err := buildTransforms(req.Transforms)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
		return
	}

	pipeline := etl.NewETLPipeline(req.Source, req.Target, extract, transforms, etl.NewCountLoader())

	started := time.Now()
	result, err := h.engine.RunPipeline(c.Request.Context(), pipeline)
	if err != nil {
		var etlErr *etl.ETLPipelineError
		if errors.As(err, &etlErr) && etlErr.Phase == "" {
			// 结构错误：缺少抽取/加载函数
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, err.Error()))
			return
		}
		h.saveHistory(pipeline, nil, started)
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}

	h.saveHistory(pipeline, result, started)
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// GetResult GET /api/v1/etl/:id/result
func (h *ETLHandler) GetResult(c *gin.Context) {
	id := c.Param("id")
	result, exists := h.engine.GetResult(id)
	if !exists {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, fmt.Sprintf("no result for pipeline %q", id)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// buildExtractor 按请求装配内置抽取函数
func buildExtractor(spec dto.ExtractorSpec) (etl.ExtractFunc, error) {
	switch spec.Type {
	case "inline":
		rows := make([]etl.Record, 0, len(spec.Rows))
		for _, row := range spec.Rows {
			rows = append(rows, etl.Record(row))
		}
		return etl.NewInlineExtractor(rows), nil
	case "html_table":
		selector := spec.RowSelector
		if selector == "" {
			selector = "table tr"
		}
		return etl.NewHTMLTableExtractor(nil, selector), nil
	default:
		return nil, fmt.Errorf("unsupported extractor type %q", spec.Type)
	}
}

// buildTransforms 按请求装配内置转换函数
func buildTransforms(specs []dto.TransformSpec) ([]etl.TransformFunc, error) {
	transforms := make([]etl.TransformFunc, 0, len(specs))
	for _, spec := range specs {
		switch spec.Type {
		case "field_filter":
			transforms = append(transforms, etl.NewFieldFilterTransform(spec.Fields...))
		default:
			return nil, fmt.Errorf("unsupported transform type %q", spec.Type)
		}
	}
	return transforms, nil
}

// saveHistory 落库运行记录（尽力而为）
func (h *ETLHandler) saveHistory(p *etl.ETLPipeline, result *etl.ETLResult, started time.Time) {
	if h.history == nil {
		return
	}
	detail := "{}"
	if result != nil {
		raw, _ := json.Marshal(result)
		detail = string(raw)
	}
	saveRunRecord(context.Background(), h.history, &storage.RunRecord{
		Kind:       storage.KindETL,
		RefID:      p.ID,
		RefName:    p.Source,
		Status:     p.Status,
		Detail:     detail,
		StartedAt:  started,
		FinishedAt: time.Now(),
	})
}
