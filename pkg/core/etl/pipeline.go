// Package etl 提供三阶段（Extract/Transform/Load）管道引擎
package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ETL管道状态常量
const (
	StatusPending   = "PENDING"   // 等待执行
	StatusRunning   = "RUNNING"   // 正在执行
	StatusCompleted = "COMPLETED" // 执行成功
	StatusFailed    = "FAILED"    // 执行失败
)

// 阶段标签常量
const (
	PhaseExtract   = "Extract"
	PhaseTransform = "Transform"
	PhaseLoad      = "Load"
)

// Record 一行数据
type Record = map[string]interface{}

// ExtractFunc 抽取函数契约（对外导出）
type ExtractFunc func(ctx context.Context, source string) ([]Record, error)

// TransformFunc 转换函数契约（对外导出）
// 按声明顺序链式调用，每个函数接收上一阶段的输出
type TransformFunc func(ctx context.Context, rows []Record) ([]Record, error)

// LoadFunc 加载函数契约（对外导出）
// 返回值为实际加载的行数
type LoadFunc func(ctx context.Context, target string, rows []Record) (int, error)

// ETLPipeline ETL管道定义（对外导出）
type ETLPipeline struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Extract    ExtractFunc     `json:"-"`
	Transforms []TransformFunc `json:"-"`
	Load       LoadFunc        `json:"-"`
	Status     string          `json:"status"`
}

// NewETLPipeline 创建ETL管道（对外导出）
func NewETLPipeline(source, target string, extract ExtractFunc, transforms []TransformFunc, load LoadFunc) *ETLPipeline {
	return &ETLPipeline{
		ID:         uuid.NewString(),
		Source:     source,
		Target:     target,
		Extract:    extract,
		Transforms: transforms,
		Load:       load,
		Status:     StatusPending,
	}
}

// ETLResult 单次管道执行结果（对外导出）
type ETLResult struct {
	Success           bool          `json:"success"`
	RowsExtracted     int           `json:"rows_extracted"`
	RowsTransformed   int           `json:"rows_transformed"`
	RowsLoaded        int           `json:"rows_loaded"`
	ExtractDuration   time.Duration `json:"extract_duration"`
	TransformDuration time.Duration `json:"transform_duration"`
	LoadDuration      time.Duration `json:"load_duration"`
	TotalDuration     time.Duration `json:"total_duration"`
	Errors            []string      `json:"errors,omitempty"`
}

// ETLPipelineError ETL管道错误（对外导出）
// 阶段错误包装原始错误并带阶段标签；结构错误只带固定消息
type ETLPipelineError struct {
	Phase   string // 出错阶段（Extract/Transform/Load），结构错误为空
	Message string // 结构错误的固定消息
	Err     error  // 被包装的原始错误
}

// Error 实现error接口
func (e *ETLPipelineError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
	}
	return e.Message
}

// Unwrap 支持errors.Is/As穿透
func (e *ETLPipelineError) Unwrap() error {
	return e.Err
}

// newPhaseError 创建阶段错误
func newPhaseError(phase string, err error) *ETLPipelineError {
	return &ETLPipelineError{Phase: phase, Err: err}
}
