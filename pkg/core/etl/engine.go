package etl

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/LENAX/flow-engine/pkg/core/engine"
)

// ETLEngine ETL管道引擎（对外导出）
// 顺序执行Extract/Transform/Load三个阶段，分阶段计时与失败隔离
// 按管道ID保留最近一次成功结果（重跑覆盖）
type ETLEngine struct {
	*engine.Base
	mu      sync.RWMutex
	results map[string]*ETLResult
}

// NewETLEngine 创建ETL引擎（对外导出的工厂方法）
// bus: 事件总线，可为nil
func NewETLEngine(bus *engine.EventBus) *ETLEngine {
	return &ETLEngine{
		Base:    engine.NewBase("etl-engine", bus),
		results: make(map[string]*ETLResult),
	}
}

// RunPipeline 同步执行ETL管道（对外导出）
// 缺少Extract或Load函数时直接返回ETLPipelineError，不执行任何阶段
// 阶段失败：管道状态置FAILED，返回带阶段标签的ETLPipelineError，不保留结果、不发事件
func (e *ETLEngine) RunPipeline(ctx context.Context, p *ETLPipeline) (*ETLResult, error) {
	if p.Extract == nil {
		return nil, &ETLPipelineError{Message: "pipeline requires an extract function"}
	}
	if p.Load == nil {
		return nil, &ETLPipelineError{Message: "pipeline requires a load function"}
	}

	e.SetStatus(engine.StatusRunning)
	defer e.SetStatus(engine.StatusIdle)

	p.Status = StatusRunning
	log.Printf("🚀 ETL管道开始执行: ID=%s, Source=%s, Target=%s", p.ID, p.Source, p.Target)

	result := &ETLResult{}
	totalStart := time.Now()

	// Extract阶段
	extractStart := time.Now()
	rows, err := p.Extract(ctx, p.Source)
	if err != nil {
		p.Status = StatusFailed
		log.Printf("❌ ETL管道Extract阶段失败: ID=%s, err=%v", p.ID, err)
		return nil, newPhaseError(PhaseExtract, err)
	}
	result.ExtractDuration = time.Since(extractStart)
	result.RowsExtracted = len(rows)

	// Transform阶段：链式应用，零个转换函数时数据原样通过
	transformStart := time.Now()
	for _, transform := range p.Transforms {
		rows, err = transform(ctx, rows)
		if err != nil {
			p.Status = StatusFailed
			log.Printf("❌ ETL管道Transform阶段失败: ID=%s, err=%v", p.ID, err)
			return nil, newPhaseError(PhaseTransform, err)
		}
	}
	result.TransformDuration = time.Since(transformStart)
	result.RowsTransformed = len(rows)

	// Load阶段：返回值即加载行数
	loadStart := time.Now()
	loaded, err := p.Load(ctx, p.Target, rows)
	if err != nil {
		p.Status = StatusFailed
		log.Printf("❌ ETL管道Load阶段失败: ID=%s, err=%v", p.ID, err)
		return nil, newPhaseError(PhaseLoad, err)
	}
	result.LoadDuration = time.Since(loadStart)
	result.RowsLoaded = loaded

	// 端到端计时独立于各阶段计时之和
	result.TotalDuration = time.Since(totalStart)
	result.Success = true
	p.Status = StatusCompleted

	e.mu.Lock()
	e.results[p.ID] = result
	e.mu.Unlock()

	e.Record(engine.NewETLCompletedEvent(p.ID, true, result.RowsLoaded))
	log.Printf("✅ ETL管道执行成功: ID=%s, 抽取=%d, 转换=%d, 加载=%d, 耗时=%v",
		p.ID, result.RowsExtracted, result.RowsTransformed, result.RowsLoaded, result.TotalDuration)

	return result, nil
}

// GetResult 获取指定管道的最近一次成功结果
func (e *ETLEngine) GetResult(pipelineID string) (*ETLResult, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	result, exists := e.results[pipelineID]
	return result, exists
}
