package workflow

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/LENAX/flow-engine/pkg/core/dag"
	"github.com/LENAX/flow-engine/pkg/core/engine"
)

// WorkflowResult Workflow执行结果（对外导出）
type WorkflowResult struct {
	WorkflowID  string            `json:"workflow_id"`
	Status      string            `json:"status"` // COMPLETED/FAILED
	JobStatuses map[string]string `json:"job_statuses"`
	Duration    time.Duration     `json:"duration"`
}

// WorkflowEngine DAG工作流引擎（对外导出）
// 按依赖层级调度Job：同层并发执行，下一层在本层全部终态后才开始
// 单实例同一时刻只应有一个调用方执行RunWorkflow
type WorkflowEngine struct {
	*engine.Base
	executor       StepExecutor
	maxConcurrency int // 同层并发上限；<=0表示不限制
}

// NewWorkflowEngine 创建工作流引擎（对外导出的工厂方法）
// executor: 注入的Step执行器
// maxConcurrency: 同层Job并发上限，<=0表示不限制
// bus: 事件总线，可为nil
func NewWorkflowEngine(executor StepExecutor, maxConcurrency int, bus *engine.EventBus) *WorkflowEngine {
	return &WorkflowEngine{
		Base:           engine.NewBase("workflow-engine", bus),
		executor:       executor,
		maxConcurrency: maxConcurrency,
	}
}

// RunWorkflow 同步执行Workflow（对外导出）
// 原地更新workflow.Status与每个job.Status
// 结构错误（未知依赖/循环依赖）在任何Job执行前返回，零副作用
func (e *WorkflowEngine) RunWorkflow(ctx context.Context, wf *Workflow) (*WorkflowResult, error) {
	// 1. 依赖名称解析：depends_on必须指向本Workflow内的Job名称
	jobsByName := make(map[string]*Job, len(wf.Jobs))
	names := make([]string, 0, len(wf.Jobs))
	for _, job := range wf.Jobs {
		if _, exists := jobsByName[job.Name]; exists {
			return nil, NewWorkflowError("duplicate job name %q in workflow %q", job.Name, wf.Name)
		}
		jobsByName[job.Name] = job
		names = append(names, job.Name)
	}
	deps := make(map[string][]string, len(wf.Jobs))
	for _, job := range wf.Jobs {
		for _, depName := range job.DependsOn {
			if _, exists := jobsByName[depName]; !exists {
				return nil, NewWorkflowError("job %q depends on unknown job %q", job.Name, depName)
			}
		}
		if len(job.DependsOn) > 0 {
			deps[job.Name] = job.DependsOn
		}
	}

	// 2. 构建依赖图并检测循环（任何Job执行之前）
	graph, err := dag.Build(names, deps)
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, &CyclicDependencyError{Path: cycleErr.Path}
		}
		return nil, NewWorkflowError("build dependency graph failed: %v", err)
	}

	// 3. 逐层执行
	e.SetStatus(engine.StatusRunning)
	defer e.SetStatus(engine.StatusIdle)

	start := time.Now()
	wf.Status = StatusRunning
	e.Record(engine.NewWorkflowStartedEvent(wf.ID))
	log.Printf("🚀 Workflow开始执行: ID=%s, Name=%s, Jobs=%d", wf.ID, wf.Name, len(wf.Jobs))

	blocked := make(map[string]bool) // FAILED或SKIPPED的Job名称集合
	var blockedMu sync.Mutex

	for _, level := range graph.Levels() {
		// 3.1 跳过闭包：依赖中有失败/被跳过的Job，直接SKIPPED，不执行Step
		// 逐层推导，使跳过沿多层依赖级联
		runnable := make([]*Job, 0, len(level))
		for _, name := range level {
			job := jobsByName[name]
			if hasBlockedDep(job, blocked) {
				job.Status = StatusSkipped
				blocked[name] = true
				log.Printf("⏭️ Job被跳过（上游失败）: Name=%s", name)
				continue
			}
			runnable = append(runnable, job)
		}

		// 3.2 本层Job并发执行；全部终态后才进入下一层
		var sem chan struct{}
		if e.maxConcurrency > 0 {
			sem = make(chan struct{}, e.maxConcurrency)
		}
		var wg sync.WaitGroup
		for _, job := range runnable {
			wg.Add(1)
			go func(j *Job) {
				defer wg.Done()
				if sem != nil {
					sem <- struct{}{}
					defer func() { <-sem }()
				}
				e.runJob(ctx, wf, j)
				if j.Status == StatusFailed {
					blockedMu.Lock()
					blocked[j.Name] = true
					blockedMu.Unlock()
				}
			}(job)
		}
		wg.Wait()
	}

	// 4. 聚合结果：任一Job失败则Workflow失败
	result := &WorkflowResult{
		WorkflowID:  wf.ID,
		Status:      StatusCompleted,
		JobStatuses: make(map[string]string, len(wf.Jobs)),
		Duration:    time.Since(start),
	}
	for _, job := range wf.Jobs {
		result.JobStatuses[job.Name] = job.Status
		if job.Status == StatusFailed {
			result.Status = StatusFailed
		}
	}
	wf.Status = result.Status

	if result.Status == StatusCompleted {
		log.Printf("✅ Workflow执行成功: ID=%s, 耗时=%v", wf.ID, result.Duration)
	} else {
		log.Printf("❌ Workflow执行失败: ID=%s, 耗时=%v", wf.ID, result.Duration)
	}
	return result, nil
}

// runJob 执行单个Job：Step按声明顺序执行，首个失败即终止本Job
func (e *WorkflowEngine) runJob(ctx context.Context, wf *Workflow, job *Job) {
	job.Status = StatusRunning

	for i := range job.Steps {
		step := &job.Steps[i]
		if _, err := e.executor.ExecuteStep(ctx, step); err != nil {
			log.Printf("❌ Step执行失败: Job=%s, Step=%s, err=%v", job.Name, step.Name, err)
			job.Status = StatusFailed
			e.Record(engine.NewJobCompletedEvent(wf.ID, job.ID, false))
			return
		}
	}

	job.Status = StatusCompleted
	e.Record(engine.NewJobCompletedEvent(wf.ID, job.ID, true))
}

// hasBlockedDep 判断Job的依赖是否与失败/跳过集合相交
func hasBlockedDep(job *Job, blocked map[string]bool) bool {
	for _, depName := range job.DependsOn {
		if blocked[depName] {
			return true
		}
	}
	return false
}
