// Package workflow 提供Workflow/Job/Step数据模型与DAG工作流引擎
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StepType Step类型
type StepType string

const (
	StepTypeShell  StepType = "shell"  // shell命令
	StepTypeHTTP   StepType = "http"   // HTTP请求
	StepTypeCustom StepType = "custom" // 注册的自定义函数
)

// Job/Workflow状态常量
const (
	StatusPending   = "PENDING"   // 等待执行
	StatusRunning   = "RUNNING"   // 正在执行
	StatusCompleted = "COMPLETED" // 执行成功
	StatusFailed    = "FAILED"    // 执行失败
	StatusSkipped   = "SKIPPED"   // 因上游失败被跳过
)

// Step Job内的一个执行单元（对外导出）
// 构造后不可变；Command为注入执行器解释的载荷
type Step struct {
	Name    string   `json:"name"`
	Type    StepType `json:"type"`
	Command string   `json:"command"`
}

// Job Workflow内的命名工作单元（对外导出）
// Name是依赖引用键；Steps按声明顺序执行，首个失败即终止
type Job struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Steps     []Step   `json:"steps"`
	DependsOn []string `json:"depends_on,omitempty"`
	Status    string   `json:"status"`
}

// NewJob 创建Job实例（对外导出）
func NewJob(name string, steps []Step, dependsOn []string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Name:      name,
		Steps:     steps,
		DependsOn: dependsOn,
		Status:    StatusPending,
	}
}

// Workflow Workflow核心结构体（对外导出）
// 独占其全部Job；Job不跨Workflow共享
type Workflow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Jobs   []*Job `json:"jobs"`
	Status string `json:"status"`
}

// NewWorkflow 创建Workflow实例（对外导出）
func NewWorkflow(name string) *Workflow {
	return &Workflow{
		ID:     uuid.NewString(),
		Name:   name,
		Jobs:   make([]*Job, 0),
		Status: StatusPending,
	}
}

// AddJob 向Workflow添加Job
func (w *Workflow) AddJob(job *Job) *Workflow {
	w.Jobs = append(w.Jobs, job)
	return w
}

// WorkflowError 工作流结构/配置错误（对外导出）
// 在任何Job执行前抛出，零副作用
type WorkflowError struct {
	Message string
}

// Error 实现error接口
func (e *WorkflowError) Error() string {
	return e.Message
}

// NewWorkflowError 创建WorkflowError
func NewWorkflowError(format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Message: fmt.Sprintf(format, args...)}
}

// CyclicDependencyError 循环依赖错误（对外导出）
type CyclicDependencyError struct {
	Path []string // 循环路径，首尾为同一Job名称
}

// Error 实现error接口
func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %v", e.Path)
}

// StepExecutor Step执行器契约（对外导出）
// 每个Step调用一次；返回error表示Step失败
type StepExecutor interface {
	ExecuteStep(ctx context.Context, step *Step) (interface{}, error)
}

// StepExecutorFunc 函数适配器（对外导出）
type StepExecutorFunc func(ctx context.Context, step *Step) (interface{}, error)

// ExecuteStep 实现StepExecutor接口
func (f StepExecutorFunc) ExecuteStep(ctx context.Context, step *Step) (interface{}, error) {
	return f(ctx, step)
}
