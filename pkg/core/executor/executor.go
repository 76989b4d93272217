// Package executor 提供默认Step执行器（shell/http/custom）
package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/LENAX/flow-engine/pkg/core/workflow"
)

// StepFunc 自定义Step函数签名（对外导出）
type StepFunc func(ctx context.Context, command string) (interface{}, error)

// DefaultStepExecutor 默认Step执行器（对外导出）
// 按Step.Type分派：
//   - shell:  通过 sh -c 执行Command，返回标准输出
//   - http:   对Command指定的URL发起GET请求，非2xx视为失败
//   - custom: 调用注册表中以Command为键的函数
type DefaultStepExecutor struct {
	mu         sync.RWMutex
	functions  map[string]StepFunc
	httpClient *http.Client
}

// NewDefaultStepExecutor 创建默认Step执行器（对外导出的工厂方法）
func NewDefaultStepExecutor() *DefaultStepExecutor {
	return &DefaultStepExecutor{
		functions: make(map[string]StepFunc),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RegisterFunc 注册自定义Step函数
func (e *DefaultStepExecutor) RegisterFunc(name string, fn StepFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.functions[name]; exists {
		return fmt.Errorf("step function %q already registered", name)
	}
	e.functions[name] = fn
	return nil
}

// ExecuteStep 执行单个Step（实现workflow.StepExecutor接口）
func (e *DefaultStepExecutor) ExecuteStep(ctx context.Context, step *workflow.Step) (interface{}, error) {
	switch step.Type {
	case workflow.StepTypeShell:
		return e.execShell(ctx, step.Command)
	case workflow.StepTypeHTTP:
		return e.execHTTP(ctx, step.Command)
	case workflow.StepTypeCustom:
		return e.execCustom(ctx, step.Command)
	default:
		return nil, fmt.Errorf("unsupported step type %q", step.Type)
	}
}

// execShell 执行shell命令
func (e *DefaultStepExecutor) execShell(ctx context.Context, command string) (interface{}, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("shell command failed: %w, output: %s", err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// execHTTP 执行HTTP GET请求
func (e *DefaultStepExecutor) execHTTP(ctx context.Context, url string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build http request failed: %w", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read http response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http request returned status %d", resp.StatusCode)
	}
	return string(body), nil
}

// execCustom 调用注册的自定义函数
func (e *DefaultStepExecutor) execCustom(ctx context.Context, name string) (interface{}, error) {
	e.mu.RLock()
	fn, exists := e.functions[name]
	e.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("step function %q not registered", name)
	}
	return fn(ctx, name)
}
