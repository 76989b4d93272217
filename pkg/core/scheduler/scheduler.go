// Package scheduler 提供cron定时任务注册表与到期判定/执行
package scheduler

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/flow-engine/pkg/core/engine"
)

// ScheduleFrequency 调度频率（对外导出）
// 到期判定完全由cron表达式驱动；仅ONCE改变行为（最多触发一次）
// HOURLY/DAILY作为任务元数据保留
type ScheduleFrequency string

const (
	FrequencyOnce      ScheduleFrequency = "ONCE"
	FrequencyHourly    ScheduleFrequency = "HOURLY"
	FrequencyDaily     ScheduleFrequency = "DAILY"
	FrequencyRepeating ScheduleFrequency = "REPEATING" // 默认：跟随cron表达式重复触发
)

// Callback 定时任务回调契约（对外导出）
// 零参数；返回任意结果或error
type Callback func() (interface{}, error)

// SchedulerError 调度器错误（对外导出）
type SchedulerError struct {
	Message string
}

// Error 实现error接口
func (e *SchedulerError) Error() string {
	return e.Message
}

// newSchedulerError 创建SchedulerError
func newSchedulerError(format string, args ...interface{}) *SchedulerError {
	return &SchedulerError{Message: fmt.Sprintf(format, args...)}
}

// ScheduledJob 注册的定时任务（对外导出）
// Name在同一Scheduler实例内唯一
type ScheduledJob struct {
	Name      string            `json:"name"`
	CronExpr  string            `json:"cron_expr"`
	Callback  Callback          `json:"-"`
	Frequency ScheduleFrequency `json:"frequency"`
	Enabled   bool              `json:"enabled"`
	RunCount  int               `json:"run_count"`
	LastRun   time.Time         `json:"last_run"`

	schedule cron.Schedule
}

// RunOutcome 单次任务执行记录（对外导出）
type RunOutcome struct {
	JobName string      `json:"job_name"`
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
	RanAt   time.Time   `json:"ran_at"`
}

// Scheduler cron定时调度器（对外导出）
// 五字段cron表达式（分 时 日 月 周）；Tick只分类不执行，
// RunPending执行最近一次Tick判定为到期的任务
type Scheduler struct {
	*engine.Base
	mu        sync.RWMutex
	jobs      map[string]*ScheduledJob
	history   []RunOutcome
	pending   []string  // 最近一次Tick的到期任务名
	pendingAt time.Time // 最近一次Tick的时刻（作为触发时刻记账）
	parser    cron.Parser
}

// NewScheduler 创建调度器（对外导出的工厂方法）
// bus: 事件总线，可为nil
func NewScheduler(bus *engine.EventBus) *Scheduler {
	return &Scheduler{
		Base: engine.NewBase("scheduler", bus),
		jobs: make(map[string]*ScheduledJob),
		// 严格五字段：分 时 日 月 周；不接受秒字段与@描述符
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// RegisterJob 注册定时任务（对外导出）
// 表达式必须恰好五个空白分隔字段，每个字段支持 * / 整数 / 逗号列表 / 短横范围 / */N步进
// 校验失败零副作用
func (s *Scheduler) RegisterJob(name, cronExpr string, cb Callback, freq ScheduleFrequency) (*ScheduledJob, error) {
	if freq == "" {
		freq = FrequencyRepeating
	}

	if len(strings.Fields(cronExpr)) != 5 {
		return nil, newSchedulerError("Invalid cron expression %q: expected 5 fields", cronExpr)
	}
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return nil, newSchedulerError("Invalid cron expression %q: %v", cronExpr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return nil, newSchedulerError("job %q already registered", name)
	}

	job := &ScheduledJob{
		Name:      name,
		CronExpr:  cronExpr,
		Callback:  cb,
		Frequency: freq,
		Enabled:   true,
		schedule:  schedule,
	}
	s.jobs[name] = job
	log.Printf("📅 定时任务已注册: Name=%s, Cron=%q, Frequency=%s", name, cronExpr, freq)
	return job, nil
}

// UnregisterJob 注销定时任务（对外导出）
func (s *Scheduler) UnregisterJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; !exists {
		return newSchedulerError("job %q not registered", name)
	}
	delete(s.jobs, name)
	log.Printf("📅 定时任务已注销: Name=%s", name)
	return nil
}

// GetJob 获取指定任务
func (s *Scheduler) GetJob(name string) (*ScheduledJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[name]
	return job, exists
}

// ListJobs 返回全部任务（按名称排序）
func (s *Scheduler) ListJobs() []*ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnableJob 启用任务
func (s *Scheduler) EnableJob(name string) error {
	return s.setEnabled(name, true)
}

// DisableJob 禁用任务：不再进入到期列表，已有history与RunCount不受影响
func (s *Scheduler) DisableJob(name string) error {
	return s.setEnabled(name, false)
}

func (s *Scheduler) setEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[name]
	if !exists {
		return newSchedulerError("job %q not registered", name)
	}
	job.Enabled = enabled
	return nil
}

// Tick 判定now时刻的到期任务（对外导出）
// 只分类不执行；到期条件：
//  1. 任务已启用
//  2. cron五字段全部匹配now
//  3. 未在同一整分钟内触发过（LastRun按分钟截断比较，防止同分钟重复触发）
//  4. ONCE频率任务的RunCount仍为0
func (s *Scheduler) Tick(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	minute := now.Truncate(time.Minute)
	due := make([]string, 0)
	for _, job := range s.jobs {
		if !job.Enabled {
			continue
		}
		if !matchesMinute(job.schedule, minute) {
			continue
		}
		if !job.LastRun.IsZero() && job.LastRun.Truncate(time.Minute).Equal(minute) {
			continue
		}
		if job.Frequency == FrequencyOnce && job.RunCount > 0 {
			continue
		}
		due = append(due, job.Name)
	}
	sort.Strings(due)

	s.pending = due
	s.pendingAt = now
	return due
}

// matchesMinute 判断schedule是否命中给定整分钟时刻
// robfig的Next返回严格大于参数的下一次触发时刻，
// 从上一秒起查，命中则恰好等于该分钟
func matchesMinute(schedule cron.Schedule, minute time.Time) bool {
	return schedule.Next(minute.Add(-time.Second)).Equal(minute)
}

// RunPending 执行最近一次Tick判定为到期的任务（对外导出）
// 回调的error与panic都被捕获为失败记录，绝不向外传播
func (s *Scheduler) RunPending() []RunOutcome {
	s.mu.Lock()
	names := s.pending
	at := s.pendingAt
	s.pending = nil
	s.mu.Unlock()

	s.SetStatus(engine.StatusRunning)
	defer s.SetStatus(engine.StatusIdle)

	outcomes := make([]RunOutcome, 0, len(names))
	for _, name := range names {
		outcomes = append(outcomes, s.runOne(name, at))
	}
	return outcomes
}

// RunJob 立即执行指定任务（对外导出）
// 绕过cron匹配，记账逻辑与RunPending一致
func (s *Scheduler) RunJob(name string) (*RunOutcome, error) {
	s.mu.RLock()
	_, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return nil, newSchedulerError("job %q not registered", name)
	}
	outcome := s.runOne(name, time.Now())
	return &outcome, nil
}

// runOne 执行单个任务并记账：history追加、RunCount自增、LastRun更新
func (s *Scheduler) runOne(name string, at time.Time) RunOutcome {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	outcome := RunOutcome{JobName: name, RanAt: at}
	if !exists {
		// 任务在Tick与RunPending之间被注销
		outcome.Error = fmt.Sprintf("job %q not registered", name)
		s.appendHistory(outcome)
		return outcome
	}

	result, err := safeInvoke(job.Callback)
	if err != nil {
		outcome.Error = err.Error()
		log.Printf("❌ 定时任务执行失败: Name=%s, err=%v", name, err)
	} else {
		outcome.Success = true
		outcome.Result = result
	}

	s.mu.Lock()
	job.RunCount++
	job.LastRun = at
	s.history = append(s.history, outcome)
	s.mu.Unlock()
	return outcome
}

func (s *Scheduler) appendHistory(outcome RunOutcome) {
	s.mu.Lock()
	s.history = append(s.history, outcome)
	s.mu.Unlock()
}

// History 返回执行历史快照
func (s *Scheduler) History() []RunOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunOutcome, len(s.history))
	copy(out, s.history)
	return out
}

// safeInvoke 执行回调并捕获panic
func safeInvoke(cb Callback) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	if cb == nil {
		return nil, fmt.Errorf("callback is nil")
	}
	return cb()
}
