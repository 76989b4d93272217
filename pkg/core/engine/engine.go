// Package engine 提供三个运行时引擎共享的命名引擎契约与事件日志
package engine

import "sync"

// 引擎生命周期状态常量
const (
	StatusIdle    = "IDLE"    // 空闲（已创建，未执行）
	StatusRunning = "RUNNING" // 正在执行
	StatusStopped = "STOPPED" // 已停止
)

// Engine 命名引擎契约（对外导出）
// 每个引擎实例拥有：名称、生命周期状态、独立的内存事件日志
type Engine interface {
	// Name 引擎名称
	Name() string
	// Status 当前生命周期状态
	Status() string
	// Events 返回事件日志快照
	Events() []Event
}

// Base 引擎基础结构（对外导出，供各引擎嵌入）
// 实现Engine契约的通用部分；每次构造产生独立的事件日志
type Base struct {
	name   string
	mu     sync.RWMutex
	status string
	log    *EventLog
}

// NewBase 创建引擎基础结构（对外导出的工厂方法）
// bus 可以为nil（纯内存日志，不发布到事件总线）
func NewBase(name string, bus *EventBus) *Base {
	return &Base{
		name:   name,
		status: StatusIdle,
		log:    NewEventLog(bus),
	}
}

// Name 引擎名称（实现Engine接口）
func (b *Base) Name() string {
	return b.name
}

// Status 当前生命周期状态（实现Engine接口）
func (b *Base) Status() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// SetStatus 更新生命周期状态
func (b *Base) SetStatus(status string) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()
}

// Events 返回事件日志快照（实现Engine接口）
func (b *Base) Events() []Event {
	return b.log.Snapshot()
}

// Record 追加一条事件到引擎日志
func (b *Base) Record(ev Event) {
	b.log.Append(ev)
}
