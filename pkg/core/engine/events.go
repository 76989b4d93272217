package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	EventWorkflowStarted EventType = "WorkflowStarted" // Workflow开始执行
	EventJobCompleted    EventType = "JobCompleted"    // Job执行结束（成功或失败）
	EventETLCompleted    EventType = "ETLCompleted"    // ETL管道执行成功
)

// TopicEngineEvents 事件总线主题
const TopicEngineEvents = "engine.events"

// Event 引擎事件基础结构（对外导出）
type Event struct {
	ID         string    `json:"id"`                    // 事件ID（UUID）
	Type       EventType `json:"type"`                  // 事件类型
	WorkflowID string    `json:"workflow_id,omitempty"` // 关联Workflow ID
	JobID      string    `json:"job_id,omitempty"`      // 关联Job ID
	PipelineID string    `json:"pipeline_id,omitempty"` // 关联ETL管道ID
	Success    bool      `json:"success"`               // 执行是否成功
	RowsLoaded int       `json:"rows_loaded,omitempty"` // 加载行数（仅ETLCompleted）
	Timestamp  time.Time `json:"timestamp"`             // 事件时间
}

// NewWorkflowStartedEvent 创建WorkflowStarted事件
func NewWorkflowStartedEvent(workflowID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventWorkflowStarted,
		WorkflowID: workflowID,
		Success:    true,
		Timestamp:  time.Now(),
	}
}

// NewJobCompletedEvent 创建JobCompleted事件
func NewJobCompletedEvent(workflowID, jobID string, success bool) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventJobCompleted,
		WorkflowID: workflowID,
		JobID:      jobID,
		Success:    success,
		Timestamp:  time.Now(),
	}
}

// NewETLCompletedEvent 创建ETLCompleted事件
func NewETLCompletedEvent(pipelineID string, success bool, rowsLoaded int) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventETLCompleted,
		PipelineID: pipelineID,
		Success:    success,
		RowsLoaded: rowsLoaded,
		Timestamp:  time.Now(),
	}
}

// EventBus 进程内事件总线（对外导出）
// 基于Watermill GoChannel Pub/Sub，供外部观测方订阅引擎事件
type EventBus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewEventBus 创建事件总线（对外导出的工厂方法）
func NewEventBus(debug bool) *EventBus {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)
	return &EventBus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Publish 发布事件到总线（JSON编码）
func (b *EventBus) Publish(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event failed: %w", err)
	}
	msg := message.NewMessage(ev.ID, payload)
	return b.pubsub.Publish(TopicEngineEvents, msg)
}

// Subscribe 订阅引擎事件
func (b *EventBus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicEngineEvents)
}

// Close 关闭事件总线
func (b *EventBus) Close() error {
	return b.pubsub.Close()
}

// EventLog 追加式事件日志（对外导出）
// 每个引擎实例持有独立日志；总线为可选的对外广播通道
type EventLog struct {
	mu     sync.RWMutex
	events []Event
	bus    *EventBus
}

// NewEventLog 创建事件日志
func NewEventLog(bus *EventBus) *EventLog {
	return &EventLog{
		events: make([]Event, 0),
		bus:    bus,
	}
}

// Append 追加事件，并发布到总线（若有）
func (l *EventLog) Append(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()

	if l.bus != nil {
		if err := l.bus.Publish(ev); err != nil {
			log.Printf("⚠️ 事件发布失败: type=%s, err=%v", ev.Type, err)
		}
	}
}

// Snapshot 返回事件日志快照
func (l *EventLog) Snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len 返回事件数量
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
