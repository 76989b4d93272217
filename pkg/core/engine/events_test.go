package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestBase(t *testing.T) {
	base := NewBase("test-engine", nil)

	if base.Name() != "test-engine" {
		t.Errorf("引擎名称错误，期望: test-engine, 实际: %s", base.Name())
	}
	if base.Status() != StatusIdle {
		t.Errorf("初始状态错误，期望: %s, 实际: %s", StatusIdle, base.Status())
	}

	base.SetStatus(StatusRunning)
	if base.Status() != StatusRunning {
		t.Errorf("状态更新失败，期望: %s, 实际: %s", StatusRunning, base.Status())
	}
}

func TestBase_IndependentEventLogs(t *testing.T) {
	a := NewBase("engine-a", nil)
	b := NewBase("engine-b", nil)

	a.Record(NewWorkflowStartedEvent("wf-1"))
	a.Record(NewJobCompletedEvent("wf-1", "job-1", true))

	if len(a.Events()) != 2 {
		t.Errorf("engine-a事件数量错误，期望: 2, 实际: %d", len(a.Events()))
	}
	// 每个实例的事件日志相互独立
	if len(b.Events()) != 0 {
		t.Errorf("engine-b不应该看到engine-a的事件，实际: %d条", len(b.Events()))
	}
}

func TestEventConstructors(t *testing.T) {
	started := NewWorkflowStartedEvent("wf-1")
	if started.Type != EventWorkflowStarted || started.WorkflowID != "wf-1" {
		t.Errorf("WorkflowStarted事件字段错误: %+v", started)
	}
	if started.ID == "" || started.Timestamp.IsZero() {
		t.Errorf("事件应该自动填充ID和时间戳: %+v", started)
	}

	completed := NewJobCompletedEvent("wf-1", "job-1", false)
	if completed.Type != EventJobCompleted || completed.JobID != "job-1" || completed.Success {
		t.Errorf("JobCompleted事件字段错误: %+v", completed)
	}

	etl := NewETLCompletedEvent("pipe-1", true, 42)
	if etl.Type != EventETLCompleted || etl.PipelineID != "pipe-1" || etl.RowsLoaded != 42 {
		t.Errorf("ETLCompleted事件字段错误: %+v", etl)
	}
}

func TestEventLog_Snapshot(t *testing.T) {
	eventLog := NewEventLog(nil)
	eventLog.Append(NewWorkflowStartedEvent("wf-1"))

	snapshot := eventLog.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("快照数量错误，期望: 1, 实际: %d", len(snapshot))
	}

	// 快照是副本，追加不影响已取得的快照
	eventLog.Append(NewJobCompletedEvent("wf-1", "job-1", true))
	if len(snapshot) != 1 {
		t.Error("快照不应该随后续追加变化")
	}
	if eventLog.Len() != 2 {
		t.Errorf("日志数量错误，期望: 2, 实际: %d", eventLog.Len())
	}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(false)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("订阅事件总线失败: %v", err)
	}

	sent := NewETLCompletedEvent("pipe-1", true, 5)
	if err := bus.Publish(sent); err != nil {
		t.Fatalf("发布事件失败: %v", err)
	}

	select {
	case msg := <-messages:
		var received Event
		if err := json.Unmarshal(msg.Payload, &received); err != nil {
			t.Fatalf("解码事件失败: %v", err)
		}
		msg.Ack()
		if received.ID != sent.ID || received.Type != EventETLCompleted || received.RowsLoaded != 5 {
			t.Errorf("接收到的事件错误: %+v", received)
		}
	case <-ctx.Done():
		t.Fatal("等待事件超时")
	}
}

func TestEventLog_PublishesToBus(t *testing.T) {
	bus := NewEventBus(false)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("订阅事件总线失败: %v", err)
	}

	base := NewBase("wired", bus)
	base.Record(NewWorkflowStartedEvent("wf-1"))

	select {
	case msg := <-messages:
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("引擎事件应该被转发到总线")
	}
}
