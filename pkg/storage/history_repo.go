// Package storage 定义运行历史的Repository接口
// 运行历史为追加式审计数据，引擎自身从不读取它来恢复状态
package storage

import (
	"context"
	"time"
)

// 运行记录类别常量
const (
	KindWorkflow  = "workflow"
	KindETL       = "etl"
	KindScheduler = "scheduler"
)

// RunRecord 一次引擎运行的审计记录（对外导出）
type RunRecord struct {
	ID         string    `db:"id" json:"id"`
	Kind       string    `db:"kind" json:"kind"` // workflow/etl/scheduler
	RefID      string    `db:"ref_id" json:"ref_id"`
	RefName    string    `db:"ref_name" json:"ref_name"`
	Status     string    `db:"status" json:"status"`
	Detail     string    `db:"detail" json:"detail"` // 结果摘要（JSON）
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// RunHistoryRepository 运行历史Repository接口（对外导出）
type RunHistoryRepository interface {
	// Save 追加一条运行记录
	Save(ctx context.Context, rec *RunRecord) error
	// List 按类别倒序列出运行记录；kind为空表示全部，limit<=0表示默认100条
	List(ctx context.Context, kind string, limit int) ([]RunRecord, error)
	// Close 关闭底层连接
	Close() error
}
