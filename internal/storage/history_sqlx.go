package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LENAX/flow-engine/pkg/storage"
)

// run_history建表语句（三种方言通用的保守子集）
const schemaRunHistory = `
CREATE TABLE IF NOT EXISTS run_history (
	id          VARCHAR(36)  PRIMARY KEY,
	kind        VARCHAR(16)  NOT NULL,
	ref_id      VARCHAR(128) NOT NULL,
	ref_name    VARCHAR(255) NOT NULL,
	status      VARCHAR(16)  NOT NULL,
	detail      TEXT,
	started_at  TIMESTAMP    NOT NULL,
	finished_at TIMESTAMP    NOT NULL
)`

// historyRepo 基于sqlx的RunHistoryRepository实现（内部结构）
// 同一实现服务sqlite/mysql/postgres，占位符经Rebind适配方言
type historyRepo struct {
	db *sqlx.DB
}

// newHistoryRepo 创建Repository并初始化表结构
func newHistoryRepo(db *sqlx.DB) (*historyRepo, error) {
	if _, err := db.Exec(schemaRunHistory); err != nil {
		return nil, fmt.Errorf("create run_history table failed: %w", err)
	}
	return &historyRepo{db: db}, nil
}

// Save 追加一条运行记录（实现RunHistoryRepository接口）
func (r *historyRepo) Save(ctx context.Context, rec *storage.RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	query := r.db.Rebind(`
		INSERT INTO run_history (id, kind, ref_id, ref_name, status, detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Kind, rec.RefID, rec.RefName, rec.Status, rec.Detail, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("save run record failed: %w", err)
	}
	return nil
}

// List 按类别倒序列出运行记录（实现RunHistoryRepository接口）
func (r *historyRepo) List(ctx context.Context, kind string, limit int) ([]storage.RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		records []storage.RunRecord
		err     error
	)
	if kind == "" {
		query := r.db.Rebind(`
			SELECT id, kind, ref_id, ref_name, status, detail, started_at, finished_at
			FROM run_history ORDER BY started_at DESC LIMIT ?`)
		err = r.db.SelectContext(ctx, &records, query, limit)
	} else {
		query := r.db.Rebind(`
			SELECT id, kind, ref_id, ref_name, status, detail, started_at, finished_at
			FROM run_history WHERE kind = ? ORDER BY started_at DESC LIMIT ?`)
		err = r.db.SelectContext(ctx, &records, query, kind, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list run records failed: %w", err)
	}
	return records, nil
}

// Close 关闭数据库连接（实现RunHistoryRepository接口）
func (r *historyRepo) Close() error {
	return r.db.Close()
}
