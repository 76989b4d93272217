package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LENAX/flow-engine/pkg/storage"
)

func newTestRepo(t *testing.T) storage.RunHistoryRepository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "history.db")
	repo, err := NewRunHistoryRepository("sqlite", dsn)
	if err != nil {
		t.Fatalf("初始化sqlite存储失败: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleRecord(kind string, startedAt time.Time) *storage.RunRecord {
	return &storage.RunRecord{
		Kind:       kind,
		RefID:      "ref-1",
		RefName:    "nightly-sync",
		Status:     "COMPLETED",
		Detail:     `{"rows_loaded":5}`,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Second),
	}
}

func TestSaveAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := sampleRecord(storage.KindWorkflow, time.Now().UTC().Truncate(time.Second))
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("保存运行记录失败: %v", err)
	}
	if rec.ID == "" {
		t.Error("Save应该为空ID自动生成UUID")
	}

	records, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("查询运行记录失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("记录数量错误，期望: 1, 实际: %d", len(records))
	}
	got := records[0]
	if got.ID != rec.ID || got.Kind != storage.KindWorkflow || got.RefName != "nightly-sync" {
		t.Errorf("记录字段错误: %+v", got)
	}
	if got.Detail != `{"rows_loaded":5}` {
		t.Errorf("Detail字段错误: %s", got.Detail)
	}
}

func TestList_KindFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i, kind := range []string{storage.KindWorkflow, storage.KindETL, storage.KindWorkflow} {
		if err := repo.Save(ctx, sampleRecord(kind, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("保存运行记录失败: %v", err)
		}
	}

	workflows, err := repo.List(ctx, storage.KindWorkflow, 10)
	if err != nil {
		t.Fatalf("查询运行记录失败: %v", err)
	}
	if len(workflows) != 2 {
		t.Errorf("workflow记录数量错误，期望: 2, 实际: %d", len(workflows))
	}

	etls, err := repo.List(ctx, storage.KindETL, 10)
	if err != nil {
		t.Fatalf("查询运行记录失败: %v", err)
	}
	if len(etls) != 1 {
		t.Errorf("etl记录数量错误，期望: 1, 实际: %d", len(etls))
	}
}

func TestList_OrderAndLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 5; i++ {
		rec := sampleRecord(storage.KindScheduler, base.Add(time.Duration(i)*time.Minute))
		rec.RefName = rec.RefName + "-" + string(rune('a'+i))
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("保存运行记录失败: %v", err)
		}
	}

	records, err := repo.List(ctx, "", 3)
	if err != nil {
		t.Fatalf("查询运行记录失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("limit应该生效，期望: 3, 实际: %d", len(records))
	}
	// 按started_at倒序
	for i := 1; i < len(records); i++ {
		if records[i].StartedAt.After(records[i-1].StartedAt) {
			t.Errorf("记录应该按started_at倒序排列: %v after %v",
				records[i].StartedAt, records[i-1].StartedAt)
		}
	}
}

func TestList_DefaultLimit(t *testing.T) {
	repo := newTestRepo(t)
	records, err := repo.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("limit<=0应该使用默认上限，实际错误: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("空表应该返回空列表，实际: %d条", len(records))
	}
}

func TestNewRunHistoryRepository_UnknownDriver(t *testing.T) {
	if _, err := NewRunHistoryRepository("oracle", "dsn"); err == nil {
		t.Fatal("未知驱动应该返回错误")
	}
}
