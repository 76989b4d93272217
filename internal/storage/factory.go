// Package storage 提供运行历史Repository的数据库实现
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	// 数据库驱动
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/flow-engine/pkg/storage"
)

// NewRunHistoryRepository 创建运行历史Repository（对外导出的工厂方法）
// driver: 数据库类型（sqlite/mysql/postgres）
// dsn: 数据库连接字符串
func NewRunHistoryRepository(driver, dsn string) (storage.RunHistoryRepository, error) {
	var driverName string
	switch driver {
	case "sqlite":
		driverName = "sqlite3"
	case "mysql":
		driverName = "mysql"
	case "postgres", "postgresql":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s failed: %w", driver, err)
	}
	return newHistoryRepo(db)
}
