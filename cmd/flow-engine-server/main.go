// flow-engine-server 独立HTTP服务入口
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LENAX/flow-engine/internal/storage"
	"github.com/LENAX/flow-engine/pkg/api"
	"github.com/LENAX/flow-engine/pkg/config"
	"github.com/LENAX/flow-engine/pkg/core/engine"
	"github.com/LENAX/flow-engine/pkg/core/etl"
	"github.com/LENAX/flow-engine/pkg/core/executor"
	"github.com/LENAX/flow-engine/pkg/core/scheduler"
	"github.com/LENAX/flow-engine/pkg/core/workflow"
	pkgstorage "github.com/LENAX/flow-engine/pkg/storage"
)

var version = "0.3.1"

func main() {
	configPath := flag.String("config", "./configs/flow-engine.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ 加载配置失败: %v", err)
	}

	bus := engine.NewEventBus(cfg.Engine.EventBusDebug)
	defer bus.Close()

	stepExecutor := executor.NewDefaultStepExecutor()
	wfEngine := workflow.NewWorkflowEngine(stepExecutor, cfg.Engine.MaxConcurrency, bus)
	etlEngine := etl.NewETLEngine(bus)
	sched := scheduler.NewScheduler(bus)

	var history pkgstorage.RunHistoryRepository
	if cfg.Storage.Enabled {
		history, err = storage.NewRunHistoryRepository(cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("❌ 初始化运行历史存储失败: %v", err)
		}
		defer history.Close()
	}

	server := api.NewAPIServer(api.Deps{
		WorkflowEngine: wfEngine,
		ETLEngine:      etlEngine,
		Scheduler:      sched,
		Executor:       stepExecutor,
		Bus:            bus,
		History:        history,
		Version:        version,
	}, api.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("❌ 服务启动失败: %v", err)
		}
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("❌ 服务关闭失败: %v", err)
		}
	}
}
