package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/flow-engine/internal/storage"
	"github.com/LENAX/flow-engine/pkg/api"
	"github.com/LENAX/flow-engine/pkg/cli/output"
	"github.com/LENAX/flow-engine/pkg/config"
	"github.com/LENAX/flow-engine/pkg/core/engine"
	"github.com/LENAX/flow-engine/pkg/core/etl"
	"github.com/LENAX/flow-engine/pkg/core/executor"
	"github.com/LENAX/flow-engine/pkg/core/scheduler"
	"github.com/LENAX/flow-engine/pkg/core/workflow"
	pkgstorage "github.com/LENAX/flow-engine/pkg/storage"
)

var (
	serverPort int
	serverHost string
	configPath string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理Flow Engine HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动Flow Engine HTTP API服务。

示例：
  # 使用默认配置启动
  flow-engine server start

  # 指定端口启动
  flow-engine server start --port 8080

  # 指定配置文件启动
  flow-engine server start --config ./configs/flow-engine.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if serverPort > 0 {
			cfg.Server.Port = serverPort
		}
		if serverHost != "" {
			cfg.Server.Host = serverHost
		}

		// 组装引擎
		bus := engine.NewEventBus(cfg.Engine.EventBusDebug)
		defer bus.Close()

		stepExecutor := executor.NewDefaultStepExecutor()
		wfEngine := workflow.NewWorkflowEngine(stepExecutor, cfg.Engine.MaxConcurrency, bus)
		etlEngine := etl.NewETLEngine(bus)
		sched := scheduler.NewScheduler(bus)

		// 可选：运行历史落库（仅审计用途）
		var history pkgstorage.RunHistoryRepository
		if cfg.Storage.Enabled {
			history, err = storage.NewRunHistoryRepository(cfg.Storage.Driver, cfg.Storage.DSN)
			if err != nil {
				output.Error("初始化运行历史存储失败: %v", err)
				return err
			}
			defer history.Close()
			output.Info("运行历史存储已开启: driver=%s", cfg.Storage.Driver)
		}

		server := api.NewAPIServer(api.Deps{
			WorkflowEngine: wfEngine,
			ETLEngine:      etlEngine,
			Scheduler:      sched,
			Executor:       stepExecutor,
			Bus:            bus,
			History:        history,
			Version:        Version,
		}, api.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		})

		// 后台启动，等待退出信号
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				output.Error("服务启动失败: %v", err)
				return err
			}
		case <-quit:
			output.Info("收到退出信号，正在关闭...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				output.Error("服务关闭失败: %v", err)
				return err
			}
		}
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "监听端口（覆盖配置文件）")
	serverStartCmd.Flags().StringVar(&serverHost, "host", "", "监听地址（覆盖配置文件）")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "./configs/flow-engine.yaml", "配置文件路径")
	serverCmd.AddCommand(serverStartCmd)
}
