// Package cmd 提供flow-engine CLI命令
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "flow-engine",
	Short: "Flow Engine CLI - 运行时编排核心命令行工具",
	Long: `Flow Engine CLI 是运行时编排核心（工作流/ETL/定时调度）的命令行工具。

支持的功能：
  - 启动HTTP API服务
  - 管理定时任务（列出、立即执行）
  - 查询运行历史

使用示例：
  # 启动HTTP服务
  flow-engine server start --port 8080

  # 列出定时任务
  flow-engine scheduler list

  # 立即执行定时任务
  flow-engine scheduler run <job-name>

  # 查询运行历史
  flow-engine history --kind workflow`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Flow Engine服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 添加子命令
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
