package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/flow-engine/pkg/cli/output"
)

// schedulerCmd scheduler子命令
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "定时任务管理命令",
	Long:  `管理服务端注册的定时任务。`,
}

// scheduledJobView 服务端定时任务视图
type scheduledJobView struct {
	Name      string    `json:"name"`
	CronExpr  string    `json:"cron_expr"`
	Frequency string    `json:"frequency"`
	Enabled   bool      `json:"enabled"`
	RunCount  int       `json:"run_count"`
	LastRun   time.Time `json:"last_run"`
}

// schedulerListCmd 列出定时任务
var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部定时任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Code    int                `json:"code"`
			Message string             `json:"message"`
			Data    []scheduledJobView `json:"data"`
		}
		if err := getJSON(serverURL+"/api/v1/scheduler/jobs", &resp); err != nil {
			output.Error("请求失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(resp.Data)
		}

		table := output.NewTable([]string{"NAME", "CRON", "FREQUENCY", "ENABLED", "RUNS", "LAST RUN"})
		for _, job := range resp.Data {
			lastRun := "-"
			if !job.LastRun.IsZero() {
				lastRun = job.LastRun.Format("2006-01-02 15:04")
			}
			table.AddRow([]string{
				job.Name,
				job.CronExpr,
				job.Frequency,
				strconv.FormatBool(job.Enabled),
				strconv.Itoa(job.RunCount),
				lastRun,
			})
		}
		table.Render()
		return nil
	},
}

// schedulerRunCmd 立即执行定时任务
var schedulerRunCmd = &cobra.Command{
	Use:   "run <job-name>",
	Short: "绕过cron匹配立即执行指定任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s/api/v1/scheduler/jobs/%s/run", serverURL, args[0])
		resp, err := http.Post(url, "application/json", nil)
		if err != nil {
			output.Error("请求失败: %v", err)
			return err
		}
		defer resp.Body.Close()

		var body struct {
			Code    int             `json:"code"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			output.Error("解析响应失败: %v", err)
			return err
		}
		if resp.StatusCode != http.StatusOK {
			output.Error("执行失败: %s", body.Message)
			return fmt.Errorf("run job failed: %s", body.Message)
		}

		output.Success("任务已执行: %s", args[0])
		if outputJSON {
			return output.PrintJSON(body.Data)
		}
		return nil
	},
}

// getJSON GET请求并解码JSON响应
func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func init() {
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}
