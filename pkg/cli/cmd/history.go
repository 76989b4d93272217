package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/flow-engine/pkg/cli/output"
)

var (
	historyKind  string
	historyLimit int
)

// runRecordView 服务端运行记录视图
type runRecordView struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RefID      string    `json:"ref_id"`
	RefName    string    `json:"ref_name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// historyCmd 运行历史查询命令
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "查询运行历史",
	Long:  `查询工作流/ETL/定时任务的运行历史（需服务端开启落库）。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s/api/v1/history?kind=%s&limit=%d", serverURL, historyKind, historyLimit)

		var resp struct {
			Code    int             `json:"code"`
			Message string          `json:"message"`
			Data    []runRecordView `json:"data"`
		}
		if err := getJSON(url, &resp); err != nil {
			output.Error("请求失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(resp.Data)
		}

		table := output.NewTable([]string{"KIND", "NAME", "STATUS", "STARTED", "DURATION"})
		for _, rec := range resp.Data {
			table.AddRow([]string{
				rec.Kind,
				rec.RefName,
				rec.Status,
				rec.StartedAt.Format("2006-01-02 15:04:05"),
				rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond).String(),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyKind, "kind", "k", "", "记录类别（workflow/etl/scheduler，空为全部）")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "返回条数上限")
}
