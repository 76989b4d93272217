// Package dto 定义API请求/响应结构
package dto

// StepSpec Step定义
type StepSpec struct {
	Name    string `json:"name"`
	Type    string `json:"type" binding:"required"` // shell/http/custom
	Command string `json:"command" binding:"required"`
}

// JobSpec Job定义
type JobSpec struct {
	Name      string     `json:"name" binding:"required"`
	Steps     []StepSpec `json:"steps"`
	DependsOn []string   `json:"depends_on"`
}

// ExecuteWorkflowRequest 执行Workflow请求
type ExecuteWorkflowRequest struct {
	Name string    `json:"name" binding:"required"`
	Jobs []JobSpec `json:"jobs"`
}

// ExtractorSpec 抽取器定义
type ExtractorSpec struct {
	Type        string                   `json:"type" binding:"required"` // inline/html_table
	Rows        []map[string]interface{} `json:"rows,omitempty"`          // inline专用
	RowSelector string                   `json:"row_selector,omitempty"`  // html_table专用
}

// TransformSpec 转换器定义
type TransformSpec struct {
	Type   string   `json:"type" binding:"required"` // field_filter
	Fields []string `json:"fields,omitempty"`
}

// ExecuteETLRequest 执行ETL管道请求
type ExecuteETLRequest struct {
	Source     string          `json:"source"`
	Target     string          `json:"target"`
	Extractor  ExtractorSpec   `json:"extractor" binding:"required"`
	Transforms []TransformSpec `json:"transforms"`
}

// RegisterScheduleRequest 注册定时任务请求
// Command作为shell step由默认执行器执行
type RegisterScheduleRequest struct {
	Name      string `json:"name" binding:"required"`
	CronExpr  string `json:"cron_expr" binding:"required"`
	Frequency string `json:"frequency"` // ONCE/HOURLY/DAILY/REPEATING，默认REPEATING
	Command   string `json:"command" binding:"required"`
}
