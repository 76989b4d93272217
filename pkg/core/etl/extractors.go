package etl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// NewInlineExtractor 创建内联数据抽取函数（对外导出）
// 忽略source，直接返回给定行的副本；用于API内联数据与测试
func NewInlineExtractor(rows []Record) ExtractFunc {
	return func(ctx context.Context, source string) ([]Record, error) {
		out := make([]Record, len(rows))
		copy(out, rows)
		return out, nil
	}
}

// NewHTMLTableExtractor 创建HTML表格抽取函数（对外导出）
// 对source指定的URL发起GET请求，用rowSelector选中行元素，
// 每行的td/th单元格按顺序映射为 col_0, col_1, ... 字段
func NewHTMLTableExtractor(client *http.Client, rowSelector string) ExtractFunc {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(ctx context.Context, source string) ([]Record, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s failed: %w", source, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s returned status %d", source, resp.StatusCode)
		}
		return ParseHTMLTable(resp.Body, rowSelector)
	}
}

// ParseHTMLTable 从HTML中解析表格行（对外导出）
func ParseHTMLTable(r io.Reader, rowSelector string) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html failed: %w", err)
	}

	rows := make([]Record, 0)
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		record := make(Record)
		row.Find("td, th").Each(func(col int, cell *goquery.Selection) {
			record[fmt.Sprintf("col_%d", col)] = strings.TrimSpace(cell.Text())
		})
		if len(record) > 0 {
			rows = append(rows, record)
		}
	})
	return rows, nil
}

// NewCountLoader 创建计数加载函数（对外导出）
// 丢弃数据，返回行数；用于只关心行数统计的场景
func NewCountLoader() LoadFunc {
	return func(ctx context.Context, target string, rows []Record) (int, error) {
		return len(rows), nil
	}
}

// NewFieldFilterTransform 创建字段过滤转换函数（对外导出）
// 仅保留给定字段
func NewFieldFilterTransform(fields ...string) TransformFunc {
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	return func(ctx context.Context, rows []Record) ([]Record, error) {
		out := make([]Record, 0, len(rows))
		for _, row := range rows {
			filtered := make(Record, len(keep))
			for k, v := range row {
				if keep[k] {
					filtered[k] = v
				}
			}
			out = append(out, filtered)
		}
		return out, nil
	}
}
