package etl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const tableHTML = `
<html><body>
<table id="prices">
  <tr><th>Name</th><th>Price</th></tr>
  <tr><td>apple</td><td>3.50</td></tr>
  <tr><td>banana</td><td>1.20</td></tr>
</table>
</body></html>`

func TestParseHTMLTable(t *testing.T) {
	rows, err := ParseHTMLTable(strings.NewReader(tableHTML), "table#prices tr")
	if err != nil {
		t.Fatalf("解析HTML表格失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("行数错误，期望: 3, 实际: %d", len(rows))
	}
	if rows[0]["col_0"] != "Name" || rows[0]["col_1"] != "Price" {
		t.Errorf("表头行解析错误: %v", rows[0])
	}
	if rows[1]["col_0"] != "apple" || rows[1]["col_1"] != "3.50" {
		t.Errorf("数据行解析错误: %v", rows[1])
	}
}

func TestParseHTMLTable_NoMatch(t *testing.T) {
	rows, err := ParseHTMLTable(strings.NewReader(tableHTML), "table#missing tr")
	if err != nil {
		t.Fatalf("解析HTML表格失败: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("选择器无匹配时应该返回空，实际: %v", rows)
	}
}

func TestNewHTMLTableExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tableHTML))
	}))
	defer srv.Close()

	extract := NewHTMLTableExtractor(srv.Client(), "table#prices tr")
	rows, err := extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("HTML表格抽取失败: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("行数错误，期望: 3, 实际: %d", len(rows))
	}
}

func TestNewHTMLTableExtractor_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	extract := NewHTMLTableExtractor(srv.Client(), "tr")
	if _, err := extract(context.Background(), srv.URL); err == nil {
		t.Fatal("非200响应应该返回错误")
	}
}

func TestNewInlineExtractor(t *testing.T) {
	src := []Record{{"a": 1}, {"a": 2}}
	extract := NewInlineExtractor(src)

	rows, err := extract(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("内联抽取失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("行数错误，期望: 2, 实际: %d", len(rows))
	}
}

func TestNewFieldFilterTransform(t *testing.T) {
	transform := NewFieldFilterTransform("name")

	rows, err := transform(context.Background(), []Record{
		{"name": "apple", "price": 3.5, "origin": "cn"},
	})
	if err != nil {
		t.Fatalf("字段过滤失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("行数错误，期望: 1, 实际: %d", len(rows))
	}
	if rows[0]["name"] != "apple" {
		t.Errorf("保留字段丢失: %v", rows[0])
	}
	if _, exists := rows[0]["price"]; exists {
		t.Errorf("未保留字段应该被过滤: %v", rows[0])
	}
}

func TestNewCountLoader(t *testing.T) {
	load := NewCountLoader()
	n, err := load(context.Background(), "sink", []Record{{}, {}, {}})
	if err != nil {
		t.Fatalf("计数加载失败: %v", err)
	}
	if n != 3 {
		t.Errorf("加载行数错误，期望: 3, 实际: %d", n)
	}
}
