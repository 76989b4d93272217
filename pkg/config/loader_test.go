package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow-engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
engine:
  max_concurrency: 4
  event_bus_debug: true
storage:
  enabled: true
  driver: sqlite
  dsn: /tmp/history.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server配置错误: %+v", cfg.Server)
	}
	if cfg.Engine.MaxConcurrency != 4 || !cfg.Engine.EventBusDebug {
		t.Errorf("engine配置错误: %+v", cfg.Engine)
	}
	if !cfg.Storage.Enabled || cfg.Storage.DSN != "/tmp/history.db" {
		t.Errorf("storage配置错误: %+v", cfg.Storage)
	}
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("缺失配置文件应该回退默认配置，实际错误: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Engine.MaxConcurrency != 10 {
		t.Errorf("默认配置错误: %+v", cfg)
	}
}

func TestLoad_PartialOverridesDefault(t *testing.T) {
	// 只覆盖端口，其余保持默认
	path := writeConfig(t, "server:\n  port: 3000\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("端口覆盖失败，实际: %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("未覆盖字段应该保持默认，实际: %s", cfg.Server.Host)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("非法YAML应该返回错误")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"默认配置合法", func(c *Config) {}, false},
		{"端口为零", func(c *Config) { c.Server.Port = 0 }, true},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, true},
		{"未知存储驱动", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Driver = "oracle"
		}, true},
		{"开启存储但DSN为空", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.DSN = ""
		}, true},
		{"postgres驱动别名", func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Driver = "postgresql"
			c.Storage.DSN = "postgres://localhost/flow"
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr && err == nil {
				t.Error("期望校验失败，实际通过")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("期望校验通过，实际错误: %v", err)
			}
		})
	}
}
