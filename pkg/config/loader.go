package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load 加载配置文件
// 文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s failed: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s failed: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置合法性
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", cfg.Server.Port)
	}
	if cfg.Storage.Enabled {
		validDrivers := map[string]bool{
			"sqlite":     true,
			"mysql":      true,
			"postgres":   true,
			"postgresql": true,
		}
		if !validDrivers[cfg.Storage.Driver] {
			return fmt.Errorf("storage.driver must be sqlite/mysql/postgres, got %q", cfg.Storage.Driver)
		}
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must not be empty when storage is enabled")
		}
	}
	return nil
}
