// Package config 提供flow-engine的配置结构与YAML加载
package config

// Config flow-engine核心配置
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Engine struct {
		MaxConcurrency int  `yaml:"max_concurrency"` // 同层Job并发上限，<=0表示不限制
		EventBusDebug  bool `yaml:"event_bus_debug"` // 事件总线调试日志
	} `yaml:"engine"`
	Storage struct {
		Enabled bool   `yaml:"enabled"` // 是否开启运行历史落库（仅审计用途）
		Driver  string `yaml:"driver"`  // sqlite/mysql/postgres
		DSN     string `yaml:"dsn"`
	} `yaml:"storage"`
}

// Default 默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Engine.MaxConcurrency = 10
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = "flow-engine.db"
	return cfg
}
