package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Mode 表示网关运行模式。
type Mode string

const (
	// ModeMock 完全模拟，不接触任何外部券商通道。
	ModeMock Mode = "mock"
	// ModeDev 连接券商通道获取真实数据，但禁止真实交易。
	ModeDev Mode = "dev"
	// ModeProd 生产模式，配合 allow_real_trading 才放行真实交易。
	ModeProd Mode = "prod"
)

// ParseMode 解析运行模式字符串。
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMock:
		return ModeMock, nil
	case ModeDev:
		return ModeDev, nil
	case ModeProd:
		return ModeProd, nil
	default:
		return "", fmt.Errorf("未知的运行模式 %q", s)
	}
}

// Config 聚合网关运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// BrokerConfig 描述券商通道连接与交易开关。
type BrokerConfig struct {
	Mode             Mode           `mapstructure:"mode"`
	AllowRealTrading bool           `mapstructure:"allow_real_trading"`
	BridgeEndpoint   string         `mapstructure:"bridge_endpoint"`
	Exchange         ExchangeConfig `mapstructure:"exchange"`
	Retry            RetryConfig    `mapstructure:"retry"`
}

// ExchangeConfig 描述 ccxt 通道的交易所连接信息。
type ExchangeConfig struct {
	Name       string `mapstructure:"name"`
	Market     string `mapstructure:"market"`
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	APIPass    string `mapstructure:"api_password"`
	UseSandbox bool   `mapstructure:"use_sandbox"`
}

// Configured 判断是否提供了可用的交易所凭据。
func (c ExchangeConfig) Configured() bool {
	return c.Name != "" && c.APIKey != "" && c.APISecret != ""
}

// RetryConfig 统一控制查询类调用的重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// DatabaseConfig 管理审计库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// ServerConfig 控制对外 HTTP 服务。
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if _, parseErr := ParseMode(string(c.Broker.Mode)); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("broker.mode 非法: %w", parseErr))
	}
	if c.Broker.AllowRealTrading && c.Broker.Mode != ModeProd {
		err = multierr.Append(err, errors.New("broker.allow_real_trading 只允许在 prod 模式下开启"))
	}
	if c.Broker.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("broker.retry.max_attempts 必须大于0"))
	}
	if c.Broker.Retry.MinDelay <= 0 || c.Broker.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("broker.retry.delay 必须为正"))
	}
	if c.Broker.Retry.MinDelay > c.Broker.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("broker.retry.min_delay 不能大于 max_delay"))
	}
	if c.Broker.BridgeEndpoint != "" && c.Broker.Exchange.Configured() {
		err = multierr.Append(err, errors.New("broker.bridge_endpoint 与 broker.exchange 凭据不能同时配置"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, errors.New("server.port 必须位于(0,65535]"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		err = multierr.Append(err, errors.New("server.shutdown_timeout 必须大于0"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
