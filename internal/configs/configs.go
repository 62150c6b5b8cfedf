package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/songzhibin97/masquerade/internal/pools"
	"github.com/songzhibin97/masquerade/internal/privacy"
)

// 环境变量覆盖配置文件
const (
	EnvDBConn     = "MASQUERADE_DB_CONN"
	EnvBackendURL = "MASQUERADE_BACKEND_URL"
	EnvBackendKey = "MASQUERADE_BACKEND_KEY"
	EnvProxy      = "MASQUERADE_PROXY"
)

type Config struct {
	// 基础配置
	ListenAddr      string `json:"listen_addr" yaml:"listen_addr"`           // HTTP 监听地址
	LogLevel        string `json:"log_level" yaml:"log_level"`               // debug/info/warn/error
	RefreshInterval string `json:"refresh_interval" yaml:"refresh_interval"` // ETH 价格刷新间隔
	Proxy           string `json:"proxy" yaml:"proxy"`

	// 隐私计算参数
	Privacy PrivacyConfig `json:"privacy" yaml:"privacy"`

	Database Database `json:"database" yaml:"database"`

	// 托管后端 (REST)
	Backend BackendConfig `json:"backend" yaml:"backend"`

	// 交易所配置, 仅用于 ETH 价格
	ExchangeConfig ExchangeConfig `json:"exchange_config" yaml:"exchange_config"`

	// 交易模拟参数
	Simulator SimulatorConfig `json:"simulator" yaml:"simulator"`
}

type PrivacyConfig struct {
	DefaultLevel    string  `json:"default_level" yaml:"default_level"`
	DefaultETHPrice float64 `json:"default_eth_price" yaml:"default_eth_price"` // 无行情时的 ETH/USD
	BaseFeeGwei     float64 `json:"base_fee_gwei" yaml:"base_fee_gwei"`
	PriorityFeeGwei float64 `json:"priority_fee_gwei" yaml:"priority_fee_gwei"`
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串
}

type BackendConfig struct {
	URL    string `json:"url" yaml:"url"`
	APIKey string `json:"api_key" yaml:"api_key"`
}

type ExchangeConfig struct {
	Testnet   bool   `json:"testnet" yaml:"testnet"`
	APIKey    string `json:"api_key" yaml:"api_key"`       // 交易所API密钥
	SecretKey string `json:"secret_key" yaml:"secret_key"` // 交易所密钥
}

type SimulatorConfig struct {
	PendingDelay    string  `json:"pending_delay" yaml:"pending_delay"`
	ProcessingDelay string  `json:"processing_delay" yaml:"processing_delay"`
	FailureRate     float64 `json:"failure_rate" yaml:"failure_rate"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		ListenAddr:      ":8080",
		LogLevel:        "info",
		RefreshInterval: "30s",
		Privacy: PrivacyConfig{
			DefaultLevel:    string(privacy.LevelStandard),
			DefaultETHPrice: privacy.DefaultETHPriceUSD,
			BaseFeeGwei:     privacy.DefaultFees.BaseFeeGwei,
			PriorityFeeGwei: privacy.DefaultFees.PriorityFeeGwei,
		},
		Simulator: SimulatorConfig{
			PendingDelay:    "1s",
			ProcessingDelay: "3s",
			FailureRate:     0.1,
		},
	}
}

// Load reads path over Default(). An empty path yields the defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(raw, cfg)
		default:
			err = json.Unmarshal(raw, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env 可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBConn); v != "" {
		c.Database.ConnStr = v
	}
	if v := os.Getenv(EnvBackendURL); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv(EnvBackendKey); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		c.Proxy = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	if _, err := privacy.ParsePrivacyLevel(c.Privacy.DefaultLevel); err != nil {
		return fmt.Errorf("privacy.default_level: %w", err)
	}
	if !positive(c.Privacy.DefaultETHPrice) {
		return fmt.Errorf("privacy.default_eth_price must be positive, got %v", c.Privacy.DefaultETHPrice)
	}
	if c.Privacy.BaseFeeGwei < 0 || c.Privacy.PriorityFeeGwei < 0 {
		return errors.New("privacy fees must not be negative")
	}
	if _, err := c.RefreshEvery(); err != nil {
		return err
	}
	if _, err := c.SimulatorSettings(); err != nil {
		return err
	}
	if c.Backend.URL != "" && c.Backend.APIKey == "" {
		return errors.New("backend.api_key is required when backend.url is set")
	}
	return nil
}

// DefaultLevel returns the configured default privacy level.
func (c *Config) DefaultLevel() privacy.PrivacyLevel {
	level, err := privacy.ParsePrivacyLevel(c.Privacy.DefaultLevel)
	if err != nil {
		return privacy.LevelStandard
	}
	return level
}

func (c *Config) Fees() privacy.Fees {
	return privacy.Fees{
		BaseFeeGwei:     c.Privacy.BaseFeeGwei,
		PriorityFeeGwei: c.Privacy.PriorityFeeGwei,
	}
}

func (c *Config) RefreshEvery() (time.Duration, error) {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("refresh_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("refresh_interval must be positive, got %s", d)
	}
	return d, nil
}

// SimulatorSettings 转换为 pools.SimulatorConfig
func (c *Config) SimulatorSettings() (pools.SimulatorConfig, error) {
	pending, err := time.ParseDuration(c.Simulator.PendingDelay)
	if err != nil {
		return pools.SimulatorConfig{}, fmt.Errorf("simulator.pending_delay: %w", err)
	}
	processing, err := time.ParseDuration(c.Simulator.ProcessingDelay)
	if err != nil {
		return pools.SimulatorConfig{}, fmt.Errorf("simulator.processing_delay: %w", err)
	}
	if pending < 0 || processing < 0 {
		return pools.SimulatorConfig{}, errors.New("simulator delays must not be negative")
	}
	rate := c.Simulator.FailureRate
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		return pools.SimulatorConfig{}, fmt.Errorf("simulator.failure_rate must be within [0, 1], got %v", rate)
	}

	return pools.SimulatorConfig{
		PendingDelay:    pending,
		ProcessingDelay: processing,
		FailureRate:     rate,
	}, nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
