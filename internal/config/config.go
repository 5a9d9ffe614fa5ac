package config

import (
	"errors"
	"fmt"
	"os"

	"parkbot/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Approval   ApprovalConfig   `yaml:"approval"`
	Worker     WorkerConfig     `yaml:"worker"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Debug       bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RetrievalConfig struct {
	DocsPath        string `yaml:"docs_path"`
	TopK            int    `yaml:"top_k"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
}

type ApprovalConfig struct {
	AutoApprove          bool `yaml:"auto_approve"`
	SimulatedDelayMillis int  `yaml:"simulated_delay_millis"`
	WaitSeconds          int  `yaml:"wait_seconds"`
	PollIntervalMillis   int  `yaml:"poll_interval_millis"`
}

type WorkerConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; environment variables may be set externally.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables referenced in the YAML are expanded first.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate covers startup-fatal misconfiguration. Missing credentials for
// an explicitly requested integration fail here, never mid-workflow.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
			return errors.New("telegram bot token is required when telegram is enabled")
		}
		if c.Telegram.AdminChatID == 0 {
			return errors.New("telegram admin chat id is required when telegram is enabled")
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "parkbot"
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = models.DefaultRetrievalTopK
	}
	if c.Retrieval.CacheTTLMinutes == 0 {
		c.Retrieval.CacheTTLMinutes = models.DefaultCacheTTLMinutes
	}
	if c.Approval.SimulatedDelayMillis == 0 {
		c.Approval.SimulatedDelayMillis = models.DefaultSimulatedDelayMillis
	}
	if c.Approval.WaitSeconds == 0 {
		c.Approval.WaitSeconds = models.DefaultApprovalWaitSeconds
	}
	if c.Approval.PollIntervalMillis == 0 {
		c.Approval.PollIntervalMillis = models.DefaultApprovalPollMillis
	}
	if c.Worker.IntervalSeconds == 0 {
		c.Worker.IntervalSeconds = models.DefaultWorkerIntervalSeconds
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
