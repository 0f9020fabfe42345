package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	PostgresURL        string        `env:"POSTGRES_URL,required"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	AlertStream        string        `env:"ALERT_STREAM" envDefault:"stock_alerts"`
	AlertScanInterval  time.Duration `env:"ALERT_SCAN_INTERVAL" envDefault:"30s"`
	APIServerAddr      string        `env:"API_SERVER_ADDR" envDefault:":8080"`
	AdminServerAddr    string        `env:"ADMIN_SERVER_ADDR" envDefault:":9091"`
	MutationRatePerSec float64       `env:"MUTATION_RATE_PER_SEC" envDefault:"25"`
	MutationBurst      int           `env:"MUTATION_BURST" envDefault:"50"`
}

// AgentConfig holds configuration for the offline-capable agent.
type AgentConfig struct {
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	ServerURL           string        `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	Principal           string        `env:"AGENT_PRINCIPAL,required"`
	LocalAddr           string        `env:"AGENT_LOCAL_ADDR" envDefault:"127.0.0.1:7070"`
	JournalPath         string        `env:"JOURNAL_PATH" envDefault:"./data/journal"`
	JournalSegmentSize  int64         `env:"JOURNAL_SEGMENT_SIZE_BYTES" envDefault:"1048576"`  // 1MB
	JournalMaxDiskSize  int64         `env:"JOURNAL_MAX_DISK_SIZE_BYTES" envDefault:"67108864"` // 64MB
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"5s"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

// Load reads server configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAgent reads agent configuration from environment variables.
func LoadAgent() (*AgentConfig, error) {
	_ = godotenv.Load()

	cfg := &AgentConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
