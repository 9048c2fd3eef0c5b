package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	ScoreBox ScoreBoxConfig `yaml:"scorebox"`
}

// SourceConfig is the MySQL store holding otp_reports.
type SourceConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	Table    string `yaml:"table"`
}

// DatabaseConfig is the Postgres report archive. Empty host disables it.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	ReportRequestedTopicName string `yaml:"report_requested_topic_name"`
	ReportGeneratedTopicName string `yaml:"report_generated_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TargetsConfig struct {
	OTP      float64 `yaml:"otp"`
	OTD      float64 `yaml:"otd"`
	Tracking float64 `yaml:"tracking"`
}

type ScoreBoxConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	ReportCacheTTLSeconds   int `yaml:"report_cache_ttl_seconds"`
	CarriersCacheTTLSeconds int `yaml:"carriers_cache_ttl_seconds"`

	// SinceDate is the YYYY-MM-DD floor for fetched shipments.
	SinceDate string `yaml:"since_date"`

	// bcrypt hash; empty disables the password gate
	PasswordHash       string `yaml:"password_hash"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`

	WorkerHTTPAddr            string `yaml:"worker_http_addr"`
	RefreshIntervalSeconds    int    `yaml:"refresh_interval_seconds"`
	RefreshConcurrency        int    `yaml:"refresh_concurrency"`
	RefreshRateLimitPerMinute int    `yaml:"refresh_rate_limit_per_minute"`
	RefreshBackoffMaxSeconds  int    `yaml:"refresh_backoff_max_seconds"`
	ActiveCarrierWeeks        int    `yaml:"active_carrier_weeks"`
	ActiveCarrierMinShipments int    `yaml:"active_carrier_min_shipments"`

	LogLevel  string        `yaml:"log_level"`
	OutputDir string        `yaml:"output_dir"`
	Targets   TargetsConfig `yaml:"targets"`
}

// Env overrides for secrets.
const (
	EnvSourcePassword   = "SOURCE_PASSWORD"
	EnvDatabasePassword = "DATABASE_PASSWORD"
	EnvPasswordHash     = "SCOREBOX_PASSWORD_HASH"
)

func LoadConfig(filename string) (*Config, error) {
	// .env необязателен: в контейнере секреты приходят через окружение.
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyEnv()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvSourcePassword); ok {
		c.Source.Password = v
	}
	if v, ok := os.LookupEnv(EnvDatabasePassword); ok {
		c.Database.Password = v
	}
	if v, ok := os.LookupEnv(EnvPasswordHash); ok {
		c.ScoreBox.PasswordHash = strings.TrimSpace(v)
	}
}

func (c *Config) validate() error {
	if c.ScoreBox.SinceDate != "" {
		if _, err := time.Parse(time.DateOnly, c.ScoreBox.SinceDate); err != nil {
			return fmt.Errorf("invalid scorebox.since_date: %w", err)
		}
	}
	return nil
}

// Since returns the parsed since_date or def when unset.
func (c ScoreBoxConfig) Since(def time.Time) time.Time {
	if c.SinceDate == "" {
		return def
	}
	t, err := time.Parse(time.DateOnly, c.SinceDate)
	if err != nil {
		return def
	}
	return t
}

// Brokers returns nil when Kafka is not configured.
func (c KafkaConfig) Brokers() []string {
	if c.Host == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s:%d", c.Host, c.Port)}
}

func (c RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) ConnString() string {
	if c.Host == "" {
		return ""
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}
