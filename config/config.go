package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Provider   ProviderConfig   `yaml:"provider"`
	OrderTrack OrderTrackConfig `yaml:"ordertrack"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                         string `yaml:"host"`
	Port                         int    `yaml:"port"`
	ProviderOrderSyncedTopicName string `yaml:"provider_order_synced_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	// Fake подключает детерминированный офлайн-клиент вместо HTTP.
	Fake bool `yaml:"fake"`

	BreakerFailures    int `yaml:"breaker_failures"`
	BreakerOpenSeconds int `yaml:"breaker_open_seconds"`
}

type OrderTrackConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
	LogLevel           string `yaml:"log_level"`

	LiveTimeoutMillis     int `yaml:"live_timeout_ms"`
	ProgressTimeoutMillis int `yaml:"progress_timeout_ms"`
	RequestTimeoutMillis  int `yaml:"request_timeout_ms"`

	// Проценты прогресса по каноническому статусу, поверх значений по умолчанию.
	ProgressOverrides map[string]int `yaml:"progress_overrides"`

	OnTimeToleranceMinutes int    `yaml:"on_time_tolerance_minutes"`
	Timezone               string `yaml:"timezone"`
	StatsMaxOrders         int    `yaml:"stats_max_orders"`
	StatsWindowDays        int    `yaml:"stats_window_days"`
	StatsCacheTTLSeconds   int    `yaml:"stats_cache_ttl_seconds"`

	WorkerPollIntervalSeconds int `yaml:"worker_poll_interval_seconds"`
	WorkerBatchSize           int `yaml:"worker_batch_size"`
	WorkerConcurrency         int `yaml:"worker_concurrency"`
	WorkerLeaseSeconds        int `yaml:"worker_lease_seconds"`
	WorkerRateLimitPerMinute  int `yaml:"worker_rate_limit_per_minute"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`

	// Расписание синхронизации (опционально), см. syncer.DefaultPlannerConfig.
	WorkerNextSyncPendingSeconds   int `yaml:"worker_next_sync_pending_seconds"`
	WorkerNextSyncActiveMinSeconds int `yaml:"worker_next_sync_active_min_seconds"`
	WorkerNextSyncActiveMaxSeconds int `yaml:"worker_next_sync_active_max_seconds"`
	WorkerNextSyncUnknownSeconds   int `yaml:"worker_next_sync_unknown_seconds"`
	WorkerBackoff1Seconds          int `yaml:"worker_backoff_1_seconds"`
	WorkerBackoff2Seconds          int `yaml:"worker_backoff_2_seconds"`
	WorkerBackoff3Seconds          int `yaml:"worker_backoff_3_seconds"`
	WorkerBackoff4Seconds          int `yaml:"worker_backoff_4_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	// секреты не храним в yaml
	_ = godotenv.Load(".env")
	config.applyEnv()

	return &config, nil
}

func (c *Config) applyEnv() {
	c.Provider.APIKey = cast.ToString(getOrReturnDefault("PROVIDER_API_KEY", c.Provider.APIKey))
	c.Provider.BaseURL = cast.ToString(getOrReturnDefault("PROVIDER_BASE_URL", c.Provider.BaseURL))
	c.Provider.Fake = cast.ToBool(getOrReturnDefault("PROVIDER_FAKE", c.Provider.Fake))

	c.Database.Host = cast.ToString(getOrReturnDefault("DATABASE_HOST", c.Database.Host))
	c.Database.Port = cast.ToInt(getOrReturnDefault("DATABASE_PORT", c.Database.Port))
	c.Database.Password = cast.ToString(getOrReturnDefault("DATABASE_PASSWORD", c.Database.Password))

	c.Redis.Host = cast.ToString(getOrReturnDefault("REDIS_HOST", c.Redis.Host))
	c.Kafka.Host = cast.ToString(getOrReturnDefault("KAFKA_HOST", c.Kafka.Host))

	c.OrderTrack.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", c.OrderTrack.LogLevel))
	c.OrderTrack.HTTPAddr = cast.ToString(getOrReturnDefault("HTTP_ADDR", c.OrderTrack.HTTPAddr))
	c.OrderTrack.StatsMaxOrders = cast.ToInt(getOrReturnDefault("STATS_MAX_ORDERS", c.OrderTrack.StatsMaxOrders))
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}
