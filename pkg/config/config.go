package config

import "time"

// Messaging definition messaging_service YAML structure
type Messaging struct {
	Port string `mapstructure:"port"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	RabbitMQ   RabbitConfig   `mapstructure:"rabbit"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`

	// EnableRealtime turns the redis-backed realtime bus on/off.
	EnableRealtime bool `mapstructure:"enable_realtime"`

	// CacheTTL applies to the thread, first-page and identity caches.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// EmailRateWindow is the per-user, per-kind email rate-limit window.
	EmailRateWindow time.Duration `mapstructure:"email_rate_window"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// RabbitConfig definition rabbitmq setting
type RabbitConfig struct {
	URL           string `mapstructure:"url"`
	Queue         string `mapstructure:"queue"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
