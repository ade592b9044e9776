package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	MinIO    MinIOConfig
	RabbitMQ RabbitMQConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type WorkerConfig struct {
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"catalog"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"catalog"`
	DBName   string `envconfig:"POSTGRES_DB" default:"catalog"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// CacheConfig carries the per-endpoint TTL policy. TTLs are deployment
// policy, not code: endpoints read them from here and never hardcode them.
type CacheConfig struct {
	FeedTTL        time.Duration `envconfig:"CACHE_FEED_TTL" default:"60s"`
	SeriesTTL      time.Duration `envconfig:"CACHE_SERIES_TTL" default:"5m"`
	RelatedTTL     time.Duration `envconfig:"CACHE_RELATED_TTL" default:"5m"`
	CategoriesTTL  time.Duration `envconfig:"CACHE_CATEGORIES_TTL" default:"10m"`
	PlaybackURLTTL time.Duration `envconfig:"CACHE_PLAYBACK_URL_TTL" default:"15m"`
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT" default:""`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"catalog-assets"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type RabbitMQConfig struct {
	Host         string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port         int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User         string `envconfig:"RABBITMQ_USER" default:"catalog"`
	Password     string `envconfig:"RABBITMQ_PASSWORD" default:"catalog"`
	VHost        string `envconfig:"RABBITMQ_VHOST" default:"/"`
	Exchange     string `envconfig:"RABBITMQ_EXCHANGE" default:"catalog.events"`
	MetricsQueue string `envconfig:"RABBITMQ_METRICS_QUEUE" default:"engagement_metrics"`
	Prefetch     int    `envconfig:"RABBITMQ_PREFETCH" default:"1"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
