package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Timeline  TimelineConfig  `mapstructure:"timeline"`
	Fanout    FanoutConfig    `mapstructure:"fanout"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 权威存储（冷存储）
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres | sqlite
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// RedisConfig 时间线缓存
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// TimelineConfig 各类时间线的缓存上限与 TTL
type TimelineConfig struct {
	HomeTimelineCacheMax       int           `mapstructure:"home_timeline_cache_max"`
	LocalUserTimelineCacheMax  int           `mapstructure:"local_user_timeline_cache_max"`
	RemoteUserTimelineCacheMax int           `mapstructure:"remote_user_timeline_cache_max"`
	UserListTimelineCacheMax   int           `mapstructure:"user_list_timeline_cache_max"`
	LocalTimelineCacheMax      int           `mapstructure:"local_timeline_cache_max"`
	ChannelTimelineCacheMax    int           `mapstructure:"channel_timeline_cache_max"`
	KeyTTL                     time.Duration `mapstructure:"key_ttl"`
	RelationsTTL               time.Duration `mapstructure:"relations_ttl"`
}

// FanoutConfig outbox 扇出 worker 参数
type FanoutConfig struct {
	Workers      int           `mapstructure:"workers"`
	BatchSize    int           `mapstructure:"batch_size"`
	ClaimLimit   int           `mapstructure:"claim_limit"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ReclaimAfter time.Duration `mapstructure:"reclaim_after"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load 读取配置：config/config.yaml（可选）+ 环境变量（TIMELINE_ 前缀）
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TIMELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验必须项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Timeline.KeyTTL <= 0 {
		return errors.New("timeline.key_ttl must be positive")
	}
	if c.Timeline.HomeTimelineCacheMax <= 0 || c.Timeline.LocalUserTimelineCacheMax <= 0 ||
		c.Timeline.RemoteUserTimelineCacheMax <= 0 || c.Timeline.UserListTimelineCacheMax <= 0 {
		return errors.New("timeline cache max values must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=timeline port=5432 sslmode=disable")
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.max_idle_conns", 20)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("jwt.secret", "dev-secret-change-me")

	v.SetDefault("timeline.home_timeline_cache_max", 300)
	v.SetDefault("timeline.local_user_timeline_cache_max", 300)
	v.SetDefault("timeline.remote_user_timeline_cache_max", 100)
	v.SetDefault("timeline.user_list_timeline_cache_max", 300)
	v.SetDefault("timeline.local_timeline_cache_max", 300)
	v.SetDefault("timeline.channel_timeline_cache_max", 300)
	v.SetDefault("timeline.key_ttl", 7*24*time.Hour)
	v.SetDefault("timeline.relations_ttl", 5*time.Minute)

	v.SetDefault("fanout.workers", 4)
	v.SetDefault("fanout.batch_size", 500)
	v.SetDefault("fanout.claim_limit", 128)
	v.SetDefault("fanout.poll_interval", 50*time.Millisecond)
	v.SetDefault("fanout.reclaim_after", 5*time.Minute)

	v.SetDefault("ratelimit.rps", 50)
	v.SetDefault("ratelimit.burst", 100)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "fanout-timeline")
	v.SetDefault("tracing.sample_ratio", 0.1)
}
