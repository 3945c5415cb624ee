package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"onboarding/pkg/config"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Broadcast scopes for TASK_COMPLETED notifications.
const (
	ScopeAll        = "all"
	ScopeCompany    = "company"
	ScopeDepartment = "department"
)

type OnboardingConfig struct {
	BroadcastTaskCompleted bool   `yaml:"broadcast_task_completed"`
	BroadcastScope         string `yaml:"broadcast_scope"`
}

type RunnerConfig struct {
	OverdueIntervalSeconds int    `yaml:"overdue_interval_seconds"`
	OutboxIntervalMillis   int    `yaml:"outbox_interval_ms"`
	OutboxBatchSize        int    `yaml:"outbox_batch_size"`
	OutboxMaxRetries       int    `yaml:"outbox_max_retries"`
	HealthPort             string `yaml:"health_port"`
}

func (r RunnerConfig) OverdueInterval() time.Duration {
	if r.OverdueIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.OverdueIntervalSeconds) * time.Second
}

func (r RunnerConfig) OutboxInterval() time.Duration {
	if r.OutboxIntervalMillis <= 0 {
		return time.Second
	}
	return time.Duration(r.OutboxIntervalMillis) * time.Millisecond
}

// ConsumerConfig 控制 todo.overdue 消费者的去重与重试
type ConsumerConfig struct {
	MaxRetries      int `yaml:"max_retries"`
	DedupTTLSeconds int `yaml:"dedup_ttl_seconds"`
}

func (c ConsumerConfig) DedupTTL() time.Duration {
	if c.DedupTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.DedupTTLSeconds) * time.Second
}

type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `yaml:"driver"`
	// SeedFile 仅 memory 驱动使用：预置用户与部门
	SeedFile string `yaml:"seed_file"`
}

type Config struct {
	ServiceName string              `yaml:"service_name"`
	DB          config.DBConfig     `yaml:"db"`
	MQ          config.MQConfig     `yaml:"mq"`
	Redis       config.RedisConfig  `yaml:"redis"`
	JWT         config.JWTConfig    `yaml:"jwt"`
	Server      config.ServerConfig `yaml:"server"`
	OTel        config.OTelConfig   `yaml:"otel"`
	Store       StoreConfig         `yaml:"store"`
	Onboarding  OnboardingConfig    `yaml:"onboarding"`
	Runner      RunnerConfig        `yaml:"runner"`
	Consumer    ConsumerConfig      `yaml:"consumer"`
}

// Load 使用统一配置中心加载配置，环境变量优先级最高
func Load() (*Config, error) {
	return LoadFrom(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
}

func LoadFrom(env, dir string) (*Config, error) {
	var cfg Config
	if err := config.Decode(env, dir, &cfg); err != nil {
		return nil, err
	}

	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideJWTFromEnv(&cfg.JWT)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideOTelFromEnv(&cfg.OTel)
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if seed := os.Getenv("STORE_SEED_FILE"); seed != "" {
		cfg.Store.SeedFile = seed
	}
	if raw := os.Getenv("ONBOARDING_BROADCAST_TASK_COMPLETED"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Onboarding.BroadcastTaskCompleted = v
		}
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "onboarding-service"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverPostgres
	}
	if cfg.Onboarding.BroadcastScope == "" {
		cfg.Onboarding.BroadcastScope = ScopeAll
	}
	if cfg.Runner.HealthPort == "" {
		cfg.Runner.HealthPort = ":8084"
	}
	if cfg.Runner.OutboxBatchSize <= 0 {
		cfg.Runner.OutboxBatchSize = 100
	}
	if cfg.Runner.OutboxMaxRetries <= 0 {
		cfg.Runner.OutboxMaxRetries = 10
	}
	if cfg.Consumer.MaxRetries <= 0 {
		cfg.Consumer.MaxRetries = 3
	}
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Onboarding.BroadcastScope {
	case ScopeAll, ScopeCompany, ScopeDepartment:
	default:
		return fmt.Errorf("unknown broadcast scope %q", c.Onboarding.BroadcastScope)
	}
	return nil
}
