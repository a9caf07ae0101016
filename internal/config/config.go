package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yaml.v3 не понимает строки вида "5m" для time.Duration,
// поэтому все интервалы в конфиге — целые числа.
type VerificationConfig struct {
	CodeTTLSeconds        int `yaml:"code_ttl_seconds"`
	ResendCooldownSeconds int `yaml:"resend_cooldown_seconds"`
	MaxAttempts           int `yaml:"max_attempts"`
	MaxResends            int `yaml:"max_resends"`
	ResetTTLMinutes       int `yaml:"reset_ttl_minutes"`
	SweepIntervalSeconds  int `yaml:"sweep_interval_seconds"`
}

type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Env  string `yaml:"env"` // development | production
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Auth struct {
		JWTSecret       string `yaml:"jwt_secret"`
		SessionTTLHours int    `yaml:"session_ttl_hours"`
		ResetURL        string `yaml:"reset_url"` // база для ссылки восстановления пароля
	} `yaml:"auth"`
	Verification VerificationConfig `yaml:"verification"`
	Cache        CacheConfig        `yaml:"cache"`
}

func LoadConfig() *Config {
	path := os.Getenv("QUIZHUB_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open " + path + ": " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse " + path + ": " + err.Error())
	}

	if cfg.Auth.JWTSecret == "" {
		panic("auth.jwt_secret is required")
	}

	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Auth.SessionTTLHours <= 0 {
		cfg.Auth.SessionTTLHours = 7 * 24
	}
	if cfg.Verification.CodeTTLSeconds <= 0 {
		cfg.Verification.CodeTTLSeconds = 300
	}
	if cfg.Verification.ResendCooldownSeconds <= 0 {
		cfg.Verification.ResendCooldownSeconds = 60
	}
	if cfg.Verification.MaxAttempts <= 0 {
		cfg.Verification.MaxAttempts = 3
	}
	if cfg.Verification.MaxResends <= 0 {
		cfg.Verification.MaxResends = 3
	}
	if cfg.Verification.ResetTTLMinutes <= 0 {
		cfg.Verification.ResetTTLMinutes = 60
	}
	if cfg.Verification.SweepIntervalSeconds <= 0 {
		cfg.Verification.SweepIntervalSeconds = 300
	}
}

func (cfg *Config) IsDevelopment() bool {
	return cfg.Server.Env != "production"
}

func (cfg *Config) SessionTTL() time.Duration {
	return time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
}

func (v VerificationConfig) CodeTTL() time.Duration {
	return time.Duration(v.CodeTTLSeconds) * time.Second
}

func (v VerificationConfig) ResendCooldown() time.Duration {
	return time.Duration(v.ResendCooldownSeconds) * time.Second
}

func (v VerificationConfig) ResetTTL() time.Duration {
	return time.Duration(v.ResetTTLMinutes) * time.Minute
}

func (v VerificationConfig) SweepInterval() time.Duration {
	return time.Duration(v.SweepIntervalSeconds) * time.Second
}
