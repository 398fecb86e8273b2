package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service-level settings for roomsync.
type Config struct {
	Server ServerConfig `yaml:"server"`
	NATS   NATSConfig   `yaml:"nats"`
	Redis  RedisConfig  `yaml:"redis"`
	Sync   SyncConfig   `yaml:"sync"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SyncConfig tunes the client reconciliation behavior pushed to
// rooms: how often timers re-derive, how long optimistic chat
// messages linger, how far playback may drift before a corrective
// seek, and the typing indicator debounce.
type SyncConfig struct {
	TickInterval      time.Duration `yaml:"tick_interval"`
	ChatGraceWindow   time.Duration `yaml:"chat_grace_window"`
	SeekTolerance     float64       `yaml:"seek_tolerance_seconds"`
	TypingDebounce    time.Duration `yaml:"typing_debounce"`
	MessageHistoryMax int           `yaml:"message_history_max"`
}

// NewConfigFromEnv builds a Config from environment variables (with
// defaults). A YAML file, when provided, is applied first and env
// variables override it.
func NewConfigFromEnv() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// LoadConfig reads a YAML config file, then applies env overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		NATS:   NATSConfig{URL: "nats://localhost:4222"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Sync: SyncConfig{
			TickInterval:      time.Second,
			ChatGraceWindow:   3 * time.Second,
			SeekTolerance:     1.0,
			TypingDebounce:    1200 * time.Millisecond,
			MessageHistoryMax: 50,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
