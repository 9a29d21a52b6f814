package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-schema-service/internal/publish"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		PublicURL   string   `yaml:"public_url"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"` // session idle timeout, applied to the in-memory store too
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Telegram struct {
		Token  string `yaml:"token"`
		QuizID string `yaml:"quiz_id"`
	} `yaml:"telegram"`
	Quiz struct {
		TTL      string `yaml:"ttl"`
		SeedFile string `yaml:"seed_file"`
		SeedID   string `yaml:"seed_id"`
	} `yaml:"quiz"`
	Publish publish.Config `yaml:"publish"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file yields a config built from the environment alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Server.PublicURL, "PUBLIC_URL")
	setFromEnv(&cfg.Log.Level, "LOG_LEVEL")
	setFromEnv(&cfg.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&cfg.Redis.Password, "REDIS_PASSWORD")
	setFromEnv(&cfg.Postgres.URL, "POSTGRES_URL")
	setFromEnv(&cfg.SQLite.Path, "SQLITE_PATH")
	setFromEnv(&cfg.AMQP.URL, "AMQP_URL")
	setFromEnv(&cfg.Telegram.Token, "TELEGRAM_TOKEN")
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		cfg.Server.CORSOrigins = strings.Split(raw, ",")
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
