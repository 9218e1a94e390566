package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
)

type ServerConfig struct {
	MigrateOnStart bool `env:"MIGRATE_ON_START" env-default:"true"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Config is the complete runtime configuration of the idm server
type Config struct {
	DatabaseConfig     DatabaseConfig
	JWTConfig          JWTConfig
	EmailConfig        EmailConfig
	RegistrationConfig RegistrationConfig
	RateLimitConfig    RateLimitConfig
	AppConfig          app.AppConfig // HOST, PORT, METRICS_*
	ServerConfig       ServerConfig
	LogConfig          LogConfig
}

// Load reads the configuration from the environment and validates it
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return errors.Join(
		c.DatabaseConfig.Validate(),
		c.JWTConfig.Validate(),
		c.RegistrationConfig.Validate(),
		c.RateLimitConfig.Validate(),
	)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (l LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.level()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func (l LogConfig) level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
