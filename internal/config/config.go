package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		TTL      string `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Postgres struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"postgres"`
	Quiz struct {
		TTL          string `mapstructure:"ttl"`
		Timezone     string `mapstructure:"timezone"`
		AdvanceDelay string `mapstructure:"advance_delay"`
	} `mapstructure:"quiz"`
	Auth struct {
		Secret   string `mapstructure:"secret"`
		TokenTTL string `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	RateLimit struct {
		LoginPerMinute int `mapstructure:"login_per_minute"`
	} `mapstructure:"rate_limit"`
}

// Load reads YAML config from path, if it exists, overlaid with QUIZ_* environment variables
// (QUIZ_POSTGRES_URL, QUIZ_AUTH_SECRET, ...).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		ext := filepath.Ext(path)
		v.SetConfigName(strings.TrimSuffix(filepath.Base(path), ext))
		if ext != "" {
			v.SetConfigType(strings.TrimPrefix(ext, "."))
		}
		v.AddConfigPath(filepath.Dir(path))
	}

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Config{}
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "30m")
	v.SetDefault("postgres.url", "")
	v.SetDefault("quiz.ttl", "10m")
	v.SetDefault("quiz.timezone", "Local")
	v.SetDefault("quiz.advance_delay", "1500ms")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", "8h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("rate_limit.login_per_minute", 10)
}

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves quiz.timezone; unknown names fall back to the server zone.
func (c Config) Location() *time.Location {
	if c.Quiz.Timezone == "" || c.Quiz.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Quiz.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
