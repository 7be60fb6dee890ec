// Package config loads diskwarden settings from defaults, an optional
// diskwarden.yaml, a .env file and DISKWARDEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "DISKWARDEN"

type Config struct {
	Address          string
	AllowedIPs       []string
	RateLimit        float64
	RateBurst        int
	DiscoveryCommand string
	DiscoveryTimeout time.Duration
	CollectInterval  time.Duration
	CacheTTL         time.Duration
	HistoryPoints    int
	AuthSecret       string
	TokenExpiry      time.Duration
	AllowedOrigins   []string
	LogLevel         string
	LogFormat        string

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "localhost:8080")
	v.SetDefault("server.allowed_ips", []string{})
	v.SetDefault("server.rate_limit", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("discovery.command", "df -Pk")
	v.SetDefault("discovery.timeout", "10s")
	v.SetDefault("collector.interval", "5s")
	v.SetDefault("cache.ttl", "5s")
	v.SetDefault("history.max_points", 120)
	v.SetDefault("display.type", "both")
	v.SetDefault("display.unit", "percentage")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_expiry", "2160h")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. configFile may be empty, in which case
// diskwarden.yaml is looked up in the working directory and ~/.config/diskwarden.
func Load(configFile string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("diskwarden")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "diskwarden"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Address:          v.GetString("server.address"),
		AllowedIPs:       v.GetStringSlice("server.allowed_ips"),
		RateLimit:        v.GetFloat64("server.rate_limit"),
		RateBurst:        v.GetInt("server.rate_burst"),
		DiscoveryCommand: v.GetString("discovery.command"),
		DiscoveryTimeout: v.GetDuration("discovery.timeout"),
		CollectInterval:  v.GetDuration("collector.interval"),
		CacheTTL:         v.GetDuration("cache.ttl"),
		HistoryPoints:    v.GetInt("history.max_points"),
		AuthSecret:       v.GetString("auth.secret"),
		TokenExpiry:      v.GetDuration("auth.token_expiry"),
		AllowedOrigins:   v.GetStringSlice("cors.allowed_origins"),
		LogLevel:         v.GetString("log.level"),
		LogFormat:        v.GetString("log.format"),
		v:                v,
	}

	if cfg.CollectInterval <= 0 {
		return nil, fmt.Errorf("collector.interval must be positive, got %v", cfg.CollectInterval)
	}
	if cfg.DiscoveryTimeout < 0 {
		return nil, fmt.Errorf("discovery.timeout must not be negative, got %v", cfg.DiscoveryTimeout)
	}
	if cfg.RateLimit <= 0 || cfg.RateBurst < 1 {
		return nil, fmt.Errorf("server.rate_limit and server.rate_burst must be positive")
	}
	if cfg.HistoryPoints < 1 {
		return nil, fmt.Errorf("history.max_points must be at least 1, got %d", cfg.HistoryPoints)
	}

	return cfg, nil
}

// Settings exposes the key/value store backing the configuration
func (c *Config) Settings() *viper.Viper {
	return c.v
}

// NewLogger builds a logrus logger from the log.level and log.format settings
func NewLogger(level, format string) (*logrus.Logger, error) {
	log := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return log, nil
}
