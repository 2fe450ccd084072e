package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type FeeTier struct {
	UpTo    float64 `mapstructure:"up_to"`
	Percent float64 `mapstructure:"percent"`
}

type Config struct {
	Backend struct {
		BaseURL        string `mapstructure:"base_url"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"backend"`

	Auth struct {
		TokenEnv  string `mapstructure:"token_env"`
		TokenFile string `mapstructure:"token_file"`
	} `mapstructure:"auth"`

	Payment struct {
		PollIntervalSeconds int       `mapstructure:"poll_interval_seconds"`
		PollMaxAttempts     int       `mapstructure:"poll_max_attempts"`
		HistoryLimit        int       `mapstructure:"history_limit"`
		FeeTiers            []FeeTier `mapstructure:"fee_tiers"`
	} `mapstructure:"payment"`

	Redis struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`

	Monitoring struct {
		Enabled            bool     `mapstructure:"enabled"`
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"monitoring"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.timeout_seconds", 10)
	v.SetDefault("auth.token_env", "TENANTPAY_TOKEN")
	v.SetDefault("payment.poll_interval_seconds", 30)
	v.SetDefault("payment.poll_max_attempts", 20)
	v.SetDefault("payment.history_limit", 10)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.port", 9090)
	v.SetDefault("monitoring.cors_allowed_origins", []string{"*"})

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Override backend settings from environment variables
	if url := os.Getenv("BACKEND_BASE_URL"); url != "" {
		cfg.Backend.BaseURL = url
	}

	// Override redis settings from REDIS_* environment variables
	// (K8s sets REDIS_SERVICE_HOST and REDIS_SERVICE_PORT for services)
	if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if port := os.Getenv("REDIS_SERVICE_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Redis.Port = n
		}
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	return &cfg
}
