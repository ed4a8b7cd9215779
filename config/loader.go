package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the application configuration. When explicitPath
// is empty a fixed list of locations is searched.
func Load(explicitPath string) (AppConfig, error) {
	paths := []string{"config.yml", "/etc/tommekalender/config.yml"}
	if explicitPath != "" {
		paths = []string{explicitPath}
	}

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RatePerSecond == 0 {
		cfg.Server.RatePerSecond = 10
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Source.UserAgent == "" {
		cfg.Source.UserAgent = "tommekalender-ics/1.0"
	}
	if cfg.Source.TimeoutSeconds == 0 {
		cfg.Source.TimeoutSeconds = 30
	}
	if cfg.Cache.FreshHours == 0 {
		cfg.Cache.FreshHours = 24
	}
	if cfg.Cache.IdleHours == 0 {
		cfg.Cache.IdleHours = 12
	}
	if cfg.Feed.Name == "" {
		cfg.Feed.Name = "Tømmekalender"
	}
	if cfg.Feed.ProdID == "" {
		cfg.Feed.ProdID = "-//Renovasjonsdata//Tommekalender//NO"
	}
	if cfg.Feed.Timezone == "" {
		cfg.Feed.Timezone = "Europe/Oslo"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := os.LookupEnv("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	cfg.Source.BaseURL = getEnv("SOURCE_BASE_URL", cfg.Source.BaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
