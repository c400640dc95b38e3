package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Scheduler struct {
		// DisableRestore skips re-arming persisted reminders after a
		// restart. By default reminders are restored: future ones are
		// re-armed, ones whose fire time passed while the process was
		// down fire immediately on start.
		DisableRestore bool `yaml:"disable_restore"`
	} `yaml:"scheduler"`

	Retention struct {
		// Read notifications older than MaxAgeDays are deleted by the
		// retention worker. 0 disables the worker.
		MaxAgeDays    int `yaml:"max_age_days"`
		IntervalHours int `yaml:"interval_hours"`
	} `yaml:"retention"`
}

var AppConfig *Config

// LoadConfig reads the YAML config file when CONFIG_PATH is set, otherwise
// builds the configuration from environment variables with development
// defaults. The env path is what tests use.
func LoadConfig() {
	var cfg Config

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = os.Getenv("DATABASE_URL")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Host = os.Getenv("SERVER_HOST")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "dev-secret-change-me"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.Retention.IntervalHours == 0 {
		cfg.Retention.IntervalHours = 6
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
