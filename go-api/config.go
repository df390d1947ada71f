package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = "8000"
	defaultMaxOpenConns = 10
	defaultKeysURL      = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	configFileName      = "taskpad.yaml"
)

var defaultCORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

type Config struct {
	Database struct {
		URL          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
	} `yaml:"database"`

	Auth struct {
		FirebaseProjectID string `yaml:"firebase_project_id"`
		KeysURL           string `yaml:"keys_url"`
		DevSecret         string `yaml:"dev_secret"`
	} `yaml:"auth"`

	CORSOrigins []string `yaml:"cors_origins"`
	Port        string   `yaml:"port"`
}

// loadConfig layers defaults, then the YAML file (if any), then the environment.
// An empty path means "taskpad.yaml if it exists".
func loadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = configFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.Database.URL = envOr("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = envInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Auth.FirebaseProjectID = envOr("FIREBASE_PROJECT_ID", cfg.Auth.FirebaseProjectID)
	cfg.Auth.KeysURL = envOr("FIREBASE_KEYS_URL", cfg.Auth.KeysURL)
	cfg.Auth.DevSecret = envOr("AUTH_DEV_SECRET", cfg.Auth.DevSecret)
	if v := os.Getenv("CORS_ORIGIN"); strings.TrimSpace(v) != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.Port = envOr("PORT", cfg.Port)

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Auth.KeysURL == "" {
		cfg.Auth.KeysURL = defaultKeysURL
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultCORSOrigins
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	return cfg, nil
}

func (c Config) requireDatabase() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	return nil
}

func (c Config) requireAuth() error {
	if c.Auth.FirebaseProjectID == "" && c.Auth.DevSecret == "" {
		return errors.New("set FIREBASE_PROJECT_ID (or AUTH_DEV_SECRET for local development)")
	}
	return nil
}
