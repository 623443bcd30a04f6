package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/peterhellberg/duration"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Store backends selectable with store.backend or --store.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Store struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
		Key     string `yaml:"key"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		Secret    string `yaml:"secret"`
		TokenTTL  string `yaml:"tokenTTL"`
		TokenPath string `yaml:"tokenPath"`
	} `yaml:"auth"`
}

// Default is the configuration used when no file exists: a JSON file store
// and login record under ~/.eduquiz.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Store.Backend = BackendFile
	cfg.Store.Path = filepath.Join(homeDir(), "data.json")
	cfg.Redis.TTL = "10m"
	cfg.Auth.Secret = "eduquiz-dev-secret"
	cfg.Auth.TokenTTL = "P7D"
	cfg.Auth.TokenPath = filepath.Join(homeDir(), "auth.json")
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// TTLDuration parses a Go duration ("30m") or an ISO-8601 one ("P7D",
// "P2W"), returning fallback when raw is empty or unparseable.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if d, err := duration.Parse(raw); err == nil {
		return d
	}
	return fallback
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eduquiz"
	}
	return filepath.Join(home, ".eduquiz")
}
