package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides where the optional config file is read from.
const ConfigPathEnvVar = "MANGA4DECK_CONFIG"

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type ServerConfig struct {
	// IP is "host" or "host:port"; port defaults to the Kavita default
	// 5000 when omitted.
	IP       string `koanf:"ip"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	APIKey   string `koanf:"api_key"`
}

type DataConfig struct {
	// Dir holds the sqlite cache database and the image cache folder.
	Dir string `koanf:"dir"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Data    DataConfig    `koanf:"data"`
	Logging LoggingConfig `koanf:"logging"`
}

func defaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return &Config{
		Server: ServerConfig{
			IP: "localhost:5000",
		},
		Data: DataConfig{
			Dir: filepath.Join(home, ".manga4deck"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration in three layers: built-in defaults, an
// optional YAML file, then MANGA4DECK_* environment variables on top.
// MANGA4DECK_SERVER_IP maps to server.ip and so on.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("MANGA4DECK_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MANGA4DECK_")
		return strings.Replace(strings.ToLower(s), "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
