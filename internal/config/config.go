package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath          = "CONFIG_PATH"
	EnvDBConnection        = "DB_CONNECTION"
	EnvTokenEncryptionKey  = "TOKEN_ENCRYPTION_KEY"
	EnvPort                = "PORT"
	EnvDefaultGroupName    = "DEFAULT_GROUP_NAME"
	EnvDefaultGroupJoinKey = "DEFAULT_GROUP_JOIN_KEY"
)

// tokenKeySize is the required decoded length of the token encryption key.
const tokenKeySize = 32

// defaultPort is used when neither the config file nor PORT sets one.
const defaultPort = 3000

// ErrMissingDatabaseDSN indicates no database DSN is present in the config.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file, or DB_CONNECTION)")

// ErrMissingTokenKey indicates no token encryption key is configured.
var ErrMissingTokenKey = errors.New("missing token encryption key (set `token-encryption-key` in config file, or TOKEN_ENCRYPTION_KEY)")

// DefaultGroup holds the seed group created on startup when configured.
type DefaultGroup struct {
	Name    string `yaml:"name"`
	JoinKey string `yaml:"join-key"`
}

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	DatabaseDSN  string
	TokenKey     []byte
	Port         int
	DefaultGroup DefaultGroup
}

// fileConfig maps the YAML fields read from the config file.
type fileConfig struct {
	DatabaseDSN string `yaml:"database-dsn"`
	Database    struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	TokenEncryptionKey string       `yaml:"token-encryption-key"`
	Port               int          `yaml:"port"`
	DefaultGroup       DefaultGroup `yaml:"default-group"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML config file and applies environment overrides.
// A missing config file is tolerated as long as the environment supplies
// the database DSN and token encryption key.
func Load(configPath string) (AppConfig, error) {
	var fc fileConfig
	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &fc); errUnmarshal != nil {
			return AppConfig{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	}

	cfg := AppConfig{
		Port:         fc.Port,
		DefaultGroup: fc.DefaultGroup,
	}

	cfg.DatabaseDSN = strings.TrimSpace(fc.DatabaseDSN)
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = strings.TrimSpace(fc.Database.DSN)
	}
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		cfg.DatabaseDSN = dsn
	}
	if cfg.DatabaseDSN == "" {
		return AppConfig{}, ErrMissingDatabaseDSN
	}

	keyHex := strings.TrimSpace(fc.TokenEncryptionKey)
	if env := strings.TrimSpace(os.Getenv(EnvTokenEncryptionKey)); env != "" {
		keyHex = env
	}
	if keyHex == "" {
		return AppConfig{}, ErrMissingTokenKey
	}
	key, errDecode := hex.DecodeString(keyHex)
	if errDecode != nil {
		return AppConfig{}, fmt.Errorf("decode token encryption key: %w", errDecode)
	}
	if len(key) != tokenKeySize {
		return AppConfig{}, fmt.Errorf("token encryption key must be %d bytes, got %d", tokenKeySize, len(key))
	}
	cfg.TokenKey = key

	if portRaw := strings.TrimSpace(os.Getenv(EnvPort)); portRaw != "" {
		port, errParse := strconv.Atoi(portRaw)
		if errParse != nil || port <= 0 || port > 65535 {
			return AppConfig{}, fmt.Errorf("invalid PORT value %q", portRaw)
		}
		cfg.Port = port
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}

	if name := strings.TrimSpace(os.Getenv(EnvDefaultGroupName)); name != "" {
		cfg.DefaultGroup.Name = name
	}
	if joinKey := strings.TrimSpace(os.Getenv(EnvDefaultGroupJoinKey)); joinKey != "" {
		cfg.DefaultGroup.JoinKey = joinKey
	}
	cfg.DefaultGroup.Name = strings.TrimSpace(cfg.DefaultGroup.Name)
	cfg.DefaultGroup.JoinKey = strings.TrimSpace(cfg.DefaultGroup.JoinKey)

	return cfg, nil
}
