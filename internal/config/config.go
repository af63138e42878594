package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDBFileName     = ".mediahub.db"
	DefaultStorageDirName = "media"
	DefaultLogLevel       = "info"
	DefaultPublicPrefix   = "/uploads"
	DefaultGrouping       = "by-year-and-month"
	DefaultHashAlgorithm  = "blake2b-256"
	DefaultOptionsBackend = "sqlite"
	DefaultRedisKey       = "mediahub:options"

	DefaultMaxUploadBytes int64 = 64 * 1024 * 1024

	OptionsBackendSQLite = "sqlite"
	OptionsBackendRedis  = "redis"

	configFileName           = ".mediahub.toml"
	configDirEnvKey          = "MEDIAHUB_CONFIG_DIR"
	trustProjectConfigEnvKey = "MEDIAHUB_TRUST_PROJECT_CONFIG"

	dbPathEnvKey      = "MEDIAHUB_DB"
	storageRootEnvKey = "MEDIAHUB_STORAGE_ROOT"
	redisAddrEnvKey   = "MEDIAHUB_REDIS_ADDR"
	accessKeyEnvKey   = "MEDIAHUB_PUBLISH_ACCESS_KEY"
	secretKeyEnvKey   = "MEDIAHUB_PUBLISH_SECRET_KEY"
)

// StorageConfig controls the local file store.
type StorageConfig struct {
	Root         string `toml:"root"`
	PublicPrefix string `toml:"public_prefix"`
	Grouping     string `toml:"grouping"`
}

// MediaConfig controls ingestion.
type MediaConfig struct {
	HashAlgorithm  string `toml:"hash_algorithm"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// OptionsConfig selects where derivative options are read from.
type OptionsConfig struct {
	Backend string `toml:"backend"`
}

// RedisConfig is used when options.backend is redis.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Key      string `toml:"key"`
}

// PublishConfig enables mirroring stored files to an S3-compatible bucket.
type PublishConfig struct {
	Enabled       bool   `toml:"enabled"`
	Endpoint      string `toml:"endpoint"`
	Bucket        string `toml:"bucket"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	UseSSL        bool   `toml:"use_ssl"`
	PublicBaseURL string `toml:"public_base_url"`
}

// Config defines runtime configuration for mediahub.
type Config struct {
	DBPath                   string        `toml:"db_path"`
	LogLevel                 string        `toml:"log_level"`
	Storage                  StorageConfig `toml:"storage"`
	Media                    MediaConfig   `toml:"media"`
	Options                  OptionsConfig `toml:"options"`
	Redis                    RedisConfig   `toml:"redis"`
	Publish                  PublishConfig `toml:"publish"`
	TrustedProjectConfigPath string        `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Storage: StorageConfig{
			PublicPrefix: DefaultPublicPrefix,
			Grouping:     DefaultGrouping,
		},
		Media: MediaConfig{
			HashAlgorithm:  DefaultHashAlgorithm,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Options: OptionsConfig{Backend: DefaultOptionsBackend},
		Redis:   RedisConfig{Key: DefaultRedisKey},
		Publish: PublishConfig{UseSSL: true},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

var allowedKeys = []string{
	"db_path",
	"log_level",
	"storage.root",
	"storage.public_prefix",
	"storage.grouping",
	"media.hash_algorithm",
	"media.max_upload_bytes",
	"options.backend",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.key",
	"publish.enabled",
	"publish.endpoint",
	"publish.bucket",
	"publish.access_key",
	"publish.secret_key",
	"publish.use_ssl",
	"publish.public_base_url",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "log_level":
		return c.LogLevel, nil
	case "storage.root":
		return c.Storage.Root, nil
	case "storage.public_prefix":
		return c.Storage.PublicPrefix, nil
	case "storage.grouping":
		return c.Storage.Grouping, nil
	case "media.hash_algorithm":
		return c.Media.HashAlgorithm, nil
	case "media.max_upload_bytes":
		return strconv.FormatInt(c.Media.MaxUploadBytes, 10), nil
	case "options.backend":
		return c.Options.Backend, nil
	case "redis.addr":
		return c.Redis.Addr, nil
	case "redis.password":
		return c.Redis.Password, nil
	case "redis.db":
		return strconv.Itoa(c.Redis.DB), nil
	case "redis.key":
		return c.Redis.Key, nil
	case "publish.enabled":
		return strconv.FormatBool(c.Publish.Enabled), nil
	case "publish.endpoint":
		return c.Publish.Endpoint, nil
	case "publish.bucket":
		return c.Publish.Bucket, nil
	case "publish.access_key":
		return c.Publish.AccessKey, nil
	case "publish.secret_key":
		return c.Publish.SecretKey, nil
	case "publish.use_ssl":
		return strconv.FormatBool(c.Publish.UseSSL), nil
	case "publish.public_base_url":
		return c.Publish.PublicBaseURL, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
		if cfg.Storage.Root == "" {
			cfg.Storage.Root = filepath.Join(cwd, DefaultStorageDirName)
		}
	}

	if dbPath := os.Getenv(dbPathEnvKey); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if root := os.Getenv(storageRootEnvKey); root != "" {
		cfg.Storage.Root = root
	}
	if addr := os.Getenv(redisAddrEnvKey); addr != "" {
		cfg.Redis.Addr = addr
	}
	if key := os.Getenv(accessKeyEnvKey); key != "" {
		cfg.Publish.AccessKey = key
	}
	if secret := os.Getenv(secretKeyEnvKey); secret != "" {
		cfg.Publish.SecretKey = secret
	}

	cfg.normalizeDefaults()

	return &cfg, nil
}

// Validate checks cross-field constraints that Load leaves alone.
func (c *Config) Validate() error {
	switch c.Options.Backend {
	case OptionsBackendSQLite:
	case OptionsBackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when options.backend is redis")
		}
	default:
		return fmt.Errorf("options.backend must be %s or %s, got %q", OptionsBackendSQLite, OptionsBackendRedis, c.Options.Backend)
	}
	if c.Publish.Enabled {
		if strings.TrimSpace(c.Publish.Endpoint) == "" {
			return fmt.Errorf("publish.endpoint is required when publish.enabled is true")
		}
		if strings.TrimSpace(c.Publish.Bucket) == "" {
			return fmt.Errorf("publish.bucket is required when publish.enabled is true")
		}
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "media.max_upload_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "redis.db":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return parsed, nil
	case "publish.enabled", "publish.use_ssl":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "options.backend":
		backend := strings.ToLower(value)
		if backend != OptionsBackendSQLite && backend != OptionsBackendRedis {
			return nil, fmt.Errorf("%s must be %s or %s", key, OptionsBackendSQLite, OptionsBackendRedis)
		}
		return backend, nil
	case "storage.grouping":
		grouping := strings.ToLower(value)
		if grouping != "by-year" && grouping != "by-year-and-month" {
			return nil, fmt.Errorf("%s must be by-year or by-year-and-month", key)
		}
		return grouping, nil
	case "media.hash_algorithm":
		algorithm := strings.ToLower(value)
		if algorithm != "blake2b-256" && algorithm != "blake3" {
			return nil, fmt.Errorf("%s must be blake2b-256 or blake3", key)
		}
		return algorithm, nil
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if strings.TrimSpace(c.Storage.PublicPrefix) == "" {
		c.Storage.PublicPrefix = DefaultPublicPrefix
	}
	if strings.TrimSpace(c.Storage.Grouping) == "" {
		c.Storage.Grouping = DefaultGrouping
	}
	if strings.TrimSpace(c.Media.HashAlgorithm) == "" {
		c.Media.HashAlgorithm = DefaultHashAlgorithm
	}
	if c.Media.MaxUploadBytes <= 0 {
		c.Media.MaxUploadBytes = DefaultMaxUploadBytes
	}
	c.Options.Backend = strings.ToLower(strings.TrimSpace(c.Options.Backend))
	if c.Options.Backend == "" {
		c.Options.Backend = DefaultOptionsBackend
	}
	if strings.TrimSpace(c.Redis.Key) == "" {
		c.Redis.Key = DefaultRedisKey
	}
}
