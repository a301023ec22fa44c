package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7400"
	DefaultLogLevel   = "info"
	DefaultDBFileName = ".taskapi.db"

	DefaultStoreBackend = "sqlite"
	DefaultTable        = "TasksTable"
	DefaultRedisAddr    = "127.0.0.1:6379"

	DefaultBlobBackend   = "local"
	DefaultBucket        = "tasks-attachments-bucket"
	DefaultLocalBlobRoot = ".taskapi/blobs"

	DefaultRegion = "us-east-1"

	DefaultAttachmentMaxUploadBytes int64 = 10 * 1024 * 1024
	DefaultAttachmentDownloadTTL          = time.Hour

	configFileName           = ".taskapi.toml"
	configDirEnvKey          = "TASKAPI_CONFIG_DIR"
	trustProjectConfigEnvKey = "TASKAPI_TRUST_PROJECT_CONFIG"
)

// StoreConfig selects and configures the task table backend.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Table      string `toml:"table"`
	SQLitePath string `toml:"sqlite_path"`
	RedisAddr  string `toml:"redis_addr"`
	RedisDB    int    `toml:"redis_db"`
}

// BlobConfig selects and configures the attachment object store.
type BlobConfig struct {
	Backend       string `toml:"backend"`
	Bucket        string `toml:"bucket"`
	LocalRoot     string `toml:"local_root"`
	SigningSecret string `toml:"signing_secret"`
	PublicURL     string `toml:"public_url"`
}

// AWSConfig holds the shared settings for the DynamoDB and S3 clients.
type AWSConfig struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

// AttachmentConfig defines runtime configuration for attachment handling.
type AttachmentConfig struct {
	MaxUploadBytes int64         `toml:"max_upload_bytes"`
	DownloadURLTTL time.Duration `toml:"download_url_ttl"`
	CascadeDelete  bool          `toml:"cascade_delete"`
}

// Config defines runtime configuration for taskapi.
type Config struct {
	APIURL                   string           `toml:"api_url"`
	LogLevel                 string           `toml:"log_level"`
	Store                    StoreConfig      `toml:"store"`
	Blob                     BlobConfig       `toml:"blob"`
	AWS                      AWSConfig        `toml:"aws"`
	Attachments              AttachmentConfig `toml:"attachments"`
	TrustedProjectConfigPath string           `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Store: StoreConfig{
			Backend:   DefaultStoreBackend,
			Table:     DefaultTable,
			RedisAddr: DefaultRedisAddr,
		},
		Blob: BlobConfig{
			Backend: DefaultBlobBackend,
			Bucket:  DefaultBucket,
		},
		AWS: AWSConfig{
			Region: DefaultRegion,
		},
		Attachments: AttachmentConfig{
			MaxUploadBytes: DefaultAttachmentMaxUploadBytes,
			DownloadURLTTL: DefaultAttachmentDownloadTTL,
		},
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
	"api_url",
	"log_level",
	"store.backend",
	"store.table",
	"store.sqlite_path",
	"store.redis_addr",
	"store.redis_db",
	"blob.backend",
	"blob.bucket",
	"blob.local_root",
	"blob.signing_secret",
	"blob.public_url",
	"aws.region",
	"aws.endpoint",
	"aws.access_key_id",
	"aws.secret_access_key",
	"aws.use_path_style",
	"attachments.max_upload_bytes",
	"attachments.download_url_ttl",
	"attachments.cascade_delete",
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
	case "api_url":
		return c.APIURL, nil
	case "log_level":
		return c.LogLevel, nil
	case "store.backend":
		return c.Store.Backend, nil
	case "store.table":
		return c.Store.Table, nil
	case "store.sqlite_path":
		return c.Store.SQLitePath, nil
	case "store.redis_addr":
		return c.Store.RedisAddr, nil
	case "store.redis_db":
		return strconv.Itoa(c.Store.RedisDB), nil
	case "blob.backend":
		return c.Blob.Backend, nil
	case "blob.bucket":
		return c.Blob.Bucket, nil
	case "blob.local_root":
		return c.Blob.LocalRoot, nil
	case "blob.signing_secret":
		return c.Blob.SigningSecret, nil
	case "blob.public_url":
		return c.Blob.PublicURL, nil
	case "aws.region":
		return c.AWS.Region, nil
	case "aws.endpoint":
		return c.AWS.Endpoint, nil
	case "aws.access_key_id":
		return c.AWS.AccessKeyID, nil
	case "aws.secret_access_key":
		return c.AWS.SecretAccessKey, nil
	case "aws.use_path_style":
		return strconv.FormatBool(c.AWS.UsePathStyle), nil
	case "attachments.max_upload_bytes":
		return strconv.FormatInt(c.Attachments.MaxUploadBytes, 10), nil
	case "attachments.download_url_ttl":
		return c.Attachments.DownloadURLTTL.String(), nil
	case "attachments.cascade_delete":
		return strconv.FormatBool(c.Attachments.CascadeDelete), nil
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

	applyEnv(&cfg)
	cfg.normalize()

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"TASKAPI_API_URL", &cfg.APIURL},
		{"TASKAPI_STORE_BACKEND", &cfg.Store.Backend},
		{"DYNAMODB_TABLE", &cfg.Store.Table},
		{"TASKAPI_DB", &cfg.Store.SQLitePath},
		{"TASKAPI_REDIS_ADDR", &cfg.Store.RedisAddr},
		{"TASKAPI_BLOB_BACKEND", &cfg.Blob.Backend},
		{"S3_BUCKET", &cfg.Blob.Bucket},
		{"TASKAPI_SIGNING_SECRET", &cfg.Blob.SigningSecret},
		{"AWS_REGION", &cfg.AWS.Region},
		{"TASKAPI_AWS_ENDPOINT", &cfg.AWS.Endpoint},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.Table == "" {
		c.Store.Table = DefaultTable
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = DefaultRedisAddr
	}
	c.Blob.Backend = strings.ToLower(strings.TrimSpace(c.Blob.Backend))
	if c.Blob.Backend == "" {
		c.Blob.Backend = DefaultBlobBackend
	}
	if c.Blob.Bucket == "" {
		c.Blob.Bucket = DefaultBucket
	}
	if c.AWS.Region == "" {
		c.AWS.Region = DefaultRegion
	}
	if c.Attachments.MaxUploadBytes <= 0 {
		c.Attachments.MaxUploadBytes = DefaultAttachmentMaxUploadBytes
	}
	if c.Attachments.DownloadURLTTL <= 0 {
		c.Attachments.DownloadURLTTL = DefaultAttachmentDownloadTTL
	}

	if cwd, err := os.Getwd(); err == nil {
		if c.Store.SQLitePath == "" {
			c.Store.SQLitePath = filepath.Join(cwd, DefaultDBFileName)
		}
		if c.Blob.LocalRoot == "" {
			c.Blob.LocalRoot = filepath.Join(cwd, DefaultLocalBlobRoot)
		}
	}
	if c.Blob.PublicURL == "" {
		c.Blob.PublicURL = c.APIURL
	}
	c.Blob.PublicURL = strings.TrimRight(c.Blob.PublicURL, "/")
}

// Validate reports backend names that no component understands.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "dynamodb", "redis":
	default:
		return fmt.Errorf("store.backend must be one of sqlite, dynamodb, redis (got %q)", c.Store.Backend)
	}
	switch c.Blob.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("blob.backend must be one of local, s3 (got %q)", c.Blob.Backend)
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "attachments.max_upload_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "store.redis_db":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return int64(parsed), nil
	case "attachments.download_url_ttl":
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive duration such as 15m or 1h", key)
		}
		return parsed.String(), nil
	case "aws.use_path_style", "attachments.cascade_delete":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "store.backend", "blob.backend", "log_level":
		return strings.ToLower(value), nil
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
