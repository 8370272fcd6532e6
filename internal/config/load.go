package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "GALLERY"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return load(v)
}

// LoadFile loads configuration from the given file with environment overrides.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("store.backend", StoreBackendDocument)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("kv.backend", KVBackendFile)
	v.SetDefault("kv.dir", "./data/kv")
	v.SetDefault("kv.redis_addr", "")
	v.SetDefault("kv.redis_password", "")
	v.SetDefault("kv.redis_db", 0)
	v.SetDefault("kv.key_prefix", "")

	v.SetDefault("blob.backend", BlobBackendLocal)
	v.SetDefault("blob.dir", "./data/images")
	v.SetDefault("blob.source_dir", "./data/incoming")
	v.SetDefault("blob.minio.endpoint", "")
	v.SetDefault("blob.minio.access_key_id", "")
	v.SetDefault("blob.minio.secret_access_key", "")
	v.SetDefault("blob.minio.bucket", "")
	v.SetDefault("blob.minio.region", "")
	v.SetDefault("blob.minio.use_ssl", false)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
}

// Validate runs struct tag validation followed by the cross-field rules
// that depend on the selected backends.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	var problems []string

	if c.Store.Backend == StoreBackendPostgres && c.Database.URL == "" {
		problems = append(problems, "database.url is required for the postgres store")
	}

	if c.Store.Backend == StoreBackendDocument {
		switch c.KV.Backend {
		case KVBackendFile:
			if c.KV.Dir == "" {
				problems = append(problems, "kv.dir is required for the file kv backend")
			}
		case KVBackendRedis:
			if c.KV.RedisAddr == "" {
				problems = append(problems, "kv.redis_addr is required for the redis kv backend")
			}
		}
	}

	switch c.Blob.Backend {
	case BlobBackendLocal:
		if c.Blob.Dir == "" {
			problems = append(problems, "blob.dir is required for the local blob backend")
		}
	case BlobBackendMinio:
		if c.Blob.Minio.Endpoint == "" || c.Blob.Minio.Bucket == "" {
			problems = append(problems, "blob.minio.endpoint and blob.minio.bucket are required for the minio blob backend")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}

	return nil
}
