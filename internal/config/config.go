package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	KV       KVConfig       `mapstructure:"kv"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
}

// Store backends.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendDocument = "document"
)

// Key-value backends for the document store.
const (
	KVBackendMemory = "memory"
	KVBackendFile   = "file"
	KVBackendRedis  = "redis"
)

// Blob relocation backends.
const (
	BlobBackendLocal = "local"
	BlobBackendMinio = "minio"
)

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// StoreConfig selects the item store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres document"`
}

// DatabaseConfig contains the settings of the structured (PostgreSQL) backend.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// KVConfig contains the settings of the key-value store under the document backend.
type KVConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=memory file redis"`
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// BlobConfig selects where picked image bytes are relocated to. Source
// images are only read from beneath SourceDir.
type BlobConfig struct {
	Backend   string      `mapstructure:"backend" validate:"required,oneof=local minio"`
	Dir       string      `mapstructure:"dir"`
	SourceDir string      `mapstructure:"source_dir" validate:"required"`
	Minio     MinioConfig `mapstructure:"minio"`
}

// MinioConfig contains the object storage settings for the minio blob backend.
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// AuthConfig contains the settings used to validate identity tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}
