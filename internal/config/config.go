package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Retention RetentionConfig `mapstructure:"retention"`
	Search    SearchConfig    `mapstructure:"search"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds a PostgreSQL connection string from the configuration.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	// BatchSize bounds how many chunks go to the provider per request.
	BatchSize int `mapstructure:"batch_size"`
	// MaxInputChars is the provider's per-text length ceiling. Chunking must
	// keep every chunk under this; longer inputs are rejected, not truncated.
	MaxInputChars int `mapstructure:"max_input_chars"`
}

type ChunkingConfig struct {
	MaxChunkChars int `mapstructure:"max_chunk_chars"`
	OverlapChars  int `mapstructure:"overlap_chars"`
}

type RetentionConfig struct {
	// Days a soft-deleted collection's metadata row survives before the
	// opportunistic cleanup pass hard-deletes it.
	Days int `mapstructure:"days"`
}

type SearchConfig struct {
	MinSimilarity    float64 `mapstructure:"min_similarity"`
	DefaultLimit     int     `mapstructure:"default_limit"`
	DefaultPrecision string  `mapstructure:"default_precision"`
}

// StorageConfig configures the optional S3-compatible document source used
// for bulk ingestion.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("embedding.provider", "dashscope")
	v.SetDefault("embedding.model", "text-embedding-v4")
	v.SetDefault("embedding.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("embedding.batch_size", 10)
	v.SetDefault("embedding.max_input_chars", 8192)
	v.SetDefault("chunking.max_chunk_chars", 500)
	v.SetDefault("chunking.overlap_chars", 100)
	v.SetDefault("retention.days", 30)
	v.SetDefault("search.min_similarity", 0.0)
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.default_precision", "balanced")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.host", "VECDEX_DB_HOST")
	v.BindEnv("database.port", "VECDEX_DB_PORT")
	v.BindEnv("database.user", "VECDEX_DB_USER")
	v.BindEnv("database.password", "VECDEX_DB_PASSWORD")
	v.BindEnv("database.name", "VECDEX_DB_NAME")
	v.BindEnv("embedding.api_key", "DASHSCOPE_API_KEY")
	v.BindEnv("embedding.base_url", "DASHSCOPE_BASE_URL")
	v.BindEnv("retention.days", "SOFT_DELETE_RETENTION_DAYS")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
