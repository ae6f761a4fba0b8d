// Package config provides functionality for loading and accessing application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"norelock.dev/listenify/grabber/internal/utils"
)

// Delivery policies for terminal downloads.
const (
	DeliveryURL    = "url"
	DeliveryStream = "stream"
)

// Search provider selection.
const (
	SearchAuto       = "auto"
	SearchScrape     = "ytsearch"
	SearchYouTubeAPI = "youtube_api"
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// RedisConfig holds the connection settings for the shared cache.
type RedisConfig struct {
	// Address is the Redis server address
	Address string `mapstructure:"address"`
	// Username is the Redis username
	Username string `mapstructure:"username"`
	// Password is the Redis password
	Password string `mapstructure:"password"`
	// Database is the Redis database index
	Database int `mapstructure:"database" validate:"min=0"`
	// MaxRetries is the maximum number of retries for Redis operations
	MaxRetries int `mapstructure:"max_retries"`
	// PoolSize is the Redis connection pool size
	PoolSize int `mapstructure:"pool_size" validate:"min=1"`
	// MinIdleConns is the minimum number of idle connections
	MinIdleConns int `mapstructure:"min_idle_conns" validate:"min=0"`
	// DialTimeout is the timeout for establishing new connections
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	// ReadTimeout is the timeout for Redis reads
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the timeout for Redis writes
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the timeout for idle connections
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// Config represents the application configuration
type Config struct {
	// Environment is the current running environment (development, staging, production)
	Environment string `mapstructure:"environment"`

	// Server configuration
	Server struct {
		// Port is the HTTP server port; the bare PORT variable overrides it
		Port int `mapstructure:"port" validate:"min=1,max=65535"`
		// Host is the HTTP server host
		Host string `mapstructure:"host"`
		// ReadTimeout is the maximum duration for reading the entire request
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout bounds response writes; zero leaves streaming downloads unbounded
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
		// ShutdownTimeout bounds graceful shutdown
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// AllowedOrigins is the list of allowed CORS origins
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`

	// Media configuration
	Media struct {
		// SearchProvider is auto, ytsearch or youtube_api
		SearchProvider string `mapstructure:"search_provider" validate:"oneof=auto ytsearch youtube_api"`
		// YouTubeAPIKey enables the Data API search provider
		YouTubeAPIKey string `mapstructure:"youtube_api_key"`
		// SearchLimit is the number of hits requested per search
		SearchLimit int `mapstructure:"search_limit" validate:"min=1,max=10"`
		// Delivery is url (hand back the signed URL) or stream (proxy the bytes)
		Delivery string `mapstructure:"delivery" validate:"oneof=url stream"`
		// FFmpegPath is the transcoder binary
		FFmpegPath string `mapstructure:"ffmpeg_path" validate:"required"`
		// AudioBitrate is the MP3 bitrate passed to ffmpeg
		AudioBitrate string `mapstructure:"audio_bitrate" validate:"required"`
		// UpstreamTimeout bounds metadata lookups; streaming is bounded by the client only
		UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
	} `mapstructure:"media"`

	// Cache configuration
	Cache struct {
		// Driver is memory or redis
		Driver string `mapstructure:"driver" validate:"oneof=memory redis"`
		// MaxEntries bounds the in-memory cache
		MaxEntries int `mapstructure:"max_entries" validate:"min=1"`
		// TTL expires Redis entries; zero keeps them
		TTL time.Duration `mapstructure:"ttl" validate:"min=0"`
		// KeyPrefix namespaces Redis keys
		KeyPrefix string `mapstructure:"key_prefix"`
		// Redis connection settings
		Redis RedisConfig `mapstructure:"redis"`
	} `mapstructure:"cache"`

	// Logging configuration
	Logging struct {
		// Level is the logging level
		Level string `mapstructure:"level" validate:"oneof=debug info warn error fatal"`
		// Format is the logging format (json or console)
		Format string `mapstructure:"format" validate:"oneof=json console"`
		// OutputPaths is the list of output paths for logs
		OutputPaths []string `mapstructure:"output_paths"`
		// ErrorOutputPaths is the list of output paths for error logs
		ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	} `mapstructure:"logging"`
}

// LoadConfig loads the configuration from file and environment variables.
// It looks for app.yaml in the following locations:
// 1. Path specified in the CONFIG_FILE environment variable
// 2. ./configs directory
// 3. /etc/grabber directory
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("app")
	v.SetConfigType("yaml")

	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/grabber")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "production"
	}

	v.SetConfigName(fmt.Sprintf("app.%s", env))
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to merge environment config file: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The bare PORT variable wins over APP_SERVER_PORT and config files
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Environment = env

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets the default values for the configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("media.search_provider", SearchAuto)
	v.SetDefault("media.youtube_api_key", "")
	v.SetDefault("media.search_limit", 10)
	v.SetDefault("media.delivery", DeliveryStream)
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.audio_bitrate", "192k")
	v.SetDefault("media.upstream_timeout", "30s")

	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.key_prefix", "grabber:search:")

	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.database", 0)
	v.SetDefault("cache.redis.max_retries", 3)
	v.SetDefault("cache.redis.pool_size", 20)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")
	v.SetDefault("cache.redis.idle_timeout", "300s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

// validateConfig runs the struct tags, then the cross-field rules.
func validateConfig(config *Config) error {
	if err := utils.Validate(config); err != nil {
		return fmt.Errorf("%s", strings.Join(utils.FormatValidationErrors(err), "; "))
	}

	if config.Media.SearchProvider == SearchYouTubeAPI && config.Media.YouTubeAPIKey == "" {
		return errors.New("youtube_api_key must be set when search_provider is youtube_api")
	}

	if config.Cache.Driver == CacheRedis && config.Cache.Redis.Address == "" {
		return errors.New("redis address must be set when cache driver is redis")
	}

	return nil
}

// ResolvedSearchProvider turns "auto" into a concrete provider name.
func (c *Config) ResolvedSearchProvider() string {
	if c.Media.SearchProvider != SearchAuto {
		return c.Media.SearchProvider
	}
	if c.Media.YouTubeAPIKey != "" {
		return SearchYouTubeAPI
	}
	return SearchScrape
}

// GetConfigString returns a formatted, secret-free summary of the configuration
func GetConfigString(config *Config) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Environment: %s\n", config.Environment))
	sb.WriteString(fmt.Sprintf("Server: %s:%d\n", config.Server.Host, config.Server.Port))
	sb.WriteString(fmt.Sprintf("Search Provider: %s (limit %d)\n", config.ResolvedSearchProvider(), config.Media.SearchLimit))
	sb.WriteString(fmt.Sprintf("Delivery: %s\n", config.Media.Delivery))
	sb.WriteString(fmt.Sprintf("Cache: %s (max entries %d, ttl %s)\n", config.Cache.Driver, config.Cache.MaxEntries, config.Cache.TTL))

	return sb.String()
}
