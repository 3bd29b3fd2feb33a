// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database     DatabaseConfig     `json:"database"`
	Server       ServerConfig       `json:"server"`
	Security     SecurityConfig     `json:"security"`
	JWT          JWTConfig          `json:"jwt"`
	Logging      LoggingConfig      `json:"logging"`
	Metrics      MetricsConfig      `json:"metrics"`
	Cache        CacheConfig        `json:"cache"`
	Attribution  AttributionConfig  `json:"attribution"`
	Notification NotificationConfig `json:"notification"`
	Deployment   DeploymentConfig   `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
}

// DSN renders the gorm postgres connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
}

// Address is host:port for Listen
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type SecurityConfig struct {
	HSTSMaxAge int `json:"hsts_max_age"`

	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	AuthRateLimit   int           `json:"auth_rate_limit"`   // requests per window
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per window
	PublicRateLimit int           `json:"public_rate_limit"` // clicks and public inquiries per window
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	CSPPolicy      string   `json:"csp_policy"`
	ReferrerPolicy string   `json:"referrer_policy"`
	IPBlacklist    []string `json:"ip_blacklist"`
}

type JWTConfig struct {
	SecretKey       string        `json:"secret_key"`
	PrivateKey      string        `json:"private_key"`  // RSA private key in PEM format
	PublicKey       string        `json:"public_key"`   // RSA public key in PEM format
	UseRSAKeys      bool          `json:"use_rsa_keys"` // Whether to use RSA keys instead of secret key
	AccessTokenTTL  time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl"`
	Issuer          string        `json:"issuer"`
	Audience        string        `json:"audience"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`

	EnableAccessLog bool `json:"enable_access_log"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	SettingsTTL time.Duration `json:"settings_ttl"`
}

// MinClickRetention is the click dedup bucket width. Pruning inside the current
// bucket would let a repeat visitor be counted twice.
const MinClickRetention = 10 * time.Minute

// AttributionConfig tunes click dedup, click retention and settlement transactions
type AttributionConfig struct {
	ClickRetention     time.Duration `json:"click_retention"`
	ClickPruneInterval time.Duration `json:"click_prune_interval"`
	TxMaxAttempts      int           `json:"tx_max_attempts"`
}

type NotificationConfig struct {
	QueueSize  int           `json:"queue_size"`
	RatePerSec float64       `json:"rate_per_sec"`
	Burst      int           `json:"burst"`
	Timeout    time.Duration `json:"timeout"`
}

type DeploymentConfig struct {
	Domain      string `json:"domain"`
	APIDomain   string `json:"api_domain"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// IsDevelopment reports whether docs and verbose errors should be exposed
func (d DeploymentConfig) IsDevelopment() bool {
	return d.Environment == "development" || d.Environment == "local"
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "maskan"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1024*1024), // 1MB
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
		},
		Security: SecurityConfig{
			HSTSMaxAge:       getEnvInt("HSTS_MAX_AGE", 31536000), // 1 year
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"https://maskan.example"}),
			AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:       getEnvInt("CORS_MAX_AGE", 86400),
			AuthRateLimit:    getEnvInt("AUTH_RATE_LIMIT", 20),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			PublicRateLimit:  getEnvInt("PUBLIC_RATE_LIMIT", 120),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			CSPPolicy:        getEnvString("CSP_POLICY", "default-src 'self'; frame-ancestors 'none';"),
			ReferrerPolicy:   getEnvString("REFERRER_POLICY", "strict-origin-when-cross-origin"),
			IPBlacklist:      getEnvStringSlice("IP_BLACKLIST", []string{}),
		},
		JWT: JWTConfig{
			SecretKey:       getEnvString("JWT_SECRET_KEY", ""),
			PrivateKey:      getEnvString("JWT_PRIVATE_KEY", ""),
			PublicKey:       getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys:      getEnvBool("JWT_USE_RSA_KEYS", false),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 1*time.Hour),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Issuer:          getEnvString("JWT_ISSUER", "maskan"),
			Audience:        getEnvString("JWT_AUDIENCE", "maskan-api"),
		},
		Logging: LoggingConfig{
			Level:           getEnvString("LOG_LEVEL", "info"),
			Output:          getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:        getEnvString("LOG_FILE_PATH", "/var/log/maskan/app.log"),
			MaxSize:         getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:      getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:          getEnvInt("LOG_MAX_AGE", 30),
			Compress:        getEnvBool("LOG_COMPRESS", true),
			EnableAccessLog: getEnvBool("LOG_ENABLE_ACCESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", true),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			SettingsTTL: getEnvDuration("CACHE_SETTINGS_TTL", 5*time.Minute),
		},
		Attribution: AttributionConfig{
			ClickRetention:     getEnvDuration("CLICK_RETENTION", 30*24*time.Hour),
			ClickPruneInterval: getEnvDuration("CLICK_PRUNE_INTERVAL", 1*time.Hour),
			TxMaxAttempts:      getEnvInt("TX_MAX_ATTEMPTS", 3),
		},
		Notification: NotificationConfig{
			QueueSize:  getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000),
			RatePerSec: getEnvFloat("NOTIFICATION_RATE_PER_SEC", 50),
			Burst:      getEnvInt("NOTIFICATION_BURST", 100),
			Timeout:    getEnvDuration("NOTIFICATION_TIMEOUT", 5*time.Second),
		},
		Deployment: DeploymentConfig{
			Domain:      getEnvString("DOMAIN", "maskan.example"),
			APIDomain:   getEnvString("API_DOMAIN", "api.maskan.example"),
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads path if it exists. Variables already in the environment win.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errs []string

	// Database
	if cfg.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errs = append(errs, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errs = append(errs, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// JWT
	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			errs = append(errs, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else if len(cfg.JWT.SecretKey) < 32 {
		errs = append(errs, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, "JWT_REFRESH_TOKEN_TTL must be positive")
	}
	if cfg.JWT.Issuer == "" {
		errs = append(errs, "JWT_ISSUER is required")
	}
	if cfg.JWT.Audience == "" {
		errs = append(errs, "JWT_AUDIENCE is required")
	}

	// Server
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.IdleTimeout <= 0 {
		errs = append(errs, "SERVER_IDLE_TIMEOUT must be positive")
	}

	// Logging
	validLevels := []string{"debug", "info", "warn", "error"}
	if cfg.Logging.Level != "" && !slices.Contains(validLevels, cfg.Logging.Level) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
	}
	validOutputs := []string{"stdout", "file", "both"}
	if !slices.Contains(validOutputs, cfg.Logging.Output) {
		errs = append(errs, fmt.Sprintf("LOG_OUTPUT must be one of: %v", validOutputs))
	}
	if cfg.Logging.Output != "stdout" && cfg.Logging.FilePath == "" {
		errs = append(errs, "LOG_FILE_PATH is required when logging to a file")
	}

	// Cache
	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errs = append(errs, "CACHE_REDIS_URL is required when cache is enabled")
	}

	// Attribution
	if cfg.Attribution.ClickRetention < MinClickRetention {
		errs = append(errs, fmt.Sprintf("CLICK_RETENTION must be at least %s", MinClickRetention))
	}
	if cfg.Attribution.ClickPruneInterval <= 0 {
		errs = append(errs, "CLICK_PRUNE_INTERVAL must be positive")
	}
	if cfg.Attribution.TxMaxAttempts < 1 {
		errs = append(errs, "TX_MAX_ATTEMPTS must be at least 1")
	}

	// Notification
	if cfg.Notification.QueueSize < 1 {
		errs = append(errs, "NOTIFICATION_QUEUE_SIZE must be at least 1")
	}
	if cfg.Notification.RatePerSec <= 0 {
		errs = append(errs, "NOTIFICATION_RATE_PER_SEC must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
