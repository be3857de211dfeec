package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongodb"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Store     StoreConfig     `json:"store"`
	Redis     RedisConfig     `json:"redis"`
	Worker    WorkerConfig    `json:"worker"`
	Auth      AuthConfig      `json:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Email     EmailConfig     `json:"email"`
	Workflow  WorkflowConfig  `json:"workflow"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Environment     string        `json:"environment"`
	FrontendURL     string        `json:"frontend_url"`
}

type StoreConfig struct {
	Driver          string        `json:"driver"`
	MongoURL        string        `json:"mongo_url"`
	MongoDatabase   string        `json:"mongo_database"`
	DSN             string        `json:"dsn"`
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Name            string        `json:"name"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WorkerConfig struct {
	Concurrency  int           `json:"concurrency"`
	PollInterval time.Duration `json:"poll_interval"`
}

type AuthConfig struct {
	BCryptCost         int           `json:"bcrypt_cost"`
	LoginMaxAttempts   int           `json:"login_max_attempts"`
	LoginLockoutWindow time.Duration `json:"login_lockout_window"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

type EmailConfig struct {
	Host          string        `json:"host"`
	Port          int           `json:"port"`
	User          string        `json:"user"`
	Password      string        `json:"-"`
	From          string        `json:"from"`
	NotifyTimeout time.Duration `json:"notify_timeout"`

	// RelayRequired forbids falling back to the logging sender.
	RelayRequired bool `json:"relay_required"`
}

type WorkflowConfig struct {
	DefaultAssignee       string `json:"default_assignee"`
	DedupeApprovalReports bool   `json:"dedupe_approval_reports"`
}

type LogConfig struct {
	Level string `json:"level"`
}

// Load reads an optional dotenv file into the process environment before building
// the config. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return LoadConfig()
}

func LoadConfig() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:            getEnv("HOST", "0.0.0.0"),
			Port:            getEnv("PORT", "5371"),
			ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			Environment:     getEnv("ENVIRONMENT", "development"),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Store: StoreConfig{
			Driver:          strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			MongoURL:        os.Getenv("MONGODB_URL"),
			MongoDatabase:   getEnv("MONGODB_DATABASE", ""),
			DSN:             os.Getenv("DATABASE_DSN"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "qc_tracker"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			ConnectTimeout:  getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 2),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", 5*time.Second),
		},
		Auth: AuthConfig{
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 10),
			LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginLockoutWindow: getEnvAsDuration("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin:  getEnvAsInt("RATE_LIMIT_RPM", 300),
			BurstSize:       getEnvAsInt("RATE_LIMIT_BURST", 30),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP", 10*time.Minute),
		},
		Email: EmailConfig{
			Host:          getEnv("EMAIL_HOST", ""),
			Port:          getEnvAsInt("EMAIL_PORT", 587),
			User:          getEnv("EMAIL_USER", getEnv("GMAIL_USER", "")),
			Password:      getEnv("EMAIL_PASS", getEnv("GMAIL_PASS", "")),
			From:          getEnv("EMAIL_FROM", ""),
			NotifyTimeout: getEnvAsDuration("NOTIFY_TIMEOUT", 10*time.Second),
		},
		Workflow: WorkflowConfig{
			DefaultAssignee:       getEnv("WORKFLOW_DEFAULT_ASSIGNEE", "QC Team"),
			DedupeApprovalReports: getEnvAsBool("WORKFLOW_DEDUPE_APPROVAL_REPORTS", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if config.Email.From == "" {
		config.Email.From = config.Email.User
	}
	if config.Email.Host == "" && config.Email.User != "" {
		config.Email.Host = "smtp.gmail.com"
	}
	config.Email.RelayRequired = config.IsProduction()

	switch config.Store.Driver {
	case DriverMongo:
		if config.Store.MongoURL == "" {
			if config.IsProduction() {
				return nil, fmt.Errorf("MONGODB_URL is required in production")
			}
			config.Store.MongoURL = "mongodb://localhost:27017/MistyEMS"
		}
	case DriverPostgres:
		if config.Store.DSN == "" && config.Store.Password == "" && config.IsProduction() {
			return nil, fmt.Errorf("database password is required in production")
		}
	case DriverSQLite:
		if config.Store.DSN == "" {
			if config.IsProduction() {
				return nil, fmt.Errorf("DATABASE_DSN is required for sqlite in production")
			}
			config.Store.DSN = "qc_tracker.db"
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", config.Store.Driver)
	}

	if config.Email.RelayRequired && !config.SMTPConfigured() {
		return nil, fmt.Errorf("EMAIL_HOST or GMAIL_USER is required in production")
	}

	return config, nil
}

// GetDatabaseDSN returns DATABASE_DSN when set, otherwise a postgres keyword DSN
// assembled from the DB_* variables.
func (c *Config) GetDatabaseDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Store.Host,
		c.Store.Port,
		c.Store.User,
		c.Store.Password,
		c.Store.Name,
		c.Store.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) SMTPConfigured() bool {
	return c.Email.Host != "" && c.Email.From != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
