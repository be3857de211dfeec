package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"HOST", "PORT", "ENVIRONMENT", "FRONTEND_URL", "READ_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"STORE_DRIVER", "MONGODB_URL", "MONGODB_DATABASE", "DATABASE_DSN",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE", "DB_MAX_OPEN_CONNS",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_DB",
	"WORKER_CONCURRENCY", "BCRYPT_COST", "LOGIN_MAX_ATTEMPTS", "LOGIN_LOCKOUT_WINDOW",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM",
	"EMAIL_HOST", "EMAIL_PORT", "EMAIL_USER", "EMAIL_PASS", "EMAIL_FROM", "NOTIFY_TIMEOUT",
	"GMAIL_USER", "GMAIL_PASS",
	"WORKFLOW_DEFAULT_ASSIGNEE", "WORKFLOW_DEDUPE_APPROVAL_REPORTS", "LOG_LEVEL",
}

func isolateEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateEnv(t, nil)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Port != "5371" {
		t.Errorf("Expected default port '5371', got %s", config.Server.Port)
	}
	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}
	if config.Server.FrontendURL != "http://localhost:3000" {
		t.Errorf("Expected default frontend url, got %s", config.Server.FrontendURL)
	}
	if config.Store.Driver != DriverMongo {
		t.Errorf("Expected default driver %q, got %q", DriverMongo, config.Store.Driver)
	}
	if config.Store.MongoURL != "mongodb://localhost:27017/MistyEMS" {
		t.Errorf("Expected local mongo url, got %s", config.Store.MongoURL)
	}
	if config.Redis.Enabled {
		t.Error("Expected redis to be disabled by default")
	}
	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}
	if config.Auth.LoginMaxAttempts != 5 || config.Auth.LoginLockoutWindow != 15*time.Minute {
		t.Errorf("Unexpected login throttle defaults: %+v", config.Auth)
	}
	if config.Email.NotifyTimeout != 10*time.Second {
		t.Errorf("Expected notify timeout 10s, got %v", config.Email.NotifyTimeout)
	}
	if config.Workflow.DefaultAssignee != "QC Team" {
		t.Errorf("Expected default assignee 'QC Team', got %s", config.Workflow.DefaultAssignee)
	}
	if config.Workflow.DedupeApprovalReports {
		t.Error("Expected approval report dedupe to be off by default")
	}
	if config.SMTPConfigured() {
		t.Error("Expected SMTP to be unconfigured by default")
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	isolateEnv(t, map[string]string{
		"PORT":                             "9000",
		"STORE_DRIVER":                     "Postgres",
		"DB_HOST":                          "db.example.com",
		"DB_PASSWORD":                      "secure_password",
		"DB_MAX_OPEN_CONNS":                "50",
		"REDIS_ENABLED":                    "true",
		"REDIS_DB":                         "1",
		"EMAIL_HOST":                       "smtp.example.com",
		"EMAIL_USER":                       "qc@example.com",
		"NOTIFY_TIMEOUT":                   "3s",
		"WORKFLOW_DEFAULT_ASSIGNEE":        "Night Shift",
		"WORKFLOW_DEDUPE_APPROVAL_REPORTS": "true",
		"RATE_LIMIT_ENABLED":               "false",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.Server.Port != "9000" {
		t.Errorf("Expected port '9000', got %s", config.Server.Port)
	}
	if config.Store.Driver != DriverPostgres {
		t.Errorf("Expected driver to be normalized to postgres, got %s", config.Store.Driver)
	}
	if config.Store.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Store.MaxOpenConns)
	}
	if !config.Redis.Enabled || config.Redis.DB != 1 {
		t.Errorf("Unexpected redis config: %+v", config.Redis)
	}
	if config.Email.From != "qc@example.com" {
		t.Errorf("Expected From to fall back to EMAIL_USER, got %s", config.Email.From)
	}
	if !config.SMTPConfigured() {
		t.Error("Expected SMTP to be configured")
	}
	if config.Email.NotifyTimeout != 3*time.Second {
		t.Errorf("Expected notify timeout 3s, got %v", config.Email.NotifyTimeout)
	}
	if config.Workflow.DefaultAssignee != "Night Shift" || !config.Workflow.DedupeApprovalReports {
		t.Errorf("Unexpected workflow config: %+v", config.Workflow)
	}
	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		message string
	}{
		{
			name:    "mongo without url",
			vars:    map[string]string{"ENVIRONMENT": "production"},
			message: "MONGODB_URL is required in production",
		},
		{
			name:    "postgres without password",
			vars:    map[string]string{"ENVIRONMENT": "production", "STORE_DRIVER": "postgres"},
			message: "database password is required in production",
		},
		{
			name:    "mongo without smtp relay",
			vars:    map[string]string{"ENVIRONMENT": "production", "MONGODB_URL": "mongodb://db:27017/qc"},
			message: "EMAIL_HOST or GMAIL_USER is required in production",
		},
		{
			name:    "unknown driver",
			vars:    map[string]string{"STORE_DRIVER": "oracle"},
			message: `unsupported STORE_DRIVER "oracle"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t, tt.vars)

			_, err := LoadConfig()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if err.Error() != tt.message {
				t.Errorf("Expected %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestLoadConfig_GmailFallback(t *testing.T) {
	isolateEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"MONGODB_URL": "mongodb://db:27017/qc",
		"GMAIL_USER":  "qc.team@gmail.com",
		"GMAIL_PASS":  "app-password",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.Email.Host != "smtp.gmail.com" {
		t.Errorf("Expected gmail relay host, got %s", config.Email.Host)
	}
	if config.Email.User != "qc.team@gmail.com" || config.Email.Password != "app-password" {
		t.Errorf("Expected GMAIL_USER/GMAIL_PASS credentials, got %+v", config.Email)
	}
	if config.Email.From != "qc.team@gmail.com" {
		t.Errorf("Expected From to fall back to GMAIL_USER, got %s", config.Email.From)
	}
	if !config.Email.RelayRequired {
		t.Error("Expected relay to be required in production")
	}
}

func TestLoadConfig_EmailUserWinsOverGmail(t *testing.T) {
	isolateEnv(t, map[string]string{
		"EMAIL_HOST": "smtp.example.com",
		"EMAIL_USER": "qc@example.com",
		"GMAIL_USER": "qc.team@gmail.com",
	})

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.Email.Host != "smtp.example.com" || config.Email.User != "qc@example.com" {
		t.Errorf("Expected EMAIL_* settings to win, got %+v", config.Email)
	}
	if config.Email.RelayRequired {
		t.Error("Expected relay to be optional outside production")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	isolateEnv(t, map[string]string{"PORT": "7000"})

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=6000\nWORKFLOW_DEFAULT_ASSIGNEE=Editors\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("WORKFLOW_DEFAULT_ASSIGNEE") })

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.Server.Port != "7000" {
		t.Errorf("Expected environment to win over .env, got port %s", config.Server.Port)
	}
	if config.Workflow.DefaultAssignee != "Editors" {
		t.Errorf("Expected assignee from .env, got %s", config.Workflow.DefaultAssignee)
	}
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	isolateEnv(t, nil)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected missing .env to be ignored, got: %v", err)
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Store: StoreConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	if actual := config.GetDatabaseDSN(); actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}

	config.Store.DSN = "file:qc.db"
	if actual := config.GetDatabaseDSN(); actual != "file:qc.db" {
		t.Errorf("Expected explicit DSN to win, got '%s'", actual)
	}
}

func TestConfig_Addrs(t *testing.T) {
	config := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "9000"},
		Redis:  RedisConfig{Host: "redis.example.com", Port: "6380"},
	}

	if got := config.GetServerAddr(); got != "0.0.0.0:9000" {
		t.Errorf("Expected server addr '0.0.0.0:9000', got '%s'", got)
	}
	if got := config.GetRedisAddr(); got != "redis.example.com:6380" {
		t.Errorf("Expected redis addr 'redis.example.com:6380', got '%s'", got)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{Server: ServerConfig{Environment: test.environment}}
		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				test.environment, test.expected, actual)
		}
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT_VAR", "not-a-number")
	if got := getEnvAsInt("TEST_INT_VAR", 42); got != 42 {
		t.Errorf("Expected default 42 for invalid int, got %d", got)
	}

	t.Setenv("TEST_BOOL_VAR", "True")
	if got := getEnvAsBool("TEST_BOOL_VAR", false); !got {
		t.Error("Expected 'True' to parse as true")
	}

	t.Setenv("TEST_DURATION_VAR", "1h30m")
	if got := getEnvAsDuration("TEST_DURATION_VAR", time.Second); got != 90*time.Minute {
		t.Errorf("Expected 90m, got %v", got)
	}

	t.Setenv("TEST_DURATION_VAR", "soon")
	if got := getEnvAsDuration("TEST_DURATION_VAR", time.Second); got != time.Second {
		t.Errorf("Expected default for invalid duration, got %v", got)
	}
}
