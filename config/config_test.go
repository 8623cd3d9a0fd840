package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/authclient/errors"
	"github.com/kbukum/authclient/tokenstore"
	"github.com/kbukum/authclient/validation"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name 'svc', got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info log level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Refresh.Path != "/refresh" {
		t.Errorf("expected refresh path /refresh, got %q", cfg.Refresh.Path)
	}
	if cfg.HTTP.ErrorCodePath != cfg.Refresh.CodePath {
		t.Errorf("expected http error path %q, got %q", cfg.Refresh.CodePath, cfg.HTTP.ErrorCodePath)
	}
	if cfg.Store.Driver != tokenstore.DriverMemory {
		t.Errorf("expected memory store, got %q", cfg.Store.Driver)
	}
	if cfg.Guard.SignInPath != "/" || cfg.Guard.FallbackPath != "/dashboard" {
		t.Errorf("unexpected guard paths %+v", cfg.Guard)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestConfigValidateReportsFields(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.Guard.SignInPath = "login"
	cfg.Store.Driver = "etcd"

	err := cfg.Validate()
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	fields, _ := appErr.Details["fields"].([]validation.FieldError)
	var keys []string
	for _, f := range fields {
		keys = append(keys, f.Field)
	}
	for _, want := range []string{"guard.sign_in_path", "store.driver"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected field %q in %v", want, keys)
		}
	}
}

func TestConfigValidateRedisDriver(t *testing.T) {
	var cfg Config
	cfg.Store.Driver = tokenstore.DriverRedis
	cfg.ApplyDefaults()
	cfg.Store.Redis.Addr = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without address")
	}
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: test-service
environment: staging
http:
  base_url: https://api.example.com
  timeout: 5s
refresh:
  path: /auth/refresh
  waiter_timeout: 10s
store:
  driver: memory
guard:
  fallback_path: /home
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load("test-service", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "test-service" {
		t.Errorf("expected name 'test-service', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.HTTP.BaseURL != "https://api.example.com" || cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("unexpected http config %+v", cfg.HTTP)
	}
	if cfg.Refresh.Path != "/auth/refresh" || cfg.Refresh.WaiterTimeout != 10*time.Second {
		t.Errorf("unexpected refresh config %+v", cfg.Refresh)
	}
	if cfg.Guard.FallbackPath != "/home" {
		t.Errorf("expected fallback /home, got %q", cfg.Guard.FallbackPath)
	}

	client := cfg.Client()
	if client.Refresh.Path != "/auth/refresh" || client.HTTP.BaseURL != "https://api.example.com" {
		t.Errorf("unexpected client config %+v", client)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: yaml-name\nrefresh:\n  waiter_timeout: 10s\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("REFRESH_WAITER_TIMEOUT", "3s")
	t.Setenv("STORE_REDIS_ADDR", "redis:6379")

	cfg, err := Load("test-service", WithConfigFile(configPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "yaml-name" {
		t.Errorf("expected name from yaml, got %q", cfg.Name)
	}
	if cfg.Refresh.WaiterTimeout != 3*time.Second {
		t.Errorf("expected env override 3s, got %v", cfg.Refresh.WaiterTimeout)
	}
	if cfg.Store.Redis.Addr != "redis:6379" {
		t.Errorf("expected nested env binding, got %q", cfg.Store.Redis.Addr)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg Config
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: [unterminated"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := LoadConfig("svc", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestResolveWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/my-svc/config.yml": true,
		".env":                    true,
	}}
	files := Resolve("my-svc", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "./cmd/my-svc/config.yml" {
		t.Errorf("expected config file at ./cmd/my-svc/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}

	explicit := Resolve("my-svc", LoaderConfig{FileSystem: fs, ConfigFile: "/etc/app.yml"})
	if explicit.ConfigFile != "/etc/app.yml" {
		t.Errorf("expected explicit path to win, got %q", explicit.ConfigFile)
	}
}

func TestStructKeys(t *testing.T) {
	keys := structKeys(reflect.TypeOf(&Config{}), "")
	for _, want := range []string{
		"name",
		"logging.level",
		"http.base_url",
		"http.tls.ca_file",
		"refresh.waiter_timeout",
		"store.redis.addr",
		"telemetry.sample_rate",
	} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected key %q", want)
		}
	}
	if slices.Contains(keys, "http.auth") || slices.Contains(keys, "logging.writer") {
		t.Error("fields tagged mapstructure:\"-\" must be skipped")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	WithFileSystem(&mockFS{})(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)

	if lc.FileSystem == nil {
		t.Error("expected FileSystem to be set")
	}
	if lc.ConfigFile != "/path/to/config.yml" {
		t.Errorf("expected config file path, got %q", lc.ConfigFile)
	}
	if lc.EnvFile != "/path/to/.env" {
		t.Errorf("expected env file path, got %q", lc.EnvFile)
	}
}
