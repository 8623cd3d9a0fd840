package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.Timeout)
	}
	if cfg.ErrorCodePath != "code" {
		t.Errorf("expected default error code path 'code', got %q", cfg.ErrorCodePath)
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{Timeout: 10 * time.Second, ErrorCodePath: "error.code"}
	cfg.ApplyDefaults()
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.ErrorCodePath != "error.code" {
		t.Errorf("expected error code path to be preserved, got %q", cfg.ErrorCodePath)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Timeout: time.Second, BaseURL: "http://localhost:3333"}, false},
		{"no base url", Config{Timeout: time.Second}, false},
		{"negative timeout", Config{Timeout: -1}, true},
		{"relative base url", Config{Timeout: time.Second, BaseURL: "localhost"}, true},
		{"tls cert without key", Config{Timeout: time.Second, TLS: &TLSConfig{CertFile: "cert.pem"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTLSConfig_Build(t *testing.T) {
	var nilCfg *TLSConfig
	if c, err := nilCfg.Build(); c != nil || err != nil {
		t.Errorf("expected nil config for nil TLS, got %v, %v", c, err)
	}

	if c, err := (&TLSConfig{}).Build(); c != nil || err != nil {
		t.Errorf("expected nil config for empty TLS, got %v, %v", c, err)
	}

	c, err := (&TLSConfig{ServerName: "api.internal"}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ServerName != "api.internal" {
		t.Errorf("expected server name to be set, got %q", c.ServerName)
	}

	if _, err := (&TLSConfig{CAFile: "/does/not/exist.pem"}).Build(); err == nil {
		t.Error("expected error for missing CA file")
	}
}
