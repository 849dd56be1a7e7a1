package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every config variable so tests see pure defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.DatasetBaseURL != "https://data.wa.gov/api/views" {
		t.Errorf("Unexpected default base URL: %s", cfg.DatasetBaseURL)
	}
	if cfg.DatasetID != "f6w7-q2d2" {
		t.Errorf("Unexpected default dataset ID: %s", cfg.DatasetID)
	}
	if cfg.HTTPTimeout != 5*time.Minute {
		t.Errorf("Expected default timeout 5m, got %s", cfg.HTTPTimeout)
	}
	if cfg.RefreshHours != 12 {
		t.Errorf("Expected default refresh of 12 hours, got %d", cfg.RefreshHours)
	}
	if cfg.TempDir != "" {
		t.Errorf("Expected empty temp dir by default, got %s", cfg.TempDir)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "prod")
	t.Setenv("DATASET_BASE_URL", "https://data.example.test/api/views")
	t.Setenv("DATASET_ID", "abcd-1234")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")
	t.Setenv("REFRESH_HOURS", "6")
	t.Setenv("TEMP_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.Env != "prod" {
		t.Errorf("Expected env prod, got %s", cfg.Env)
	}
	if cfg.DatasetID != "abcd-1234" {
		t.Errorf("Expected dataset ID abcd-1234, got %s", cfg.DatasetID)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %s", cfg.HTTPTimeout)
	}
	if cfg.RefreshHours != 6 {
		t.Errorf("Expected refresh of 6 hours, got %d", cfg.RefreshHours)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"privileged port", "PORT", "80", "privileged"},
		{"port out of range", "PORT", "70000", "between 1 and 65535"},
		{"port not a number", "PORT", "abc", "valid number"},
		{"public address", "ADDRESS", "8.8.8.8", "public IP"},
		{"bad address", "ADDRESS", "not-an-ip", "valid IP"},
		{"unknown env", "ENV", "production!", "ENV must be one of"},
		{"unknown log level", "LOG_LEVEL", "verbose", "LOG_LEVEL must be one of"},
		{"retention too long", "LOG_RETENTION_WEEKS", "104", "between 1 and 52"},
		{"body limit too large", "MAX_REQUEST_BODY", "209715200", "too large"},
		{"bad base url scheme", "DATASET_BASE_URL", "ftp://data.wa.gov/api/views", "http or https"},
		{"base url without host", "DATASET_BASE_URL", "https://", "host"},
		{"malformed dataset id", "DATASET_ID", "f6w7q2d2", "xxxx-xxxx"},
		{"uppercase dataset id", "DATASET_ID", "F6W7-Q2D2", "xxxx-xxxx"},
		{"timeout too short", "HTTP_TIMEOUT_SECONDS", "0", "HTTP_TIMEOUT_SECONDS"},
		{"timeout too long", "HTTP_TIMEOUT_SECONDS", "7200", "HTTP_TIMEOUT_SECONDS"},
		{"refresh too frequent", "REFRESH_HOURS", "0", "between 1 and 168"},
		{"refresh too rare", "REFRESH_HOURS", "200", "between 1 and 168"},
		{"missing temp dir", "TEMP_DIR", "/nonexistent/path/for/test", "TEMP_DIR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() expected error for %s=%s", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAddressLocalhostForms(t *testing.T) {
	for _, addr := range []string{"127.0.0.1", "::1", "localhost", "192.168.1.10", "10.0.0.5"} {
		if err := validateAddress(addr); err != nil {
			t.Errorf("validateAddress(%q) unexpected error: %v", addr, err)
		}
	}
}

func TestGetEnvVarsComplete(t *testing.T) {
	vars := GetEnvVars()
	want := []string{"PORT", "DATASET_BASE_URL", "DATASET_ID", "HTTP_TIMEOUT_SECONDS", "REFRESH_HOURS", "TEMP_DIR"}

	for _, key := range want {
		found := false
		for _, v := range vars {
			if v == key {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("GetEnvVars() missing %s", key)
		}
	}
}
