package config_test

import (
	"testing"
	"time"

	"github.com/stackbound/task-service/internal/platform/config"
)

func TestLoad_LocalProfile(t *testing.T) {
	t.Chdir("../../..")

	cfg, err := config.Load("local")
	if err != nil {
		t.Fatalf("Load(\"local\") error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want \"debug\"", cfg.Log.Level)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want \"memory\"", cfg.Storage.Backend)
	}
	if cfg.Notify.Mode != "simulated" {
		t.Errorf("Notify.Mode = %q, want \"simulated\"", cfg.Notify.Mode)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = true, want false for local")
	}
}

func TestLoad_ProdProfile(t *testing.T) {
	t.Chdir("../../..")

	cfg, err := config.Load("prod")
	if err != nil {
		t.Fatalf("Load(\"prod\") error: %v", err)
	}

	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want \"sqlite\"", cfg.Storage.Backend)
	}
	if cfg.Notify.Mode != "webhook" {
		t.Errorf("Notify.Mode = %q, want \"webhook\"", cfg.Notify.Mode)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = false, want true for prod")
	}
	if cfg.Telemetry.Exporter != "otlp" {
		t.Errorf("Telemetry.Exporter = %q, want \"otlp\"", cfg.Telemetry.Exporter)
	}
}

func TestLoad_BaseConfigInheritance(t *testing.T) {
	t.Chdir("../../..")

	cfg, err := config.Load("local")
	if err != nil {
		t.Fatalf("Load(\"local\") error: %v", err)
	}

	// These come from base.yaml, not overridden by local.yaml.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want \"0.0.0.0\" (from base)", cfg.Server.Host)
	}
	if cfg.Notify.Client.Retry.MaxAttempts != 3 {
		t.Errorf("Notify.Client.Retry.MaxAttempts = %d, want 3 (from base)", cfg.Notify.Client.Retry.MaxAttempts)
	}
	if cfg.Notify.Client.CircuitBreaker.MaxFailures != 5 {
		t.Errorf("Notify.Client.CircuitBreaker.MaxFailures = %d, want 5 (from base)",
			cfg.Notify.Client.CircuitBreaker.MaxFailures)
	}
}

func TestLoad_EnvOverrideSimpleKey(t *testing.T) {
	t.Chdir("../../..")
	t.Setenv("APP_SERVER_PORT", "9090")

	cfg, err := config.Load("local")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 (env override)", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrideSnakeCaseKey(t *testing.T) {
	t.Chdir("../../..")
	t.Setenv("APP_SERVER_READ_TIMEOUT", "15s")

	cfg, err := config.Load("local")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := 15 * time.Second
	if cfg.Server.ReadTimeout != want {
		t.Errorf("Server.ReadTimeout = %v, want %v (env override)", cfg.Server.ReadTimeout, want)
	}
}

func TestLoad_EnvOverrideDeeplyNestedKey(t *testing.T) {
	t.Chdir("../../..")
	t.Setenv("APP_NOTIFY_CLIENT_RETRY_MAX_ATTEMPTS", "7")

	cfg, err := config.Load("local")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Notify.Client.Retry.MaxAttempts != 7 {
		t.Errorf("Notify.Client.Retry.MaxAttempts = %d, want 7 (env override)", cfg.Notify.Client.Retry.MaxAttempts)
	}
}

func TestLoad_InvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
	}{
		{"empty", ""},
		{"path separator", "foo/bar"},
		{"traversal", ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Load(tt.profile); err == nil {
				t.Errorf("Load(%q) expected error, got nil", tt.profile)
			}
		})
	}
}

func TestLoad_MissingProfileFile(t *testing.T) {
	t.Chdir("../../..")

	if _, err := config.Load("nonexistent"); err == nil {
		t.Error("Load(\"nonexistent\") expected error, got nil")
	}
}

func TestLoad_InvalidBackendRejected(t *testing.T) {
	t.Chdir("../../..")
	t.Setenv("APP_STORAGE_BACKEND", "cassandra")

	if _, err := config.Load("local"); err == nil {
		t.Error("Load with invalid storage backend expected error, got nil")
	}
}
