package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSecret = "config-test-secret-32-characters-long!!"

// writeConfigFile writes YAML content to a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults under a minimal file", func(t *testing.T) {
		path := writeConfigFile(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Database.Path != "./data/luxgrid.db" {
			t.Errorf("Database.Path = %q", cfg.Database.Path)
		}
		if cfg.MQTT.Broker.Port != 1883 || cfg.MQTT.Broker.ClientID != "luxgrid-core" {
			t.Errorf("MQTT broker defaults = %+v", cfg.MQTT.Broker)
		}
		if cfg.MQTT.QoS != 0 {
			t.Errorf("MQTT.QoS = %d, want 0", cfg.MQTT.QoS)
		}
		if cfg.API.Port != 8080 {
			t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
		}
		if cfg.WebSocket.Path != "/ws" {
			t.Errorf("WebSocket.Path = %q", cfg.WebSocket.Path)
		}
		if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
			t.Errorf("Logging defaults = %+v", cfg.Logging)
		}
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
database:
  path: /var/lib/luxgrid/lamps.db
api:
  port: 9090
security:
  jwt:
    secret: "`+testSecret+`"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Database.Path != "/var/lib/luxgrid/lamps.db" {
			t.Errorf("Database.Path = %q", cfg.Database.Path)
		}
		if cfg.API.Port != 9090 {
			t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
		}
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		t.Setenv("LUXGRID_MQTT_HOST", "broker.internal")
		t.Setenv("LUXGRID_JWT_SECRET", testSecret)

		path := writeConfigFile(t, `
mqtt:
  broker:
    host: file-host
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.MQTT.Broker.Host != "broker.internal" {
			t.Errorf("MQTT.Broker.Host = %q, want broker.internal", cfg.MQTT.Broker.Host)
		}
		if cfg.Security.JWT.Secret != testSecret {
			t.Error("JWT secret not taken from environment")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("Load() error = nil, want read failure")
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWT.Secret = testSecret
		return cfg
	}

	t.Run("default config with a secret is valid", func(t *testing.T) {
		if err := base().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing jwt secret", func(c *Config) { c.Security.JWT.Secret = "" }, "security.jwt.secret is required"},
		{"short jwt secret", func(c *Config) { c.Security.JWT.Secret = "too-short" }, "at least 32 characters"},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path is required"},
		{"qos out of range", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"port out of range", func(c *Config) { c.API.Port = 0 }, "api.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want failure")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := defaultConfig()
	if cfg.GetReadTimeout().Seconds() != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30s", cfg.GetReadTimeout())
	}
	if cfg.GetIdleTimeout().Seconds() != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60s", cfg.GetIdleTimeout())
	}
}
