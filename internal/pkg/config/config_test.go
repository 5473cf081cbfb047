package config_test

import (
	"strings"
	"testing"

	"github.com/samirrijal/trailpace/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("trailpace-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Prediction.WindowM != 100 || cfg.Prediction.MinSpeedKmh != 0.5 || cfg.Prediction.MinSegmentM != 1 {
		t.Errorf("unexpected prediction defaults: %+v", cfg.Prediction)
	}
	if cfg.Storage.Driver != config.StorageNone {
		t.Errorf("expected storage driver none, got %s", cfg.Storage.Driver)
	}
	if cfg.Telemetry.ServiceName != "trailpace-test" {
		t.Errorf("expected service name trailpace-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRAILPACE_MODEL_PATH", "/models/gbr.json")
	t.Setenv("TRAILPACE_PREDICTION_WINDOW_M", "80")
	t.Setenv("TRAILPACE_STORAGE_DRIVER", "sqlite")

	cfg, err := config.Load("api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model.Path != "/models/gbr.json" {
		t.Errorf("expected model path override, got %s", cfg.Model.Path)
	}
	if cfg.Prediction.WindowM != 80 {
		t.Errorf("expected window 80, got %v", cfg.Prediction.WindowM)
	}
	if cfg.Storage.Driver != config.StorageSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.Storage.Driver)
	}
}

func validConfig() config.Config {
	return config.Config{
		Server:     config.ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 10, BodyLimitMB: 16},
		Model:      config.ModelConfig{Path: "model.json"},
		Prediction: config.PredictionConfig{WindowM: 100, MinSpeedKmh: 0.5, MinSegmentM: 1},
		Storage:    config.StorageConfig{Driver: config.StorageNone},
		Cache:      config.CacheConfig{TTLSeconds: 60},
		Temporal:   config.TemporalConfig{TaskQueue: "q"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *config.Config) {}},
		{name: "bad port", mutate: func(c *config.Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "no model", mutate: func(c *config.Config) { c.Model.Path = "" }, wantErr: "model.path"},
		{name: "zero window", mutate: func(c *config.Config) { c.Prediction.WindowM = 0 }, wantErr: "prediction.window_m"},
		{name: "zero floor", mutate: func(c *config.Config) { c.Prediction.MinSpeedKmh = 0 }, wantErr: "prediction.min_speed_kmh"},
		{name: "unknown driver", mutate: func(c *config.Config) { c.Storage.Driver = "mongo" }, wantErr: "storage.driver"},
		{name: "postgres without host", mutate: func(c *config.Config) {
			c.Storage.Driver = config.StoragePostgres
			c.Database = config.DatabaseConfig{Port: 5432, User: "u", DBName: "d"}
		}, wantErr: "database.host"},
		{name: "valkey enabled without addr", mutate: func(c *config.Config) { c.Valkey.Enabled = true }, wantErr: "valkey.addr"},
		{name: "nats disabled without url", mutate: func(c *config.Config) { c.NATS.URL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "trailpace", SSLMode: "disable"}
	if got := d.DSN(); got != "postgres://u:p@db:5432/trailpace?sslmode=disable" {
		t.Errorf("unexpected DSN %s", got)
	}
}
