package config

import (
	"path/filepath"
	"testing"
)

func TestReadConfig(t *testing.T) {
	var (
		err         error
		projectRoot string
	)

	// Get the project root by going up from internal/config
	projectRoot, err = filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	// Test DB config
	if cfg.DB.GormEngine == "" {
		t.Error("DB.GormEngine should not be empty")
	}

	if cfg.Log.ServiceName == "" {
		t.Error("Log.ServiceName should not be empty")
	}
}

func TestReadConfigEnvOverride(t *testing.T) {
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	t.Setenv(EnvConfigJSON, `{"Title":"overridden","Webserver":{"Port":9090}}`)

	cfg, err := ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "overridden" {
		t.Errorf("Title = %q, want %q", cfg.Title, "overridden")
	}

	if cfg.Webserver.Port != 9090 {
		t.Errorf("Webserver.Port = %d, want 9090", cfg.Webserver.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				DB:        DB{GormEngine: "sqlite"},
			},
		},
		{
			name:    "missing port",
			cfg:     Config{Webserver: Webserver{URL: "http://localhost"}},
			wantErr: true,
		},
		{
			name:    "missing url",
			cfg:     Config{Webserver: Webserver{Port: 8080}},
			wantErr: true,
		},
		{
			name: "unknown engine",
			cfg: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost"},
				DB:        DB{GormEngine: "oracle"},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validate(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config

	ApplyDefaults(&cfg)

	if cfg.Webserver.ShutDownTime != 5 {
		t.Errorf("ShutDownTime = %d, want 5", cfg.Webserver.ShutDownTime)
	}

	if cfg.DB.GormEngine != "sqlite" {
		t.Errorf("GormEngine = %q, want sqlite", cfg.DB.GormEngine)
	}

	if cfg.Library.BorrowDays != 14 {
		t.Errorf("BorrowDays = %d, want 14", cfg.Library.BorrowDays)
	}
}
