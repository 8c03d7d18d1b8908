package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("POSTMAN_API_KEY", "")
	t.Setenv("POSTMAN_WORKSPACE_ID", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.TestLevel != "all" {
		t.Errorf("TestLevel = %q, want all", cfg.TestLevel)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("LogDir = %q, want logs", cfg.LogDir)
	}
	if cfg.Poll.IntervalSeconds != 2 || cfg.Poll.Attempts != 15 {
		t.Errorf("Poll = %+v, want interval 2 and 15 attempts", cfg.Poll)
	}
	if cfg.Sync.SettleDelaySeconds != 3 {
		t.Errorf("SettleDelaySeconds = %d, want 3", cfg.Sync.SettleDelaySeconds)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("workspace: from-file\ntest_level: smoke\npoll:\n  attempts: 5\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("POSTMAN_API_KEY", "env-key")
	t.Setenv("POSTMAN_WORKSPACE_ID", "env-workspace")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want the environment value", cfg.APIKey)
	}
	if cfg.Workspace != "env-workspace" {
		t.Errorf("Workspace = %q, environment must override the file", cfg.Workspace)
	}
	if cfg.TestLevel != "smoke" {
		t.Errorf("TestLevel = %q, want smoke from the file", cfg.TestLevel)
	}
	if cfg.Poll.Attempts != 5 {
		t.Errorf("Poll.Attempts = %d, want 5 from the file", cfg.Poll.Attempts)
	}
	if cfg.Poll.IntervalSeconds != 2 {
		t.Errorf("Poll.IntervalSeconds = %d, want the default 2", cfg.Poll.IntervalSeconds)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{SpecPath: "api.yaml", APIKey: "k", Workspace: "w", TestLevel: "all"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing spec", mutate: func(c *Config) { c.SpecPath = "" }, wantErr: true},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "missing workspace", mutate: func(c *Config) { c.Workspace = "" }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.TestLevel = "full" }, wantErr: true},
		{name: "smoke level", mutate: func(c *Config) { c.TestLevel = "smoke" }, wantErr: false},
		{name: "contract level", mutate: func(c *Config) { c.TestLevel = "contract" }, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
