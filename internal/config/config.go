package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration of a sync run. Flags override environment
// variables, which override the optional config file.
type Config struct {
	SpecPath    string     `yaml:"spec_path"`
	Workspace   string     `yaml:"workspace"`
	APIKey      string     `yaml:"-"`
	TestLevel   string     `yaml:"test_level"`
	DryRun      bool       `yaml:"-"`
	APIBaseURL  string     `yaml:"api_base_url"`
	LogDir      string     `yaml:"log_dir"`
	SummaryPath string     `yaml:"summary_path"`
	Poll        PollConfig `yaml:"poll"`
	Sync        SyncConfig `yaml:"sync"`
}

// PollConfig holds the fixed-interval polling configuration
type PollConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	Attempts        int `yaml:"attempts"`
}

// SyncConfig holds orchestration tunables
type SyncConfig struct {
	// SettleDelaySeconds is the pause between dependent generation
	// stages. It papers over server-side propagation delay and is an
	// assumption, not a contract; the poll protocol is the real wait.
	SettleDelaySeconds int `yaml:"settle_delay_seconds"`
}

// LoadConfig loads the configuration from an optional YAML file and
// environment variables, then backfills defaults.
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	// Environment overrides
	if key := os.Getenv("POSTMAN_API_KEY"); key != "" {
		config.APIKey = key
	}
	if workspace := os.Getenv("POSTMAN_WORKSPACE_ID"); workspace != "" {
		config.Workspace = workspace
	}

	config.applyDefaults()
	return &config, nil
}

// applyDefaults backfills zero values with documented defaults
func (c *Config) applyDefaults() {
	if c.TestLevel == "" {
		c.TestLevel = "all"
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
	if c.Poll.IntervalSeconds == 0 {
		c.Poll.IntervalSeconds = 2
	}
	if c.Poll.Attempts == 0 {
		c.Poll.Attempts = 15
	}
	if c.Sync.SettleDelaySeconds == 0 {
		c.Sync.SettleDelaySeconds = 3
	}
}

// Validate checks everything a run needs before any remote call is made.
func (c *Config) Validate() error {
	if c.SpecPath == "" {
		return fmt.Errorf("spec path is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is required (set --api-key or POSTMAN_API_KEY)")
	}
	if c.Workspace == "" {
		return fmt.Errorf("workspace id is required (set --workspace or POSTMAN_WORKSPACE_ID)")
	}
	switch c.TestLevel {
	case "smoke", "contract", "all":
	default:
		return fmt.Errorf("invalid test level %q: must be smoke, contract or all", c.TestLevel)
	}
	return nil
}
