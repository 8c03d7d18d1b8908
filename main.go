package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"postman-sync/internal/config"
	"postman-sync/internal/logger"
	"postman-sync/internal/postman"
	"postman-sync/internal/sync"

	"github.com/spf13/cobra"
)

func main() {
	var (
		specPath    string
		workspace   string
		apiKey      string
		testLevel   string
		dryRun      bool
		baseURL     string
		configPath  string
		summaryPath string
	)

	rootCmd := &cobra.Command{
		Use:   "postman-sync",
		Short: "Sync an OpenAPI spec and generated test collections to Postman",
		Long: "postman-sync uploads an OpenAPI spec to a Postman workspace, generates or " +
			"synchronizes docs, smoke and contract collections from it, injects " +
			"deterministic test scripts, and upserts a CI environment.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Flags override file and environment values
			if specPath != "" {
				cfg.SpecPath = specPath
			}
			if workspace != "" {
				cfg.Workspace = workspace
			}
			if apiKey != "" {
				cfg.APIKey = apiKey
			}
			if testLevel != "" {
				cfg.TestLevel = testLevel
			}
			if baseURL != "" {
				cfg.APIBaseURL = baseURL
			}
			if summaryPath != "" {
				cfg.SummaryPath = summaryPath
			}
			cfg.DryRun = dryRun

			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := logger.NewLogger(cfg.LogDir)
			if err != nil {
				return err
			}
			defer log.Close()

			client := postman.NewClient(postman.ClientConfig{
				BaseURL:   cfg.APIBaseURL,
				APIKey:    cfg.APIKey,
				Workspace: cfg.Workspace,
				Poll: postman.PollConfig{
					Interval: time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
					Attempts: cfg.Poll.Attempts,
				},
			}, log)

			orchestrator := sync.NewOrchestrator(cfg, client, log)
			summary, err := orchestrator.Run(context.Background())
			if err != nil {
				return err
			}

			summary.Print()
			if cfg.SummaryPath != "" {
				if err := summary.Write(cfg.SummaryPath); err != nil {
					return err
				}
				fmt.Printf("Summary written to %s\n", cfg.SummaryPath)
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&specPath, "spec", "", "Path or URL of the OpenAPI spec (required)")
	rootCmd.Flags().StringVar(&workspace, "workspace", "", "Postman workspace id (defaults to POSTMAN_WORKSPACE_ID)")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "Postman API key (defaults to POSTMAN_API_KEY)")
	rootCmd.Flags().StringVar(&testLevel, "test-level", "", "Test tier to inject: smoke, contract or all (default all)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and validate the spec without any remote call")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "Postman API base URL (for testing)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to an optional YAML config file")
	rootCmd.Flags().StringVar(&summaryPath, "summary-json", "", "Write the run summary as JSON to this path")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
