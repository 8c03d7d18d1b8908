package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Summary represents the outcome of a sync run
type Summary struct {
	Timestamp      time.Time         `json:"timestamp"`
	SpecName       string            `json:"spec_name"`
	SpecID         string            `json:"spec_id,omitempty"`
	SpecCreated    bool              `json:"spec_created"`
	Endpoints      int               `json:"endpoints"`
	Collections    map[string]string `json:"collections,omitempty"`
	EnvironmentUID string            `json:"environment_uid,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
	DryRun         bool              `json:"dry_run"`
	Duration       time.Duration     `json:"duration"`
}

// Print writes a human-readable summary to stdout
func (s *Summary) Print() {
	fmt.Println("--- Sync summary ---")
	fmt.Printf("Spec: %s", s.SpecName)
	if s.SpecID != "" {
		if s.SpecCreated {
			fmt.Printf(" (created, id %s)", s.SpecID)
		} else {
			fmt.Printf(" (updated, id %s)", s.SpecID)
		}
	}
	fmt.Println()
	fmt.Printf("Endpoints: %d\n", s.Endpoints)
	if s.DryRun {
		fmt.Println("Dry run: no remote calls were made")
	}
	for name, uid := range s.Collections {
		fmt.Printf("Collection: %s (uid %s)\n", name, uid)
	}
	if s.EnvironmentUID != "" {
		fmt.Printf("Environment uid: %s\n", s.EnvironmentUID)
	}
	for _, warning := range s.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	fmt.Printf("Duration: %s\n", s.Duration.Round(time.Millisecond))
}

// Write saves the summary as indented JSON at the given path
func (s *Summary) Write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}
