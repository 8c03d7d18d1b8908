package sync

import (
	"context"
	"fmt"
	"time"

	"postman-sync/internal/config"
	"postman-sync/internal/logger"
	"postman-sync/internal/parser"
	"postman-sync/internal/postman"
	"postman-sync/internal/scripts"
	"postman-sync/internal/types"
)

// DefaultBaseURL seeds the environment's baseUrl when the spec declares no
// servers.
const DefaultBaseURL = "https://api.example.com"

// Orchestrator sequences a sync run: parse, upload spec, generate
// collections, inject tests, upsert environment, summarize. Stages execute
// strictly in order; nothing runs concurrently against the workspace.
type Orchestrator struct {
	config *config.Config
	client *postman.Client
	parser *parser.Parser
	logger *logger.Logger
	sleep  func(time.Duration)
}

// NewOrchestrator creates a new orchestrator instance
func NewOrchestrator(cfg *config.Config, client *postman.Client, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		config: cfg,
		client: client,
		parser: parser.NewParser(),
		logger: log,
		sleep:  time.Sleep,
	}
}

// Run executes the full fixed-order workflow and returns its summary. Any
// remote mutation error aborts the run; a partially completed run leaves
// the workspace in whatever state the last completed stage produced.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		Timestamp:   start,
		Collections: make(map[string]string),
		DryRun:      o.config.DryRun,
	}

	// Parse the spec before touching the remote service
	o.logStage("ParseSpec", o.config.SpecPath)
	doc, err := o.parser.Load(o.config.SpecPath)
	if err != nil {
		return nil, err
	}
	endpoints := doc.ExtractEndpoints()
	title := doc.Title()
	summary.SpecName = title
	summary.Endpoints = len(endpoints)
	fmt.Printf("Parsed spec %q: %d endpoints\n", title, len(endpoints))

	if o.config.DryRun {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	// Upload the spec: update in place when found by name, create otherwise
	o.logStage("UploadSpec", title)
	specHandle, created, err := o.client.UpsertSpec(ctx, title, doc.FileName, string(doc.Raw))
	if err != nil {
		return nil, err
	}
	summary.SpecID = specHandle.ID
	summary.SpecCreated = created
	if created {
		fmt.Printf("Created spec %q (id %s)\n", title, specHandle.ID)
	} else {
		fmt.Printf("Updated spec %q (id %s)\n", title, specHandle.ID)
	}

	specTags := doc.Tags()

	// Docs collection always runs, with no injected tests
	if err := o.syncCollection(ctx, specHandle, title+" - Docs", specTags, "docs", nil, summary); err != nil {
		return nil, err
	}

	if o.config.TestLevel == "smoke" || o.config.TestLevel == "all" {
		o.settle()
		scriptMap := scripts.BuildScriptMap(endpoints, types.TierSmoke)
		if err := o.syncCollection(ctx, specHandle, title+" - Smoke Tests", specTags, "smoke", scriptMap, summary); err != nil {
			return nil, err
		}
	}

	if o.config.TestLevel == "contract" || o.config.TestLevel == "all" {
		o.settle()
		scriptMap := scripts.BuildScriptMap(endpoints, types.TierContract)
		if err := o.syncCollection(ctx, specHandle, title+" - Contract Tests", specTags, "contract", scriptMap, summary); err != nil {
			return nil, err
		}
	}

	// CI environment
	o.logStage("UpsertEnvironment", title)
	envHandle, envCreated, err := o.client.UpsertEnvironment(ctx, o.buildEnvironment(doc, title))
	if err != nil {
		return nil, err
	}
	summary.EnvironmentUID = envHandle.UID
	if envCreated {
		fmt.Printf("Created environment %q\n", envHandle.Name)
	} else {
		fmt.Printf("Updated environment %q\n", envHandle.Name)
	}

	summary.Duration = time.Since(start)
	o.logStage("Summarize", fmt.Sprintf("%d collections, %d warnings", len(summary.Collections), len(summary.Warnings)))
	return summary, nil
}

// syncCollection runs generate-or-sync for one collection, injects the
// given scripts when present, and applies the spec tags plus a kind tag.
func (o *Orchestrator) syncCollection(ctx context.Context, spec types.SpecHandle, name string, specTags []string, kind string, scriptMap scripts.Map, summary *Summary) error {
	o.logStage("GenerateCollection", name)
	handle, warnings, err := o.client.GenerateOrSyncCollection(ctx, spec.ID, name, postman.GenerationOptions{
		FolderStrategy: postman.FolderStrategyTags,
	})
	if err != nil {
		return err
	}
	summary.Warnings = append(summary.Warnings, warnings...)
	summary.Collections[name] = string(handle.UID)
	fmt.Printf("Collection %q ready (uid %s)\n", name, handle.UID)

	if scriptMap != nil {
		o.logStage("InjectTests", name)
		if err := o.client.InjectCollectionTests(ctx, handle.UID, scriptMap); err != nil {
			return err
		}
		fmt.Printf("Injected %s tests into %q\n", kind, name)
	}

	tags := append(append([]string(nil), specTags...), kind)
	return o.client.ApplyTags(ctx, handle.UID, tags)
}

// buildEnvironment produces the fixed CI environment document
func (o *Orchestrator) buildEnvironment(doc *parser.Document, title string) postman.Environment {
	baseURL := DefaultBaseURL
	if servers := doc.Servers(); len(servers) > 0 {
		baseURL = servers[0]
	}
	return postman.Environment{
		Name: title + " - CI",
		Values: []postman.EnvironmentValue{
			{Key: "baseUrl", Value: baseURL, Enabled: true},
			{Key: "RESPONSE_TIME_THRESHOLD", Value: "2000", Enabled: true},
			{Key: "auth_token", Value: "", Type: "secret", Enabled: true},
		},
	}
}

// settle pauses between dependent generation requests to give the remote
// service's internal propagation a head start. Heuristic only; the poll
// protocol is what actually waits for visibility.
func (o *Orchestrator) settle() {
	delay := time.Duration(o.config.Sync.SettleDelaySeconds) * time.Second
	if delay > 0 {
		o.sleep(delay)
	}
}

// logStage records a stage transition when a run log is attached
func (o *Orchestrator) logStage(stage, detail string) {
	if o.logger != nil {
		o.logger.LogStage(stage, detail)
	}
}
