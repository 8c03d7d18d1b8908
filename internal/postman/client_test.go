package postman

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient points a client with fast polling at a fake API server
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL:   server.URL,
		APIKey:    "test-key",
		Workspace: "ws-1",
		Poll:      PollConfig{Interval: time.Millisecond, Attempts: 3},
	}, nil)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestUpsertSpecCreatesWhenAbsent(t *testing.T) {
	var creates, patches int
	mux := http.NewServeMux()
	mux.HandleFunc("/specs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]interface{}{"specs": []interface{}{}})
		case http.MethodPost:
			creates++
			if r.Header.Get("X-Api-Key") != "test-key" {
				t.Error("create request missing API key header")
			}
			writeJSON(w, map[string]string{"id": "spec-123"})
		}
	})
	mux.HandleFunc("/specs/", func(w http.ResponseWriter, r *http.Request) {
		patches++
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	handle, created, err := client.UpsertSpec(context.Background(), "Task API", "openapi.yaml", "openapi: 3.0.0")
	if err != nil {
		t.Fatalf("UpsertSpec() error = %v", err)
	}
	if !created {
		t.Error("UpsertSpec() reported an update for a fresh spec")
	}
	if handle.ID != "spec-123" {
		t.Errorf("handle.ID = %q, want spec-123", handle.ID)
	}
	if creates != 1 || patches != 0 {
		t.Errorf("creates = %d, patches = %d; want 1 create and no patch", creates, patches)
	}
}

func TestUpsertSpecUpdatesInPlace(t *testing.T) {
	var creates, patches int
	mux := http.NewServeMux()
	mux.HandleFunc("/specs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]interface{}{
				"specs": []map[string]string{{"id": "spec-123", "name": "Task API"}},
			})
		case http.MethodPost:
			creates++
			writeJSON(w, map[string]string{"id": "spec-duplicate"})
		}
	})
	mux.HandleFunc("/specs/spec-123/files/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("spec file update used %s, want PATCH", r.Method)
		}
		patches++
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	handle, created, err := client.UpsertSpec(context.Background(), "Task API", "openapi.yaml", "openapi: 3.0.1")
	if err != nil {
		t.Fatalf("UpsertSpec() error = %v", err)
	}
	if created {
		t.Error("UpsertSpec() created a duplicate for an existing name")
	}
	if handle.ID != "spec-123" {
		t.Errorf("handle.ID = %q, want the existing spec-123", handle.ID)
	}
	if creates != 0 || patches != 1 {
		t.Errorf("creates = %d, patches = %d; want no create and 1 patch", creates, patches)
	}
}

func TestUpsertSpecSurfacesStatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/specs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, map[string]interface{}{"specs": []interface{}{}})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"malformed spec"}`)
	})

	client := newTestClient(t, mux)
	_, _, err := client.UpsertSpec(context.Background(), "Task API", "openapi.yaml", "not a spec")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("UpsertSpec() error = %v, want a StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "malformed spec") {
		t.Errorf("Body = %q, want the server's error body", statusErr.Body)
	}
}

func TestGenerateOrSyncNewCollection(t *testing.T) {
	var listCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/specs/spec-123/generations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]interface{}{"collections": []interface{}{}})
		case http.MethodPost:
			w.WriteHeader(http.StatusAccepted)
		}
	})
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		// The collection becomes visible on the second listing
		if listCalls < 2 {
			writeJSON(w, map[string]interface{}{"collections": []interface{}{}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"collections": []map[string]string{
				{"id": "short-id", "uid": "owner-short-id", "name": "Task API - Smoke Tests"},
			},
		})
	})

	client := newTestClient(t, mux)
	handle, warnings, err := client.GenerateOrSyncCollection(context.Background(), "spec-123", "Task API - Smoke Tests", GenerationOptions{})
	if err != nil {
		t.Fatalf("GenerateOrSyncCollection() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	// The handle must carry the composite uid, never the short id
	if string(handle.UID) != "owner-short-id" {
		t.Errorf("handle.UID = %q, want the composite uid owner-short-id", handle.UID)
	}
}

func TestGenerateOrSyncGenerationTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/specs/spec-123/generations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]interface{}{"collections": []interface{}{}})
		case http.MethodPost:
			w.WriteHeader(http.StatusAccepted)
		}
	})
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"collections": []interface{}{}})
	})

	client := newTestClient(t, mux)
	handle, _, err := client.GenerateOrSyncCollection(context.Background(), "spec-123", "Task API - Docs", GenerationOptions{})
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("GenerateOrSyncCollection() error = %v, want a TimeoutError", err)
	}
	if handle.UID != "" {
		t.Errorf("handle.UID = %q, want empty on timeout", handle.UID)
	}
}

func TestGenerateOrSyncExistingGeneration(t *testing.T) {
	var syncs, generates int
	mux := http.NewServeMux()
	mux.HandleFunc("/specs/spec-123/generations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]interface{}{
				"collections": []map[string]string{{"id": "gen-9", "name": "Task API - Docs"}},
			})
		case http.MethodPost:
			generates++
			w.WriteHeader(http.StatusAccepted)
		}
	})
	mux.HandleFunc("/specs/spec-123/generations/gen-9", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("sync used %s, want PUT", r.Method)
		}
		syncs++
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"collections": []map[string]string{
				{"id": "short-id", "uid": "owner-short-id", "name": "Task API - Docs"},
			},
		})
	})

	client := newTestClient(t, mux)
	handle, warnings, err := client.GenerateOrSyncCollection(context.Background(), "spec-123", "Task API - Docs", GenerationOptions{})
	if err != nil {
		t.Fatalf("GenerateOrSyncCollection() error = %v", err)
	}
	if syncs != 1 || generates != 0 {
		t.Errorf("syncs = %d, generates = %d; want 1 sync and no generation", syncs, generates)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if string(handle.UID) != "owner-short-id" {
		t.Errorf("handle.UID = %q, want owner-short-id", handle.UID)
	}
}

func TestGenerateOrSyncSyncedButUnfound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/specs/spec-123/generations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"collections": []map[string]string{{"id": "gen-9", "name": "Task API - Docs"}},
		})
	})
	mux.HandleFunc("/specs/spec-123/generations/gen-9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"collections": []interface{}{}})
	})

	client := newTestClient(t, mux)
	_, warnings, err := client.GenerateOrSyncCollection(context.Background(), "spec-123", "Task API - Docs", GenerationOptions{})
	if err == nil {
		t.Fatal("GenerateOrSyncCollection() returned a handle for an unfound collection")
	}
	if !strings.Contains(err.Error(), "cannot be found") {
		t.Errorf("error = %v, want the named invariant violation", err)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want the sync-wait exhaustion warning", warnings)
	}
}

func TestUpsertEnvironment(t *testing.T) {
	var creates, updates int
	existing := false
	mux := http.NewServeMux()
	mux.HandleFunc("/environments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if existing {
				writeJSON(w, map[string]interface{}{
					"environments": []map[string]string{{"id": "env-1", "uid": "owner-env-1", "name": "Task API - CI"}},
				})
				return
			}
			writeJSON(w, map[string]interface{}{"environments": []interface{}{}})
		case http.MethodPost:
			creates++
			writeJSON(w, map[string]interface{}{
				"environment": map[string]string{"id": "env-1", "uid": "owner-env-1", "name": "Task API - CI"},
			})
		}
	})
	mux.HandleFunc("/environments/owner-env-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("environment update used %s, want PUT", r.Method)
		}
		updates++
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	env := Environment{Name: "Task API - CI", Values: []EnvironmentValue{
		{Key: "baseUrl", Value: "https://api.example.com", Enabled: true},
	}}

	handle, created, err := client.UpsertEnvironment(context.Background(), env)
	if err != nil {
		t.Fatalf("UpsertEnvironment() error = %v", err)
	}
	if !created || handle.UID != "owner-env-1" {
		t.Errorf("first upsert: created = %v, uid = %q; want a create of owner-env-1", created, handle.UID)
	}

	existing = true
	handle, created, err = client.UpsertEnvironment(context.Background(), env)
	if err != nil {
		t.Fatalf("UpsertEnvironment() error = %v", err)
	}
	if created || handle.UID != "owner-env-1" {
		t.Errorf("second upsert: created = %v, uid = %q; want an update of owner-env-1", created, handle.UID)
	}
	if creates != 1 || updates != 1 {
		t.Errorf("creates = %d, updates = %d; want one of each", creates, updates)
	}
}

func TestApplyTagsMergesAndValidates(t *testing.T) {
	var replaced []Tag
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/owner-col-1/tags", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]interface{}{"tags": []map[string]string{{"slug": "existing"}}})
		case http.MethodPut:
			var body struct {
				Tags []Tag `json:"tags"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			replaced = body.Tags
			w.WriteHeader(http.StatusOK)
		}
	})

	client := newTestClient(t, mux)
	if err := client.ApplyTags(context.Background(), "owner-col-1", []string{"Smoke Tests", "existing"}); err != nil {
		t.Fatalf("ApplyTags() error = %v", err)
	}

	got := make([]string, 0, len(replaced))
	for _, tag := range replaced {
		got = append(got, tag.Slug)
	}
	want := []string{"existing", "smoke-tests"}
	if len(got) != len(want) {
		t.Fatalf("replaced tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("replaced tags = %v, want %v", got, want)
		}
	}
}
