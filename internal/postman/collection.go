package postman

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"postman-sync/internal/collection"
	"postman-sync/internal/scripts"
	"postman-sync/internal/types"
)

// FolderStrategyTags groups generated requests into folders by spec tags,
// the generator's default.
const FolderStrategyTags = "Tags"

// GenerationOptions configures a collection generation request.
type GenerationOptions struct {
	IncludeOptionalParameters bool   `json:"enableOptionalParameters"`
	FolderStrategy            string `json:"folderStrategy"`
}

// GenerationSummary is one entry of a spec's generation listing. Its ID is
// a GenerationID, which lives in a different identifier space than the
// CollectionUID needed for fetch and update calls.
type GenerationSummary struct {
	ID   types.GenerationID `json:"id"`
	Name string             `json:"name"`
}

// CollectionSummary is one entry of the workspace collection listing
type CollectionSummary struct {
	ID   string `json:"id"`
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// ListGenerations lists the collections already generated from a spec.
func (c *Client) ListGenerations(ctx context.Context, specID string) ([]GenerationSummary, error) {
	var out struct {
		Collections []GenerationSummary `json:"collections"`
	}
	path := fmt.Sprintf("/specs/%s/generations", specID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return out.Collections, nil
}

// GenerateCollection asks the service to produce a new collection from the
// spec. The work happens asynchronously server-side; callers must poll for
// the collection to appear in the workspace.
func (c *Client) GenerateCollection(ctx context.Context, specID, name string, options GenerationOptions) error {
	if options.FolderStrategy == "" {
		options.FolderStrategy = FolderStrategyTags
	}
	body := map[string]interface{}{
		"name":    name,
		"options": options,
	}
	path := fmt.Sprintf("/specs/%s/generations", specID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to generate collection %q: %w", name, err)
	}
	return nil
}

// SyncGeneration triggers synchronization of a previously generated
// collection against the spec's current content. Also asynchronous.
func (c *Client) SyncGeneration(ctx context.Context, specID string, generation types.GenerationID) error {
	path := fmt.Sprintf("/specs/%s/generations/%s", specID, generation)
	if err := c.do(ctx, http.MethodPut, path, nil, map[string]string{}, nil); err != nil {
		return fmt.Errorf("failed to sync generation %s: %w", generation, err)
	}
	return nil
}

// ListCollections lists the collections in the workspace.
func (c *Client) ListCollections(ctx context.Context) ([]CollectionSummary, error) {
	var out struct {
		Collections []CollectionSummary `json:"collections"`
	}
	query := url.Values{"workspace": {c.workspace}}
	if err := c.do(ctx, http.MethodGet, "/collections", query, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return out.Collections, nil
}

// ResolveCollectionUID maps a collection name to the uid used by fetch and
// update calls. This is the only way a CollectionUID is minted; generation
// ids never leave the generate-or-sync flow.
func (c *Client) ResolveCollectionUID(ctx context.Context, name string) (types.CollectionUID, error) {
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	for _, summary := range collections {
		if summary.Name == name {
			return types.CollectionUID(summary.UID), nil
		}
	}
	return "", ErrCollectionNotFound
}

// GenerateOrSyncCollection ensures a collection with the given name exists
// and matches the spec's current content. An existing generation is synced
// and its wait exhaustion degrades to a warning; a fresh generation is
// polled for visibility and exhaustion there is a fatal timeout, because no
// prior resource is known to exist. Returned warnings are non-fatal.
func (c *Client) GenerateOrSyncCollection(ctx context.Context, specID, name string, options GenerationOptions) (types.CollectionHandle, []string, error) {
	generations, err := c.ListGenerations(ctx, specID)
	if err != nil {
		return types.CollectionHandle{}, nil, err
	}

	var existing *GenerationSummary
	for i := range generations {
		if generations[i].Name == name {
			existing = &generations[i]
			break
		}
	}

	var warnings []string
	if existing != nil {
		if err := c.SyncGeneration(ctx, specID, existing.ID); err != nil {
			return types.CollectionHandle{}, nil, err
		}
		exhausted, _ := c.pollUntil(ctx, fmt.Sprintf("sync of collection %q", name), WarnOnExhausted, func(ctx context.Context) (bool, error) {
			_, err := c.ResolveCollectionUID(ctx, name)
			return err == nil, err
		})
		if exhausted {
			warnings = append(warnings, fmt.Sprintf("sync of collection %q was not confirmed; assuming it completed", name))
		}
	} else {
		if err := c.GenerateCollection(ctx, specID, name, options); err != nil {
			return types.CollectionHandle{}, nil, err
		}
		if _, err := c.pollUntil(ctx, fmt.Sprintf("generation of collection %q", name), FailOnExhausted, func(ctx context.Context) (bool, error) {
			_, err := c.ResolveCollectionUID(ctx, name)
			return err == nil, err
		}); err != nil {
			return types.CollectionHandle{}, warnings, err
		}
	}

	// The generation listing id must not escape; resolve the uid by name
	// before handing anything to callers.
	uid, err := c.ResolveCollectionUID(ctx, name)
	if errors.Is(err, ErrCollectionNotFound) {
		return types.CollectionHandle{}, warnings, fmt.Errorf("collection %q was synced but cannot be found in the workspace", name)
	}
	if err != nil {
		return types.CollectionHandle{}, warnings, err
	}
	return types.CollectionHandle{UID: uid, Name: name}, warnings, nil
}

// GetCollection fetches the full collection body.
func (c *Client) GetCollection(ctx context.Context, uid types.CollectionUID) (*collection.Collection, error) {
	var out struct {
		Collection *collection.Collection `json:"collection"`
	}
	path := fmt.Sprintf("/collections/%s", uid)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", uid, err)
	}
	if out.Collection == nil {
		return nil, fmt.Errorf("collection %s response had no body", uid)
	}
	return out.Collection, nil
}

// UpdateCollection replaces the full collection body.
func (c *Client) UpdateCollection(ctx context.Context, uid types.CollectionUID, col *collection.Collection) error {
	body := map[string]interface{}{"collection": col}
	path := fmt.Sprintf("/collections/%s", uid)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to update collection %s: %w", uid, err)
	}
	return nil
}

// DeleteCollection removes a collection from the workspace.
func (c *Client) DeleteCollection(ctx context.Context, uid types.CollectionUID) error {
	path := fmt.Sprintf("/collections/%s", uid)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", uid, err)
	}
	return nil
}

// InjectCollectionTests fetches the collection, injects the test scripts
// and writes the full body back. This read-modify-write has no concurrency
// control; a second writer racing it can lose updates.
func (c *Client) InjectCollectionTests(ctx context.Context, uid types.CollectionUID, scriptMap scripts.Map) error {
	col, err := c.GetCollection(ctx, uid)
	if err != nil {
		return err
	}
	if err := collection.InjectTests(col, scriptMap); err != nil {
		return err
	}
	return c.UpdateCollection(ctx, uid, col)
}
