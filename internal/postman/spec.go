package postman

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"postman-sync/internal/types"
)

// specSummary is one entry of the workspace spec listing
type specSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FindSpecByName scans the workspace spec listing for an exact name match.
// A miss is ErrSpecNotFound, an expected branch for first runs.
func (c *Client) FindSpecByName(ctx context.Context, name string) (types.SpecHandle, error) {
	var out struct {
		Specs []specSummary `json:"specs"`
	}
	query := url.Values{"workspaceId": {c.workspace}}
	if err := c.do(ctx, http.MethodGet, "/specs", query, nil, &out); err != nil {
		return types.SpecHandle{}, fmt.Errorf("failed to list specs: %w", err)
	}
	for _, spec := range out.Specs {
		if spec.Name == name {
			return types.SpecHandle{ID: spec.ID, Name: spec.Name}, nil
		}
	}
	return types.SpecHandle{}, ErrSpecNotFound
}

// CreateSpec uploads a new spec to the workspace. Creation is synchronous.
func (c *Client) CreateSpec(ctx context.Context, name, fileName, content string) (types.SpecHandle, error) {
	body := map[string]interface{}{
		"name": name,
		"type": "OPENAPI:3.0",
		"files": []map[string]string{
			{"path": fileName, "content": content},
		},
	}
	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	query := url.Values{"workspaceId": {c.workspace}}
	if err := c.do(ctx, http.MethodPost, "/specs", query, body, &out); err != nil {
		return types.SpecHandle{}, fmt.Errorf("failed to create spec %q: %w", name, err)
	}
	return types.SpecHandle{ID: out.ID, Name: name}, nil
}

// UpdateSpecFile replaces the content of an existing spec file in place,
// keeping the spec's identifier.
func (c *Client) UpdateSpecFile(ctx context.Context, id, fileName, content string) error {
	body := map[string]string{"content": content}
	path := fmt.Sprintf("/specs/%s/files/%s", id, fileName)
	if err := c.do(ctx, http.MethodPatch, path, nil, body, nil); err != nil {
		return fmt.Errorf("failed to update spec file %q: %w", fileName, err)
	}
	return nil
}

// DeleteSpec removes a spec from the workspace.
func (c *Client) DeleteSpec(ctx context.Context, id string) error {
	path := fmt.Sprintf("/specs/%s", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete spec %s: %w", id, err)
	}
	return nil
}

// UpsertSpec looks the spec up by name, patches its content when found and
// creates it otherwise. The returned flag reports whether a create happened.
func (c *Client) UpsertSpec(ctx context.Context, name, fileName, content string) (types.SpecHandle, bool, error) {
	handle, err := c.FindSpecByName(ctx, name)
	if errors.Is(err, ErrSpecNotFound) {
		created, err := c.CreateSpec(ctx, name, fileName, content)
		if err != nil {
			return types.SpecHandle{}, false, err
		}
		return created, true, nil
	}
	if err != nil {
		return types.SpecHandle{}, false, err
	}

	if err := c.UpdateSpecFile(ctx, handle.ID, fileName, content); err != nil {
		return types.SpecHandle{}, false, err
	}
	return handle, false, nil
}
