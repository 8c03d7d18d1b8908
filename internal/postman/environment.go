package postman

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"postman-sync/internal/types"
)

// EnvironmentValue is one variable of an environment document.
type EnvironmentValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Type    string `json:"type,omitempty"`
	Enabled bool   `json:"enabled"`
}

// Environment is the document shape the remote service accepts.
type Environment struct {
	Name   string             `json:"name"`
	Values []EnvironmentValue `json:"values"`
}

// environmentSummary is one entry of the workspace environment listing
type environmentSummary struct {
	ID   string `json:"id"`
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// FindEnvironmentByName scans the workspace environment listing for an
// exact name match.
func (c *Client) FindEnvironmentByName(ctx context.Context, name string) (types.EnvironmentHandle, error) {
	var out struct {
		Environments []environmentSummary `json:"environments"`
	}
	query := url.Values{"workspace": {c.workspace}}
	if err := c.do(ctx, http.MethodGet, "/environments", query, nil, &out); err != nil {
		return types.EnvironmentHandle{}, fmt.Errorf("failed to list environments: %w", err)
	}
	for _, env := range out.Environments {
		if env.Name == name {
			return types.EnvironmentHandle{UID: env.UID, Name: env.Name}, nil
		}
	}
	return types.EnvironmentHandle{}, ErrEnvironmentNotFound
}

// DeleteEnvironment removes an environment from the workspace.
func (c *Client) DeleteEnvironment(ctx context.Context, uid string) error {
	path := fmt.Sprintf("/environments/%s", uid)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete environment %s: %w", uid, err)
	}
	return nil
}

// UpsertEnvironment puts the environment when one with the same name
// already exists and posts it otherwise. Creation is synchronous, which
// makes this the baseline idempotence pattern for the other upserts.
func (c *Client) UpsertEnvironment(ctx context.Context, env Environment) (types.EnvironmentHandle, bool, error) {
	handle, err := c.FindEnvironmentByName(ctx, env.Name)
	if errors.Is(err, ErrEnvironmentNotFound) {
		var out struct {
			Environment struct {
				UID  string `json:"uid"`
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"environment"`
		}
		query := url.Values{"workspace": {c.workspace}}
		body := map[string]interface{}{"environment": env}
		if err := c.do(ctx, http.MethodPost, "/environments", query, body, &out); err != nil {
			return types.EnvironmentHandle{}, false, fmt.Errorf("failed to create environment %q: %w", env.Name, err)
		}
		return types.EnvironmentHandle{UID: out.Environment.UID, Name: env.Name}, true, nil
	}
	if err != nil {
		return types.EnvironmentHandle{}, false, err
	}

	body := map[string]interface{}{"environment": env}
	path := fmt.Sprintf("/environments/%s", handle.UID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, nil); err != nil {
		return types.EnvironmentHandle{}, false, fmt.Errorf("failed to update environment %q: %w", env.Name, err)
	}
	return handle, false, nil
}
