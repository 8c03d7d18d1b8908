package collection

import "encoding/json"

// SchemaURL identifies the Postman collection format produced by the
// remote generator.
const SchemaURL = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// Collection represents a Postman v2.1 collection document. Fields this
// tool never interprets are kept as raw JSON so a fetch-modify-update
// round trip preserves them.
type Collection struct {
	Info      Info            `json:"info"`
	Items     []*Item         `json:"item"`
	Events    []*Event        `json:"event,omitempty"`
	Variables json.RawMessage `json:"variable,omitempty"`
	Auth      json.RawMessage `json:"auth,omitempty"`
}

// Info holds the collection's descriptive header
type Info struct {
	PostmanID   string `json:"_postman_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

// Item is either a request leaf or a folder. A non-nil Request marks a
// leaf; otherwise the node is a folder and Items holds its children.
type Item struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Request     json.RawMessage `json:"request,omitempty"`
	Responses   json.RawMessage `json:"response,omitempty"`
	Items       []*Item         `json:"item,omitempty"`
	Events      []*Event        `json:"event,omitempty"`
	Variables   json.RawMessage `json:"variable,omitempty"`
	Auth        json.RawMessage `json:"auth,omitempty"`
}

// IsRequest reports whether the item is a request leaf.
func (i *Item) IsRequest() bool {
	return len(i.Request) > 0
}

// Event is a named script hook on a collection or item. The injector only
// ever touches events whose Listen is "test".
type Event struct {
	ID       string  `json:"id,omitempty"`
	Listen   string  `json:"listen"`
	Script   *Script `json:"script,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
}

// ListenTest is the hook name for test scripts.
const ListenTest = "test"

// Script holds the executable lines of an event
type Script struct {
	ID   string   `json:"id,omitempty"`
	Type string   `json:"type,omitempty"`
	Exec []string `json:"exec"`
}
