package parser

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"postman-sync/internal/types"

	"github.com/getkin/kin-openapi/openapi3"
)

// methodOrder fixes the iteration order over a path item's operations so
// extraction is deterministic run to run.
var methodOrder = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "TRACE"}

// Document is a parsed OpenAPI document plus the raw bytes it was loaded
// from. The raw bytes are what gets uploaded to the remote service.
type Document struct {
	Doc      *openapi3.T
	Raw      []byte
	FileName string
}

// Parser handles loading of OpenAPI specifications
type Parser struct {
	client *http.Client
}

// NewParser creates a new instance of Parser
func NewParser() *Parser {
	return &Parser{
		client: &http.Client{},
	}
}

// Load reads and parses an OpenAPI document from a local path or an
// http(s) URL.
func (p *Parser) Load(location string) (*Document, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return p.loadURL(location)
	}
	return p.loadFile(location)
}

// loadFile reads the OpenAPI document from a local file
func (p *Parser) loadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	doc, err := p.parse(data)
	if err != nil {
		return nil, err
	}

	name := path
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		name = path[i+1:]
	}
	return &Document{Doc: doc, Raw: data, FileName: name}, nil
}

// loadURL fetches the OpenAPI document from the given URL
func (p *Parser) loadURL(url string) (*Document, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	doc, err := p.parse(data)
	if err != nil {
		return nil, err
	}
	return &Document{Doc: doc, Raw: data, FileName: "openapi.yaml"}, nil
}

// parse runs the external OpenAPI parser over the raw document
func (p *Parser) parse(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI doc: %v", err)
	}
	return doc, nil
}

// Title returns the document's declared title, or a fallback name.
func (d *Document) Title() string {
	if d.Doc.Info != nil && d.Doc.Info.Title != "" {
		return d.Doc.Info.Title
	}
	return "Untitled API"
}

// Servers returns the declared server URLs in document order.
func (d *Document) Servers() []string {
	var urls []string
	for _, s := range d.Doc.Servers {
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	return urls
}

// Tags returns the declared tag names followed by any tags only referenced
// from operations, de-duplicated, in deterministic order.
func (d *Document) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range d.Doc.Tags {
		if t.Name != "" && !seen[t.Name] {
			seen[t.Name] = true
			tags = append(tags, t.Name)
		}
	}

	var fromOps []string
	if d.Doc.Paths != nil {
		for _, pathItem := range d.Doc.Paths.Map() {
			for _, op := range pathItem.Operations() {
				for _, t := range op.Tags {
					if t != "" && !seen[t] {
						seen[t] = true
						fromOps = append(fromOps, t)
					}
				}
			}
		}
	}
	sort.Strings(fromOps)
	return append(tags, fromOps...)
}

// ExtractEndpoints extracts endpoint descriptors from the parsed document.
// The result order is deterministic: paths sorted, then fixed method order.
func (d *Document) ExtractEndpoints() []types.EndpointDescriptor {
	var endpoints []types.EndpointDescriptor
	if d.Doc.Paths == nil {
		return endpoints
	}

	paths := d.Doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	for _, path := range keys {
		operations := paths[path].Operations()
		for _, method := range methodOrder {
			operation, ok := operations[method]
			if !ok {
				continue
			}

			endpoint := types.EndpointDescriptor{
				Method:    method,
				Path:      path,
				Name:      endpointName(method, path, operation),
				Responses: make(map[string]types.ResponseSpec),
			}

			// Extract security requirement names
			if operation.Security != nil {
				names := make(map[string]bool)
				for _, requirement := range *operation.Security {
					for name := range requirement {
						names[name] = true
					}
				}
				for name := range names {
					endpoint.Security = append(endpoint.Security, name)
				}
				sort.Strings(endpoint.Security)
			}

			// Extract responses
			if operation.Responses != nil {
				for statusCode, response := range operation.Responses.Map() {
					if response == nil || response.Value == nil {
						continue
					}
					spec := types.ResponseSpec{}
					if len(response.Value.Content) > 0 {
						spec.Content = make(map[string]types.MediaTypeSpec)
						for mediaType, content := range response.Value.Content {
							var schema *types.SchemaSpec
							if content != nil && content.Schema != nil {
								schema = convertSchema(content.Schema, 0)
							}
							spec.Content[mediaType] = types.MediaTypeSpec{Schema: schema}
						}
					}
					endpoint.Responses[statusCode] = spec
				}
			}

			endpoints = append(endpoints, endpoint)
		}
	}

	return endpoints
}

// endpointName returns the display name the remote generator will assign to
// the request: the operation summary when present, else "METHOD /path".
func endpointName(method, path string, op *openapi3.Operation) string {
	if op.Summary != "" {
		return op.Summary
	}
	return fmt.Sprintf("%s %s", method, path)
}

// maxSchemaDepth bounds schema conversion; dereferenced documents can
// contain cyclic schema references.
const maxSchemaDepth = 8

// convertSchema converts a kin-openapi schema into the reduced form the
// script generator consumes
func convertSchema(ref *openapi3.SchemaRef, depth int) *types.SchemaSpec {
	if ref == nil || ref.Value == nil || depth > maxSchemaDepth {
		return nil
	}
	value := ref.Value

	spec := &types.SchemaSpec{
		Type:     schemaTypeName(value),
		Required: append([]string(nil), value.Required...),
	}
	if len(value.Properties) > 0 {
		spec.Properties = make(map[string]*types.SchemaSpec, len(value.Properties))
		for name, prop := range value.Properties {
			spec.Properties[name] = convertSchema(prop, depth+1)
		}
	}
	if value.Items != nil {
		spec.Items = convertSchema(value.Items, depth+1)
	}
	return spec
}

// schemaTypeName returns the first declared type of a schema, if any
func schemaTypeName(schema *openapi3.Schema) string {
	if schema.Type == nil || len(*schema.Type) == 0 {
		return ""
	}
	return (*schema.Type)[0]
}
