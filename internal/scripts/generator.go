package scripts

import (
	"fmt"
	"sort"
	"strings"

	"postman-sync/internal/types"
)

// TestScript is an ordered sequence of script lines forming the test block
// attached to a single request. Opaque to the injector.
type TestScript []string

// Map associates request display names with test scripts. The "default"
// entry is mandatory and serves as the fallback for unmatched names.
type Map map[string]TestScript

// DefaultKey is the fallback entry every script map must carry.
const DefaultKey = "default"

// Generate builds the test script for one endpoint at the given tier.
// Pure and deterministic: the same descriptor always yields a byte-identical
// script.
func Generate(endpoint types.EndpointDescriptor, tier types.Tier) TestScript {
	if tier == types.TierContract {
		return generateContract(endpoint)
	}
	return generateSmoke(endpoint)
}

// BuildScriptMap generates scripts for every endpoint, keyed by display
// name, plus the mandatory "default" fallback entry.
func BuildScriptMap(endpoints []types.EndpointDescriptor, tier types.Tier) Map {
	scripts := make(Map, len(endpoints)+1)
	for _, endpoint := range endpoints {
		scripts[endpoint.Name] = Generate(endpoint, tier)
	}
	scripts[DefaultKey] = DefaultScript(tier)
	return scripts
}

// DefaultScript returns the reduced fixed template used for requests whose
// name matches no generated endpoint.
func DefaultScript(tier types.Tier) TestScript {
	script := TestScript{
		`pm.test("Status code is successful", function () {`,
		`    pm.expect(pm.response.code).to.be.within(200, 299);`,
		`});`,
	}
	script = append(script, latencyLines()...)
	if tier == types.TierContract {
		script = append(script,
			`pm.test("Response has a body", function () {`,
			`    pm.expect(pm.response.text()).to.not.be.empty;`,
			`});`,
		)
	}
	return script
}

// generateSmoke emits the smoke-tier assertions: 2xx membership, latency,
// and a shallow JSON parse check.
func generateSmoke(endpoint types.EndpointDescriptor) TestScript {
	var script TestScript

	codes := successCodes(endpoint)
	if len(codes) > 0 {
		script = append(script,
			`pm.test("Status code is an expected 2xx", function () {`,
			fmt.Sprintf(`    pm.expect(pm.response.code).to.be.oneOf([%s]);`, strings.Join(codes, ", ")),
			`});`,
		)
	}

	script = append(script, latencyLines()...)

	if declaresJSON(endpoint) {
		script = append(script, jsonBodyLines()...)
	}

	return script
}

// generateContract emits the contract-tier assertions: exact status,
// latency, content type, body shape, required fields, and error shape.
func generateContract(endpoint types.EndpointDescriptor) TestScript {
	var script TestScript

	preferred := preferredSuccess(endpoint)
	if preferred != "" {
		script = append(script,
			fmt.Sprintf(`pm.test("Status code is %s", function () {`, preferred),
			fmt.Sprintf(`    pm.response.to.have.status(%s);`, preferred),
			`});`,
		)
	}

	script = append(script, latencyLines()...)

	if declaresJSON(endpoint) {
		script = append(script, jsonBodyLines()...)
	}

	if mediaType := preferredMediaType(endpoint); mediaType != "" {
		script = append(script,
			fmt.Sprintf(`pm.test("Content-Type includes %s", function () {`, mediaType),
			`    var contentType = pm.response.headers.get("Content-Type");`,
			`    pm.expect(contentType).to.exist;`,
			fmt.Sprintf(`    pm.expect(contentType).to.include(%q);`, mediaType),
			`});`,
		)
	}

	if schema := preferredSchema(endpoint); schema != nil {
		switch schema.Type {
		case "object":
			script = append(script,
				`pm.test("Response body is an object", function () {`,
				`    pm.expect(pm.response.json()).to.be.an("object");`,
				`});`,
			)
		case "array":
			script = append(script,
				`pm.test("Response body is an array", function () {`,
				`    pm.expect(pm.response.json()).to.be.an("array");`,
				`});`,
			)
		}

		if fields := collectRequired(schema); len(fields) > 0 {
			script = append(script,
				`pm.test("Response body has required fields", function () {`,
				`    var body = pm.response.json();`,
				`    if (Array.isArray(body)) {`,
				`        body = body[0];`,
				`    }`,
			)
			for _, field := range fields {
				script = append(script, fmt.Sprintf(`    pm.expect(body).to.have.property(%q);`, field))
			}
			script = append(script, `});`)
		}
	}

	if declaresErrors(endpoint) {
		script = append(script,
			`if (pm.response.code >= 400) {`,
			`    pm.test("Error body exposes a message field", function () {`,
			`        var body = pm.response.json();`,
			`        pm.expect(body.error || body.message || body.detail).to.exist;`,
			`    });`,
			`}`,
		)
	}

	return script
}

// latencyLines asserts response time against the RESPONSE_TIME_THRESHOLD
// environment variable, read at execution time, defaulting to 2000 ms.
func latencyLines() []string {
	return []string{
		`pm.test("Response time is below threshold", function () {`,
		`    var threshold = parseInt(pm.environment.get("RESPONSE_TIME_THRESHOLD"), 10) || 2000;`,
		`    pm.expect(pm.response.responseTime).to.be.below(threshold);`,
		`});`,
	}
}

// jsonBodyLines asserts the body parses as JSON for successful responses
func jsonBodyLines() []string {
	return []string{
		`if (pm.response.code >= 200 && pm.response.code < 300) {`,
		`    pm.test("Response body parses as JSON", function () {`,
		`        pm.expect(pm.response.json()).to.not.be.undefined;`,
		`    });`,
		`}`,
	}
}

// successCodes returns the declared 2xx status codes in ascending order.
func successCodes(endpoint types.EndpointDescriptor) []string {
	var codes []string
	for code := range endpoint.Responses {
		if len(code) == 3 && code[0] == '2' && code[1] >= '0' && code[1] <= '9' && code[2] >= '0' && code[2] <= '9' {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// preferredSuccess picks the status code used for exact-status, content-type
// and schema extraction: "200", then "201", then the first declared 2xx.
func preferredSuccess(endpoint types.EndpointDescriptor) string {
	codes := successCodes(endpoint)
	for _, want := range []string{"200", "201"} {
		for _, code := range codes {
			if code == want {
				return code
			}
		}
	}
	if len(codes) > 0 {
		return codes[0]
	}
	return ""
}

// preferredMediaType returns the first declared media type of the preferred
// success response, with any parameters after ";" stripped.
func preferredMediaType(endpoint types.EndpointDescriptor) string {
	code := preferredSuccess(endpoint)
	if code == "" {
		return ""
	}
	response, ok := endpoint.Responses[code]
	if !ok || len(response.Content) == 0 {
		return ""
	}
	mediaTypes := make([]string, 0, len(response.Content))
	for mediaType := range response.Content {
		mediaTypes = append(mediaTypes, mediaType)
	}
	sort.Strings(mediaTypes)
	return strings.TrimSpace(strings.SplitN(mediaTypes[0], ";", 2)[0])
}

// preferredSchema returns the schema attached to the preferred success
// response's first media type, if any.
func preferredSchema(endpoint types.EndpointDescriptor) *types.SchemaSpec {
	code := preferredSuccess(endpoint)
	if code == "" {
		return nil
	}
	response, ok := endpoint.Responses[code]
	if !ok || len(response.Content) == 0 {
		return nil
	}
	mediaTypes := make([]string, 0, len(response.Content))
	for mediaType := range response.Content {
		mediaTypes = append(mediaTypes, mediaType)
	}
	sort.Strings(mediaTypes)
	return response.Content[mediaTypes[0]].Schema
}

// declaresJSON reports whether any declared 2xx response carries a JSON
// media type.
func declaresJSON(endpoint types.EndpointDescriptor) bool {
	for _, code := range successCodes(endpoint) {
		for mediaType := range endpoint.Responses[code].Content {
			base := strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0])
			if base == "application/json" || strings.HasSuffix(base, "+json") {
				return true
			}
		}
	}
	return false
}

// declaresErrors reports whether any 4xx or 5xx status is declared.
func declaresErrors(endpoint types.EndpointDescriptor) bool {
	for code := range endpoint.Responses {
		if len(code) > 0 && (code[0] == '4' || code[0] == '5') {
			return true
		}
	}
	return false
}

// collectRequired gathers the transitively declared required field names of
// a schema: its own, its items', and its properties', de-duplicated in
// first-seen order with nested traversal sorted by property name.
func collectRequired(schema *types.SchemaSpec) []string {
	seen := make(map[string]bool)
	var fields []string
	var walk func(s *types.SchemaSpec, depth int)
	walk = func(s *types.SchemaSpec, depth int) {
		if s == nil || depth > 8 {
			return
		}
		for _, name := range s.Required {
			if !seen[name] {
				seen[name] = true
				fields = append(fields, name)
			}
		}
		if s.Items != nil {
			walk(s.Items, depth+1)
		}
		if len(s.Properties) > 0 {
			names := make([]string, 0, len(s.Properties))
			for name := range s.Properties {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				walk(s.Properties[name], depth+1)
			}
		}
	}
	walk(schema, 0)
	return fields
}
