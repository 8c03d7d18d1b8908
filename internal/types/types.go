package types

// Tier selects the rigor of the generated test scripts.
type Tier string

const (
	TierSmoke    Tier = "smoke"
	TierContract Tier = "contract"
)

// EndpointDescriptor describes a single operation extracted from an OpenAPI document.
// Descriptors are derived once per run and never mutated afterwards.
type EndpointDescriptor struct {
	Method    string
	Path      string
	Name      string
	Responses map[string]ResponseSpec
	Security  []string
}

// ResponseSpec describes one declared response of an endpoint.
type ResponseSpec struct {
	Content map[string]MediaTypeSpec
}

// MediaTypeSpec describes the payload declared for one media type.
type MediaTypeSpec struct {
	Schema *SchemaSpec
}

// SchemaSpec is the subset of a JSON schema the script generator consumes.
type SchemaSpec struct {
	Type       string
	Required   []string
	Properties map[string]*SchemaSpec
	Items      *SchemaSpec
}

// SpecHandle identifies an API spec on the remote service.
type SpecHandle struct {
	ID   string
	Name string
}

// GenerationID is the short identifier returned by the generation listing
// endpoint. It is not a CollectionUID and must never be used for collection
// fetch or update calls; resolve the uid by name first.
type GenerationID string

// CollectionUID is the composite identifier used by collection fetch and
// update calls.
type CollectionUID string

// CollectionHandle identifies a collection on the remote service.
type CollectionHandle struct {
	UID  CollectionUID
	Name string
}

// EnvironmentHandle identifies an environment on the remote service.
type EnvironmentHandle struct {
	UID  string
	Name string
}
