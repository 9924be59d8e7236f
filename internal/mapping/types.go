package mapping

import (
	"slices"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/naming"
)

// SchemaRole is the purpose of a schema within a feature.
type SchemaRole int

const (
	RoleOutput SchemaRole = iota
	RoleList
	RoleCreate
	RoleUpdate
	RoleRef
)

func (r SchemaRole) String() string {
	switch r {
	case RoleOutput:
		return "output"
	case RoleList:
		return "list"
	case RoleCreate:
		return "create"
	case RoleUpdate:
		return "update"
	case RoleRef:
		return "ref"
	default:
		return common.UnknownStr
	}
}

// PyImport is one "from Module import Name" of a schema module.
type PyImport struct {
	Module string
	Name   string
}

// JSONSchema is the OpenAPI shape of a field.
type JSONSchema struct {
	Type      string
	Format    string
	Ref       string // schema name
	Items     *JSONSchema
	Enum      []string
	MaxLength int
	Nullable  bool
	// Default is JSON text.
	Default string
}

// SchemaField is one field of a schema.
type SchemaField struct {
	// Name is the schema-layer key, in source convention.
	Name string
	// WireKey is the wire-layer key.
	WireKey string
	// Source is the model field the schema field is derived from.
	Source     string
	SchemaType string
	WireType   string
	JSON       JSONSchema
	Required   bool
	Nullable   bool
	// Default is a Python literal; nil means no literal default.
	Default     *string
	ReadOnly    bool
	Description string
	MaxLength   int
	Imports     []PyImport
	// ManyIDs marks an input field carrying many-to-many identifiers.
	ManyIDs bool
}

// SchemaDescriptor is one schema of a feature.
type SchemaDescriptor struct {
	Name        string
	Role        SchemaRole
	Description string
	Fields      []SchemaField
	Keys        *naming.KeyMap
}

// Field returns the schema field with the given schema key.
func (s *SchemaDescriptor) Field(name string) (SchemaField, bool) {
	i := slices.IndexFunc(s.Fields, func(f SchemaField) bool { return f.Name == name })
	if i < 0 {
		return SchemaField{}, false
	}

	return s.Fields[i], true
}

// Renamed reports whether any key differs between schema and wire layers.
func (s *SchemaDescriptor) Renamed() bool {
	return s.Keys != nil && s.Keys.Renamed()
}

// ParamIn is the location of a route parameter.
type ParamIn string

const (
	InPath  ParamIn = "path"
	InQuery ParamIn = "query"
)

// Param is one route parameter.
type Param struct {
	Name        string
	In          ParamIn
	SchemaType  string
	WireType    string
	JSON        JSONSchema
	Required    bool
	Default     string // Python literal
	Min         *int
	Max         *int
	Description string
}

// RouteDescriptor is the route of one operation.
type RouteDescriptor struct {
	Operation descriptor.Operation
	Method    string
	// Path is relative to the feature router, e.g. "/" or "/{id}".
	Path string
	// FullPath includes the API prefix and feature, as published in OpenAPI.
	FullPath    string
	OperationID string
	Summary     string
	Tag         string
	Params      []Param
	// Request and Response name schemas of the feature; "" for none.
	Request  string
	Response string
	Status   int
	// Ordering lists the keys accepted by the ordering parameter of list.
	Ordering        []string
	DefaultOrdering string
}

// PathParam returns the path parameter of an item-level route.
func (r *RouteDescriptor) PathParam() (Param, bool) {
	i := slices.IndexFunc(r.Params, func(p Param) bool { return p.In == InPath })
	if i < 0 {
		return Param{}, false
	}

	return r.Params[i], true
}

// FeatureDescriptor is everything rendered for one feature.
type FeatureDescriptor struct {
	Name       string
	Model      descriptor.ModelDescriptor
	Operations descriptor.OperationSet
	// Schemas are ordered refs first, then output, list, create, update.
	Schemas    []SchemaDescriptor
	Routes     []RouteDescriptor
	CamelCase  bool
	PrimaryKey SchemaField
	// Migrated is set for features produced from legacy constructs.
	Migrated bool
	// Source names the legacy constructs a migrated feature came from.
	Source []string
}

// Schema returns the schema with the given name.
func (f *FeatureDescriptor) Schema(name string) (*SchemaDescriptor, bool) {
	for i := range f.Schemas {
		if f.Schemas[i].Name == name {
			return &f.Schemas[i], true
		}
	}

	return nil, false
}

// SchemaByRole returns the schema with the given role.
func (f *FeatureDescriptor) SchemaByRole(role SchemaRole) (*SchemaDescriptor, bool) {
	for i := range f.Schemas {
		if f.Schemas[i].Role == role {
			return &f.Schemas[i], true
		}
	}

	return nil, false
}

// Route returns the route of an operation.
func (f *FeatureDescriptor) Route(op descriptor.Operation) (*RouteDescriptor, bool) {
	for i := range f.Routes {
		if f.Routes[i].Operation == op {
			return &f.Routes[i], true
		}
	}

	return nil, false
}

// Has reports whether the feature exposes op.
func (f *FeatureDescriptor) Has(op descriptor.Operation) bool {
	_, ok := f.Route(op)
	return ok
}

// ModelClass is the Django model class name.
func (f *FeatureDescriptor) ModelClass() string {
	return f.Model.Name
}

// SchemaName returns the name of the schema with the given role.
func (f *FeatureDescriptor) SchemaName(role SchemaRole) string {
	return FeatureSchemaName(f.Name, f.Model.Name, role)
}

// FeatureSchemaName returns the schema name a feature uses for a role:
// "UserSchema" for feature users of model User, "UserDetailsUserSchema" for
// feature user_details. Ref schemas are shared.
func FeatureSchemaName(feature, model string, role SchemaRole) string {
	if role == RoleRef || naming.ModelFromFeature(feature) == model {
		return SchemaName(model, role)
	}

	return naming.Pascal(feature) + SchemaName(model, role)
}

// SchemaName returns the model-level name of the schema with the given role.
func SchemaName(model string, role SchemaRole) string {
	switch role {
	case RoleList:
		return model + "ListSchema"
	case RoleCreate:
		return model + "CreateSchema"
	case RoleUpdate:
		return model + "UpdateSchema"
	case RoleRef:
		return model + "Ref"
	default:
		return model + "Schema"
	}
}
