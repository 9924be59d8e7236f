package descriptor

import (
	"slices"

	"ninja-orval-forge/internal/common"
)

// SourceType is the normalized type tag of a source field.
type SourceType string

const (
	SourceString   SourceType = "string"
	SourceInt      SourceType = "int"
	SourceBool     SourceType = "bool"
	SourceFloat    SourceType = "float"
	SourceDatetime SourceType = "datetime"
	SourceRelation SourceType = "relation"
	SourceEnum     SourceType = "enum"
	// SourceUnknown marks a legacy field that could not be classified.
	SourceUnknown SourceType = "unknown"
)

// Valid reports whether t is one of the classified tags.
func (t SourceType) Valid() bool {
	switch t {
	case SourceString, SourceInt, SourceBool, SourceFloat, SourceDatetime, SourceRelation, SourceEnum:
		return true
	default:
		return false
	}
}

// RelationKind describes the cardinality of a relation field.
type RelationKind string

const (
	RelationNone       RelationKind = ""
	RelationOneToOne   RelationKind = "one-to-one"
	RelationManyToOne  RelationKind = "many-to-one"
	RelationManyToMany RelationKind = "many-to-many"
)

// Many reports whether the relation holds a collection of references.
func (k RelationKind) Many() bool {
	return k == RelationManyToMany
}

// FieldDescriptor is the normalized metadata of one model or serializer field.
type FieldDescriptor struct {
	Name           string       `yaml:"name"`
	SourceType     SourceType   `yaml:"type"`
	Nullable       bool         `yaml:"nullable,omitempty"`
	Default        *string      `yaml:"default,omitempty"`     // literal in source syntax
	HasDefault     bool         `yaml:"has_default,omitempty"` // also true for callable defaults
	RelationKind   RelationKind `yaml:"relation,omitempty"`
	RelationTarget string       `yaml:"target,omitempty"`
	Format         string       `yaml:"format,omitempty"` // email, uuid, date, time, url, decimal
	Choices        []string     `yaml:"choices,omitempty"`
	MaxLength      int          `yaml:"max_length,omitempty"`
	PrimaryKey     bool         `yaml:"primary_key,omitempty"`
	ReadOnly       bool         `yaml:"read_only,omitempty"`
	Description    string       `yaml:"description,omitempty"`
	// Reason is set when a legacy parser could not classify the field.
	Reason string `yaml:"reason,omitempty"`
}

// Recognized reports whether the field was statically classified.
func (f FieldDescriptor) Recognized() bool {
	return f.Reason == "" && f.SourceType != SourceUnknown
}

// IsRelation reports whether the field references another model.
func (f FieldDescriptor) IsRelation() bool {
	return f.SourceType == SourceRelation
}

// Optional reports whether a create payload may omit the field.
func (f FieldDescriptor) Optional() bool {
	return f.Nullable || f.HasDefault
}

// ModelDescriptor is the normalized metadata of one data model.
// It is created by extraction and never mutated afterwards.
type ModelDescriptor struct {
	Name        string            `yaml:"name"`
	Module      string            `yaml:"module"` // dotted import path of the defining module
	Fields      []FieldDescriptor `yaml:"fields"`
	PrimaryKey  string            `yaml:"primary_key"`
	Description string            `yaml:"description,omitempty"`
}

// Field returns the field with the given name.
func (m ModelDescriptor) Field(name string) (FieldDescriptor, bool) {
	i := slices.IndexFunc(m.Fields, func(f FieldDescriptor) bool { return f.Name == name })
	if i < 0 {
		return FieldDescriptor{}, false
	}

	return m.Fields[i], true
}

// PrimaryKeyField returns the primary key field descriptor.
func (m ModelDescriptor) PrimaryKeyField() (FieldDescriptor, bool) {
	return m.Field(m.PrimaryKey)
}

// FieldNames returns the field names in declaration order.
func (m ModelDescriptor) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}

	return names
}

// Clone returns a deep copy so callers can derive new descriptors without
// touching the extracted one.
func (m ModelDescriptor) Clone() ModelDescriptor {
	out := m
	out.Fields = make([]FieldDescriptor, len(m.Fields))

	for i, f := range m.Fields {
		f.Choices = slices.Clone(f.Choices)
		if f.Default != nil {
			v := *f.Default
			f.Default = &v
		}

		out.Fields[i] = f
	}

	return out
}

// Operation is one CRUD operation a feature exposes.
type Operation string

const (
	OpList     Operation = "list"
	OpRetrieve Operation = "retrieve"
	OpCreate   Operation = "create"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

// AllOperations lists the operations in canonical order.
var AllOperations = []Operation{OpList, OpRetrieve, OpCreate, OpUpdate, OpDelete}

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	return slices.Contains(AllOperations, op)
}

// ItemLevel reports whether the operation addresses a single object by key.
func (op Operation) ItemLevel() bool {
	return op == OpRetrieve || op == OpUpdate || op == OpDelete
}

// OperationSet is an ordered, duplicate-free set of operations.
type OperationSet []Operation

// NewOperationSet normalizes ops into canonical order.
func NewOperationSet(ops ...Operation) OperationSet {
	var set OperationSet

	for _, op := range AllOperations {
		if slices.Contains(ops, op) {
			set = append(set, op)
		}
	}

	return set
}

// Has reports whether the set contains op.
func (s OperationSet) Has(op Operation) bool {
	return slices.Contains(s, op)
}

// Strings returns the operation names.
func (s OperationSet) Strings() []string {
	out := make([]string, len(s))
	for i, op := range s {
		out[i] = string(op)
	}

	return out
}

// ConstructKind distinguishes legacy serializers from view-sets.
type ConstructKind string

const (
	KindSerializer ConstructKind = "serializer"
	KindViewSet    ConstructKind = "viewset"
)

// Issue records a legacy construct part that is not translated.
type Issue struct {
	Subject string
	Reason  string
	Line    int
}

// LegacyConstructDescriptor is the normalized shape of one serializer or view-set.
type LegacyConstructDescriptor struct {
	Kind ConstructKind
	Name string
	File string
	Line int
	// TargetModel references a model by name; the descriptor does not own it.
	TargetModel    string
	DeclaredFields []FieldDescriptor
	// FieldNames is Meta.fields; nil when absent, ["__all__"] for all fields.
	FieldNames         []string
	Exclude            []string
	ReadOnlyFields     []string
	DeclaredOperations OperationSet
	// SerializerRef is the serializer_class of a view-set.
	SerializerRef string
	Recognized    bool
	Issues        []Issue
}

// DeclaredField returns the explicitly declared field with the given name.
func (c *LegacyConstructDescriptor) DeclaredField(name string) (FieldDescriptor, bool) {
	i := slices.IndexFunc(c.DeclaredFields, func(f FieldDescriptor) bool { return f.Name == name })
	if i < 0 {
		return FieldDescriptor{}, false
	}

	return c.DeclaredFields[i], true
}

// AllFields reports whether Meta.fields selects every model field.
func (c *LegacyConstructDescriptor) AllFields() bool {
	v, ok := common.First(c.FieldNames)
	return ok && v == "__all__"
}

// OperationSpec is one requested CRUD operation of a feature, tied to exactly
// one model.
type OperationSpec struct {
	Feature   string
	Model     string
	Operation Operation
}
