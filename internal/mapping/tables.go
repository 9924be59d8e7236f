package mapping

import (
	_ "embed"
	"fmt"
	"maps"
	"sync"

	"gopkg.in/yaml.v3"

	"ninja-orval-forge/internal/descriptor"
)

//go:embed tables.yaml
var tablesYAML []byte

// SourceClass is the classification of a declared field class or Go type.
type SourceClass struct {
	Type     descriptor.SourceType   `yaml:"type"`
	Format   string                  `yaml:"format,omitempty"`
	Relation descriptor.RelationKind `yaml:"relation,omitempty"`
}

// UnmarshalYAML accepts either a bare tag ("int") or a mapping
// ({type: string, format: email}).
func (c *SourceClass) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var tag string
		if err := node.Decode(&tag); err != nil {
			return err
		}

		*c = SourceClass{Type: descriptor.SourceType(tag)}

		return nil
	case yaml.MappingNode:
		type plain SourceClass

		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}

		*c = SourceClass(p)

		return nil
	default:
		return fmt.Errorf("line %d: expected a type tag or mapping", node.Line)
	}
}

// Target is the output-side shape of one source type or format.
type Target struct {
	// Schema is the schema-layer (Python) type name.
	Schema string `yaml:"schema"`
	// Module is the Python module Schema is imported from, if any.
	Module string `yaml:"module,omitempty"`
	// Wire is the wire-layer (TypeScript) type.
	Wire       string `yaml:"wire"`
	JSON       string `yaml:"json"`
	JSONFormat string `yaml:"json_format,omitempty"`
}

// Tables is the set of type mapping tables.
type Tables struct {
	DjangoFields     map[string]SourceClass           `yaml:"django_fields"`
	SerializerFields map[string]SourceClass           `yaml:"serializer_fields"`
	GoTypes          map[string]SourceClass           `yaml:"go_types"`
	Targets          map[descriptor.SourceType]Target `yaml:"targets"`
	Formats          map[string]Target                `yaml:"formats"`
}

var (
	defaultTables     *Tables
	defaultTablesErr  error
	defaultTablesOnce sync.Once
)

// DefaultTables returns the embedded tables. The result is shared and must
// not be modified; use WithFieldClasses to extend it.
func DefaultTables() *Tables {
	defaultTablesOnce.Do(func() {
		defaultTables, defaultTablesErr = ParseTables(tablesYAML)
	})

	if defaultTablesErr != nil {
		panic(fmt.Sprintf("embedded mapping tables: %v", defaultTablesErr))
	}

	return defaultTables
}

// ParseTables parses and checks mapping tables.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse mapping tables: %w", err)
	}

	for _, table := range []map[string]SourceClass{t.DjangoFields, t.SerializerFields, t.GoTypes} {
		for name, class := range table {
			if !class.Type.Valid() {
				return nil, fmt.Errorf("class %s: unknown source type %q", name, class.Type)
			}

			if class.Format != "" {
				if _, ok := t.Formats[class.Format]; !ok {
					return nil, fmt.Errorf("class %s: unknown format %q", name, class.Format)
				}
			}
		}
	}

	for _, st := range []descriptor.SourceType{
		descriptor.SourceString, descriptor.SourceInt, descriptor.SourceBool, descriptor.SourceFloat,
		descriptor.SourceDatetime, descriptor.SourceEnum, descriptor.SourceRelation,
	} {
		if _, ok := t.Targets[st]; !ok {
			return nil, fmt.Errorf("no target for source type %q", st)
		}
	}

	return &t, nil
}

// WithFieldClasses returns a copy of t whose Django table is extended with
// project specific classes (class name -> source type tag).
func (t *Tables) WithFieldClasses(extra map[string]string) *Tables {
	if len(extra) == 0 {
		return t
	}

	out := *t
	out.DjangoFields = maps.Clone(t.DjangoFields)

	for class, tag := range extra {
		out.DjangoFields[class] = SourceClass{Type: descriptor.SourceType(tag)}
	}

	return &out
}

// Django classifies a Django model field class.
func (t *Tables) Django(class string) (SourceClass, bool) {
	c, ok := t.DjangoFields[class]
	return c, ok
}

// Serializer classifies a DRF serializer field class.
func (t *Tables) Serializer(class string) (SourceClass, bool) {
	c, ok := t.SerializerFields[class]
	return c, ok
}

// GoType classifies a Go type by its qualified name.
func (t *Tables) GoType(name string) (SourceClass, bool) {
	c, ok := t.GoTypes[name]
	return c, ok
}

// Target returns the output shape of a field: its format entry when it has
// one, otherwise the entry of its source type.
func (t *Tables) Target(st descriptor.SourceType, format string) (Target, bool) {
	if format != "" {
		if tg, ok := t.Formats[format]; ok {
			return tg, true
		}
	}

	tg, ok := t.Targets[st]

	return tg, ok
}
