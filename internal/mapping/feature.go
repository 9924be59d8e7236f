package mapping

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/naming"
)

// Diagnostic codes raised by the mapping engine.
const (
	CodeNoOperations      = "no_operations"
	CodeMissingPK         = "missing_primary_key"
	CodeDefaultOrdering   = "default_ordering"
	CodeLegacyIssue       = "legacy_issue"
	CodeMissingViewSet    = "missing_viewset"
	CodeMissingSerializer = "missing_serializer"
)

// fieldPlan places one field into the output and input schemas.
type fieldPlan struct {
	field  descriptor.FieldDescriptor
	output bool
	input  bool
}

type layer int

const (
	layerOutput layer = iota
	layerInput
)

type builder struct {
	cfg       *config.Config
	tables    *Tables
	feature   string
	model     descriptor.ModelDescriptor
	plans     []fieldPlan
	conv      naming.Convention
	construct string
	diags     *diagnostic.Diagnostics

	schemas map[SchemaRole]*SchemaDescriptor
	failed  map[SchemaRole]*diagnostic.UnsupportedConstructError
	refs    map[string]*SchemaDescriptor
}

// MapFeature maps a model and the requested operations to the schemas and
// routes of a feature. Operations that cannot be mapped are skipped and
// reported; the descriptor is nil when no operation survives.
func MapFeature(
	cfg *config.Config,
	feature string,
	model descriptor.ModelDescriptor,
	ops descriptor.OperationSet,
) (*FeatureDescriptor, *diagnostic.Diagnostics) {
	plans := make([]fieldPlan, len(model.Fields))
	for i, f := range model.Fields {
		plans[i] = fieldPlan{field: f, output: true, input: !f.ReadOnly}
	}

	return newBuilder(cfg, feature, model, plans, model.Name).build(ops)
}

func newBuilder(
	cfg *config.Config,
	feature string,
	model descriptor.ModelDescriptor,
	plans []fieldPlan,
	construct string,
) *builder {
	conv := naming.Identity
	if cfg.Ninja.CamelCaseResponse {
		conv = naming.Camel
	}

	return &builder{
		cfg:       cfg,
		tables:    DefaultTables().WithFieldClasses(cfg.Mapping.FieldClasses),
		feature:   feature,
		model:     model.Clone(),
		plans:     plans,
		conv:      conv,
		construct: construct,
		diags:     &diagnostic.Diagnostics{},
		schemas:   map[SchemaRole]*SchemaDescriptor{},
		failed:    map[SchemaRole]*diagnostic.UnsupportedConstructError{},
		refs:      map[string]*SchemaDescriptor{},
	}
}

// rolesFor lists the schemas an operation needs.
func rolesFor(op descriptor.Operation) []SchemaRole {
	switch op {
	case descriptor.OpList:
		return []SchemaRole{RoleOutput, RoleList}
	case descriptor.OpRetrieve:
		return []SchemaRole{RoleOutput}
	case descriptor.OpCreate:
		return []SchemaRole{RoleCreate, RoleOutput}
	case descriptor.OpUpdate:
		return []SchemaRole{RoleUpdate, RoleOutput}
	default:
		return nil
	}
}

func (b *builder) build(ops descriptor.OperationSet) (*FeatureDescriptor, *diagnostic.Diagnostics) {
	if len(ops) == 0 {
		b.diags.Addf(diagnostic.DiagnosticError, CodeNoOperations, b.feature, "no operations requested")
		return nil, b.diags
	}

	pkField, ok := b.model.PrimaryKeyField()
	if !ok {
		b.diags.Addf(diagnostic.DiagnosticError, CodeMissingPK, b.model.Name,
			"model %s has no primary key field %q", b.model.Name, b.model.PrimaryKey)

		return nil, b.diags
	}

	var kept descriptor.OperationSet

	for _, op := range ops {
		if err := b.require(op, pkField); err != nil {
			b.diags.Add(diagnostic.FromError(err, diagnostic.DiagnosticWarning))
			continue
		}

		kept = append(kept, op)
	}

	if len(kept) == 0 {
		b.diags.Addf(diagnostic.DiagnosticError, CodeNoOperations, b.feature,
			"no operation of feature %s could be mapped", b.feature)

		return nil, b.diags
	}

	pk := b.field(pkField, layerOutput, true)

	fd := &FeatureDescriptor{
		Name:       b.feature,
		Model:      b.effectiveModel(),
		Operations: kept,
		CamelCase:  b.cfg.Ninja.CamelCaseResponse,
		PrimaryKey: pk,
	}

	fd.Schemas = b.collectSchemas(kept)

	for _, op := range kept {
		fd.Routes = append(fd.Routes, b.route(op, pk))
	}

	return fd, b.diags
}

// effectiveModel is the model restricted to the planned fields, with their
// merged flags. Mapping it with MapFeature and the kept operations
// reproduces the same schemas and routes.
func (b *builder) effectiveModel() descriptor.ModelDescriptor {
	m := b.model.Clone()
	m.Fields = make([]descriptor.FieldDescriptor, 0, len(b.plans))

	for _, p := range b.plans {
		f := p.field
		f.ReadOnly = f.ReadOnly || !p.input
		m.Fields = append(m.Fields, f)
	}

	return m.Clone()
}

// require builds every schema op needs and reports the first that fails.
func (b *builder) require(op descriptor.Operation, pk descriptor.FieldDescriptor) error {
	if op.ItemLevel() && !pk.Recognized() {
		return &diagnostic.UnsupportedConstructError{
			Construct: b.construct, Operation: string(op), Field: pk.Name,
			Reason: "primary key field could not be classified",
		}
	}

	for _, role := range rolesFor(op) {
		if err := b.schema(role); err != nil {
			e := *err
			e.Operation = string(op)

			return &e
		}
	}

	return nil
}

// collectSchemas orders the schemas used by kept operations: refs by name,
// then output, list, create, update.
func (b *builder) collectSchemas(kept descriptor.OperationSet) []SchemaDescriptor {
	used := map[SchemaRole]bool{}

	for _, op := range kept {
		for _, role := range rolesFor(op) {
			used[role] = true
		}
	}

	refNames := map[string]bool{}

	for role := range used {
		for _, f := range b.schemas[role].Fields {
			if f.JSON.Ref != "" {
				refNames[f.JSON.Ref] = true
			}

			if f.JSON.Items != nil && f.JSON.Items.Ref != "" {
				refNames[f.JSON.Items.Ref] = true
			}
		}
	}

	var out []SchemaDescriptor

	names := make([]string, 0, len(refNames))
	for name := range refNames {
		if _, ok := b.refs[name]; ok {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	for _, name := range names {
		out = append(out, *b.refs[name])
	}

	for _, role := range []SchemaRole{RoleOutput, RoleList, RoleCreate, RoleUpdate} {
		if used[role] {
			out = append(out, *b.schemas[role])
		}
	}

	return out
}

// schema builds the schema of a role once.
func (b *builder) schema(role SchemaRole) *diagnostic.UnsupportedConstructError {
	if _, ok := b.schemas[role]; ok {
		return nil
	}

	if err, ok := b.failed[role]; ok {
		return err
	}

	s, err := b.buildSchema(role)
	if err != nil {
		b.failed[role] = err
		return err
	}

	b.schemas[role] = s

	return nil
}

func (b *builder) buildSchema(role SchemaRole) (*SchemaDescriptor, *diagnostic.UnsupportedConstructError) {
	s := &SchemaDescriptor{Name: b.schemaName(role), Role: role}

	switch role {
	case RoleOutput:
		s.Description = b.model.Description

		for _, p := range b.plans {
			if !p.output {
				continue
			}

			if !mappable(p.field) {
				return nil, b.unrecognized(s.Name, p.field)
			}

			s.Fields = append(s.Fields, b.field(p.field, layerOutput, true))
		}
	case RoleList:
		if err := b.schema(RoleOutput); err != nil {
			return nil, err
		}

		s.Fields = b.listFields()
	case RoleCreate, RoleUpdate:
		create := role == RoleCreate || b.cfg.Ninja.UpdateMethod == "put"

		for _, p := range b.plans {
			if !p.input || p.field.PrimaryKey {
				continue
			}

			if !mappable(p.field) {
				return nil, b.unrecognized(s.Name, p.field)
			}

			s.Fields = append(s.Fields, b.field(p.field, layerInput, create))
		}
	}

	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}

	keys, err := naming.NewKeyMap(names, b.conv)
	if err != nil {
		return nil, &diagnostic.UnsupportedConstructError{Construct: s.Name, Reason: err.Error()}
	}

	s.Keys = keys

	for i := range s.Fields {
		s.Fields[i].WireKey, _ = keys.Wire(s.Fields[i].Name)
	}

	return s, nil
}

// mappable reports whether a field carries everything its target type needs.
func mappable(f descriptor.FieldDescriptor) bool {
	return f.Recognized() && (!f.IsRelation() || f.RelationTarget != "")
}

func (b *builder) unrecognized(schema string, f descriptor.FieldDescriptor) *diagnostic.UnsupportedConstructError {
	reason := f.Reason

	switch {
	case reason != "":
	case f.IsRelation() && f.RelationTarget == "":
		reason = "relation target could not be resolved"
	default:
		reason = "field type could not be classified"
	}

	return &diagnostic.UnsupportedConstructError{
		Construct: b.construct,
		Field:     f.Name,
		Reason:    fmt.Sprintf("%s needs field %s: %s", schema, f.Name, reason),
	}
}

func (b *builder) listFields() []SchemaField {
	output := b.schemaName(RoleOutput)

	return []SchemaField{
		{
			Name:       "total_count",
			Source:     "total_count",
			SchemaType: "int",
			WireType:   "number",
			JSON:       JSONSchema{Type: "integer"},
			Required:   true,
		},
		{
			Name:       "results",
			Source:     "results",
			SchemaType: "List[" + output + "]",
			WireType:   output + "[]",
			JSON:       JSONSchema{Type: "array", Items: &JSONSchema{Ref: output}},
			Required:   true,
			Imports:    []PyImport{{Module: "typing", Name: "List"}},
		},
	}
}

// field maps one field. strict selects create semantics on input: required
// unless nullable or defaulted. Input fields of non-strict (PATCH) schemas
// are all optional.
func (b *builder) field(f descriptor.FieldDescriptor, l layer, strict bool) SchemaField {
	sf := SchemaField{
		Name:        f.Name,
		Source:      f.Name,
		Nullable:    f.Nullable,
		ReadOnly:    f.ReadOnly,
		Description: f.Description,
		MaxLength:   f.MaxLength,
	}

	b.typeOf(&sf, f, l)

	if f.MaxLength > 0 && sf.JSON.Type == "string" {
		sf.JSON.MaxLength = f.MaxLength
	}

	if f.Nullable {
		sf.SchemaType = "Optional[" + sf.SchemaType + "]"
		sf.WireType += " | null"
		sf.JSON.Nullable = true
		sf.Imports = append(sf.Imports, PyImport{Module: "typing", Name: "Optional"})
	}

	switch {
	case l == layerOutput:
		sf.Required = !f.Nullable
		if f.Nullable {
			sf.Default = strPtr("None")
		}
	case strict:
		sf.Required = !f.Optional()

		switch {
		case f.Default != nil:
			sf.Default = strPtr(*f.Default)
			sf.JSON.Default = jsonLiteral(*f.Default)
		case f.Optional():
			sf.Default = strPtr("None")
		}
	default:
		sf.Required = false
		sf.Default = strPtr("None")
	}

	return sf
}

// typeOf fills the schema, wire and JSON types of a field.
func (b *builder) typeOf(sf *SchemaField, f descriptor.FieldDescriptor, l layer) {
	switch {
	case f.IsRelation() && l == layerOutput:
		ref := b.ref(f.RelationTarget)

		if f.RelationKind.Many() {
			sf.SchemaType = "List[" + ref + "]"
			sf.WireType = ref + "[]"
			sf.JSON = JSONSchema{Type: "array", Items: &JSONSchema{Ref: ref}}
			sf.Imports = append(sf.Imports, PyImport{Module: "typing", Name: "List"})
		} else {
			sf.SchemaType = ref
			sf.WireType = ref
			sf.JSON = JSONSchema{Ref: ref}
		}
	case f.IsRelation():
		tg, _ := b.tables.Target(descriptor.SourceRelation, "")

		if f.RelationKind.Many() {
			sf.SchemaType = "List[" + tg.Schema + "]"
			sf.WireType = tg.Wire + "[]"
			sf.JSON = JSONSchema{Type: "array", Items: &JSONSchema{Type: tg.JSON}}
			sf.ManyIDs = true
			sf.Imports = append(sf.Imports, PyImport{Module: "typing", Name: "List"})
		} else {
			sf.Name = f.Name + "_id"
			sf.SchemaType = tg.Schema
			sf.WireType = tg.Wire
			sf.JSON = JSONSchema{Type: tg.JSON}
		}
	case f.SourceType == descriptor.SourceEnum && len(f.Choices) > 0:
		quoted := make([]string, len(f.Choices))
		for i, c := range f.Choices {
			quoted[i] = strconv.Quote(c)
		}

		sf.SchemaType = "Literal[" + strings.Join(quoted, ", ") + "]"
		sf.WireType = strings.Join(quoted, " | ")
		sf.JSON = JSONSchema{Type: "string", Enum: slices.Clone(f.Choices)}
		sf.Imports = append(sf.Imports, PyImport{Module: "typing", Name: "Literal"})
	default:
		tg, _ := b.tables.Target(f.SourceType, f.Format)

		sf.SchemaType = tg.Schema
		sf.WireType = tg.Wire
		sf.JSON = JSONSchema{Type: tg.JSON, Format: tg.JSONFormat}

		if tg.Module != "" {
			sf.Imports = append(sf.Imports, PyImport{Module: tg.Module, Name: tg.Schema})
		}
	}
}

func (b *builder) schemaName(role SchemaRole) string {
	return FeatureSchemaName(b.feature, b.model.Name, role)
}

// ref registers the reference schema of a relation target.
func (b *builder) ref(target string) string {
	name := SchemaName(target, RoleRef)
	if _, ok := b.refs[name]; ok {
		return name
	}

	tg, _ := b.tables.Target(descriptor.SourceRelation, "")
	keys, _ := naming.NewKeyMap([]string{"id"}, b.conv)

	b.refs[name] = &SchemaDescriptor{
		Name: name,
		Role: RoleRef,
		Fields: []SchemaField{{
			Name:       "id",
			WireKey:    "id",
			Source:     "id",
			SchemaType: tg.Schema,
			WireType:   tg.Wire,
			JSON:       JSONSchema{Type: tg.JSON},
			Required:   true,
		}},
		Keys: keys,
	}

	return name
}

// jsonLiteral converts a simple Python literal to JSON text; "" when the
// literal has no direct JSON form.
func jsonLiteral(py string) string {
	switch py {
	case "True":
		return "true"
	case "False":
		return "false"
	case "None":
		return "null"
	}

	if s, err := strconv.Unquote(py); err == nil {
		return strconv.Quote(s)
	}

	if _, err := strconv.ParseFloat(py, 64); err == nil {
		return py
	}

	return ""
}

func strPtr(s string) *string { return &s }
