package extract

import (
	"fmt"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/naming"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Struct tags read by the Go extractor.
const (
	TagForge   = "forge"
	TagJSON    = "json"
	TagDefault = "default"
	TagHelp    = "help"
)

// GoPackages extracts model descriptors from exported struct types.
//
// Field metadata comes from struct tags:
//
//	ID     int64      `json:"id" forge:"pk"`
//	Author int64      `json:"author_id" forge:"fk:User"`
//	Tags   []int64    `json:"tags" forge:"m2m:Tag"`
//	State  string     `json:"state" forge:"enum:draft|published" default:"draft"`
//	Email  string     `json:"email" forge:"format:email,readonly"`
//	Bio    *string    `json:"bio" help:"Short biography"`
//
// Pointer fields are nullable; time.Time maps to datetime.
type GoPackages struct {
	Patterns []string
	Dir      string
	Tables   *mapping.Tables

	structs map[string]*goStruct
	order   []string
}

type goStruct struct {
	pkg *packages.Package
	obj *types.TypeName
	st  *types.Struct
}

// NewGoPackages returns an extractor over the packages matched by patterns,
// resolved relative to dir.
func NewGoPackages(dir string, tables *mapping.Tables, patterns ...string) *GoPackages {
	return &GoPackages{Patterns: patterns, Dir: dir, Tables: tables}
}

// Extract returns the descriptor of an exported struct type.
func (g *GoPackages) Extract(name string) (descriptor.ModelDescriptor, error) {
	if err := g.load(); err != nil {
		return descriptor.ModelDescriptor{}, err
	}

	s, ok := g.structs[name]
	if !ok {
		return descriptor.ModelDescriptor{}, &diagnostic.NotFoundError{
			Kind:        "model",
			Name:        name,
			Where:       strings.Join(g.Patterns, " "),
			Suggestions: naming.Suggest(name, g.order, 3),
		}
	}

	model := descriptor.ModelDescriptor{
		Name:   name,
		Module: s.pkg.PkgPath,
	}

	fields, err := g.analyzeStructFields(name, s.st)
	if err != nil {
		return descriptor.ModelDescriptor{}, err
	}

	for _, f := range fields {
		if f.PrimaryKey {
			model.PrimaryKey = f.Name
			break
		}
	}

	if model.PrimaryKey == "" {
		for i, f := range fields {
			if f.Name == "id" {
				fields[i].PrimaryKey = true
				fields[i].ReadOnly = true
				model.PrimaryKey = f.Name

				break
			}
		}
	}

	if model.PrimaryKey == "" {
		return descriptor.ModelDescriptor{}, &diagnostic.UnsupportedConstructError{
			Construct: name,
			Reason:    `no primary key: tag a field forge:"pk" or name it id`,
		}
	}

	model.Fields = fields

	return model, nil
}

// Models lists the exported struct types in load order.
func (g *GoPackages) Models() ([]string, error) {
	if err := g.load(); err != nil {
		return nil, err
	}

	return g.order, nil
}

// load loads the specified packages once and indexes their exported structs.
func (g *GoPackages) load() error {
	if g.structs != nil {
		return nil
	}

	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  g.Dir,
	}

	pkgs, err := packages.Load(cfg, g.Patterns...)
	if err != nil {
		return fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return &diagnostic.ParseError{File: strings.Join(g.Patterns, " "), Msg: fmt.Sprintf("package errors: %v", errs)}
	}

	g.structs = map[string]*goStruct{}

	for _, pkg := range pkgs {
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			typeName, ok := scope.Lookup(name).(*types.TypeName)
			if !ok || !typeName.Exported() {
				continue
			}

			st, ok := typeName.Type().Underlying().(*types.Struct)
			if !ok {
				continue
			}

			if _, dup := g.structs[name]; dup {
				continue
			}

			g.structs[name] = &goStruct{pkg: pkg, obj: typeName, st: st}
			g.order = append(g.order, name)
		}
	}

	return nil
}

// analyzeStructFields flattens embedded structs and classifies every
// exported, serialized field.
func (g *GoPackages) analyzeStructFields(model string, st *types.Struct) ([]descriptor.FieldDescriptor, error) {
	var fields []descriptor.FieldDescriptor

	for i := range st.NumFields() {
		v := st.Field(i)
		tag := reflect.StructTag(st.Tag(i))

		if v.Embedded() {
			if inner, ok := derefType(v.Type()).Underlying().(*types.Struct); ok {
				nested, err := g.analyzeStructFields(model, inner)
				if err != nil {
					return nil, err
				}

				fields = mergeFields(fields, nested)

				continue
			}
		}

		if !v.Exported() {
			continue
		}

		name := jsonName(v.Name(), tag)
		if name == "-" {
			continue
		}

		f, err := g.analyzeField(model, name, v.Type(), tag)
		if err != nil {
			return nil, err
		}

		fields = mergeFields(fields, []descriptor.FieldDescriptor{f})
	}

	return fields, nil
}

func (g *GoPackages) analyzeField(model, name string, t types.Type, tag reflect.StructTag) (descriptor.FieldDescriptor, error) {
	f := descriptor.FieldDescriptor{Name: name}
	opts := parseForgeTag(tag.Get(TagForge))

	if p, ok := t.(*types.Pointer); ok {
		f.Nullable = true
		t = p.Elem()
	}

	unsupported := &diagnostic.UnsupportedFieldTypeError{Model: model, Field: name, Type: types.TypeString(t, types.RelativeTo(nil))}

	switch {
	case opts.relation != descriptor.RelationNone:
		f.SourceType = descriptor.SourceRelation
		f.RelationKind = opts.relation
		f.RelationTarget = opts.target

		if opts.relation.Many() {
			if _, ok := t.Underlying().(*types.Slice); !ok {
				return f, unsupported
			}
		} else {
			f.Name = strings.TrimSuffix(name, "_id")
		}
	default:
		sc, ok := g.classify(t)
		if !ok {
			return f, unsupported
		}

		f.SourceType = sc.Type
		f.Format = sc.Format
	}

	if opts.format != "" {
		f.Format = opts.format
	}

	if len(opts.enum) > 0 {
		f.SourceType = descriptor.SourceEnum
		f.Choices = opts.enum
	}

	f.PrimaryKey = opts.pk
	f.ReadOnly = opts.pk || opts.readonly
	f.MaxLength = opts.maxLength
	f.Description = tag.Get(TagHelp)

	if def, ok := tag.Lookup(TagDefault); ok {
		lit := pythonLiteral(f.SourceType, def)
		f.Default = &lit
		f.HasDefault = true
	}

	return f, nil
}

// classify maps a Go type to its source class: named types by their
// qualified name first, then by their basic underlying type.
func (g *GoPackages) classify(t types.Type) (mapping.SourceClass, bool) {
	if named, ok := t.(*types.Named); ok {
		obj := named.Obj()
		if obj.Pkg() != nil {
			if sc, ok := g.Tables.GoType(obj.Pkg().Name() + "." + obj.Name()); ok {
				return sc, true
			}
		}
	}

	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return mapping.SourceClass{}, false
	}

	return g.Tables.GoType(basic.Name())
}

func derefType(t types.Type) types.Type {
	if p, ok := t.(*types.Pointer); ok {
		return p.Elem()
	}

	return t
}

// jsonName returns the field name from the json tag, or the Go name in
// snake case when the tag has none.
func jsonName(goName string, tag reflect.StructTag) string {
	if v := tag.Get(TagJSON); v != "" {
		if name, _, _ := strings.Cut(v, ","); name != "" {
			return name
		}
	}

	return naming.Snake(goName)
}

type forgeTag struct {
	pk        bool
	readonly  bool
	relation  descriptor.RelationKind
	target    string
	enum      []string
	format    string
	maxLength int
}

func parseForgeTag(tag string) forgeTag {
	var out forgeTag

	for _, part := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(part), ":")

		switch key {
		case "pk":
			out.pk = true
		case "readonly":
			out.readonly = true
		case "fk":
			out.relation, out.target = descriptor.RelationManyToOne, value
		case "o2o":
			out.relation, out.target = descriptor.RelationOneToOne, value
		case "m2m":
			out.relation, out.target = descriptor.RelationManyToMany, value
		case "enum":
			out.enum = strings.Split(value, "|")
		case "format":
			out.format = value
		case "maxlen":
			out.maxLength, _ = strconv.Atoi(value)
		}
	}

	return out
}

// pythonLiteral converts a default tag value into source literal syntax.
func pythonLiteral(st descriptor.SourceType, v string) string {
	switch st {
	case descriptor.SourceBool:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "True"
			}

			return "False"
		}
	case descriptor.SourceInt, descriptor.SourceFloat:
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
	}

	return strconv.Quote(v)
}
