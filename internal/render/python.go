package render

import (
	"fmt"
	"path"
	"strings"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
)

type pyImport struct {
	Module string
	Names  string
}

type pyField struct {
	Name   string
	Type   string
	Assign string
}

type pySchema struct {
	Name   string
	Doc    string
	Fields []pyField
}

type schemaModule struct {
	Feature    string
	Stdlib     []pyImport
	Pydantic   string
	BaseModule string
	Schemas    []pySchema
}

func (r *Renderer) schemaModule(fd *mapping.FeatureDescriptor) schemaModule {
	m := schemaModule{
		Feature:    fd.Name,
		BaseModule: pythonPackage(path.Join(r.cfg.SharedDir(), "base_schemas")),
	}

	stdlib := map[string]map[string]bool{}
	pydantic := map[string]bool{}

	for _, s := range fd.Schemas {
		ps := pySchema{Name: s.Name, Doc: schemaDoc(fd, &s)}

		for _, f := range s.Fields {
			pf := pyField{Name: f.Name, Type: f.SchemaType, Assign: fieldAssign(f)}
			if strings.Contains(pf.Assign, "Field(") {
				pydantic["Field"] = true
			}

			for _, imp := range f.Imports {
				if imp.Module == "pydantic" {
					pydantic[imp.Name] = true
					continue
				}

				if stdlib[imp.Module] == nil {
					stdlib[imp.Module] = map[string]bool{}
				}

				stdlib[imp.Module][imp.Name] = true
			}

			ps.Fields = append(ps.Fields, pf)
		}

		m.Schemas = append(m.Schemas, ps)
	}

	for _, mod := range common.SortedKeys(stdlib) {
		m.Stdlib = append(m.Stdlib, pyImport{Module: mod, Names: strings.Join(common.SortedKeys(stdlib[mod]), ", ")})
	}

	m.Pydantic = strings.Join(common.SortedKeys(pydantic), ", ")

	return m
}

// fieldAssign renders the right-hand side of a schema field declaration,
// including the leading " = ", or "" when the field has none.
func fieldAssign(f mapping.SchemaField) string {
	var args []string

	if f.WireKey != "" && f.WireKey != f.Name {
		args = append(args, "alias="+pyStr(f.WireKey))
	}

	if f.Description != "" {
		args = append(args, "description="+pyStr(f.Description))
	}

	if f.JSON.MaxLength > 0 && len(f.JSON.Enum) == 0 {
		args = append(args, fmt.Sprintf("max_length=%d", f.JSON.MaxLength))
	}

	if len(args) == 0 {
		if f.Default != nil {
			return " = " + *f.Default
		}

		return ""
	}

	def := "..."
	if f.Default != nil {
		def = *f.Default
	}

	return " = Field(" + def + ", " + strings.Join(args, ", ") + ")"
}

func schemaDoc(fd *mapping.FeatureDescriptor, s *mapping.SchemaDescriptor) string {
	if s.Description != "" {
		return strings.ReplaceAll(s.Description, `"""`, `\"\"\"`)
	}

	model := fd.Model.Name

	switch s.Role {
	case mapping.RoleRef:
		return "Reference to a " + strings.TrimSuffix(s.Name, "Ref") + " by primary key."
	case mapping.RoleList:
		return "Page of " + model + " objects."
	case mapping.RoleCreate:
		return "Payload to create a " + model + "."
	case mapping.RoleUpdate:
		return "Payload to update a " + model + "."
	default:
		if fd.Model.Description != "" {
			return strings.ReplaceAll(fd.Model.Description, `"""`, `\"\"\"`)
		}

		return model + " returned by the API."
	}
}

type pyRoute struct {
	Op         string
	Decorator  string
	Func       string
	Signature  string
	PK         string
	Payload    string
	ManyFields []string
	Partial    bool
	Default    string
}

type orderingField struct {
	Key   string
	Field string
}

type viewsModule struct {
	Feature          string
	Tag              string
	ModelModule      string
	ModelClass       string
	SchemaNames      string
	NeedsQuery       bool
	NeedsLookup      bool
	HasList          bool
	PaginationModule string
	Ordering         []orderingField
	Routes           []pyRoute
}

func (r *Renderer) viewsModule(fd *mapping.FeatureDescriptor) (viewsModule, error) {
	m := viewsModule{
		Feature:          fd.Name,
		Tag:              fd.Name,
		ModelModule:      fd.Model.Module,
		ModelClass:       fd.ModelClass(),
		PaginationModule: pythonPackage(path.Join(r.cfg.SharedDir(), "pagination_utils")),
	}

	names := map[string]bool{}

	for _, route := range fd.Routes {
		pr := pyRoute{
			Op:   string(route.Operation),
			Func: route.OperationID,
			PK:   fd.PrimaryKey.Name,
		}

		var sig []string

		for _, p := range route.Params {
			switch p.In {
			case mapping.InPath:
				sig = append(sig, p.Name+": "+p.SchemaType)
			default:
				m.NeedsQuery = true
				sig = append(sig, p.Name+": "+p.SchemaType+" = "+queryDefault(p))
			}
		}

		if route.Request != "" {
			names[route.Request] = true
			pr.Payload = route.Request
			sig = append(sig, "payload: "+route.Request)

			req, _ := fd.Schema(route.Request)
			for _, f := range req.Fields {
				if f.ManyIDs {
					pr.ManyFields = append(pr.ManyFields, f.Name)
				}
			}

			pr.Partial = route.Operation == descriptor.OpUpdate && route.Method == "PATCH"
		}

		if route.Response != "" {
			names[route.Response] = true
		}

		if route.Operation.ItemLevel() {
			m.NeedsLookup = true
		}

		if route.Operation == descriptor.OpList {
			m.HasList = true
			pr.Default = route.DefaultOrdering

			out, ok := fd.SchemaByRole(mapping.RoleOutput)
			if !ok {
				return m, &diagnostic.RenderError{Artifact: path.Join(r.cfg.FeatureDir(fd.Name), "views.py"), Field: "output schema"}
			}

			m.Ordering = orderingFields(out, route.Ordering)
		}

		pr.Signature = strings.Join(append([]string{"request"}, sig...), ", ")
		pr.Decorator = decorator(route, fd.CamelCase)

		m.Routes = append(m.Routes, pr)
	}

	m.SchemaNames = strings.Join(common.SortedKeys(names), ", ")

	return m, nil
}

func decorator(route mapping.RouteDescriptor, alias bool) string {
	response := route.Response

	switch {
	case route.Response == "":
		response = fmt.Sprintf("{%d: None}", route.Status)
	case route.Status != 200:
		response = fmt.Sprintf("{%d: %s}", route.Status, route.Response)
	}

	args := []string{
		pyStr(route.Path),
		"response=" + response,
		"operation_id=" + pyStr(route.OperationID),
		"summary=" + pyStr(route.Summary),
	}

	if alias {
		args = append(args, "by_alias=True")
	}

	return "@router." + strings.ToLower(route.Method) + "(" + strings.Join(args, ", ") + ")"
}

func queryDefault(p mapping.Param) string {
	args := []string{p.Default}

	if p.Default == "" {
		args[0] = "None"
	}

	if p.Min != nil {
		args = append(args, fmt.Sprintf("ge=%d", *p.Min))
	}

	if p.Max != nil {
		args = append(args, fmt.Sprintf("le=%d", *p.Max))
	}

	if p.Description != "" {
		args = append(args, "description="+pyStr(p.Description))
	}

	return "Query(" + strings.Join(args, ", ") + ")"
}

// orderingFields maps every accepted ordering key, in both schema and wire
// spelling, to its model field.
func orderingFields(out *mapping.SchemaDescriptor, keys []string) []orderingField {
	seen := map[string]string{}

	for _, k := range keys {
		f, ok := out.Field(k)
		if !ok {
			continue
		}

		seen[f.Name] = f.Source
		if f.WireKey != "" {
			seen[f.WireKey] = f.Source
		}
	}

	var fields []orderingField
	for _, k := range common.SortedKeys(seen) {
		fields = append(fields, orderingField{Key: k, Field: seen[k]})
	}

	return fields
}

type routerImport struct {
	Feature string
	Module  string
	Prefix  string
}

type apiModule struct {
	Title       string
	Version     string
	Description string
	Mount       string
	AuthEnabled bool
	AuthImport  pyImport
	Routers     []routerImport
}

// authModules lists where well known auth classes are imported from. Other
// classes are expected in the shared package.
var authModules = map[string]string{
	"JWTAuth":       "ninja_jwt.authentication",
	"AsyncJWTAuth":  "ninja_jwt.authentication",
	"SessionAuth":   "ninja.security",
	"django_auth":   "ninja.security",
	"HttpBearer":    "ninja.security",
	"APIKeyHeader":  "ninja.security",
	"APIKeyCookie":  "ninja.security",
	"APIKeyQuery":   "ninja.security",
	"HttpBasicAuth": "ninja.security",
}

func (r *Renderer) apiModule(features []*mapping.FeatureDescriptor) apiModule {
	title := r.cfg.Project.Name
	if title == "" {
		title = r.cfg.Project.DjangoApp
	}

	m := apiModule{
		Title:       title,
		Version:     r.cfg.Project.APIVersion,
		Description: r.cfg.Project.APIDescription,
		Mount:       strings.Trim(r.cfg.Project.APIPrefix, "/") + "/",
		AuthEnabled: r.cfg.Ninja.AuthEnabled,
	}

	if m.AuthEnabled {
		mod, ok := authModules[r.cfg.Ninja.AuthClass]
		if !ok {
			mod = pythonPackage(path.Join(r.cfg.SharedDir(), "auth"))
		}

		m.AuthImport = pyImport{Module: mod, Names: r.cfg.Ninja.AuthClass}
	}

	for _, fd := range features {
		m.Routers = append(m.Routers, routerImport{
			Feature: fd.Name,
			Module:  pythonPackage(path.Join(r.cfg.FeatureDir(fd.Name), "views")),
			Prefix:  "/" + fd.Name,
		})
	}

	return m
}

type sharedModule struct {
	PageSize        int
	MaxPageSize     int
	DefaultOrdering string
	CamelCase       bool
}

func (r *Renderer) sharedModule() sharedModule {
	return sharedModule{
		PageSize:        r.cfg.Templates.PaginationLimit,
		MaxPageSize:     r.cfg.Templates.MaxPageSize,
		DefaultOrdering: r.cfg.Templates.DefaultOrdering,
		CamelCase:       r.cfg.Ninja.CamelCaseResponse,
	}
}
