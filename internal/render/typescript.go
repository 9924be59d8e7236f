package render

import (
	"strings"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/naming"
)

type tsField struct {
	Key      string
	Type     string
	Doc      string
	Optional bool
}

type tsInterface struct {
	Name   string
	Doc    string
	Fields []tsField
}

type typesModule struct {
	Feature    string
	Interfaces []tsInterface

	// ListParams and Ordering are empty unless the feature can list.
	ListParams     string
	Ordering       string
	OrderingValues string
	PageSize       int
	MaxPageSize    int
}

func (r *Renderer) typesModule(fd *mapping.FeatureDescriptor) typesModule {
	m := typesModule{
		Feature:     fd.Name,
		PageSize:    r.cfg.Templates.PaginationLimit,
		MaxPageSize: r.cfg.Templates.MaxPageSize,
	}

	for _, s := range fd.Schemas {
		ti := tsInterface{Name: s.Name, Doc: schemaDoc(fd, &s)}

		for _, f := range s.Fields {
			ti.Fields = append(ti.Fields, tsField{
				Key:      wireKey(f),
				Type:     f.WireType,
				Doc:      f.Description,
				Optional: !f.Required,
			})
		}

		m.Interfaces = append(m.Interfaces, ti)
	}

	route, ok := fd.Route(descriptor.OpList)
	if !ok {
		return m
	}

	m.ListParams = naming.Pascal(fd.Name) + "ListParams"
	m.Ordering = naming.Pascal(fd.Name) + "Ordering"

	var values []string

	if out, ok := fd.SchemaByRole(mapping.RoleOutput); ok {
		for _, k := range route.Ordering {
			f, ok := out.Field(k)
			if !ok {
				continue
			}

			key := wireKey(f)
			values = append(values, tsStr(key), tsStr("-"+key))
		}
	}

	if len(values) == 0 {
		values = []string{"string"}
	}

	m.OrderingValues = strings.Join(values, " | ")

	return m
}

func wireKey(f mapping.SchemaField) string {
	if f.WireKey != "" {
		return f.WireKey
	}

	return f.Name
}

type tsFunc struct {
	Name    string
	Doc     string
	Args    string
	Returns string
	Method  string
	URL     string
	Params  bool
	Body    bool
}

type clientModule struct {
	Feature       string
	Mutator       string
	WrapperImport string
	TypesImport   string
	TypeNames     string
	BasePath      string
	Funcs         []tsFunc
}

func (r *Renderer) clientTemplate() string {
	if r.cfg.Orval.ClientType == "axios" {
		return "client_axios.ts.tmpl"
	}

	return "client_fetch.ts.tmpl"
}

func (r *Renderer) wrapperTemplate() string {
	if r.cfg.Orval.ClientType == "axios" {
		return "wrapper_axios.ts.tmpl"
	}

	return "wrapper_fetch.ts.tmpl"
}

func (r *Renderer) clientModule(fd *mapping.FeatureDescriptor) clientModule {
	file := r.cfg.ClientFile(fd.Name)

	m := clientModule{
		Feature:       fd.Name,
		Mutator:       r.cfg.Orval.MutatorName,
		WrapperImport: relImport(file, r.cfg.FetchWrapperFile()),
		TypesImport:   relImport(file, r.cfg.TSSchemaFile(fd.Name)),
		BasePath:      strings.TrimSuffix(r.cfg.Project.APIPrefix, "/") + "/" + fd.Name,
	}

	types := map[string]bool{}

	for _, route := range fd.Routes {
		f := tsFunc{
			Name:    funcName(route.OperationID),
			Doc:     route.Summary,
			Returns: "void",
			Method:  route.Method,
			URL:     "${BASE_PATH}" + route.Path,
		}

		var args []string

		if p, ok := route.PathParam(); ok {
			arg := naming.Camel(p.Name)
			args = append(args, arg+": "+p.WireType)
			f.URL = strings.Replace(f.URL, "{"+p.Name+"}", "${"+arg+"}", 1)
		}

		if route.Operation == descriptor.OpList {
			name := naming.Pascal(fd.Name) + "ListParams"
			types[name] = true
			args = append(args, "params: "+name+" = {}")
			f.Params = true
		}

		if route.Request != "" {
			types[route.Request] = true
			args = append(args, "body: "+route.Request)
			f.Body = true
		}

		if route.Response != "" {
			types[route.Response] = true
			f.Returns = route.Response
		}

		f.Args = strings.Join(args, ", ")
		m.Funcs = append(m.Funcs, f)
	}

	m.TypeNames = strings.Join(common.SortedKeys(types), ", ")

	return m
}

type wrapperModule struct {
	Mutator     string
	AuthEnabled bool
	Scheme      string
	TokenKey    string
	Timeout     int
}

func (r *Renderer) wrapperModule() wrapperModule {
	scheme := "Token"
	if strings.Contains(r.cfg.Ninja.AuthClass, "JWT") || strings.Contains(r.cfg.Ninja.AuthClass, "Bearer") {
		scheme = "Bearer"
	}

	return wrapperModule{
		Mutator:     r.cfg.Orval.MutatorName,
		AuthEnabled: r.cfg.Ninja.AuthEnabled,
		Scheme:      scheme,
		TokenKey:    "authToken",
		Timeout:     30000,
	}
}

type stateModule struct {
	Feature      string
	Hook         string
	React        bool
	ClientImport string
	TypesImport  string
	FuncNames    string
	TypeNames    string
	Output       string
	ListParams   string
	PKType       string
	PKKey        string
	TotalKey     string
	ResultsKey   string
	CreateType   string
	UpdateType   string
	Exports      []string

	// Client functions per operation; "" when the operation is absent.
	List, Retrieve, Create, Update, Delete string
}

func (r *Renderer) stateModule(fd *mapping.FeatureDescriptor) stateModule {
	file := r.cfg.StateHelperFile(fd.Name)

	m := stateModule{
		Feature:      fd.Name,
		Hook:         "use" + naming.Pascal(fd.Name),
		React:        r.cfg.Frontend.Framework == "react",
		ClientImport: relImport(file, r.cfg.ClientFile(fd.Name)),
		TypesImport:  relImport(file, r.cfg.TSSchemaFile(fd.Name)),
		Output:       fd.SchemaName(mapping.RoleOutput),
		PKType:       fd.PrimaryKey.WireType,
		PKKey:        wireKey(fd.PrimaryKey),
		TotalKey:     "total_count",
		ResultsKey:   "results",
	}

	funcs := map[string]bool{}
	types := map[string]bool{m.Output: true}

	if out, ok := fd.SchemaByRole(mapping.RoleOutput); ok {
		if f, ok := out.Field(fd.PrimaryKey.Name); ok {
			m.PKKey = wireKey(f)
		}
	}

	if list, ok := fd.SchemaByRole(mapping.RoleList); ok {
		if f, ok := list.Field("total_count"); ok {
			m.TotalKey = wireKey(f)
		}

		if f, ok := list.Field("results"); ok {
			m.ResultsKey = wireKey(f)
		}
	}

	for _, route := range fd.Routes {
		name := funcName(route.OperationID)
		funcs[name] = true

		switch route.Operation {
		case descriptor.OpList:
			m.List = name
			m.ListParams = naming.Pascal(fd.Name) + "ListParams"
			types[m.ListParams] = true
			m.Exports = append(m.Exports, "fetchList")
		case descriptor.OpRetrieve:
			m.Retrieve = name
			m.Exports = append(m.Exports, "fetchOne")
		case descriptor.OpCreate:
			m.Create = name
			m.CreateType = route.Request
			types[route.Request] = true
			m.Exports = append(m.Exports, "create")
		case descriptor.OpUpdate:
			m.Update = name
			m.UpdateType = route.Request
			types[route.Request] = true
			m.Exports = append(m.Exports, "update")
		case descriptor.OpDelete:
			m.Delete = name
			m.Exports = append(m.Exports, "remove")
		}
	}

	m.FuncNames = strings.Join(common.SortedKeys(funcs), ", ")
	m.TypeNames = strings.Join(common.SortedKeys(types), ", ")

	return m
}

type column struct {
	Key   string
	Label string
}

type componentModule struct {
	Feature    string
	Component  string
	Hook       string
	HookImport string
	Title      string
	PKKey      string
	Columns    []column
}

func (r *Renderer) componentModule(fd *mapping.FeatureDescriptor) componentModule {
	file := r.cfg.ComponentFile(fd.Name)

	m := componentModule{
		Feature:    fd.Name,
		Component:  naming.Pascal(fd.Name) + "List",
		Hook:       "use" + naming.Pascal(fd.Name),
		HookImport: relImport(file, r.cfg.StateHelperFile(fd.Name)),
		Title:      naming.Title(fd.Name),
		PKKey:      wireKey(fd.PrimaryKey),
	}

	out, ok := fd.SchemaByRole(mapping.RoleOutput)
	if !ok {
		return m
	}

	for _, f := range out.Fields {
		if f.Name == fd.PrimaryKey.Name {
			m.PKKey = wireKey(f)
		}

		if f.JSON.Ref != "" || f.JSON.Type == "array" {
			continue
		}

		m.Columns = append(m.Columns, column{Key: wireKey(f), Label: naming.Title(f.Name)})
	}

	return m
}

type orvalModule struct {
	Input      string
	Target     string
	Schemas    string
	Client     string
	Mode       string
	Mutator    string
	MutatorRef string
}

func (r *Renderer) orvalModule() orvalModule {
	out := strings.TrimSuffix(r.cfg.Orval.OutputPath, "/")

	return orvalModule{
		Input:      "./" + r.cfg.OpenAPIFile(),
		Target:     "./" + out + "/orval/ninja-api.ts",
		Schemas:    "./" + strings.TrimSuffix(r.cfg.Orval.TSSchemasDir, "/") + "/orval",
		Client:     r.cfg.Orval.ClientType,
		Mode:       r.cfg.Orval.SplitMode,
		Mutator:    r.cfg.Orval.MutatorName,
		MutatorRef: "./" + r.cfg.FetchWrapperFile(),
	}
}
