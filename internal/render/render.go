package render

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/naming"
)

// TemplateVersion is stamped into every generated file.
const TemplateVersion = "1"

// Generator names the tool in generated headers.
const Generator = "ninja-orval-forge"

// Kind is the language of an artifact.
type Kind string

const (
	KindPython     Kind = "python"
	KindTypeScript Kind = "typescript"
	KindVue        Kind = "vue"
	KindJSON       Kind = "json"
	KindYAML       Kind = "yaml"
)

// Artifact is one rendered file.
type Artifact struct {
	// Path is relative to the project root and slash separated.
	Path    string
	Kind    Kind
	Feature string
	Content []byte
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("render").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"pyStr": pyStr,
			"tsStr": tsStr,
			"join":  strings.Join,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Header returns the first line written to every artifact of a kind.
func Header(kind Kind) string {
	text := fmt.Sprintf("Code generated by %s (templates v%s). DO NOT EDIT.", Generator, TemplateVersion)

	switch kind {
	case KindPython, KindYAML:
		return "# " + text
	case KindTypeScript:
		return "// " + text
	case KindVue:
		return "<!-- " + text + " -->"
	default:
		return ""
	}
}

// Renderer renders artifacts for one configuration.
type Renderer struct {
	cfg *config.Config
}

// New returns a renderer for cfg. The configuration is only read.
func New(cfg *config.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Feature renders every artifact of one feature. On error nothing is
// returned, so a feature is either rendered completely or not at all.
func (r *Renderer) Feature(fd *mapping.FeatureDescriptor) ([]Artifact, error) {
	if err := r.check(fd); err != nil {
		return nil, err
	}

	dir := r.cfg.FeatureDir(fd.Name)

	jobs := []struct {
		path string
		kind Kind
		tmpl string
		data func() (any, error)
	}{
		{path.Join(dir, "__init__.py"), KindPython, "init.py.tmpl", func() (any, error) { return fd, nil }},
		{path.Join(dir, "schema.py"), KindPython, "schema.py.tmpl", func() (any, error) { return r.schemaModule(fd), nil }},
		{path.Join(dir, "views.py"), KindPython, "views.py.tmpl", func() (any, error) { return r.viewsModule(fd) }},
		{r.cfg.TSSchemaFile(fd.Name), KindTypeScript, "types.ts.tmpl", func() (any, error) { return r.typesModule(fd), nil }},
		{r.cfg.ClientFile(fd.Name), KindTypeScript, r.clientTemplate(), func() (any, error) { return r.clientModule(fd), nil }},
	}

	var out []Artifact

	for _, j := range jobs {
		data, err := j.data()
		if err != nil {
			return nil, err
		}

		a, err := r.execute(j.path, j.kind, j.tmpl, data)
		if err != nil {
			return nil, err
		}

		a.Feature = fd.Name
		out = append(out, a)
	}

	if !r.cfg.HasStateHelpers() {
		return out, nil
	}

	state := r.stateModule(fd)

	tmpl := "composable.ts.tmpl"
	if state.React {
		tmpl = "hook.ts.tmpl"
	}

	a, err := r.execute(r.cfg.StateHelperFile(fd.Name), KindTypeScript, tmpl, state)
	if err != nil {
		return nil, err
	}

	a.Feature = fd.Name
	out = append(out, a)

	if fd.Has(descriptor.OpList) {
		kind, tmpl := KindVue, "list.vue.tmpl"
		if state.React {
			kind, tmpl = KindTypeScript, "list.tsx.tmpl"
		}

		a, err := r.execute(r.cfg.ComponentFile(fd.Name), kind, tmpl, r.componentModule(fd))
		if err != nil {
			return nil, err
		}

		a.Feature = fd.Name
		out = append(out, a)
	}

	return out, nil
}

// Shared renders the artifacts that depend on every known feature.
// Features are rendered in name order whatever the input order.
func (r *Renderer) Shared(features []*mapping.FeatureDescriptor) ([]Artifact, error) {
	sorted := make([]*mapping.FeatureDescriptor, len(features))
	copy(sorted, features)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, fd := range sorted {
		if err := r.check(fd); err != nil {
			return nil, err
		}
	}

	shared := r.cfg.SharedDir()

	jobs := []struct {
		path string
		kind Kind
		tmpl string
		data any
	}{
		{r.cfg.APIFile(), KindPython, "api.py.tmpl", r.apiModule(sorted)},
		{path.Join(shared, "base_schemas.py"), KindPython, "base_schemas.py.tmpl", r.sharedModule()},
		{path.Join(shared, "pagination_utils.py"), KindPython, "pagination_utils.py.tmpl", r.sharedModule()},
		{r.cfg.FetchWrapperFile(), KindTypeScript, r.wrapperTemplate(), r.wrapperModule()},
	}

	var out []Artifact

	for _, j := range jobs {
		a, err := r.execute(j.path, j.kind, j.tmpl, j.data)
		if err != nil {
			return nil, err
		}

		out = append(out, a)
	}

	doc, err := OpenAPI(r.cfg, sorted)
	if err != nil {
		return nil, &diagnostic.RenderError{Artifact: r.cfg.OpenAPIFile(), Err: err}
	}

	out = append(out, Artifact{Path: r.cfg.OpenAPIFile(), Kind: KindJSON, Content: doc})

	return out, nil
}

// Scaffold renders the project skeleton written by init: the configuration
// file, package markers, the Orval configuration and the shared artifacts
// of the already generated features.
func (r *Renderer) Scaffold(features []*mapping.FeatureDescriptor) ([]Artifact, error) {
	cfgYAML, err := config.Marshal(r.cfg)
	if err != nil {
		return nil, &diagnostic.RenderError{Artifact: config.FileName, Err: err}
	}

	out := []Artifact{{
		Path:    config.FileName,
		Kind:    KindYAML,
		Content: []byte(Header(KindYAML) + "\n" + string(cfgYAML)),
	}}

	for _, dir := range []string{path.Dir(r.cfg.NinjaDir()), r.cfg.NinjaDir(), r.cfg.APIViewsDir(), r.cfg.SharedDir()} {
		a, err := r.execute(path.Join(dir, "__init__.py"), KindPython, "init.py.tmpl", nil)
		if err != nil {
			return nil, err
		}

		out = append(out, a)
	}

	a, err := r.execute(r.cfg.OrvalConfigFile(), KindTypeScript, "orval.config.ts.tmpl", r.orvalModule())
	if err != nil {
		return nil, err
	}

	out = append(out, a)

	shared, err := r.Shared(features)
	if err != nil {
		return nil, err
	}

	return append(out, shared...), nil
}

// check reports descriptor data the templates cannot do without.
func (r *Renderer) check(fd *mapping.FeatureDescriptor) error {
	views := path.Join(r.cfg.FeatureDir(fd.Name), "views.py")

	switch {
	case fd.Name == "":
		return &diagnostic.RenderError{Artifact: r.cfg.APIViewsDir(), Field: "feature name"}
	case len(fd.Routes) == 0:
		return &diagnostic.RenderError{Artifact: views, Field: "routes"}
	case fd.Model.Name == "":
		return &diagnostic.RenderError{Artifact: views, Field: "model name"}
	case fd.Model.Module == "":
		return &diagnostic.RenderError{Artifact: views, Field: "model module"}
	case fd.PrimaryKey.Name == "":
		return &diagnostic.RenderError{Artifact: views, Field: "primary key"}
	}

	for _, route := range fd.Routes {
		for _, name := range []string{route.Request, route.Response} {
			if name == "" {
				continue
			}

			if _, ok := fd.Schema(name); !ok {
				return &diagnostic.RenderError{Artifact: views, Field: "schema " + name}
			}
		}
	}

	return nil
}

func (r *Renderer) execute(p string, kind Kind, name string, data any) (Artifact, error) {
	var buf bytes.Buffer

	if h := Header(kind); h != "" {
		buf.WriteString(h)
		buf.WriteString("\n")
	}

	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Artifact{}, &diagnostic.RenderError{Artifact: p, Err: err}
	}

	return Artifact{Path: p, Kind: kind, Content: buf.Bytes()}, nil
}

// pythonPackage converts a slash path to a dotted import path.
func pythonPackage(p string) string {
	return strings.ReplaceAll(path.Clean(p), "/", ".")
}

// relImport returns the relative module specifier from the directory of
// file "from" to file "to", without the extension of to.
func relImport(from, to string) string {
	fromParts := splitPath(path.Dir(from))
	toParts := splitPath(strings.TrimSuffix(to, path.Ext(to)))

	i := 0
	for i < len(fromParts) && i < len(toParts)-1 && fromParts[i] == toParts[i] {
		i++
	}

	var parts []string
	for range fromParts[i:] {
		parts = append(parts, "..")
	}

	parts = append(parts, toParts[i:]...)

	if parts[0] != ".." {
		return "./" + strings.Join(parts, "/")
	}

	return strings.Join(parts, "/")
}

func splitPath(p string) []string {
	p = path.Clean(p)
	if p == "." {
		return nil
	}

	return strings.Split(p, "/")
}

// pyStr quotes s as a Python string literal.
func pyStr(s string) string {
	return strconv.Quote(s)
}

// tsStr quotes s as a TypeScript string literal.
func tsStr(s string) string {
	return strconv.Quote(s)
}

// funcName is the client function of an operation: "users_list" -> "usersList".
func funcName(operationID string) string {
	return naming.Camel(operationID)
}
