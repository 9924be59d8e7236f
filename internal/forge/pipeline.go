package forge

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/extract"
	"ninja-orval-forge/internal/legacy"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/plan"
	"ninja-orval-forge/internal/render"
)

// CodeEmptyApp marks a legacy app without serializers and view-sets.
const CodeEmptyApp = "empty_app"

// Feature names become Python packages and URL segments.
var featureRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type initPipeline struct {
	e        *Engine
	features []*mapping.FeatureDescriptor
}

func (p *initPipeline) Parse(context.Context, *plan.Session) error { return nil }

func (p *initPipeline) Map(_ context.Context, s *plan.Session) error {
	p.features = p.e.remap(s.Manifest, nil)
	return nil
}

func (p *initPipeline) Render(context.Context, *plan.Session) ([]render.Artifact, error) {
	return render.New(p.e.Config).Scaffold(p.features)
}

func (p *initPipeline) Records() []plan.FeatureRecord { return nil }

type generatePipeline struct {
	e   *Engine
	req GenerateRequest

	model   descriptor.ModelDescriptor
	feature *mapping.FeatureDescriptor
	others  []*mapping.FeatureDescriptor
}

func (p *generatePipeline) extractor() extract.Extractor {
	if len(p.req.ModelsFrom) > 0 {
		return extract.NewGoPackages(p.e.Root, p.e.Tables, common.Dedupe(p.req.ModelsFrom)...)
	}

	return extract.NewDjango(p.e.Root, p.e.Tables)
}

func (p *generatePipeline) Parse(_ context.Context, s *plan.Session) error {
	if !featureRe.MatchString(p.req.Feature) {
		return &diagnostic.UnsupportedConstructError{
			Construct: p.req.Feature,
			Reason:    "feature name must be a lowercase Python identifier",
		}
	}

	model, err := p.extractor().Extract(p.req.Model)
	if err != nil {
		return err
	}

	// Go structs are served by the Django models of the configured app.
	if len(p.req.ModelsFrom) > 0 {
		model.Module = p.e.Config.Project.DjangoApp + ".models"
	}

	s.Log.Info("model extracted", "model", model.Name, "module", model.Module, "fields", len(model.Fields))
	p.model = model

	return nil
}

func (p *generatePipeline) Map(_ context.Context, s *plan.Session) error {
	ops := p.req.Operations
	if len(ops) == 0 {
		ops = descriptor.NewOperationSet(descriptor.AllOperations...)
	}

	fd, diags := mapping.MapFeature(p.e.Config, p.req.Feature, p.model, ops)
	s.Report.Merge(diags)

	if fd == nil {
		return &diagnostic.UnsupportedConstructError{
			Construct: p.model.Name,
			Reason:    "none of the requested operations can be mapped",
		}
	}

	p.feature = fd
	p.others = p.e.remap(s.Manifest, map[string]bool{fd.Name: true})

	return nil
}

func (p *generatePipeline) Render(context.Context, *plan.Session) ([]render.Artifact, error) {
	r := render.New(p.e.Config)

	out, err := r.Feature(p.feature)
	if err != nil {
		return nil, err
	}

	shared, err := r.Shared(append([]*mapping.FeatureDescriptor{p.feature}, p.others...))
	if err != nil {
		return nil, err
	}

	return append(out, shared...), nil
}

func (p *generatePipeline) Records() []plan.FeatureRecord {
	if p.feature == nil {
		return nil
	}

	return []plan.FeatureRecord{plan.RecordOf(p.feature)}
}

type migrateItem struct {
	feature legacy.Feature
	model   descriptor.ModelDescriptor
}

type migratePipeline struct {
	e   *Engine
	req MigrateRequest

	items    []migrateItem
	features []*mapping.FeatureDescriptor
	others   []*mapping.FeatureDescriptor
	rendered []*mapping.FeatureDescriptor
}

// appPath turns a dotted or slash separated app name into a relative path.
func appPath(app string) string {
	return path.Clean(strings.ReplaceAll(app, ".", "/"))
}

func (p *migratePipeline) Parse(ctx context.Context, s *plan.Session) error {
	rel := appPath(p.req.App)

	app, err := legacy.NewParser(p.e.Tables).ParseApp(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}

	for _, perr := range app.Errors {
		s.Report.AddError(perr, diagnostic.DiagnosticError)
	}

	if app.Empty() {
		s.Report.Add(diagnostic.Diagnostic{
			Severity: diagnostic.DiagnosticWarning,
			Code:     CodeEmptyApp,
			Message:  "no serializers or view-sets found",
			Subject:  p.req.App,
		})
	}

	label := path.Base(rel)
	models := extract.NewDjango(s.Root, p.e.Tables)

	for _, f := range app.Features() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if f.Model == "" {
			s.Report.AddError(&diagnostic.UnsupportedConstructError{
				Construct: constructName(f),
				Reason:    "target model cannot be determined statically",
			}, diagnostic.DiagnosticError)

			continue
		}

		model, err := resolveModel(models, label, f.Model)
		if err != nil {
			s.Log.Warn("feature skipped", "feature", f.Name, "error", err)
			s.Report.AddError(err, diagnostic.DiagnosticError)

			continue
		}

		p.items = append(p.items, migrateItem{feature: f, model: model})
	}

	s.Log.Info("legacy app parsed", "app", p.req.App, "features", len(p.items))

	return nil
}

// resolveModel looks the model up in the app first and then project wide.
func resolveModel(ext extract.Extractor, app, name string) (descriptor.ModelDescriptor, error) {
	if strings.Contains(name, ".") {
		return ext.Extract(name)
	}

	model, err := ext.Extract(app + "." + name)
	if err == nil {
		return model, nil
	}

	return ext.Extract(name)
}

func constructName(f legacy.Feature) string {
	if f.ViewSet != nil {
		return f.ViewSet.Name
	}

	if f.Serializer != nil {
		return f.Serializer.Name
	}

	return f.Name
}

func (p *migratePipeline) Map(_ context.Context, s *plan.Session) error {
	names := map[string]bool{}

	for _, it := range p.items {
		fd, diags := mapping.MapLegacy(p.e.Config, it.feature.Name, it.model, it.feature.Serializer, it.feature.ViewSet)
		s.Report.Merge(diags)

		if fd == nil {
			continue
		}

		names[fd.Name] = true
		p.features = append(p.features, fd)
	}

	p.others = p.e.remap(s.Manifest, names)

	return nil
}

// Render renders the features on up to Jobs goroutines. Each feature owns
// one slot, so the artifact order does not depend on scheduling. A feature
// that fails to render is reported and left out.
func (p *migratePipeline) Render(ctx context.Context, s *plan.Session) ([]render.Artifact, error) {
	r := render.New(p.e.Config)
	slots := make([][]render.Artifact, len(p.features))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.req.Jobs, 1))

	for i, fd := range p.features {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			artifacts, err := r.Feature(fd)
			if err != nil {
				s.Log.Warn("feature not rendered", "feature", fd.Name, "error", err)
				s.Report.AddError(err, diagnostic.DiagnosticError)

				return nil
			}

			slots[i] = artifacts

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []render.Artifact

	p.rendered = nil

	for i, artifacts := range slots {
		if artifacts == nil {
			continue
		}

		p.rendered = append(p.rendered, p.features[i])
		out = append(out, artifacts...)
	}

	all := append(append([]*mapping.FeatureDescriptor(nil), p.rendered...), p.others...)

	shared, err := r.Shared(all)
	if err != nil {
		return nil, err
	}

	return append(out, shared...), nil
}

func (p *migratePipeline) Records() []plan.FeatureRecord {
	out := make([]plan.FeatureRecord, len(p.rendered))
	for i, fd := range p.rendered {
		out[i] = plan.RecordOf(fd)
	}

	return out
}
