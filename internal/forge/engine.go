package forge

import (
	"context"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/log"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/plan"
	"ninja-orval-forge/internal/report"
	"ninja-orval-forge/internal/writer"
)

// Engine runs the commands against the project rooted at Root.
type Engine struct {
	Root   string
	Config *config.Config
	Tables *mapping.Tables
	Writer writer.Writer
	Log    log.Logger
}

// New returns an engine writing to disk. The mapping tables are the
// embedded defaults extended with mapping.field_classes.
func New(root string, cfg *config.Config, l log.Logger) *Engine {
	if l == nil {
		l = log.Nop()
	}

	return &Engine{
		Root:   root,
		Config: cfg,
		Tables: mapping.DefaultTables().WithFieldClasses(cfg.Mapping.FieldClasses),
		Writer: writer.NewDisk(root),
		Log:    l,
	}
}

// Options control how a command applies its change set.
type Options struct {
	DryRun bool
	Force  bool
	Backup bool
}

// Result is the outcome of one command.
type Result struct {
	Report    *report.Report
	ChangeSet *plan.ChangeSet
	Trace     []plan.State
}

// ExitCode maps the result to a process exit code.
func (r *Result) ExitCode(cfg *config.Config) int {
	return r.Report.ExitCode(cfg.Migrate.ConflictThreshold)
}

// GenerateRequest selects the model and operations of a new feature.
type GenerateRequest struct {
	Feature    string
	Model      string
	Operations descriptor.OperationSet
	// ModelsFrom holds go/packages patterns. When empty, models are read
	// from the Django apps under the project root.
	ModelsFrom []string
}

// MigrateRequest selects the legacy app to translate.
type MigrateRequest struct {
	App string
	// Jobs bounds the number of features rendered concurrently.
	Jobs int
}

// Init writes the project skeleton and creates the frontend directories.
func (e *Engine) Init(ctx context.Context, opts Options) (*Result, error) {
	res, err := e.run(ctx, &initPipeline{e: e}, opts)
	if err != nil || opts.DryRun {
		return res, err
	}

	for _, dir := range e.frontendDirs() {
		if err := e.Writer.EnsureDir(dir); err != nil {
			res.Report.AddError(err, diagnostic.DiagnosticError)
		}
	}

	return res, nil
}

// Generate maps one model to a feature and writes its artifacts together
// with the refreshed shared artifacts.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest, opts Options) (*Result, error) {
	return e.run(ctx, &generatePipeline{e: e, req: req}, opts)
}

// Migrate translates the serializers and view-sets of a legacy app.
func (e *Engine) Migrate(ctx context.Context, req MigrateRequest, opts Options) (*Result, error) {
	return e.run(ctx, &migratePipeline{e: e, req: req}, opts)
}

func (e *Engine) run(ctx context.Context, p plan.Pipeline, opts Options) (*Result, error) {
	rep := report.New(log.NewRunID(), opts.DryRun)
	o := plan.New(e.Root, e.Writer, rep, e.Log.With("run", rep.RunID))

	cs, err := o.Run(ctx, p, plan.Options{
		DryRun:       opts.DryRun,
		Force:        opts.Force,
		Backup:       opts.Backup,
		BackupSuffix: e.Config.Migrate.BackupSuffix,
	})

	return &Result{Report: rep, ChangeSet: cs, Trace: o.Trace()}, err
}

func (e *Engine) frontendDirs() []string {
	dirs := []string{e.Config.Orval.OutputPath, e.Config.Orval.TSSchemasDir}
	if e.Config.HasStateHelpers() {
		dirs = append(dirs, e.Config.Orval.ComposablesDir, e.Config.Frontend.ComponentsDir)
	}

	return dirs
}

// remap maps the features recorded in m again, except the named ones.
func (e *Engine) remap(m *plan.Manifest, except map[string]bool) []*mapping.FeatureDescriptor {
	var out []*mapping.FeatureDescriptor

	for _, rec := range m.Features {
		if except[rec.Name] {
			continue
		}

		fd, diags := mapping.MapFeature(e.Config, rec.Name, rec.Model, rec.Operations)
		if fd == nil {
			e.Log.Warn("recorded feature no longer maps", "feature", rec.Name, "diagnostics", diags.Error())
			continue
		}

		fd.Migrated = rec.Migrated
		fd.Source = append([]string(nil), rec.Source...)
		out = append(out, fd)
	}

	return out
}
