package plan

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/log"
	"ninja-orval-forge/internal/render"
	"ninja-orval-forge/internal/report"
	"ninja-orval-forge/internal/writer"
)

// Pipeline produces the artifacts of one invocation. The orchestrator calls
// the stages in order and stops at the first stage error.
type Pipeline interface {
	Parse(ctx context.Context, s *Session) error
	Map(ctx context.Context, s *Session) error
	Render(ctx context.Context, s *Session) ([]render.Artifact, error)
	// Records lists the features stored in the manifest after apply.
	Records() []FeatureRecord
}

// Session is the per-invocation state handed to pipeline stages.
// Manifest is the result of the previous run and must not be modified.
type Session struct {
	Root     string
	Manifest *Manifest
	Report   *report.Report
	Log      log.Logger
}

// Options control how a change set is applied.
type Options struct {
	DryRun       bool
	Force        bool
	Backup       bool
	BackupSuffix string
}

func (o Options) backupPath(path string) string {
	suffix := o.BackupSuffix
	if suffix == "" {
		suffix = ".bak"
	}

	return path + suffix
}

// Orchestrator drives a pipeline through
// PARSE, MAP, RENDER, PLAN and then DRY_RUN_REPORT or APPLY.
type Orchestrator struct {
	Root   string
	Writer writer.Writer
	Report *report.Report
	Log    log.Logger

	trace []State
}

// New returns an orchestrator for the project at root.
func New(root string, w writer.Writer, r *report.Report, l log.Logger) *Orchestrator {
	if l == nil {
		l = log.Nop()
	}

	return &Orchestrator{Root: root, Writer: w, Report: r, Log: l}
}

// Trace returns the states entered by the last run.
func (o *Orchestrator) Trace() []State {
	return append([]State(nil), o.trace...)
}

func (o *Orchestrator) enter(s State) {
	o.trace = append(o.trace, s)
	o.Log.Debug("enter state", "state", s.String())
}

// Run executes p. A stage error aborts the run before any file is written;
// it is recorded in the report and returned.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, opts Options) (*ChangeSet, error) {
	o.trace = nil

	m, err := LoadManifest(o.Root)
	if err != nil {
		o.Report.Fail(err)
		return nil, err
	}

	s := &Session{Root: o.Root, Manifest: m, Report: o.Report, Log: o.Log}

	var artifacts []render.Artifact

	stages := []struct {
		state State
		run   func() error
	}{
		{StateParse, func() error { return p.Parse(ctx, s) }},
		{StateMap, func() error { return p.Map(ctx, s) }},
		{StateRender, func() error {
			var err error
			artifacts, err = p.Render(ctx, s)

			return err
		}},
	}

	for _, st := range stages {
		if err := o.step(ctx, st.state, st.run); err != nil {
			return nil, err
		}
	}

	o.enter(StatePlan)

	cs := Plan(o.Root, artifacts, m)
	o.Log.Info("planned changes", "files", len(cs.Entries), "changed", cs.TotalChanged(), "conflicts", len(cs.Conflicts()))

	if opts.DryRun {
		o.enter(StateDryRunReport)

		for _, e := range cs.Entries {
			o.Report.AddFile(report.File{
				Path:     e.Path,
				Outcome:  report.OutcomePlanned,
				Action:   e.Action.String(),
				Conflict: e.Conflict,
				Reason:   e.Reason,
			})
		}

		return cs, nil
	}

	o.enter(StateApply)

	return cs, o.apply(ctx, cs, m, p.Records(), opts)
}

func (o *Orchestrator) step(ctx context.Context, state State, fn func() error) error {
	if err := ctx.Err(); err != nil {
		o.Report.Fail(err)
		return err
	}

	o.enter(state)

	if err := fn(); err != nil {
		o.Log.Error("stage failed", "state", state.String(), "error", err)
		o.Report.Fail(err)

		return err
	}

	return nil
}

func (o *Orchestrator) apply(ctx context.Context, cs *ChangeSet, prev *Manifest, records []FeatureRecord, opts Options) error {
	next := prev.Clone()

	var cancelled error

	for _, e := range cs.Entries {
		if err := ctx.Err(); err != nil {
			cancelled = err
			o.Report.Fail(err)

			break
		}

		o.applyEntry(e, next, opts)
	}

	if cancelled == nil {
		for _, rec := range records {
			next.PutFeature(rec)
		}
	}

	if err := o.saveManifest(next); err != nil {
		o.Report.AddError(err, diagnostic.DiagnosticError)
	}

	return cancelled
}

func (o *Orchestrator) applyEntry(e Entry, next *Manifest, opts Options) {
	f := report.File{Path: e.Path, Action: e.Action.String(), Conflict: e.Conflict, Reason: e.Reason}

	switch {
	case e.Action == ActionSkip:
		f.Outcome = report.OutcomeSkipped
		next.Record(e.Path, e.Content)
	case e.Conflict && !opts.Force:
		f.Outcome = report.OutcomeSkipped
		o.Report.AddError(&diagnostic.ConflictError{
			Path:   e.Path,
			Reason: e.Reason + "; rerun with --force to overwrite",
		}, diagnostic.DiagnosticWarning)
	default:
		backup := ""
		if opts.Backup && e.Action == ActionOverwrite {
			backup = opts.backupPath(e.Path)
		}

		if err := o.Writer.Write(e.Path, e.Content, backup); err != nil {
			o.Log.Warn("write failed", "path", e.Path, "error", err)
			f.Outcome = report.OutcomeFailed
			f.Err = err
			o.Report.AddError(err, diagnostic.DiagnosticError)

			break
		}

		f.Backup = backup
		f.Outcome = report.OutcomeCreated

		if e.Action == ActionOverwrite {
			f.Outcome = report.OutcomeOverwritten
		}

		next.Record(e.Path, e.Content)
	}

	o.Report.AddFile(f)
}

// saveManifest writes m unless the file on disk already holds the same bytes.
func (o *Orchestrator) saveManifest(m *Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "encode manifest")
	}

	current, err := os.ReadFile(filepath.Join(o.Root, config.ManifestFileName))
	if err == nil && bytes.Equal(current, data) {
		return nil
	}

	o.Log.Debug("write manifest", "files", len(m.Files), "features", len(m.Features))

	return o.Writer.WriteFile(config.ManifestFileName, data)
}
