package plan

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/log"
	"ninja-orval-forge/internal/render"
	"ninja-orval-forge/internal/report"
	"ninja-orval-forge/internal/writer"
)

type fakePipeline struct {
	artifacts []render.Artifact
	records   []FeatureRecord
	parseErr  error
	renderErr error
	stages    []string
	manifest  *Manifest
}

func (p *fakePipeline) Parse(_ context.Context, s *Session) error {
	p.stages = append(p.stages, "parse")
	p.manifest = s.Manifest

	return p.parseErr
}

func (p *fakePipeline) Map(context.Context, *Session) error {
	p.stages = append(p.stages, "map")
	return nil
}

func (p *fakePipeline) Render(context.Context, *Session) ([]render.Artifact, error) {
	p.stages = append(p.stages, "render")
	if p.renderErr != nil {
		return nil, p.renderErr
	}

	return p.artifacts, nil
}

func (p *fakePipeline) Records() []FeatureRecord { return p.records }

func artifacts(contents map[string]string, order ...string) []render.Artifact {
	out := make([]render.Artifact, 0, len(order))
	for _, path := range order {
		out = append(out, render.Artifact{Path: path, Kind: render.KindPython, Content: []byte(contents[path])})
	}

	return out
}

func newOrchestrator(t *testing.T, root string) *Orchestrator {
	t.Helper()

	return New(root, writer.NewDisk(root), report.New("test", false), &log.Testing{TB: t})
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()

	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel, _ := filepath.Rel(root, path)
		out[filepath.ToSlash(rel)] = string(data)

		return nil
	})
	require.NoError(t, err)

	return out
}

func writeFile(t *testing.T, root, path, content string) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(path))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestPlanClassification(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "same.py", "same")
	writeFile(t, root, "generated.py", "old")
	writeFile(t, root, "edited.py", "edited by hand")
	writeFile(t, root, "foreign.py", "someone else's file")

	m := NewManifest()
	m.Record("generated.py", []byte("old"))
	m.Record("edited.py", []byte("old"))

	contents := map[string]string{
		"new.py":       "new",
		"same.py":      "same",
		"generated.py": "new",
		"edited.py":    "new",
		"foreign.py":   "new",
	}
	order := []string{"new.py", "same.py", "generated.py", "edited.py", "foreign.py", "new.py"}

	cs := Plan(root, artifacts(contents, order...), m)
	require.Len(t, cs.Entries, 5, spew.Sdump(cs.Paths()))

	tests := []struct {
		path     string
		action   Action
		conflict bool
		reason   string
	}{
		{"new.py", ActionCreate, false, ReasonNew},
		{"same.py", ActionSkip, false, ReasonUnchanged},
		{"generated.py", ActionOverwrite, false, ReasonGenerated},
		{"edited.py", ActionOverwrite, true, ReasonModified},
		{"foreign.py", ActionOverwrite, true, ReasonUnrecorded},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			e, ok := cs.Entry(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.action, e.Action)
			assert.Equal(t, tt.conflict, e.Conflict)
			assert.Equal(t, tt.reason, e.Reason)
		})
	}

	assert.Equal(t, 4, cs.TotalChanged())
	assert.Len(t, cs.Conflicts(), 2)
}

func TestRunAppliesAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	contents := map[string]string{"a/x.py": "x", "b/y.ts": "y"}
	p := &fakePipeline{
		artifacts: artifacts(contents, "a/x.py", "b/y.ts"),
		records: []FeatureRecord{{
			Name:       "users",
			Model:      descriptor.ModelDescriptor{Name: "User", Module: "accounts.models", PrimaryKey: "id"},
			Operations: descriptor.OperationSet{descriptor.OpList},
		}},
	}

	o := newOrchestrator(t, root)
	cs, err := o.Run(context.Background(), p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"parse", "map", "render"}, p.stages)
	assert.Equal(t, []State{StateParse, StateMap, StateRender, StatePlan, StateApply}, o.Trace())
	assert.Equal(t, 2, cs.Count(ActionCreate))
	assert.Equal(t, report.ExitOK, o.Report.ExitCode(0))

	tree := readTree(t, root)
	assert.Equal(t, "x", tree["a/x.py"])
	assert.Equal(t, "y", tree["b/y.ts"])
	require.Contains(t, tree, config.ManifestFileName)

	m, err := LoadManifest(root)
	require.NoError(t, err)
	assert.Equal(t, Hash([]byte("x")), m.Files["a/x.py"])
	rec, ok := m.Feature("users")
	require.True(t, ok)
	assert.Equal(t, "User", rec.Model.Name)

	o2 := newOrchestrator(t, root)
	cs, err = o2.Run(context.Background(), p, Options{})
	require.NoError(t, err)
	assert.False(t, cs.HasChanges())
	assert.Equal(t, 2, o2.Report.Counts().Skipped)
	assert.Equal(t, tree, readTree(t, root))
	assert.Equal(t, "users", p.manifest.Features[0].Name)
}

func TestRunConflictNeedsForce(t *testing.T) {
	root := t.TempDir()
	p := &fakePipeline{artifacts: artifacts(map[string]string{"x.py": "v1"}, "x.py")}

	_, err := newOrchestrator(t, root).Run(context.Background(), p, Options{})
	require.NoError(t, err)

	writeFile(t, root, "x.py", "hand edit")
	p.artifacts = artifacts(map[string]string{"x.py": "v2"}, "x.py")

	o := newOrchestrator(t, root)
	cs, err := o.Run(context.Background(), p, Options{})
	require.NoError(t, err)
	require.Len(t, cs.Conflicts(), 1)
	assert.Equal(t, "hand edit", readTree(t, root)["x.py"])
	assert.Equal(t, report.ExitConflict, o.Report.ExitCode(0))

	files := o.Report.Files()
	require.Len(t, files, 1)
	assert.Equal(t, report.OutcomeSkipped, files[0].Outcome)
	assert.True(t, files[0].Conflict)

	diags := o.Report.Diagnostics()
	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, diagnostic.CodeConflict, diags.Warnings[0].Code)

	o = newOrchestrator(t, root)
	_, err = o.Run(context.Background(), p, Options{Force: true, Backup: true, BackupSuffix: ".orig"})
	require.NoError(t, err)

	tree := readTree(t, root)
	assert.Equal(t, "v2", tree["x.py"])
	assert.Equal(t, "hand edit", tree["x.py.orig"])
	assert.Equal(t, report.OutcomeOverwritten, o.Report.Files()[0].Outcome)
	assert.Equal(t, "x.py.orig", o.Report.Files()[0].Backup)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.py", "mine")

	p := &fakePipeline{artifacts: artifacts(map[string]string{"keep.py": "gen", "new.py": "n"}, "keep.py", "new.py")}
	before := readTree(t, root)

	o := newOrchestrator(t, root)
	cs, err := o.Run(context.Background(), p, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, before, readTree(t, root))
	assert.Equal(t, []State{StateParse, StateMap, StateRender, StatePlan, StateDryRunReport}, o.Trace())

	counts := o.Report.Counts()
	assert.Equal(t, 2, counts.Planned)
	assert.Equal(t, ActionOverwrite, cs.Entries[0].Action)
	assert.True(t, cs.Entries[0].Conflict)
	assert.Equal(t, ActionCreate, cs.Entries[1].Action)
}

func TestRunStageErrorAborts(t *testing.T) {
	root := t.TempDir()
	notFound := &diagnostic.NotFoundError{Kind: "model", Name: "Usr", Suggestions: []string{"User"}}
	p := &fakePipeline{
		artifacts: artifacts(map[string]string{"x.py": "x"}, "x.py"),
		parseErr:  notFound,
	}

	o := newOrchestrator(t, root)
	cs, err := o.Run(context.Background(), p, Options{})
	require.Error(t, err)
	assert.Nil(t, cs)
	assert.ErrorIs(t, o.Report.Fatal(), notFound)
	assert.Equal(t, []State{StateParse}, o.Trace())
	assert.Equal(t, []string{"parse"}, p.stages)
	assert.Empty(t, readTree(t, root))
	assert.Equal(t, report.ExitError, o.Report.ExitCode(0))
}

func TestRunRenderErrorAborts(t *testing.T) {
	root := t.TempDir()
	p := &fakePipeline{renderErr: &diagnostic.RenderError{Artifact: "x.py", Field: "routes"}}

	o := newOrchestrator(t, root)
	_, err := o.Run(context.Background(), p, Options{})

	var re *diagnostic.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []State{StateParse, StateMap, StateRender}, o.Trace())
	assert.Empty(t, readTree(t, root))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(t, t.TempDir())
	_, err := o.Run(ctx, &fakePipeline{}, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, o.Trace())
}

func TestRunCorruptManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, config.ManifestFileName, "files: [not a map")

	o := newOrchestrator(t, root)
	_, err := o.Run(context.Background(), &fakePipeline{}, Options{})

	var ce *diagnostic.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.True(t, diagnostic.IsFatal(err))
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Write(path string, content []byte, backup string) error {
	return m.Called(path, content, backup).Error(0)
}

func (m *mockWriter) WriteFile(path string, content []byte) error {
	return m.Called(path, content).Error(0)
}

func (m *mockWriter) EnsureDir(path string) error {
	return m.Called(path).Error(0)
}

func TestRunWriteFailureIsPerFile(t *testing.T) {
	root := t.TempDir()

	var saved []byte

	w := &mockWriter{}
	w.On("Write", "b.py", mock.Anything, "").
		Return(&diagnostic.WriteError{Path: "b.py", Op: "rename", Err: errors.New("disk full")})
	w.On("Write", mock.Anything, mock.Anything, "").Return(nil)
	w.On("WriteFile", config.ManifestFileName, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]byte) }).
		Return(nil)

	o := New(root, w, report.New("test", false), &log.Testing{TB: t})
	p := &fakePipeline{artifacts: artifacts(map[string]string{"a.py": "a", "b.py": "b", "c.py": "c"}, "a.py", "b.py", "c.py")}

	_, err := o.Run(context.Background(), p, Options{})
	require.NoError(t, err)
	w.AssertNumberOfCalls(t, "Write", 3)
	w.AssertNumberOfCalls(t, "WriteFile", 1)

	counts := o.Report.Counts()
	assert.Equal(t, 2, counts.Created)
	assert.Equal(t, 1, counts.Failed)
	assert.Equal(t, report.ExitError, o.Report.ExitCode(0))

	writeFile(t, root, config.ManifestFileName, string(saved))
	m, err := LoadManifest(root)
	require.NoError(t, err)
	assert.Contains(t, m.Files, "a.py")
	assert.Contains(t, m.Files, "c.py")
	assert.NotContains(t, m.Files, "b.py")
}

func TestManifestFeatures(t *testing.T) {
	m := NewManifest()
	m.PutFeature(FeatureRecord{Name: "posts"})
	m.PutFeature(FeatureRecord{Name: "articles"})
	m.PutFeature(FeatureRecord{Name: "posts", Migrated: true})

	require.Len(t, m.Features, 2)
	assert.Equal(t, "articles", m.Features[0].Name)

	rec, ok := m.Feature("posts")
	require.True(t, ok)
	assert.True(t, rec.Migrated)

	c := m.Clone()
	c.PutFeature(FeatureRecord{Name: "zebras"})
	c.Record("x", []byte("x"))
	assert.Len(t, m.Features, 2)
	assert.Empty(t, m.Files)
}

func TestLoadManifestMissing(t *testing.T) {
	m, err := LoadManifest(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion, m.Version)
	assert.Empty(t, m.Files)
}
