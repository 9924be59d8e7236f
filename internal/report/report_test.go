package report

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/diagnostic"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name      string
		fill      func(r *Report)
		threshold int
		want      int
	}{
		{"empty", func(*Report) {}, 0, ExitOK},
		{"created", func(r *Report) { r.AddFile(File{Path: "a.py", Outcome: OutcomeCreated}) }, 0, ExitOK},
		{"unchanged skip", func(r *Report) {
			r.AddFile(File{Path: "a.py", Outcome: OutcomeSkipped, Reason: "unchanged"})
		}, 0, ExitOK},
		{"conflict over threshold", func(r *Report) {
			r.AddFile(File{Path: "a.py", Outcome: OutcomeSkipped, Conflict: true})
		}, 0, ExitConflict},
		{"conflict within threshold", func(r *Report) {
			r.AddFile(File{Path: "a.py", Outcome: OutcomeSkipped, Conflict: true})
		}, 1, ExitOK},
		{"failed file", func(r *Report) {
			r.AddFile(File{Path: "a.py", Outcome: OutcomeFailed, Err: errors.New("disk full")})
			r.AddFile(File{Path: "b.py", Outcome: OutcomeSkipped, Conflict: true})
		}, 0, ExitError},
		{"error diagnostic", func(r *Report) {
			r.AddError(&diagnostic.RenderError{Artifact: "x.py", Field: "routes"}, diagnostic.DiagnosticError)
		}, 0, ExitError},
		{"warning only", func(r *Report) {
			r.AddError(&diagnostic.UnsupportedConstructError{Construct: "PostSerializer", Reason: "r"},
				diagnostic.DiagnosticWarning)
		}, 0, ExitOK},
		{"fatal", func(r *Report) { r.Fail(&diagnostic.NotFoundError{Kind: "model", Name: "User"}) }, 0, ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("run", false)
			tt.fill(r)
			assert.Equal(t, tt.want, r.ExitCode(tt.threshold))
		})
	}
}

func TestConcurrentAppend(t *testing.T) {
	r := New("run", false)

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			r.AddFile(File{Path: fmt.Sprintf("f%02d.py", i), Outcome: OutcomeCreated})
			r.Add(diagnostic.Diagnostic{Severity: diagnostic.DiagnosticInfo, Message: "done"})
		}()
	}

	wg.Wait()

	files := r.Files()
	require.Len(t, files, 50)
	assert.Equal(t, "f00.py", files[0].Path)
	assert.Equal(t, "f49.py", files[49].Path)
	assert.Len(t, r.Diagnostics().Infos, 50)
	assert.Equal(t, 50, r.Counts().Created)
}

func TestFail(t *testing.T) {
	r := New("run", false)
	first := &diagnostic.ConfigError{Key: "ninja.update_method", Msg: "must be patch or put"}

	r.Fail(first)
	r.Fail(errors.New("later"))

	assert.Equal(t, first, r.Fatal())
	require.Len(t, r.Diagnostics().Errors, 2)
	assert.Equal(t, diagnostic.CodeConfig, r.Diagnostics().Errors[0].Code)
}

func TestPrint(t *testing.T) {
	r := New("abc", false)
	r.AddFile(File{Path: "b.py", Outcome: OutcomeOverwritten, Backup: "b.py.bak"})
	r.AddFile(File{Path: "a.py", Outcome: OutcomeCreated})
	r.AddFile(File{Path: "c.py", Outcome: OutcomeSkipped, Conflict: true, Reason: "modified since last generation"})
	r.AddFile(File{Path: "d.py", Outcome: OutcomeSkipped, Reason: "unchanged"})
	r.AddFile(File{Path: "e.py", Outcome: OutcomeFailed, Err: errors.New("permission denied")})
	r.AddError(&diagnostic.ConflictError{Path: "c.py", Reason: "modified since last generation"}, diagnostic.DiagnosticWarning)

	var b strings.Builder
	require.NoError(t, r.Print(&b))

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "run abc\n"))
	assert.Contains(t, out, "  created      a.py\n")
	assert.Contains(t, out, "  overwritten  b.py [backup b.py.bak]\n")
	assert.Contains(t, out, "  skipped      c.py (conflict: modified since last generation)\n")
	assert.Contains(t, out, "  skipped      d.py (unchanged)\n")
	assert.Contains(t, out, "  failed       e.py: permission denied\n")
	assert.Contains(t, out, "warnings:\n  - c.py: [conflict] modified since last generation\n")
	assert.Contains(t, out, "summary: 1 created, 1 overwritten, 2 skipped (1 conflicts), 1 failed; 0 errors, 1 warnings\n")
	assert.Less(t, strings.Index(out, "a.py"), strings.Index(out, "b.py"))
}

func TestPrintDryRun(t *testing.T) {
	r := New("abc", true)
	r.AddFile(File{Path: "a.py", Outcome: OutcomePlanned, Action: "create"})

	var b strings.Builder
	require.NoError(t, r.Print(&b))

	assert.Contains(t, b.String(), "run abc (dry run, nothing written)\n")
	assert.Contains(t, b.String(), "  create       a.py\n")
	assert.Contains(t, b.String(), "summary: 1 planned; 0 errors, 0 warnings\n")
}
