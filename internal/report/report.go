package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/diagnostic"
)

// Outcome is what happened to one file.
type Outcome int

const (
	// OutcomePlanned marks an entry of a dry run.
	OutcomePlanned Outcome = iota
	OutcomeCreated
	OutcomeOverwritten
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlanned:
		return "planned"
	case OutcomeCreated:
		return "created"
	case OutcomeOverwritten:
		return "overwritten"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return common.UnknownStr
	}
}

// File is the result of one change-set entry.
type File struct {
	Path    string
	Outcome Outcome
	// Action is the planned action; for dry runs it is the only result.
	Action   string
	Conflict bool
	Reason   string
	Backup   string
	Err      error
}

// Report is the append-only sink of one run.
type Report struct {
	RunID  string
	DryRun bool

	mu    sync.Mutex
	files []File
	diags diagnostic.Diagnostics
	fatal error
}

// New returns an empty report for a run.
func New(runID string, dryRun bool) *Report {
	return &Report{RunID: runID, DryRun: dryRun}
}

// AddFile records the result of one file.
func (r *Report) AddFile(f File) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files = append(r.files, f)
}

// Add records a diagnostic.
func (r *Report) Add(d diagnostic.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.diags.Add(d)
}

// Merge records every diagnostic of d. A nil d is ignored.
func (r *Report) Merge(d *diagnostic.Diagnostics) {
	if d == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.diags.Merge(*d)
}

// AddError records err as a diagnostic of the given severity.
func (r *Report) AddError(err error, severity diagnostic.DiagnosticSeverity) {
	r.Add(diagnostic.FromError(err, severity))
}

// Fail records the error that aborted the run.
func (r *Report) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fatal == nil {
		r.fatal = err
	}

	r.diags.Add(diagnostic.FromError(err, diagnostic.DiagnosticError))
}

// Fatal returns the error that aborted the run, if any.
func (r *Report) Fatal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.fatal
}

// Files returns the file results sorted by path.
func (r *Report) Files() []File {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]File, len(r.files))
	copy(out, r.files)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out
}

// Diagnostics returns a copy of the collected diagnostics.
func (r *Report) Diagnostics() diagnostic.Diagnostics {
	r.mu.Lock()
	defer r.mu.Unlock()

	return diagnostic.Diagnostics{
		Errors:   append([]diagnostic.Diagnostic(nil), r.diags.Errors...),
		Warnings: append([]diagnostic.Diagnostic(nil), r.diags.Warnings...),
		Infos:    append([]diagnostic.Diagnostic(nil), r.diags.Infos...),
	}
}

// Counts tallies the file results.
type Counts struct {
	Planned     int
	Created     int
	Overwritten int
	Skipped     int
	Conflicts   int
	Failed      int
}

// Counts returns the tallies of the recorded files.
func (r *Report) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c Counts

	for _, f := range r.files {
		switch f.Outcome {
		case OutcomePlanned:
			c.Planned++
		case OutcomeCreated:
			c.Created++
		case OutcomeOverwritten:
			c.Overwritten++
		case OutcomeSkipped:
			c.Skipped++
			if f.Conflict {
				c.Conflicts++
			}
		case OutcomeFailed:
			c.Failed++
		}
	}

	return c
}

// Exit codes of a run.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitConflict = 2
)

// ExitCode maps the run result to a process exit code: ExitError on a fatal
// error, a failed file or an error diagnostic, ExitConflict when more
// conflicts were skipped than threshold allows, ExitOK otherwise.
func (r *Report) ExitCode(threshold int) int {
	c := r.Counts()

	r.mu.Lock()
	failed := r.fatal != nil || r.diags.HasErrors()
	r.mu.Unlock()

	switch {
	case failed || c.Failed > 0:
		return ExitError
	case c.Conflicts > threshold:
		return ExitConflict
	default:
		return ExitOK
	}
}

// Print writes the human readable run summary.
func (r *Report) Print(w io.Writer) error {
	var b strings.Builder

	mode := ""
	if r.DryRun {
		mode = " (dry run, nothing written)"
	}

	fmt.Fprintf(&b, "run %s%s\n", r.RunID, mode)

	for _, f := range r.Files() {
		label := f.Outcome.String()
		if f.Outcome == OutcomePlanned {
			label = f.Action
		}

		line := fmt.Sprintf("  %-12s %s", label, f.Path)

		switch {
		case f.Err != nil:
			line += ": " + f.Err.Error()
		case f.Conflict:
			line += " (conflict: " + f.Reason + ")"
		case f.Reason != "":
			line += " (" + f.Reason + ")"
		}

		if f.Backup != "" {
			line += " [backup " + f.Backup + "]"
		}

		b.WriteString(line + "\n")
	}

	diags := r.Diagnostics()

	for _, group := range []struct {
		title string
		list  []diagnostic.Diagnostic
	}{
		{"errors", diags.Errors},
		{"warnings", diags.Warnings},
		{"notes", diags.Infos},
	} {
		if len(group.list) == 0 {
			continue
		}

		b.WriteString(group.title + ":\n")

		for _, d := range group.list {
			b.WriteString("  - " + d.String() + "\n")
		}
	}

	c := r.Counts()

	if r.DryRun {
		fmt.Fprintf(&b, "summary: %d planned", c.Planned)
	} else {
		fmt.Fprintf(&b, "summary: %d created, %d overwritten, %d skipped (%d conflicts), %d failed",
			c.Created, c.Overwritten, c.Skipped, c.Conflicts, c.Failed)
	}

	fmt.Fprintf(&b, "; %d errors, %d warnings\n", len(diags.Errors), len(diags.Warnings))

	_, err := io.WriteString(w, b.String())

	return err
}
