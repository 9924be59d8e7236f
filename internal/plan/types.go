package plan

import (
	"ninja-orval-forge/internal/render"
)

//go:generate go tool stringer -type=Action -linecomment
//go:generate go tool stringer -type=State -linecomment

// Action is what the writer does with one entry.
type Action int

const (
	ActionCreate    Action = iota // create
	ActionOverwrite               // overwrite
	ActionSkip                    // skip
)

// State is a step of the orchestrator state machine.
type State int

const (
	StateParse        State = iota // PARSE
	StateMap                       // MAP
	StateRender                    // RENDER
	StatePlan                      // PLAN
	StateDryRunReport              // DRY_RUN_REPORT
	StateApply                     // APPLY
)

// Reasons attached to planned entries.
const (
	ReasonUnchanged  = "unchanged"
	ReasonNew        = "new file"
	ReasonGenerated  = "regenerated"
	ReasonModified   = "modified since last generation"
	ReasonUnrecorded = "file exists but was not generated"
)

// Entry is the planned change of one file.
type Entry struct {
	Path    string
	Kind    render.Kind
	Feature string
	Action  Action
	Content []byte
	// Conflict is set when the file on disk is not the one last generated.
	Conflict bool
	Reason   string
}

// ChangeSet is the ordered list of entries of one invocation.
type ChangeSet struct {
	Entries []Entry
}

// Count returns the number of entries with the given action.
func (cs *ChangeSet) Count(action Action) int {
	n := 0

	for _, e := range cs.Entries {
		if e.Action == action {
			n++
		}
	}

	return n
}

// HasChanges reports whether any entry creates or overwrites a file.
func (cs *ChangeSet) HasChanges() bool {
	return cs.TotalChanged() > 0
}

// TotalChanged returns the number of entries that create or overwrite.
func (cs *ChangeSet) TotalChanged() int {
	return cs.Count(ActionCreate) + cs.Count(ActionOverwrite)
}

// Conflicts returns the entries marked as conflicting.
func (cs *ChangeSet) Conflicts() []Entry {
	var out []Entry

	for _, e := range cs.Entries {
		if e.Conflict {
			out = append(out, e)
		}
	}

	return out
}

// Entry returns the entry of a path.
func (cs *ChangeSet) Entry(path string) (Entry, bool) {
	for _, e := range cs.Entries {
		if e.Path == path {
			return e, true
		}
	}

	return Entry{}, false
}

// Paths returns the entry paths in order.
func (cs *ChangeSet) Paths() []string {
	out := make([]string, len(cs.Entries))
	for i, e := range cs.Entries {
		out[i] = e.Path
	}

	return out
}
