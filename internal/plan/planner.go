package plan

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"ninja-orval-forge/internal/render"
)

// Plan classifies every artifact against the files under root and the
// manifest of the last generation. Artifacts keep their order; a path
// rendered twice keeps its first artifact.
func Plan(root string, artifacts []render.Artifact, m *Manifest) *ChangeSet {
	cs := &ChangeSet{}
	seen := make(map[string]bool, len(artifacts))

	for _, a := range artifacts {
		if seen[a.Path] {
			continue
		}

		seen[a.Path] = true

		e := Entry{Path: a.Path, Kind: a.Kind, Feature: a.Feature, Content: a.Content}

		disk, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(a.Path)))

		switch {
		case errors.Is(err, fs.ErrNotExist):
			e.Action = ActionCreate
			e.Reason = ReasonNew
		case err != nil:
			e.Action = ActionOverwrite
			e.Conflict = true
			e.Reason = "cannot read existing file: " + err.Error()
		case bytes.Equal(disk, a.Content):
			e.Action = ActionSkip
			e.Reason = ReasonUnchanged
		case m.Recorded(a.Path, disk):
			e.Action = ActionOverwrite
			e.Reason = ReasonGenerated
		default:
			e.Action = ActionOverwrite
			e.Conflict = true
			e.Reason = ReasonUnrecorded

			if _, ok := m.Files[a.Path]; ok {
				e.Reason = ReasonModified
			}
		}

		cs.Entries = append(cs.Entries, e)
	}

	return cs
}
