package log

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLevels(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, false).With("run", "r1")
	l.Debug("hidden")
	l.Info("planned", "files", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "planned")
	assert.Contains(t, out, `"files": 3`)
	assert.Contains(t, out, `"run": "r1"`)

	buf.Reset()
	New(&buf, true).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestTfmt(t *testing.T) {
	assert.Equal(t, "INF msg a=1 b=x", tfmt("INF ", "msg", []any{"a", 1}, []any{"b", "x"}))
}

type recorder struct {
	lines []string
}

func (r *recorder) Logf(format string, args ...any) {
	r.lines = append(r.lines, args[0].(string))
}

func (r *recorder) Helper() {}

func TestTestingLogger(t *testing.T) {
	rec := &recorder{}

	var l Logger = &Testing{TB: rec}
	l = l.With("run", "abc")
	l.Error("write failed", "path", "a.py")

	require.Len(t, rec.lines, 1)
	assert.Equal(t, "ERR write failed run=abc path=a.py", rec.lines[0])
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}
