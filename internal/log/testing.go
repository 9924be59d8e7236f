package log

import (
	"fmt"
	"strings"
)

// TB is the part of testing.TB the Testing logger needs.
type TB interface {
	Logf(string, ...any)
	Helper()
}

// Testing logs into the test output. It never fails the test, so code
// under test may log errors it recovers from.
type Testing struct {
	TB
	Tags []any
}

func (l *Testing) Debug(m string, kv ...any) { l.Helper(); l.Logf("%s", tfmt("DEB ", m, l.Tags, kv)) }
func (l *Testing) Info(m string, kv ...any)  { l.Helper(); l.Logf("%s", tfmt("INF ", m, l.Tags, kv)) }
func (l *Testing) Warn(m string, kv ...any)  { l.Helper(); l.Logf("%s", tfmt("WRN ", m, l.Tags, kv)) }
func (l *Testing) Error(m string, kv ...any) { l.Helper(); l.Logf("%s", tfmt("ERR ", m, l.Tags, kv)) }

func (l *Testing) With(tags ...any) Logger {
	t := make([]any, 0, len(tags)+len(l.Tags))
	t = append(t, l.Tags...)
	t = append(t, tags...)

	return &Testing{TB: l.TB, Tags: t}
}

func tfmt(lvl, msg string, all ...[]any) string {
	var b strings.Builder

	b.WriteString(lvl)
	b.WriteString(msg)

	for _, tags := range all {
		for i, v := range tags {
			if i%2 == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte('=')
			}

			b.WriteString(fmt.Sprint(v))
		}
	}

	return b.String()
}
