// Package diagnostic provides structured warnings and errors for a
// generation or migration run, and the typed errors of the engine.
//
// Key capabilities:
//   - Accumulating diagnostics without aborting a run
//   - Did-you-mean suggestions for unresolvable names
//   - Typed errors for not-found, parse, unsupported, render, conflict and
//     write failures
package diagnostic
