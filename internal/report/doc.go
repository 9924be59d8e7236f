// Package report collects the per-file results and diagnostics of one run
// and prints the run summary.
//
// A Report is safe for concurrent use: feature workers append to it while
// the orchestrator records file results.
package report
