// Package config loads the project configuration file, applies .env and
// process environment overrides, validates the result and derives the
// output layout of every generated artifact.
//
// A loaded Config is treated as immutable for the rest of the invocation
// and is threaded explicitly through extraction, mapping and rendering.
package config
