// Package forge wires extraction, mapping, rendering and the orchestrator
// into the three commands of the tool.
//
//   - Init renders the project skeleton and creates the frontend directories
//   - Generate maps one model to a feature with the requested operations
//   - Migrate translates the serializers and view-sets of a legacy app
//
// Every command runs through plan.Orchestrator, so dry-run, conflict
// detection and backups behave the same for all of them. The features of
// earlier runs are read back from the manifest to keep the shared router,
// OpenAPI document and wrappers complete.
package forge
