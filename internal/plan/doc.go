// Package plan turns rendered artifacts into a change-set and applies it.
//
// Orchestration per invocation:
//  1. PARSE, MAP and RENDER are delegated to a Pipeline
//  2. PLAN compares every artifact with the disk and the manifest of the
//     last generation:
//     - missing file → create
//     - same content → skip ("unchanged")
//     - disk matches the recorded hash → overwrite
//     - anything else → overwrite, marked as a conflict
//  3. DRY_RUN_REPORT reports the change-set and touches nothing
//  4. APPLY writes every entry, demoting conflicts to skip unless forced,
//     then records the new hashes in the manifest
package plan
