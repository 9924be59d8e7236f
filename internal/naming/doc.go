// Package naming provides identifier tokenization, case conventions,
// pluralization, the per-schema key maps that re-key fields between the
// schema layer and the wire layer, and did-you-mean suggestions.
//
// Key functions:
//   - Snake, Camel, Pascal, Kebab: case conventions over one tokenizer
//   - NewKeyMap: a bijective schema key <-> wire key table
//   - FeatureFromClass / ModelFromFeature: legacy class names to feature names
//   - Suggest: ranks candidate names by normalized Levenshtein similarity
package naming
