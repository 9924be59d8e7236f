// Package extract builds model descriptors from static declarations.
//
// Two sources are supported:
//   - Django: model classes in <app>/models.py and <app>/models/*.py, read
//     with pysrc and never imported or executed
//   - GoPackages: exported structs loaded with golang.org/x/tools/go/packages,
//     classified through json and forge struct tags
//
// Both classify declared types through the mapping tables and fail with
// diagnostic.NotFoundError or diagnostic.UnsupportedFieldTypeError.
package extract

import "ninja-orval-forge/internal/descriptor"

// Extractor resolves model names to descriptors.
type Extractor interface {
	// Extract returns the descriptor of the named model.
	Extract(name string) (descriptor.ModelDescriptor, error)
	// Models lists the names of every model the extractor can resolve.
	Models() ([]string, error)
}
