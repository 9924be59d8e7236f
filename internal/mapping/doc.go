// Package mapping translates descriptors into output-side descriptors.
//
// It is a pure function set:
//   - MapFeature derives schemas and routes from a model descriptor and the
//     requested operations
//   - MapLegacy applies a legacy serializer and view-set on top of the model
//   - Tables holds the data-driven type mapping (tables.yaml)
//
// Field identifiers keep their source names in the schema layer and are
// re-keyed through a per-schema naming.KeyMap in the wire layer.
package mapping
