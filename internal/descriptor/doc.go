// Package descriptor defines the immutable metadata records shared by the
// extraction, parsing and mapping stages.
//
// Key types:
//   - FieldDescriptor / ModelDescriptor: normalized data model metadata
//   - LegacyConstructDescriptor: a parsed serializer or view-set
//   - OperationSpec: one requested CRUD operation tied to one model
package descriptor
