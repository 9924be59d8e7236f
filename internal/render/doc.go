// Package render turns feature descriptors into generated source files.
//
// Templates are embedded text/template files executed with
// missingkey=error. All data a template prints is prepared in Go view
// models, so templates only lay out lines.
//
// Artifacts:
//   - per feature: schema.py, views.py, __init__.py, TypeScript types,
//     TypeScript API wrapper, state helper and list component
//   - shared: api.py, base_schemas.py, pagination_utils.py, the OpenAPI
//     document and fetchWrapper.ts
//   - scaffold: configuration file, package __init__.py files and
//     orval.config.ts
//
// Every artifact starts with a fixed header naming the template version.
// Output is byte-identical for identical input.
package render
