package mapping

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
)

// route derives the route of one operation.
func (b *builder) route(op descriptor.Operation, pk SchemaField) RouteDescriptor {
	base := strings.TrimSuffix(b.cfg.Project.APIPrefix, "/") + "/" + b.feature

	r := RouteDescriptor{
		Operation:   op,
		OperationID: b.feature + "_" + string(op),
		Tag:         b.feature,
		Status:      http.StatusOK,
	}

	if op.ItemLevel() {
		r.Path = "/{" + pk.Name + "}"
		r.FullPath = base + r.Path
		r.Params = []Param{{
			Name:       pk.Name,
			In:         InPath,
			SchemaType: pk.SchemaType,
			WireType:   pk.WireType,
			JSON:       JSONSchema{Type: pk.JSON.Type, Format: pk.JSON.Format},
			Required:   true,
		}}
	} else {
		r.Path = "/"
		r.FullPath = base + "/"
	}

	output := b.schemaName(RoleOutput)

	switch op {
	case descriptor.OpList:
		r.Method = http.MethodGet
		r.Summary = "List " + b.model.Name + " objects"
		r.Response = b.schemaName(RoleList)
		r.Ordering = b.orderingKeys()
		r.DefaultOrdering = b.defaultOrdering(r.Ordering, pk.Name)
		r.Params = b.paginationParams(r.DefaultOrdering)
	case descriptor.OpRetrieve:
		r.Method = http.MethodGet
		r.Summary = "Retrieve a " + b.model.Name
		r.Response = output
	case descriptor.OpCreate:
		r.Method = http.MethodPost
		r.Summary = "Create a " + b.model.Name
		r.Request = b.schemaName(RoleCreate)
		r.Response = output
		r.Status = http.StatusCreated
	case descriptor.OpUpdate:
		r.Method = b.cfg.UpdateVerb()
		r.Summary = "Update a " + b.model.Name
		r.Request = b.schemaName(RoleUpdate)
		r.Response = output
	case descriptor.OpDelete:
		r.Method = http.MethodDelete
		r.Summary = "Delete a " + b.model.Name
		r.Status = http.StatusNoContent
	}

	return r
}

func (b *builder) paginationParams(ordering string) []Param {
	zero, one := 0, 1
	maxSize := b.cfg.Templates.MaxPageSize
	def := strconv.Itoa(b.cfg.Templates.PaginationLimit)

	return []Param{
		{
			Name:        "offset",
			In:          InQuery,
			SchemaType:  "int",
			WireType:    "number",
			JSON:        JSONSchema{Type: "integer", Default: "0"},
			Default:     "0",
			Min:         &zero,
			Description: "Number of objects to skip",
		},
		{
			Name:        "limit",
			In:          InQuery,
			SchemaType:  "int",
			WireType:    "number",
			JSON:        JSONSchema{Type: "integer", Default: def},
			Default:     def,
			Min:         &one,
			Max:         &maxSize,
			Description: "Maximum number of objects to return",
		},
		{
			Name:        "ordering",
			In:          InQuery,
			SchemaType:  "str",
			WireType:    "string",
			JSON:        JSONSchema{Type: "string", Default: strconv.Quote(ordering)},
			Default:     strconv.Quote(ordering),
			Description: "Field to order by, prefixed with '-' for descending order",
		},
	}
}

// orderingKeys lists the model fields a list may be ordered by.
func (b *builder) orderingKeys() []string {
	var keys []string

	for _, p := range b.plans {
		f := p.field
		if !p.output || !f.Recognized() || f.RelationKind.Many() {
			continue
		}

		keys = append(keys, f.Name)
	}

	return keys
}

// defaultOrdering validates the configured ordering against the model and
// falls back to descending primary key.
func (b *builder) defaultOrdering(keys []string, pk string) string {
	ordering := b.cfg.Templates.DefaultOrdering
	name := strings.TrimPrefix(ordering, "-")

	for _, k := range keys {
		if k == name {
			return ordering
		}
	}

	fallback := "-" + pk
	b.diags.Add(diagnostic.Diagnostic{
		Severity: diagnostic.DiagnosticWarning,
		Code:     CodeDefaultOrdering,
		Message:  fmt.Sprintf("default ordering %q is not a field of %s, using %q", ordering, b.model.Name, fallback),
		Subject:  b.feature,
		Field:    name,
	})

	return fallback
}
