package legacy

import (
	"fmt"
	"slices"
	"strings"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/pysrc"
)

// mixinOperations maps DRF mixins to the operation they provide.
var mixinOperations = map[string]descriptor.Operation{
	"ListModelMixin":     descriptor.OpList,
	"RetrieveModelMixin": descriptor.OpRetrieve,
	"CreateModelMixin":   descriptor.OpCreate,
	"UpdateModelMixin":   descriptor.OpUpdate,
	"DestroyModelMixin":  descriptor.OpDelete,
}

// handlerOperations maps view-set handler methods to operations.
var handlerOperations = map[string]descriptor.Operation{
	"list":           descriptor.OpList,
	"retrieve":       descriptor.OpRetrieve,
	"create":         descriptor.OpCreate,
	"update":         descriptor.OpUpdate,
	"partial_update": descriptor.OpUpdate,
	"destroy":        descriptor.OpDelete,
}

// operationMethods lists the HTTP methods that can serve each operation.
var operationMethods = map[descriptor.Operation][]string{
	descriptor.OpList:     {"get"},
	descriptor.OpRetrieve: {"get"},
	descriptor.OpCreate:   {"post"},
	descriptor.OpUpdate:   {"put", "patch"},
	descriptor.OpDelete:   {"delete"},
}

// viewSetSettings are class attributes whose behavior is not translated.
var viewSetSettings = []string{
	"permission_classes",
	"authentication_classes",
	"throttle_classes",
	"filter_backends",
	"filterset_fields",
	"filterset_class",
	"search_fields",
	"pagination_class",
	"parser_classes",
	"renderer_classes",
}

// viewSetHooks are methods whose logic is not translated.
var viewSetHooks = []string{
	"get_queryset",
	"get_object",
	"get_serializer_class",
	"perform_create",
	"perform_update",
	"perform_destroy",
}

func (p *Parser) viewSet(file string, c *pysrc.Class) descriptor.LegacyConstructDescriptor {
	d := descriptor.LegacyConstructDescriptor{
		Kind: descriptor.KindViewSet,
		Name: c.Name,
		File: file,
		Line: c.Line,
	}

	d.DeclaredOperations = viewSetOperations(c)

	if a, ok := c.Assign("queryset"); ok {
		d.TargetModel = a.Value.Root()
	}

	if a, ok := c.Assign("serializer_class"); ok {
		d.SerializerRef = common.LastSegment(a.Value.Dotted())
	}

	if a, ok := c.Assign("http_method_names"); ok {
		if methods, ok := a.Value.StringList(); ok {
			d.DeclaredOperations = narrow(d.DeclaredOperations, methods)
		} else {
			d.Issues = append(d.Issues, descriptor.Issue{
				Subject: "http_method_names",
				Reason:  fmt.Sprintf("%s is not a literal list", a.Value.Raw),
				Line:    a.Line,
			})
		}
	}

	for _, name := range viewSetSettings {
		if a, ok := c.Assign(name); ok {
			d.Issues = append(d.Issues, descriptor.Issue{
				Subject: name,
				Reason:  fmt.Sprintf("%s = %s is not translated", name, a.Value.Raw),
				Line:    a.Line,
			})
		}
	}

	for _, fn := range c.Funcs() {
		switch {
		case fn.HasDecorator("action"):
			d.Issues = append(d.Issues, descriptor.Issue{
				Subject: fn.Name,
				Reason:  fmt.Sprintf("custom action %s is not translated", fn.Name),
				Line:    fn.Line,
			})
		case slices.Contains(viewSetHooks, fn.Name):
			d.Issues = append(d.Issues, descriptor.Issue{
				Subject: fn.Name,
				Reason:  fmt.Sprintf("custom %s logic is not translated", fn.Name),
				Line:    fn.Line,
			})
		}
	}

	d.Recognized = recognized(&d)

	return d
}

// viewSetOperations derives the operations a view-set exposes from its
// bases, falling back to the handler methods it defines.
func viewSetOperations(c *pysrc.Class) descriptor.OperationSet {
	var ops []descriptor.Operation

	for _, b := range c.BaseNames() {
		base := common.LastSegment(b)

		switch {
		case strings.Contains(base, "ReadOnlyModelViewSet"):
			ops = append(ops, descriptor.OpList, descriptor.OpRetrieve)
		case strings.Contains(base, "ModelViewSet"):
			ops = append(ops, descriptor.AllOperations...)
		default:
			if op, ok := mixinOperations[base]; ok {
				ops = append(ops, op)
			}
		}
	}

	for _, fn := range c.Funcs() {
		if fn.HasDecorator("action") {
			continue
		}

		if op, ok := handlerOperations[fn.Name]; ok {
			ops = append(ops, op)
		}
	}

	return descriptor.NewOperationSet(ops...)
}

// narrow keeps the operations served by at least one allowed HTTP method.
func narrow(ops descriptor.OperationSet, methods []string) descriptor.OperationSet {
	var kept []descriptor.Operation

	for _, op := range ops {
		for _, m := range operationMethods[op] {
			if slices.ContainsFunc(methods, func(allowed string) bool { return strings.EqualFold(allowed, m) }) {
				kept = append(kept, op)
				break
			}
		}
	}

	return descriptor.NewOperationSet(kept...)
}
