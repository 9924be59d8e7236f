package forge

import (
	"strings"

	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/naming"
)

// operationAliases maps accepted spellings to operations.
var operationAliases = map[string]descriptor.Operation{
	"get":     descriptor.OpRetrieve,
	"read":    descriptor.OpRetrieve,
	"detail":  descriptor.OpRetrieve,
	"post":    descriptor.OpCreate,
	"patch":   descriptor.OpUpdate,
	"put":     descriptor.OpUpdate,
	"destroy": descriptor.OpDelete,
	"remove":  descriptor.OpDelete,
}

// ParseOperations parses operation names. Each value may hold a comma
// separated list. No names at all selects every operation.
func ParseOperations(values ...string) (descriptor.OperationSet, error) {
	var ops []descriptor.Operation

	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}

			op := descriptor.Operation(name)
			if alias, ok := operationAliases[name]; ok {
				op = alias
			}

			if !op.Valid() {
				known := descriptor.OperationSet(descriptor.AllOperations).Strings()

				return nil, &diagnostic.NotFoundError{
					Kind:        "operation",
					Name:        name,
					Suggestions: naming.Suggest(name, known, 1),
				}
			}

			ops = append(ops, op)
		}
	}

	if len(ops) == 0 {
		return descriptor.NewOperationSet(descriptor.AllOperations...), nil
	}

	return descriptor.NewOperationSet(ops...), nil
}
