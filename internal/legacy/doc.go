// Package legacy reads Django REST Framework serializers and view-sets into
// LegacyConstructDescriptors.
//
// The parser is static: source is scanned with pysrc and never imported.
// It supports:
//   - serializers: Meta.model, Meta.fields, Meta.exclude, Meta.read_only_fields
//     and declared fields classified through the serializer field table
//   - view-sets: operations from ModelViewSet, ReadOnlyModelViewSet, DRF
//     mixins or handler methods, narrowed by http_method_names
//   - construct issues for everything that carries behavior: custom
//     validation, actions, permission and filter settings, perform_* hooks
//
// ParseApp scans one app directory and pairs view-sets with their
// serializers into migration features.
package legacy
