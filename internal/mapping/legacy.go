package mapping

import (
	"fmt"
	"slices"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
)

// MapLegacy maps a legacy serializer and view-set pair onto the model they
// target. Either construct may be nil: without a view-set every operation
// is derived, without a serializer all model fields are used. Construct
// issues become warnings; operations whose schemas need an unrecognized
// field are skipped with an UnsupportedConstructError diagnostic.
func MapLegacy(
	cfg *config.Config,
	feature string,
	model descriptor.ModelDescriptor,
	serializer, viewset *descriptor.LegacyConstructDescriptor,
) (*FeatureDescriptor, *diagnostic.Diagnostics) {
	construct := model.Name
	if serializer != nil {
		construct = serializer.Name
	}

	var plans []fieldPlan

	if serializer != nil {
		plans = serializerPlans(model, serializer)
	} else {
		for _, f := range model.Fields {
			plans = append(plans, fieldPlan{field: f, output: true, input: !f.ReadOnly})
		}
	}

	b := newBuilder(cfg, feature, model, plans, construct)

	ops := descriptor.NewOperationSet(descriptor.AllOperations...)

	if viewset != nil {
		ops = viewset.DeclaredOperations
	} else {
		b.diags.Addf(diagnostic.DiagnosticInfo, CodeMissingViewSet, feature,
			"no view-set for %s, deriving all operations", construct)
	}

	if serializer == nil {
		b.diags.Addf(diagnostic.DiagnosticWarning, CodeMissingSerializer, feature,
			"no serializer for feature %s, using every field of %s", feature, model.Name)
	}

	for _, c := range []*descriptor.LegacyConstructDescriptor{serializer, viewset} {
		if c == nil {
			continue
		}

		for _, issue := range c.Issues {
			b.diags.Add(diagnostic.Diagnostic{
				Severity: diagnostic.DiagnosticWarning,
				Code:     CodeLegacyIssue,
				Message:  fmt.Sprintf("%s: %s (line %d)", issue.Subject, issue.Reason, issue.Line),
				Subject:  c.Name,
				Path:     c.File,
			})
		}
	}

	fd, diags := b.build(ops)
	if fd != nil {
		fd.Migrated = true

		for _, c := range []*descriptor.LegacyConstructDescriptor{serializer, viewset} {
			if c != nil {
				fd.Source = append(fd.Source, c.Name)
			}
		}
	}

	return fd, diags
}

// serializerPlans applies Meta.fields, Meta.exclude, Meta.read_only_fields
// and declared field overrides to the model fields.
func serializerPlans(model descriptor.ModelDescriptor, s *descriptor.LegacyConstructDescriptor) []fieldPlan {
	var names []string

	if s.FieldNames == nil || s.AllFields() {
		names = model.FieldNames()

		for _, d := range s.DeclaredFields {
			if !slices.Contains(names, d.Name) {
				names = append(names, d.Name)
			}
		}
	} else {
		names = slices.Clone(s.FieldNames)
	}

	plans := make([]fieldPlan, 0, len(names))

	for _, name := range names {
		if slices.Contains(s.Exclude, name) {
			continue
		}

		f, ok := s.DeclaredField(name)
		if ok {
			if mf, found := model.Field(name); found {
				f = mergeDeclared(f, mf)
			}
		} else if f, ok = model.Field(name); !ok {
			f = descriptor.FieldDescriptor{
				Name:       name,
				SourceType: descriptor.SourceUnknown,
				Reason:     fmt.Sprintf("%q is neither declared nor a field of model %s", name, model.Name),
			}
		}

		if slices.Contains(s.ReadOnlyFields, name) {
			f.ReadOnly = true
		}

		plans = append(plans, fieldPlan{field: f, output: true, input: !f.ReadOnly})
	}

	return plans
}

// mergeDeclared fills what a declared serializer field leaves open from the
// model field it overrides.
func mergeDeclared(declared, model descriptor.FieldDescriptor) descriptor.FieldDescriptor {
	if declared.IsRelation() && declared.RelationTarget == "" {
		declared.RelationTarget = model.RelationTarget
	}

	if declared.IsRelation() && declared.RelationKind == descriptor.RelationNone {
		declared.RelationKind = model.RelationKind
	}

	if declared.SourceType == descriptor.SourceEnum && len(declared.Choices) == 0 {
		declared.Choices = model.Choices
	}

	if declared.Description == "" {
		declared.Description = model.Description
	}

	declared.PrimaryKey = model.PrimaryKey
	declared.ReadOnly = declared.ReadOnly || model.ReadOnly

	return declared
}
