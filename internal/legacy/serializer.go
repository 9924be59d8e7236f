package legacy

import (
	"fmt"
	"slices"
	"strings"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/pysrc"
)

// serializerHooks are methods whose logic is never translated.
var serializerHooks = []string{"create", "update", "to_representation", "to_internal_value", "save"}

func (p *Parser) serializer(file string, mod *pysrc.Module, c *pysrc.Class) descriptor.LegacyConstructDescriptor {
	d := descriptor.LegacyConstructDescriptor{
		Kind: descriptor.KindSerializer,
		Name: c.Name,
		File: file,
		Line: c.Line,
	}

	if meta, ok := c.Class("Meta"); ok {
		readMeta(&d, meta)
	}

	for _, a := range c.Assigns() {
		if f, ok := p.declaredField(mod, a); ok {
			d.DeclaredFields = append(d.DeclaredFields, f)
		}
	}

	for _, fn := range c.Funcs() {
		if strings.HasPrefix(fn.Name, "validate") || slices.Contains(serializerHooks, fn.Name) {
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

func readMeta(d *descriptor.LegacyConstructDescriptor, meta *pysrc.Class) {
	if a, ok := meta.Assign("model"); ok {
		d.TargetModel = common.LastSegment(a.Value.Dotted())
	}

	if a, ok := meta.Assign("fields"); ok {
		d.FieldNames = metaNames(d, a)
	}

	if a, ok := meta.Assign("exclude"); ok {
		d.Exclude = metaNames(d, a)
	}

	if a, ok := meta.Assign("read_only_fields"); ok {
		d.ReadOnlyFields = metaNames(d, a)
	}

	if _, ok := meta.Assign("depth"); ok {
		d.Issues = append(d.Issues, descriptor.Issue{
			Subject: "Meta.depth",
			Reason:  "nested depth expansion is not translated",
			Line:    meta.Line,
		})
	}
}

// metaNames reads a Meta list option; a non-literal value becomes an issue.
func metaNames(d *descriptor.LegacyConstructDescriptor, a *pysrc.Assign) []string {
	if s, ok := a.Value.StringValue(); ok {
		return []string{s}
	}

	names, ok := a.Value.StringList()
	if !ok {
		d.Issues = append(d.Issues, descriptor.Issue{
			Subject: "Meta." + a.Target,
			Reason:  fmt.Sprintf("%s is not a literal list", a.Value.Raw),
			Line:    a.Line,
		})

		return nil
	}

	return names
}

// declaredField classifies one class-level assignment. ok is false for
// assignments that are not fields.
func (p *Parser) declaredField(mod *pysrc.Module, a *pysrc.Assign) (descriptor.FieldDescriptor, bool) {
	call := a.Value
	if strings.HasPrefix(a.Target, "_") || call == nil || call.Kind != pysrc.ExprCall {
		return descriptor.FieldDescriptor{}, false
	}

	callee := call.CallName()
	class := common.LastSegment(callee)
	f := descriptor.FieldDescriptor{Name: a.Target}

	readOnly := kwBool(call, "read_only")
	many := kwBool(call, "many")

	switch sc, known := p.Tables.Serializer(class); {
	case class == "SerializerMethodField":
		f.SourceType = descriptor.SourceUnknown
		f.Reason = fmt.Sprintf("computed by get_%s", a.Target)
		f.ReadOnly = true

		return f, true
	case known:
		f.SourceType = sc.Type
		f.Format = sc.Format
		f.RelationKind = sc.Relation
	case strings.HasSuffix(class, "Serializer"):
		f.SourceType = descriptor.SourceRelation
		f.RelationKind = descriptor.RelationManyToOne
		f.RelationTarget = strings.TrimSuffix(class, "Serializer")
	case strings.HasPrefix(callee, "serializers.") || strings.HasSuffix(class, "Field"):
		f.SourceType = descriptor.SourceUnknown
		f.Reason = fmt.Sprintf("unsupported serializer field class %s", class)

		return f, true
	default:
		return descriptor.FieldDescriptor{}, false
	}

	f.ReadOnly = readOnly

	if f.IsRelation() {
		if many {
			f.RelationKind = descriptor.RelationManyToMany
		}

		if qs, ok := call.Kwarg("queryset"); ok && f.RelationTarget == "" {
			f.RelationTarget = qs.Root()
		}
	}

	if kwBool(call, "allow_null") {
		f.Nullable = true
	}

	if v, ok := call.Kwarg("required"); ok {
		if required, ok := v.BoolValue(); ok && !required {
			f.HasDefault = true
		}
	}

	if def, ok := call.Kwarg("default"); ok {
		f.HasDefault = true

		if lit, ok := def.LiteralText(); ok {
			f.Default = &lit
		}
	}

	if v, ok := call.Kwarg("help_text"); ok {
		f.Description, _ = v.StringValue()
	}

	if v, ok := call.Kwarg("max_length"); ok {
		f.MaxLength, _ = v.IntValue()
	}

	if v, ok := call.Kwarg("source"); ok {
		if src, _ := v.StringValue(); src != a.Target {
			f.Reason = fmt.Sprintf("source=%s remaps the field", v.Raw)
			if src != "" {
				f.Reason = fmt.Sprintf("source=%q remaps the field", src)
			}
		}
	}

	if f.SourceType == descriptor.SourceEnum {
		choices, ok := call.Kwarg("choices")
		if !ok {
			choices, ok = call.Arg(0)
		}

		if ok {
			values, literal := choiceValues(mod, choices)
			if literal {
				f.Choices = values
			} else {
				f.Reason = fmt.Sprintf("choices %s are not a literal", choices.Raw)
			}
		}
	}

	return f, true
}

// choiceValues resolves inline choices and module-level choice constants.
func choiceValues(mod *pysrc.Module, e *pysrc.Expr) ([]string, bool) {
	if values, ok := e.ChoiceValues(); ok {
		return values, true
	}

	if e.Kind == pysrc.ExprName && !strings.Contains(e.Name, ".") {
		if a, ok := mod.Assign(e.Name); ok {
			return a.Value.ChoiceValues()
		}
	}

	return nil, false
}

func kwBool(call *pysrc.Expr, name string) bool {
	v, ok := call.Kwarg(name)
	if !ok {
		return false
	}

	b, _ := v.BoolValue()

	return b
}
