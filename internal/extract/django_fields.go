package extract

import (
	"strings"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/pysrc"
)

// userModelRefs resolve to the default user model.
var userModelRefs = []string{"settings.AUTH_USER_MODEL", "get_user_model", "AUTH_USER_MODEL"}

// fieldReader turns model class assignments into field descriptors.
type fieldReader struct {
	tables *mapping.Tables
	model  string
	class  *pysrc.Class
	module *pysrc.Module
}

// read classifies one class-level assignment. ok is false for assignments
// that are not model fields.
func (r *fieldReader) read(a *pysrc.Assign) (descriptor.FieldDescriptor, bool, error) {
	name := a.Target
	if name == "" || strings.ContainsAny(name, ". ,[") || strings.HasPrefix(name, "_") || name == "objects" {
		return descriptor.FieldDescriptor{}, false, nil
	}

	call := a.Value
	if call == nil || call.Kind != pysrc.ExprCall {
		return descriptor.FieldDescriptor{}, false, nil
	}

	callee := call.CallName()
	class := common.LastSegment(callee)

	sc, ok := r.tables.Django(class)
	if !ok {
		if strings.HasSuffix(class, "Manager") || !(strings.HasPrefix(callee, "models.") || strings.HasSuffix(class, "Field")) {
			return descriptor.FieldDescriptor{}, false, nil
		}

		return descriptor.FieldDescriptor{}, false, &diagnostic.UnsupportedFieldTypeError{
			Model: r.model,
			Field: name,
			Type:  class,
		}
	}

	f := descriptor.FieldDescriptor{
		Name:         name,
		SourceType:   sc.Type,
		Format:       sc.Format,
		RelationKind: sc.Relation,
	}

	if kwBool(call, "null") || kwBool(call, "blank") {
		f.Nullable = true
	}

	if def, ok := call.Kwarg("default"); ok {
		f.HasDefault = true

		if lit, ok := def.LiteralText(); ok {
			f.Default = &lit
		}
	}

	if kwBool(call, "primary_key") || strings.HasSuffix(class, "AutoField") {
		f.PrimaryKey = true
		f.ReadOnly = true
	}

	if kwBool(call, "auto_now") || kwBool(call, "auto_now_add") {
		f.ReadOnly = true
		f.HasDefault = true
	}

	if v, ok := call.Kwarg("editable"); ok {
		if editable, ok := v.BoolValue(); ok && !editable {
			f.ReadOnly = true
		}
	}

	if v, ok := call.Kwarg("help_text"); ok {
		f.Description, _ = v.StringValue()
	}

	if v, ok := call.Kwarg("max_length"); ok {
		f.MaxLength, _ = v.IntValue()
	}

	if v, ok := call.Kwarg("choices"); ok {
		if choices, ok := r.choices(v); ok && f.SourceType == descriptor.SourceString && f.Format == "" {
			f.SourceType = descriptor.SourceEnum
			f.Choices = choices
		}
	}

	if f.IsRelation() {
		f.RelationTarget = r.relationTarget(call)
	}

	return f, true, nil
}

// choices resolves a choices argument: an inline literal, a module or class
// constant, or the .choices of a TextChoices class.
func (r *fieldReader) choices(e *pysrc.Expr) ([]string, bool) {
	if values, ok := e.ChoiceValues(); ok {
		return values, true
	}

	dotted := e.Dotted()
	if dotted == "" {
		return nil, false
	}

	if holder, ok := strings.CutSuffix(dotted, ".choices"); ok {
		c, ok := r.lookupClass(common.LastSegment(holder))
		if !ok {
			return nil, false
		}

		return enumMembers(c), true
	}

	if a, ok := r.class.Assign(dotted); ok {
		return a.Value.ChoiceValues()
	}

	if a, ok := r.module.Assign(dotted); ok {
		return a.Value.ChoiceValues()
	}

	return nil, false
}

func (r *fieldReader) lookupClass(name string) (*pysrc.Class, bool) {
	if c, ok := r.class.Class(name); ok {
		return c, true
	}

	return r.module.Class(name)
}

// enumMembers returns the stored values of a TextChoices style class.
func enumMembers(c *pysrc.Class) []string {
	var out []string

	for _, a := range c.Assigns() {
		if strings.HasPrefix(a.Target, "_") || a.Value == nil {
			continue
		}

		v := a.Value
		if (v.Kind == pysrc.ExprTuple || v.Kind == pysrc.ExprList) && len(v.Elems) > 0 {
			v = v.Elems[0]
		}

		if s, ok := v.StringValue(); ok {
			out = append(out, s)
		} else if lit, ok := v.LiteralText(); ok {
			out = append(out, lit)
		}
	}

	return out
}

// relationTarget resolves the referenced model name of a relation field.
func (r *fieldReader) relationTarget(call *pysrc.Expr) string {
	to, ok := call.Kwarg("to")
	if !ok {
		to, ok = call.Arg(0)
	}

	if !ok {
		return ""
	}

	if s, ok := to.StringValue(); ok {
		if s == "self" {
			return r.model
		}

		return common.LastSegment(s)
	}

	ref := to.Dotted()
	if to.Kind == pysrc.ExprCall {
		ref = to.CallName()
	}

	for _, u := range userModelRefs {
		if ref == u || strings.HasSuffix(ref, "."+u) {
			return "User"
		}
	}

	return common.LastSegment(ref)
}

func kwBool(call *pysrc.Expr, name string) bool {
	v, ok := call.Kwarg(name)
	if !ok {
		return false
	}

	b, _ := v.BoolValue()

	return b
}
