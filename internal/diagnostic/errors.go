package diagnostic

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic codes for the engine's error taxonomy.
const (
	CodeNotFound             = "not_found"
	CodeParse                = "parse_error"
	CodeUnsupportedConstruct = "unsupported_construct"
	CodeUnsupportedFieldType = "unsupported_field_type"
	CodeRender               = "render_error"
	CodeConflict             = "conflict"
	CodeWrite                = "write_error"
	CodeConfig               = "config_error"
)

// NotFoundError reports a model, app or feature that cannot be resolved.
// It is fatal: the run aborts before any file is touched.
type NotFoundError struct {
	Kind        string // "model", "app", "feature"
	Name        string
	Where       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	if e.Where != "" {
		msg += " in " + e.Where
	}

	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}

	return msg
}

// ParseError reports legacy source that is too malformed to build any descriptor.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}

	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// UnsupportedConstructError reports a recognized but unmappable field or
// operation. The owning operation is skipped.
type UnsupportedConstructError struct {
	Construct string
	Operation string
	Field     string
	Reason    string
}

func (e *UnsupportedConstructError) Error() string {
	var b strings.Builder

	b.WriteString(e.Construct)

	if e.Operation != "" {
		b.WriteString(" operation " + e.Operation)
	}

	if e.Field != "" {
		b.WriteString(" field " + e.Field)
	}

	b.WriteString(": ")
	b.WriteString(e.Reason)

	return b.String()
}

// UnsupportedFieldTypeError reports a model field whose declared type has no
// entry in the type mapping tables.
type UnsupportedFieldTypeError struct {
	Model string
	Field string
	Type  string
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("model %s field %s: unsupported field type %q", e.Model, e.Field, e.Type)
}

// RenderError reports a descriptor that is missing data a template needs.
type RenderError struct {
	Artifact string
	Field    string
	Err      error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s: %v", e.Artifact, e.Err)
	}

	return fmt.Sprintf("render %s: missing %s", e.Artifact, e.Field)
}

func (e *RenderError) Unwrap() error { return e.Err }

// ConflictError reports an on-disk file that diverges from the last generated snapshot.
type ConflictError struct {
	Path   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// WriteError reports an I/O failure for a single output file.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration value. It is fatal.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Msg)
}

// FromError converts an engine error into a diagnostic with the given severity.
// Errors outside the taxonomy keep their message and get no code.
func FromError(err error, severity DiagnosticSeverity) Diagnostic {
	d := Diagnostic{Severity: severity, Message: err.Error()}

	var (
		notFound    *NotFoundError
		parse       *ParseError
		unsupported *UnsupportedConstructError
		fieldType   *UnsupportedFieldTypeError
		render      *RenderError
		conflict    *ConflictError
		write       *WriteError
		cfg         *ConfigError
	)

	switch {
	case errors.As(err, &notFound):
		d.Code = CodeNotFound
		d.Subject = notFound.Name
		d.Suggestions = notFound.Suggestions
		d.Message = fmt.Sprintf("%s %q not found", notFound.Kind, notFound.Name)
	case errors.As(err, &parse):
		d.Code = CodeParse
		d.Path = parse.File
	case errors.As(err, &unsupported):
		d.Code = CodeUnsupportedConstruct
		d.Subject = unsupported.Construct
		d.Field = unsupported.Field
		d.Message = unsupported.Reason
		if unsupported.Operation != "" {
			d.Message = fmt.Sprintf("operation %s skipped: %s", unsupported.Operation, unsupported.Reason)
		}
	case errors.As(err, &fieldType):
		d.Code = CodeUnsupportedFieldType
		d.Subject = fieldType.Model
		d.Field = fieldType.Field
	case errors.As(err, &render):
		d.Code = CodeRender
		d.Path = render.Artifact
	case errors.As(err, &conflict):
		d.Code = CodeConflict
		d.Path = conflict.Path
		d.Message = conflict.Reason
	case errors.As(err, &write):
		d.Code = CodeWrite
		d.Path = write.Path
	case errors.As(err, &cfg):
		d.Code = CodeConfig
		d.Field = cfg.Key
	}

	return d
}

// IsFatal reports whether err must abort the whole invocation before any write.
func IsFatal(err error) bool {
	var (
		notFound *NotFoundError
		cfg      *ConfigError
	)

	return errors.As(err, &notFound) || errors.As(err, &cfg)
}
