package render

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/mapping"
)

// OpenAPIVersion is the version of the published document format.
const OpenAPIVersion = "3.1.0"

type openAPIDoc struct {
	OpenAPI    string                           `json:"openapi"`
	Info       openAPIInfo                      `json:"info"`
	Paths      map[string]map[string]*operation `json:"paths"`
	Components components                       `json:"components"`
}

type openAPIInfo struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Generator   string `json:"x-generator"`
}

type operation struct {
	OperationID string                `json:"operationId"`
	Summary     string                `json:"summary,omitempty"`
	Tags        []string              `json:"tags"`
	Parameters  []parameter           `json:"parameters,omitempty"`
	RequestBody *requestBody          `json:"requestBody,omitempty"`
	Responses   map[string]response   `json:"responses"`
	Security    []map[string][]string `json:"security,omitempty"`
}

type parameter struct {
	Name        string         `json:"name"`
	In          string         `json:"in"`
	Required    bool           `json:"required"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
}

type requestBody struct {
	Content  map[string]mediaType `json:"content"`
	Required bool                 `json:"required"`
}

type mediaType struct {
	Schema map[string]any `json:"schema"`
}

type response struct {
	Description string               `json:"description"`
	Content     map[string]mediaType `json:"content,omitempty"`
}

type components struct {
	Schemas         map[string]map[string]any `json:"schemas"`
	SecuritySchemes map[string]any            `json:"securitySchemes,omitempty"`
}

const jsonContent = "application/json"

// OpenAPI builds the OpenAPI document of every feature. Paths and schemas
// are JSON objects, so the output does not depend on feature order.
func OpenAPI(cfg *config.Config, features []*mapping.FeatureDescriptor) ([]byte, error) {
	title := cfg.Project.Name
	if title == "" {
		title = cfg.Project.DjangoApp
	}

	doc := openAPIDoc{
		OpenAPI: OpenAPIVersion,
		Info: openAPIInfo{
			Title:       title,
			Version:     cfg.Project.APIVersion,
			Description: cfg.Project.APIDescription,
			Generator:   Generator + " templates v" + TemplateVersion,
		},
		Paths:      map[string]map[string]*operation{},
		Components: components{Schemas: map[string]map[string]any{}},
	}

	var security []map[string][]string

	if cfg.Ninja.AuthEnabled {
		name := cfg.Ninja.AuthClass
		doc.Components.SecuritySchemes = map[string]any{name: securityScheme(name)}
		security = []map[string][]string{{name: {}}}
	}

	for _, fd := range features {
		for i := range fd.Schemas {
			s := &fd.Schemas[i]
			obj := objectSchema(s)

			if prev, ok := doc.Components.Schemas[s.Name]; ok && !reflect.DeepEqual(prev, obj) {
				return nil, errors.Errorf("schema %s of feature %s differs from a schema of the same name", s.Name, fd.Name)
			}

			doc.Components.Schemas[s.Name] = obj
		}

		for _, route := range fd.Routes {
			op := &operation{
				OperationID: route.OperationID,
				Summary:     route.Summary,
				Tags:        []string{route.Tag},
				Responses:   map[string]response{},
				Security:    security,
			}

			for _, p := range route.Params {
				op.Parameters = append(op.Parameters, paramSchema(p))
			}

			if route.Request != "" {
				op.RequestBody = &requestBody{
					Content:  map[string]mediaType{jsonContent: {Schema: refSchema(route.Request)}},
					Required: true,
				}
			}

			resp := response{Description: http.StatusText(route.Status)}
			if route.Response != "" {
				resp.Content = map[string]mediaType{jsonContent: {Schema: refSchema(route.Response)}}
			}

			op.Responses[strconv.Itoa(route.Status)] = resp

			if route.Operation.ItemLevel() {
				op.Responses[strconv.Itoa(http.StatusNotFound)] = response{Description: http.StatusText(http.StatusNotFound)}
			}

			if doc.Paths[route.FullPath] == nil {
				doc.Paths[route.FullPath] = map[string]*operation{}
			}

			doc.Paths[route.FullPath][strings.ToLower(route.Method)] = op
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(out, '\n'), nil
}

func securityScheme(class string) map[string]any {
	if strings.Contains(class, "JWT") || strings.Contains(class, "Bearer") {
		return map[string]any{"type": "http", "scheme": "bearer"}
	}

	return map[string]any{"type": "apiKey", "in": "header", "name": "Authorization"}
}

func objectSchema(s *mapping.SchemaDescriptor) map[string]any {
	props := map[string]any{}

	var required []string

	for _, f := range s.Fields {
		key := wireKey(f)

		prop := jsonSchema(f.JSON)
		if f.Description != "" {
			prop["description"] = f.Description
		}

		props[key] = prop

		if f.Required {
			required = append(required, key)
		}
	}

	obj := map[string]any{
		"title":      s.Name,
		"type":       "object",
		"properties": props,
	}

	if s.Description != "" {
		obj["description"] = s.Description
	}

	if len(required) > 0 {
		obj["required"] = required
	}

	return obj
}

func paramSchema(p mapping.Param) parameter {
	schema := jsonSchema(p.JSON)

	if p.Min != nil {
		schema["minimum"] = *p.Min
	}

	if p.Max != nil {
		schema["maximum"] = *p.Max
	}

	return parameter{
		Name:        p.Name,
		In:          string(p.In),
		Required:    p.Required,
		Description: p.Description,
		Schema:      schema,
	}
}

func refSchema(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

// jsonSchema converts a field shape to a JSON Schema object. Nullable
// values use the OpenAPI 3.1 forms: a "null" type or an anyOf around a ref.
func jsonSchema(s mapping.JSONSchema) map[string]any {
	if s.Ref != "" {
		if s.Nullable {
			return map[string]any{"anyOf": []any{refSchema(s.Ref), map[string]any{"type": "null"}}}
		}

		return refSchema(s.Ref)
	}

	out := map[string]any{}

	if s.Type != "" {
		if s.Nullable {
			out["type"] = []string{s.Type, "null"}
		} else {
			out["type"] = s.Type
		}
	}

	if s.Format != "" {
		out["format"] = s.Format
	}

	if s.Items != nil {
		out["items"] = jsonSchema(*s.Items)
	}

	if len(s.Enum) > 0 {
		values := make([]any, 0, len(s.Enum)+1)
		for _, v := range s.Enum {
			values = append(values, v)
		}

		if s.Nullable {
			values = append(values, nil)
		}

		out["enum"] = values
	}

	if s.MaxLength > 0 {
		out["maxLength"] = s.MaxLength
	}

	if s.Default != "" && json.Valid([]byte(s.Default)) {
		out["default"] = json.RawMessage(s.Default)
	}

	return out
}
