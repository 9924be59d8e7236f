package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/mapping"
)

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	return doc
}

func dig(t *testing.T, v any, keys ...string) any {
	t.Helper()

	for _, k := range keys {
		m, ok := v.(map[string]any)
		require.True(t, ok, "no object at %q", k)

		v, ok = m[k]
		require.True(t, ok, "missing key %q", k)
	}

	return v
}

func TestOpenAPI(t *testing.T) {
	cfg := config.Default()
	users := feature(t, cfg, "users", userModel(), descriptor.OpList, descriptor.OpRetrieve)
	posts := feature(t, cfg, "posts", postModel(), descriptor.OpCreate, descriptor.OpDelete)

	data, err := OpenAPI(cfg, []*mapping.FeatureDescriptor{users, posts})
	require.NoError(t, err)

	doc := decode(t, data)
	assert.Equal(t, OpenAPIVersion, doc["openapi"])
	assert.Equal(t, "ninja-orval-forge templates v1", dig(t, doc, "info", "x-generator"))

	list := dig(t, doc, "paths", "/api/v1/users/", "get")
	assert.Equal(t, "users_list", dig(t, list, "operationId"))
	assert.Equal(t, []any{"users"}, dig(t, list, "tags"))
	assert.Equal(t, "#/components/schemas/UserListSchema",
		dig(t, list, "responses", "200", "content", "application/json", "schema", "$ref"))

	params, ok := dig(t, list, "parameters").([]any)
	require.True(t, ok)
	require.Len(t, params, 3)
	assert.Equal(t, "limit", dig(t, params[1], "name"))
	assert.Equal(t, "query", dig(t, params[1], "in"))
	assert.InDelta(t, 100, dig(t, params[1], "schema", "maximum"), 0)
	assert.Equal(t, "-id", dig(t, params[2], "schema", "default"))

	retrieve := dig(t, doc, "paths", "/api/v1/users/{id}", "get")
	assert.Equal(t, "Not Found", dig(t, retrieve, "responses", "404", "description"))

	create := dig(t, doc, "paths", "/api/v1/posts/", "post")
	assert.Equal(t, "#/components/schemas/PostCreateSchema",
		dig(t, create, "requestBody", "content", "application/json", "schema", "$ref"))
	assert.Equal(t, "Created", dig(t, create, "responses", "201", "description"))

	deleted := dig(t, doc, "paths", "/api/v1/posts/{id}", "delete")
	assert.NotContains(t, dig(t, deleted, "responses", "204"), "content")

	user := dig(t, doc, "components", "schemas", "UserSchema")
	assert.Contains(t, dig(t, user, "properties"), "firstName")
	assert.Equal(t, []any{"id", "email", "firstName", "isActive"}, dig(t, user, "required"))
	assert.InDelta(t, 100, dig(t, user, "properties", "firstName", "maxLength"), 0)

	post := dig(t, doc, "components", "schemas", "PostSchema")
	assert.Equal(t, []any{"string", "date-time"}, []any{
		dig(t, post, "properties", "created", "type"),
		dig(t, post, "properties", "created", "format"),
	})
	assert.Equal(t, []any{
		map[string]any{"$ref": "#/components/schemas/UserRef"},
		map[string]any{"type": "null"},
	}, dig(t, post, "properties", "author", "anyOf"))
	assert.Equal(t, []any{"draft", "published"}, dig(t, post, "properties", "status", "enum"))

	createSchema := dig(t, doc, "components", "schemas", "PostCreateSchema")
	assert.Equal(t, []any{"integer", "null"}, dig(t, createSchema, "properties", "authorId", "type"))
	assert.Equal(t, "array", dig(t, createSchema, "properties", "tags", "type"))

	reversed, err := OpenAPI(cfg, []*mapping.FeatureDescriptor{posts, users})
	require.NoError(t, err)
	assert.Equal(t, string(data), string(reversed))
}

func TestOpenAPISecurity(t *testing.T) {
	cfg := config.Default().With(func(c *config.Config) { c.Ninja.AuthEnabled = true })
	users := feature(t, cfg, "users", userModel(), descriptor.OpList)

	data, err := OpenAPI(cfg, []*mapping.FeatureDescriptor{users})
	require.NoError(t, err)

	doc := decode(t, data)
	assert.Equal(t, map[string]any{"type": "http", "scheme": "bearer"},
		dig(t, doc, "components", "securitySchemes", "JWTAuth"))
	assert.Equal(t, []any{map[string]any{"JWTAuth": []any{}}},
		dig(t, doc, "paths", "/api/v1/users/", "get", "security"))
}

func TestOpenAPISharedModel(t *testing.T) {
	cfg := config.Default()
	posts := feature(t, cfg, "posts", postModel(), descriptor.OpRetrieve)
	archived := feature(t, cfg, "archived_posts", postModel(), descriptor.OpList)

	data, err := OpenAPI(cfg, []*mapping.FeatureDescriptor{posts, archived})
	require.NoError(t, err)

	doc := decode(t, data)
	dig(t, doc, "components", "schemas", "PostSchema")
	dig(t, doc, "components", "schemas", "ArchivedPostsPostSchema")
	dig(t, doc, "components", "schemas", "UserRef")
	assert.Equal(t, "#/components/schemas/ArchivedPostsPostListSchema",
		dig(t, doc, "paths", "/api/v1/archived_posts/", "get", "responses", "200", "content", "application/json", "schema", "$ref"))
}

func TestOpenAPISchemaCollision(t *testing.T) {
	cfg := config.Default()
	users := feature(t, cfg, "users", userModel(), descriptor.OpRetrieve)

	narrow := userModel()
	narrow.Fields = narrow.Fields[:2]
	other := feature(t, cfg, "users", narrow, descriptor.OpRetrieve)

	_, err := OpenAPI(cfg, []*mapping.FeatureDescriptor{users, other})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema UserSchema")

	_, err = OpenAPI(cfg, []*mapping.FeatureDescriptor{users, users})
	require.NoError(t, err)
}
