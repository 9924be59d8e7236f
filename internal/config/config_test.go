package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/diagnostic"
)

func noEnv(string) (string, bool) { return "", false }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(t.TempDir(), noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "PATCH", cfg.UpdateVerb())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
project:
  name: shop
  django_app: store
ninja:
  camel_case_response: false
  update_method: put
templates:
  pagination_limit: 50
mapping:
  field_classes:
    MoneyField: float
`)

	cfg, err := load(dir, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.Project.Name)
	assert.Equal(t, "store", cfg.Project.DjangoApp)
	assert.Equal(t, "/api/v1", cfg.Project.APIPrefix)
	assert.False(t, cfg.Ninja.CamelCaseResponse)
	assert.Equal(t, "PUT", cfg.UpdateVerb())
	assert.Equal(t, 50, cfg.Templates.PaginationLimit)
	assert.Equal(t, 100, cfg.Templates.MaxPageSize)
	assert.Equal(t, "float", cfg.Mapping.FieldClasses["MoneyField"])
	assert.Equal(t, ".bak", cfg.Migrate.BackupSuffix)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "orval:\n  client_type: fetch\n")
	writeFile(t, dir, EnvFileName, "FORGE_CLIENT_TYPE=axios\nFORGE_API_PREFIX=/api/v2\n")

	process := map[string]string{EnvAPIPrefix: "/api/v3", EnvFrontend: "react"}
	lookup := func(k string) (string, bool) {
		v, ok := process[k]
		return v, ok
	}

	cfg, err := load(dir, lookup)
	require.NoError(t, err)

	assert.Equal(t, "axios", cfg.Orval.ClientType)
	// process environment wins over .env
	assert.Equal(t, "/api/v3", cfg.Project.APIPrefix)
	assert.Equal(t, "react", cfg.Frontend.Framework)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		key  string
	}{
		{"bad framework", "frontend:\n  framework: svelte\n", "frontend.framework"},
		{"bad client", "orval:\n  client_type: react-query\n", "orval.client_type"},
		{"bad prefix", "project:\n  api_prefix: api\n", "project.api_prefix"},
		{"bad page size", "templates:\n  pagination_limit: 200\n", "templates.max_page_size"},
		{"bad update", "ninja:\n  update_method: post\n", "ninja.update_method"},
		{"bad app", "project:\n  django_app: my-app\n", "project.django_app"},
		{"bad field class", "mapping:\n  field_classes:\n    GeoField: relation\n", "mapping.field_classes.GeoField"},
		{"bad yaml", "project: [\n", FileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.yaml)

			_, err := load(dir, noEnv)
			require.Error(t, err)

			var ce *diagnostic.ConfigError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, tt.key, ce.Key)
			assert.True(t, diagnostic.IsFatal(err))
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default().With(func(c *Config) { c.Project.Name = "demo" })

	data, err := Marshal(cfg)
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Default()
	base.Mapping.FieldClasses = map[string]string{"A": "int"}

	derived := base.With(func(c *Config) {
		c.Frontend.Framework = "react"
		c.Mapping.FieldClasses["B"] = "string"
	})

	assert.Equal(t, "vue", base.Frontend.Framework)
	assert.NotContains(t, base.Mapping.FieldClasses, "B")
	assert.Equal(t, "react", derived.Frontend.Framework)
}

func TestLayout(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "main/apis/ninja/api_views/user_profiles", cfg.FeatureDir("user_profiles"))
	assert.Equal(t, "main/apis/ninja/api.py", cfg.APIFile())
	assert.Equal(t, "main/apis/ninja/openapi/ninja_api_schema.json", cfg.OpenAPIFile())
	assert.Equal(t, "frontend/api/schema/user-profiles.ts", cfg.TSSchemaFile("user_profiles"))
	assert.Equal(t, "frontend/api/client/user-profiles.ts", cfg.ClientFile("user_profiles"))
	assert.Equal(t, "frontend/api/client/fetchWrapper.ts", cfg.FetchWrapperFile())
	assert.Equal(t, "frontend/composables/useUserProfiles.ts", cfg.StateHelperFile("user_profiles"))
	assert.Equal(t, "frontend/components/UserProfilesList.vue", cfg.ComponentFile("user_profiles"))

	react := cfg.With(func(c *Config) {
		c.Frontend.Framework = "react"
		c.Orval.OutputPath = "./web/client/"
	})
	assert.Equal(t, "frontend/components/UserProfilesList.tsx", react.ComponentFile("user_profiles"))
	assert.Equal(t, "web/client/fetchWrapper.ts", react.FetchWrapperFile())
	assert.True(t, react.HasStateHelpers())
	assert.False(t, cfg.With(func(c *Config) { c.Frontend.Framework = "angular" }).HasStateHelpers())
}
