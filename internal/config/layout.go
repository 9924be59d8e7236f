package config

import (
	"path"

	"ninja-orval-forge/internal/naming"
)

// ManifestFileName records the hashes of generated files.
const ManifestFileName = ".ninja-orval-forge.lock"

// Paths of generated artifacts, relative to the project root and always
// slash separated.

func (c *Config) ninjaDir() string {
	return path.Join(c.Project.DjangoApp, "apis", "ninja")
}

// FeatureDir is the route package of a feature.
func (c *Config) FeatureDir(feature string) string {
	return path.Join(c.ninjaDir(), "api_views", feature)
}

// APIViewsDir is the parent package of all feature packages.
func (c *Config) APIViewsDir() string {
	return path.Join(c.ninjaDir(), "api_views")
}

// NinjaDir is the root package of the generated API.
func (c *Config) NinjaDir() string {
	return c.ninjaDir()
}

func (c *Config) APIFile() string {
	return path.Join(c.ninjaDir(), "api.py")
}

func (c *Config) SharedDir() string {
	return path.Join(c.ninjaDir(), "shared")
}

func (c *Config) OpenAPIFile() string {
	return path.Join(c.ninjaDir(), "openapi", "ninja_api_schema.json")
}

// TSSchemaFile is the TypeScript type module of a feature.
func (c *Config) TSSchemaFile(feature string) string {
	return path.Join(path.Clean(c.Orval.TSSchemasDir), naming.Kebab(feature)+".ts")
}

// ClientFile is the API wrapper module of a feature.
func (c *Config) ClientFile(feature string) string {
	return path.Join(path.Clean(c.Orval.OutputPath), naming.Kebab(feature)+".ts")
}

func (c *Config) FetchWrapperFile() string {
	return path.Join(path.Clean(c.Orval.OutputPath), "fetchWrapper.ts")
}

// StateHelperFile is the composable or hook of a feature.
func (c *Config) StateHelperFile(feature string) string {
	return path.Join(path.Clean(c.Orval.ComposablesDir), "use"+naming.Pascal(feature)+".ts")
}

// ComponentFile is the example list component of a feature.
func (c *Config) ComponentFile(feature string) string {
	ext := ".vue"
	if c.Frontend.Framework == "react" {
		ext = ".tsx"
	}

	return path.Join(path.Clean(c.Frontend.ComponentsDir), naming.Pascal(feature)+"List"+ext)
}

func (c *Config) OrvalConfigFile() string {
	return "orval.config.ts"
}

// HasStateHelpers reports whether the framework gets composables or hooks
// and list components.
func (c *Config) HasStateHelpers() bool {
	return c.Frontend.Framework == "vue" || c.Frontend.Framework == "react"
}
