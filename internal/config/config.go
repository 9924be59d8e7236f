package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"ninja-orval-forge/internal/diagnostic"
)

const (
	// FileName is the project configuration file in the project root.
	FileName = ".ninja-orval-forge.yml"
	// EnvFileName is the optional dotenv file in the project root.
	EnvFileName = ".env"
)

// Environment variables that override configuration values.
const (
	EnvAPIPrefix    = "FORGE_API_PREFIX"
	EnvClientOutput = "FORGE_CLIENT_OUTPUT"
	EnvClientType   = "FORGE_CLIENT_TYPE"
	EnvFrontend     = "FORGE_FRONTEND"
)

// Config is the project configuration.
type Config struct {
	Project   Project   `yaml:"project"`
	Ninja     Ninja     `yaml:"ninja"`
	Orval     Orval     `yaml:"orval"`
	Frontend  Frontend  `yaml:"frontend"`
	Templates Templates `yaml:"templates"`
	Migrate   Migrate   `yaml:"migrate"`
	Mapping   Mapping   `yaml:"mapping"`
}

type Project struct {
	Name           string `yaml:"name"`
	DjangoApp      string `yaml:"django_app"`
	APIPrefix      string `yaml:"api_prefix"`
	APIVersion     string `yaml:"api_version"`
	APIDescription string `yaml:"api_description"`
}

type Ninja struct {
	AuthEnabled       bool   `yaml:"auth_enabled"`
	AuthClass         string `yaml:"auth_class"`
	CamelCaseResponse bool   `yaml:"camel_case_response"`
	// UpdateMethod is "patch" or "put".
	UpdateMethod string `yaml:"update_method"`
}

type Orval struct {
	OutputPath     string `yaml:"output_path"`
	ClientType     string `yaml:"client_type"`
	SplitMode      string `yaml:"split_mode"`
	MutatorName    string `yaml:"mutator_name"`
	TSSchemasDir   string `yaml:"ts_schemas_dir"`
	ComposablesDir string `yaml:"composables_dir"`
}

type Frontend struct {
	Framework     string `yaml:"framework"`
	TypeScript    bool   `yaml:"typescript"`
	ComponentsDir string `yaml:"components_dir"`
}

type Templates struct {
	PaginationLimit int    `yaml:"pagination_limit"`
	MaxPageSize     int    `yaml:"max_page_size"`
	DefaultOrdering string `yaml:"default_ordering"`
}

type Migrate struct {
	// ConflictThreshold is the number of skipped conflicts tolerated before
	// the run exits non-zero.
	ConflictThreshold int    `yaml:"conflict_threshold"`
	BackupSuffix      string `yaml:"backup_suffix"`
}

type Mapping struct {
	// FieldClasses maps extra Django field classes to source type tags.
	FieldClasses map[string]string `yaml:"field_classes,omitempty"`
}

// Default returns the configuration used for missing keys.
func Default() *Config {
	return &Config{
		Project: Project{
			DjangoApp:      "main",
			APIPrefix:      "/api/v1",
			APIVersion:     "1.0.0",
			APIDescription: "Generated API",
		},
		Ninja: Ninja{
			AuthClass:         "JWTAuth",
			CamelCaseResponse: true,
			UpdateMethod:      "patch",
		},
		Orval: Orval{
			OutputPath:     "frontend/api/client",
			ClientType:     "fetch",
			SplitMode:      "tags-split",
			MutatorName:    "customFetch",
			TSSchemasDir:   "frontend/api/schema",
			ComposablesDir: "frontend/composables",
		},
		Frontend: Frontend{
			Framework:     "vue",
			TypeScript:    true,
			ComponentsDir: "frontend/components",
		},
		Templates: Templates{
			PaginationLimit: 20,
			MaxPageSize:     100,
			DefaultOrdering: "-id",
		},
		Migrate: Migrate{
			BackupSuffix: ".bak",
		},
	}
}

// Exists reports whether the project root holds a configuration file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

// Load reads the configuration of the project rooted at dir. A missing file
// yields the defaults. Overrides from dir/.env and the process environment
// are applied, process environment last, and the result is validated.
func Load(dir string) (*Config, error) {
	return load(dir, os.LookupEnv)
}

func load(dir string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)

	switch {
	case err == nil:
		cfg, err = Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "read %s", path)
	}

	env, err := readEnvFile(filepath.Join(dir, EnvFileName))
	if err != nil {
		return nil, err
	}

	applyEnv(cfg, func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}

		v, ok := env[key]

		return v, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults, so missing keys keep their default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &diagnostic.ConfigError{Key: FileName, Msg: err.Error()}
	}

	return cfg, nil
}

// Marshal serializes a Config to YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}

	return data, nil
}

func readEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, &diagnostic.ConfigError{Key: EnvFileName, Msg: err.Error()}
	}

	return env, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIPrefix); ok {
		cfg.Project.APIPrefix = v
	}

	if v, ok := lookup(EnvClientOutput); ok {
		cfg.Orval.OutputPath = v
	}

	if v, ok := lookup(EnvClientType); ok {
		cfg.Orval.ClientType = v
	}

	if v, ok := lookup(EnvFrontend); ok {
		cfg.Frontend.Framework = v
	}
}

// With returns a copy of cfg with fn applied, leaving cfg untouched.
func (c *Config) With(fn func(*Config)) *Config {
	out := *c

	if c.Mapping.FieldClasses != nil {
		out.Mapping.FieldClasses = make(map[string]string, len(c.Mapping.FieldClasses))
		for k, v := range c.Mapping.FieldClasses {
			out.Mapping.FieldClasses[k] = v
		}
	}

	fn(&out)

	return &out
}

// UpdateVerb returns the HTTP verb of the update operation.
func (c *Config) UpdateVerb() string {
	if c.Ninja.UpdateMethod == "put" {
		return "PUT"
	}

	return "PATCH"
}
