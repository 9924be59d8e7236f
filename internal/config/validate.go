package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
)

var (
	// SupportedFrameworks lists the frontend frameworks.
	SupportedFrameworks = []string{"vue", "react", "angular", "none"}
	// SupportedClientTypes lists the API wrapper styles.
	SupportedClientTypes = []string{"fetch", "axios"}
	updateMethods        = []string{"patch", "put"}
	splitModes           = []string{"single", "split", "tags", "tags-split"}
	// field_classes may only name scalar tags.
	mappableTypes = []descriptor.SourceType{
		descriptor.SourceString, descriptor.SourceInt, descriptor.SourceBool,
		descriptor.SourceFloat, descriptor.SourceDatetime,
	}
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate checks the configuration and returns the first
// *diagnostic.ConfigError found.
func (c *Config) Validate() error {
	checks := []struct {
		key string
		ok  bool
		msg string
	}{
		{"project.django_app", identRe.MatchString(c.Project.DjangoApp), "must be a Python identifier"},
		{"project.api_prefix", strings.HasPrefix(c.Project.APIPrefix, "/"), "must start with '/'"},
		{"ninja.update_method", slices.Contains(updateMethods, c.Ninja.UpdateMethod), oneOf(updateMethods)},
		{"ninja.auth_class", !c.Ninja.AuthEnabled || identRe.MatchString(c.Ninja.AuthClass), "must be a Python identifier"},
		{"orval.output_path", c.Orval.OutputPath != "", "must not be empty"},
		{"orval.client_type", slices.Contains(SupportedClientTypes, c.Orval.ClientType), oneOf(SupportedClientTypes)},
		{"orval.split_mode", slices.Contains(splitModes, c.Orval.SplitMode), oneOf(splitModes)},
		{"orval.mutator_name", identRe.MatchString(c.Orval.MutatorName), "must be an identifier"},
		{"orval.ts_schemas_dir", c.Orval.TSSchemasDir != "", "must not be empty"},
		{"frontend.framework", slices.Contains(SupportedFrameworks, c.Frontend.Framework), oneOf(SupportedFrameworks)},
		{"templates.pagination_limit", c.Templates.PaginationLimit >= 1, "must be at least 1"},
		{"templates.max_page_size", c.Templates.MaxPageSize >= c.Templates.PaginationLimit,
			"must not be smaller than templates.pagination_limit"},
		{"templates.default_ordering", c.Templates.DefaultOrdering != "", "must not be empty"},
		{"migrate.conflict_threshold", c.Migrate.ConflictThreshold >= 0, "must not be negative"},
		{"migrate.backup_suffix", c.Migrate.BackupSuffix != "" && !strings.ContainsAny(c.Migrate.BackupSuffix, `/\`),
			"must be a non-empty file name suffix"},
	}

	for _, chk := range checks {
		if !chk.ok {
			return &diagnostic.ConfigError{Key: chk.key, Msg: chk.msg}
		}
	}

	for class, tag := range c.Mapping.FieldClasses {
		if !slices.Contains(mappableTypes, descriptor.SourceType(tag)) {
			return &diagnostic.ConfigError{
				Key: "mapping.field_classes." + class,
				Msg: fmt.Sprintf("unsupported type %q", tag),
			}
		}
	}

	return nil
}

func oneOf(values []string) string {
	return "must be one of " + strings.Join(values, ", ")
}
