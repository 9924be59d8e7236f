package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
)

func countCode(ds []diagnostic.Diagnostic, code string) int {
	n := 0

	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}

	return n
}

func TestMapLegacySerializerAndViewSet(t *testing.T) {
	serializer := &descriptor.LegacyConstructDescriptor{
		Kind:           descriptor.KindSerializer,
		Name:           "PostSerializer",
		File:           "blog/serializers.py",
		TargetModel:    "Post",
		FieldNames:     []string{"id", "title", "status"},
		ReadOnlyFields: []string{"title"},
		Issues:         []descriptor.Issue{{Subject: "validate_title", Reason: "custom validate_title logic is not translated", Line: 12}},
	}
	viewset := &descriptor.LegacyConstructDescriptor{
		Kind:               descriptor.KindViewSet,
		Name:               "PostViewSet",
		File:               "blog/views.py",
		TargetModel:        "Post",
		DeclaredOperations: ops(descriptor.OpList, descriptor.OpRetrieve, descriptor.OpUpdate),
		Issues:             []descriptor.Issue{{Subject: "permission_classes", Reason: "not translated", Line: 9}},
	}

	cfg := config.Default()

	fd, diags := MapLegacy(cfg, "posts", postModel(), serializer, viewset)
	require.NotNil(t, fd)
	assert.False(t, diags.HasErrors())

	assert.True(t, fd.Migrated)
	assert.Equal(t, []string{"PostSerializer", "PostViewSet"}, fd.Source)
	assert.Equal(t, ops(descriptor.OpList, descriptor.OpRetrieve, descriptor.OpUpdate), fd.Operations)

	output, ok := fd.SchemaByRole(RoleOutput)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "title", "status"}, output.Keys.Names())

	update, ok := fd.SchemaByRole(RoleUpdate)
	require.True(t, ok)
	assert.Equal(t, []string{"status"}, update.Keys.Names())

	assert.Equal(t, 2, countCode(diags.Warnings, CodeLegacyIssue))

	for _, w := range diags.Warnings {
		if w.Code == CodeLegacyIssue && w.Subject == "PostSerializer" {
			assert.Equal(t, "blog/serializers.py", w.Path)
			assert.Contains(t, w.Message, "line 12")
		}
	}

	t.Run("effective model reproduces the feature", func(t *testing.T) {
		again, _ := MapFeature(cfg, fd.Name, fd.Model, fd.Operations)
		require.NotNil(t, again)

		assert.Equal(t, fd.Schemas, again.Schemas)
		assert.Equal(t, fd.Routes, again.Routes)
	})
}

func TestMapLegacyUnrecognizedFieldSkipsOperations(t *testing.T) {
	serializer := &descriptor.LegacyConstructDescriptor{
		Kind: descriptor.KindSerializer,
		Name: "PostSerializer",
		DeclaredFields: []descriptor.FieldDescriptor{{
			Name:       "word_count",
			SourceType: descriptor.SourceUnknown,
			Reason:     "computed by get_word_count",
		}},
	}

	fd, diags := MapLegacy(config.Default(), "posts", postModel(), serializer, nil)
	require.NotNil(t, fd)

	assert.Equal(t, ops(descriptor.OpDelete), fd.Operations)
	assert.Equal(t, 4, countCode(diags.Warnings, diagnostic.CodeUnsupportedConstruct))
	assert.Equal(t, 1, countCode(diags.Infos, CodeMissingViewSet))

	for _, w := range diags.Warnings {
		if w.Code == diagnostic.CodeUnsupportedConstruct {
			assert.Equal(t, "PostSerializer", w.Subject)
			assert.Equal(t, "word_count", w.Field)
			assert.Contains(t, w.Message, "skipped")
		}
	}
}

func TestMapLegacyWithoutSerializer(t *testing.T) {
	viewset := &descriptor.LegacyConstructDescriptor{
		Kind:               descriptor.KindViewSet,
		Name:               "UserViewSet",
		DeclaredOperations: ops(descriptor.OpList),
	}

	fd, diags := MapLegacy(config.Default(), "users", userModel(), nil, viewset)
	require.NotNil(t, fd)

	assert.Equal(t, ops(descriptor.OpList), fd.Operations)
	assert.Equal(t, []string{"UserViewSet"}, fd.Source)
	assert.Equal(t, 1, countCode(diags.Warnings, CodeMissingSerializer))
}

func TestMapLegacyExcludeAndUnknownName(t *testing.T) {
	serializer := &descriptor.LegacyConstructDescriptor{
		Kind:       descriptor.KindSerializer,
		Name:       "UserSerializer",
		FieldNames: []string{"__all__"},
		Exclude:    []string{"first_name"},
	}

	fd, _ := MapLegacy(config.Default(), "users", userModel(), serializer, &descriptor.LegacyConstructDescriptor{
		Kind:               descriptor.KindViewSet,
		Name:               "UserViewSet",
		DeclaredOperations: ops(descriptor.OpRetrieve),
	})
	require.NotNil(t, fd)

	output, ok := fd.SchemaByRole(RoleOutput)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "email", "is_active"}, output.Keys.Names())

	serializer.FieldNames = []string{"id", "nickname"}

	fd, diags := MapLegacy(config.Default(), "users", userModel(), serializer, &descriptor.LegacyConstructDescriptor{
		Kind:               descriptor.KindViewSet,
		Name:               "UserViewSet",
		DeclaredOperations: ops(descriptor.OpRetrieve),
	})
	assert.Nil(t, fd)
	assert.True(t, diags.HasErrors())
	assert.Equal(t, 1, countCode(diags.Warnings, diagnostic.CodeUnsupportedConstruct))
}
