package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/diagnostic"
)

const userModels = `from django.db import models


class User(models.Model):
    email = models.EmailField()
    first_name = models.CharField(max_length=100)
    is_active = models.BooleanField(default=True)
`

func run(t *testing.T, args ...string) (*handler, string, error) {
	t.Helper()

	var out, logs bytes.Buffer

	h := newHandler(&out, &logs)
	err := h.Run(append([]string{"ninja-orval-forge"}, args...))

	return h, out.String(), err
}

func djangoProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "accounts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "accounts", "models.py"), []byte(userModels), 0o644))

	return root
}

func TestGenerateCommand(t *testing.T) {
	root := djangoProject(t)

	h, out, err := run(t, "--dir", root, "generate", "--model", "User", "users", "list", "retrieve")
	require.NoError(t, err)
	assert.Equal(t, 0, h.exit)
	assert.Contains(t, out, "created      main/apis/ninja/api_views/users/views.py")
	assert.Contains(t, out, "summary: ")

	views := filepath.Join(root, "main", "apis", "ninja", "api_views", "users", "views.py")
	require.NoError(t, os.WriteFile(views, []byte("# mine\n"), 0o644))

	h, out, err = run(t, "--dir", root, "generate", "-m", "User", "-o", "list,delete", "users")
	require.NoError(t, err)
	assert.Equal(t, 2, h.exit)
	assert.Contains(t, out, "(conflict: modified since last generation)")

	data, err := os.ReadFile(views)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))

	h, out, err = run(t, "--dir", root, "generate", "-m", "User", "--force", "--backup", "users", "list", "delete")
	require.NoError(t, err)
	assert.Equal(t, 0, h.exit)
	assert.Contains(t, out, "[backup main/apis/ninja/api_views/users/views.py.bak]")
}

func TestGenerateCommandDryRun(t *testing.T) {
	root := djangoProject(t)

	h, out, err := run(t, "--dir", root, "generate", "--dry-run", "--model", "User", "users")
	require.NoError(t, err)
	assert.Equal(t, 0, h.exit)
	assert.Contains(t, out, "(dry run, nothing written)")
	assert.Contains(t, out, "create       main/apis/ninja/api.py (new file)")

	_, err = os.Stat(filepath.Join(root, "main"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateCommandErrors(t *testing.T) {
	root := djangoProject(t)

	t.Run("unknown model", func(t *testing.T) {
		h, out, err := run(t, "--dir", root, "generate", "--model", "Usr", "users")
		require.NoError(t, err)
		assert.Equal(t, 1, h.exit)
		assert.Contains(t, out, "[not_found]")
		assert.Contains(t, out, "User")
	})

	t.Run("missing feature", func(t *testing.T) {
		h, _, err := run(t, "--dir", root, "generate", "--model", "User")
		require.Error(t, err)
		assert.Equal(t, 1, h.exit)
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, _, err := run(t, "--dir", root, "generate", "--model", "User", "users", "patchh")

		var nf *diagnostic.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "operation", nf.Kind)
	})
}

func TestInitCommand(t *testing.T) {
	root := t.TempDir()

	h, out, err := run(t, "--dir", root, "init", "--name", "shop", "--frontend", "react", "--client", "axios")
	require.NoError(t, err)
	assert.Equal(t, 0, h.exit)
	assert.Contains(t, out, "created      .ninja-orval-forge.yml")

	data, err := os.ReadFile(filepath.Join(root, ".ninja-orval-forge.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "framework: react")
	assert.Contains(t, string(data), "client_type: axios")

	_, err = os.Stat(filepath.Join(root, "frontend", "composables"))
	assert.NoError(t, err)

	h, _, err = run(t, "--dir", root, "init", "--frontend", "svelte")

	var ce *diagnostic.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "frontend.framework", ce.Key)
	assert.Equal(t, 1, h.exit)
}

func TestMigrateCommandUnknownApp(t *testing.T) {
	h, out, err := run(t, "--dir", t.TempDir(), "migrate", "--app", "blog")
	require.NoError(t, err)
	assert.Equal(t, 1, h.exit)
	assert.Contains(t, out, `app "blog" not found`)
}
