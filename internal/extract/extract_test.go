package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
)

const blogModels = `from django.conf import settings
from django.db import models


class Timestamped(models.Model):
    created_at = models.DateTimeField(auto_now_add=True)

    class Meta:
        abstract = True


class Status(models.TextChoices):
    DRAFT = "draft", "Draft"
    PUBLISHED = "published", "Published"


class Post(Timestamped):
    """A blog post."""

    title = models.CharField(max_length=200, help_text="Headline")
    body = models.TextField(blank=True)
    status = models.CharField(max_length=20, choices=Status.choices, default=Status.DRAFT)
    rating = models.IntegerField(default=0)
    author = models.ForeignKey(settings.AUTH_USER_MODEL, on_delete=models.CASCADE)
    parent = models.ForeignKey("self", null=True, on_delete=models.SET_NULL)
    tags = models.ManyToManyField("blog.Tag", blank=True)
    objects = models.Manager()

    def __str__(self):
        return self.title


class Tag(models.Model):
    SIZES = [("s", "Small"), ("l", "Large")]

    name = models.SlugField(unique=True)
    size = models.CharField(max_length=1, choices=SIZES, default="s")
`

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()

	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	return root
}

func fieldByName(t *testing.T, m descriptor.ModelDescriptor, name string) descriptor.FieldDescriptor {
	t.Helper()

	f, ok := m.Field(name)
	require.True(t, ok, "field %s", name)

	return f
}

func TestDjango_Extract(t *testing.T) {
	root := writeTree(t, map[string]string{
		"blog/models.py": blogModels,
		"blog/apps.py":   "",
	})

	d := NewDjango(root, mapping.DefaultTables())

	post, err := d.Extract("Post")
	require.NoError(t, err)

	assert.Equal(t, "Post", post.Name)
	assert.Equal(t, "blog.models", post.Module)
	assert.Equal(t, "A blog post.", post.Description)
	assert.Equal(t, "id", post.PrimaryKey)
	assert.Equal(t,
		[]string{"id", "created_at", "title", "body", "status", "rating", "author", "parent", "tags"},
		post.FieldNames())

	id := fieldByName(t, post, "id")
	assert.Equal(t, descriptor.SourceInt, id.SourceType)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.ReadOnly)

	created := fieldByName(t, post, "created_at")
	assert.Equal(t, descriptor.SourceDatetime, created.SourceType)
	assert.True(t, created.ReadOnly)

	title := fieldByName(t, post, "title")
	assert.Equal(t, 200, title.MaxLength)
	assert.Equal(t, "Headline", title.Description)
	assert.False(t, title.Optional())

	assert.True(t, fieldByName(t, post, "body").Nullable)

	status := fieldByName(t, post, "status")
	assert.Equal(t, descriptor.SourceEnum, status.SourceType)
	assert.Equal(t, []string{"draft", "published"}, status.Choices)
	assert.True(t, status.HasDefault)
	assert.Nil(t, status.Default)

	rating := fieldByName(t, post, "rating")
	require.NotNil(t, rating.Default)
	assert.Equal(t, "0", *rating.Default)

	author := fieldByName(t, post, "author")
	assert.Equal(t, descriptor.RelationManyToOne, author.RelationKind)
	assert.Equal(t, "User", author.RelationTarget)

	parent := fieldByName(t, post, "parent")
	assert.Equal(t, "Post", parent.RelationTarget)
	assert.True(t, parent.Nullable)

	tags := fieldByName(t, post, "tags")
	assert.Equal(t, descriptor.RelationManyToMany, tags.RelationKind)
	assert.Equal(t, "Tag", tags.RelationTarget)

	tag, err := d.Extract("blog.Tag")
	require.NoError(t, err)

	size := fieldByName(t, tag, "size")
	assert.Equal(t, descriptor.SourceEnum, size.SourceType)
	assert.Equal(t, []string{"s", "l"}, size.Choices)
	require.NotNil(t, size.Default)
	assert.Equal(t, `"s"`, *size.Default)
}

func TestDjango_Models(t *testing.T) {
	root := writeTree(t, map[string]string{
		"blog/models.py":               blogModels,
		"shop/models/__init__.py":      "",
		"shop/models/item.py":          "from django.db import models\n\nclass Item(models.Model):\n    sku = models.CharField(max_length=8)\n",
		".venv/lib/fake/models.py":     "class Hidden(models.Model):\n    pass\n",
		"node_modules/pkg/models.py":   "class Ignored(models.Model):\n    pass\n",
		"shop/migrations/0001_init.py": "",
	})

	d := NewDjango(root, mapping.DefaultTables())

	apps, err := d.Apps()
	require.NoError(t, err)
	assert.Equal(t, []string{"blog", "shop"}, apps)

	models, err := d.Models()
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Post", "Tag"}, models)

	item, err := d.Extract("shop.Item")
	require.NoError(t, err)
	assert.Equal(t, "shop.models.item", item.Module)
}

func TestDjango_Errors(t *testing.T) {
	t.Run("not found with suggestion", func(t *testing.T) {
		root := writeTree(t, map[string]string{"blog/models.py": blogModels})

		_, err := NewDjango(root, mapping.DefaultTables()).Extract("Posts")

		var nf *diagnostic.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Contains(t, nf.Suggestions, "Post")
		assert.True(t, diagnostic.IsFatal(err))
	})

	t.Run("wrong app", func(t *testing.T) {
		root := writeTree(t, map[string]string{"blog/models.py": blogModels})

		_, err := NewDjango(root, mapping.DefaultTables()).Extract("shop.Tag")

		var nf *diagnostic.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("abstract model is not a feature target", func(t *testing.T) {
		root := writeTree(t, map[string]string{"blog/models.py": blogModels})

		_, err := NewDjango(root, mapping.DefaultTables()).Extract("Timestamped")

		var nf *diagnostic.NotFoundError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("unsupported field type", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"core/models.py": "from django.db import models\n\nclass Event(models.Model):\n    payload = models.JSONField()\n",
		})

		_, err := NewDjango(root, mapping.DefaultTables()).Extract("Event")

		var ft *diagnostic.UnsupportedFieldTypeError
		require.True(t, errors.As(err, &ft))
		assert.Equal(t, "Event", ft.Model)
		assert.Equal(t, "payload", ft.Field)
		assert.Equal(t, "JSONField", ft.Type)
	})

	t.Run("project field class mapping", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"core/models.py": "from django.db import models\n\nclass Event(models.Model):\n    payload = models.JSONField()\n",
		})

		tables := mapping.DefaultTables().WithFieldClasses(map[string]string{"JSONField": "string"})

		event, err := NewDjango(root, tables).Extract("Event")
		require.NoError(t, err)
		assert.Equal(t, descriptor.SourceString, fieldByName(t, event, "payload").SourceType)
	})

	t.Run("parse error", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"core/models.py": "class Broken(models.Model:\n    name = models.CharField()\n",
		})

		_, err := NewDjango(root, mapping.DefaultTables()).Extract("Broken")

		var pe *diagnostic.ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 1, pe.Line)
	})
}

func TestGoPackages_Extract(t *testing.T) {
	g := NewGoPackages("", mapping.DefaultTables(), "ninja-orval-forge/store")

	models, err := g.Models()
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer", "Order", "OrderItem", "Product", "Settings", "Timestamps"}, models)

	t.Run("embedded fields and implicit pk", func(t *testing.T) {
		product, err := g.Extract("Product")
		require.NoError(t, err)

		assert.Equal(t, "ninja-orval-forge/store", product.Module)
		assert.Equal(t, "id", product.PrimaryKey)
		assert.Equal(t,
			[]string{"id", "sku", "name", "description", "price_cents", "inventory_count", "active", "created_at", "updated_at"},
			product.FieldNames())

		assert.Equal(t, 32, fieldByName(t, product, "sku").MaxLength)
		assert.Equal(t, "Display name", fieldByName(t, product, "name").Description)
		assert.True(t, fieldByName(t, product, "description").Nullable)

		active := fieldByName(t, product, "active")
		require.NotNil(t, active.Default)
		assert.Equal(t, "True", *active.Default)

		updated := fieldByName(t, product, "updated_at")
		assert.Equal(t, descriptor.SourceDatetime, updated.SourceType)
		assert.True(t, updated.Nullable)
		assert.True(t, updated.ReadOnly)
	})

	t.Run("relations and enums", func(t *testing.T) {
		order, err := g.Extract("Order")
		require.NoError(t, err)

		assert.Equal(t, []string{"id", "customer", "status", "total_cents", "products", "ordered_at"}, order.FieldNames())

		customer := fieldByName(t, order, "customer")
		assert.Equal(t, descriptor.RelationManyToOne, customer.RelationKind)
		assert.Equal(t, "Customer", customer.RelationTarget)

		status := fieldByName(t, order, "status")
		assert.Equal(t, descriptor.SourceEnum, status.SourceType)
		assert.Equal(t, []string{"PENDING", "PAID", "SHIPPED", "CANCELLED"}, status.Choices)
		require.NotNil(t, status.Default)
		assert.Equal(t, `"PENDING"`, *status.Default)

		products := fieldByName(t, order, "products")
		assert.Equal(t, descriptor.RelationManyToMany, products.RelationKind)
	})

	t.Run("format tag", func(t *testing.T) {
		customer, err := g.Extract("Customer")
		require.NoError(t, err)
		assert.Equal(t, "email", fieldByName(t, customer, "email").Format)
	})

	t.Run("no primary key", func(t *testing.T) {
		_, err := g.Extract("OrderItem")

		var uc *diagnostic.UnsupportedConstructError
		require.True(t, errors.As(err, &uc))
		assert.Equal(t, "OrderItem", uc.Construct)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := g.Extract("Settings")

		var ft *diagnostic.UnsupportedFieldTypeError
		require.True(t, errors.As(err, &ft))
		assert.Equal(t, "attrs", ft.Field)
		assert.Equal(t, "map[string]string", ft.Type)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := g.Extract("Custmer")

		var nf *diagnostic.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, []string{"Customer"}, nf.Suggestions)
	})
}

func TestParseForgeTag(t *testing.T) {
	tag := parseForgeTag("pk, readonly,fk:User,format:uuid,maxlen:12")

	assert.True(t, tag.pk)
	assert.True(t, tag.readonly)
	assert.Equal(t, descriptor.RelationManyToOne, tag.relation)
	assert.Equal(t, "User", tag.target)
	assert.Equal(t, "uuid", tag.format)
	assert.Equal(t, 12, tag.maxLength)
}

func TestPythonLiteral(t *testing.T) {
	tests := []struct {
		st   descriptor.SourceType
		in   string
		want string
	}{
		{descriptor.SourceBool, "false", "False"},
		{descriptor.SourceInt, "10", "10"},
		{descriptor.SourceFloat, "1.5", "1.5"},
		{descriptor.SourceInt, "x", `"x"`},
		{descriptor.SourceString, "hi", `"hi"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, pythonLiteral(tt.st, tt.in), tt.in)
	}
}
