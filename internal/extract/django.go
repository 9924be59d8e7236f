package extract

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"ninja-orval-forge/internal/common"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/naming"
	"ninja-orval-forge/internal/pysrc"
)

// skipDirs are never searched for Django apps.
var skipDirs = []string{"node_modules", "venv", "env", "__pycache__", "migrations", "site-packages"}

// modelBases are the base class names that make a class a Django model.
var modelBases = []string{"Model"}

// Django extracts model descriptors from the Django project rooted at Root.
type Django struct {
	Root   string
	Tables *mapping.Tables

	index *modelIndex
}

// NewDjango returns an extractor over the project at root.
func NewDjango(root string, tables *mapping.Tables) *Django {
	return &Django{Root: root, Tables: tables}
}

// djangoClass is a class found in a models module.
type djangoClass struct {
	class  *pysrc.Class
	module *pysrc.Module
	app    string
	dotted string // dotted module path, e.g. "blog.models"
}

type modelIndex struct {
	classes map[string][]djangoClass // by class name
	parse   []error
}

// Extract returns the descriptor of a model class. The name may be
// qualified by its app label: "blog.Post".
func (d *Django) Extract(name string) (descriptor.ModelDescriptor, error) {
	idx, err := d.load()
	if err != nil {
		return descriptor.ModelDescriptor{}, err
	}

	app, class := "", name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		app, class = name[:i], name[i+1:]
	}

	var found *djangoClass

	for _, c := range idx.classes[class] {
		if !d.isModel(idx, c, nil) || isAbstract(c.class) || (app != "" && c.app != app) {
			continue
		}

		found = &c

		break
	}

	if found == nil {
		if len(idx.parse) > 0 {
			return descriptor.ModelDescriptor{}, errors.Wrapf(idx.parse[0], "model %s", name)
		}

		names, _ := d.Models()

		return descriptor.ModelDescriptor{}, &diagnostic.NotFoundError{
			Kind:        "model",
			Name:        name,
			Where:       d.Root,
			Suggestions: naming.Suggest(class, names, 3),
		}
	}

	return d.build(idx, *found)
}

// Models lists every concrete model class name in sorted order.
func (d *Django) Models() ([]string, error) {
	idx, err := d.load()
	if err != nil {
		return nil, err
	}

	var names []string

	for _, name := range common.SortedKeys(idx.classes) {
		for _, c := range idx.classes[name] {
			if d.isModel(idx, c, nil) && !isAbstract(c.class) {
				names = append(names, name)
				break
			}
		}
	}

	return names, nil
}

// Apps lists the app directories of the project, relative to Root.
func (d *Django) Apps() ([]string, error) {
	var apps []string

	err := filepath.WalkDir(d.Root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !e.IsDir() {
			return nil
		}

		if p != d.Root && (strings.HasPrefix(e.Name(), ".") || slices.Contains(skipDirs, e.Name())) {
			return filepath.SkipDir
		}

		if isApp(p) {
			rel, err := filepath.Rel(d.Root, p)
			if err != nil {
				return err
			}

			apps = append(apps, filepath.ToSlash(rel))
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", d.Root)
	}

	sort.Strings(apps)

	return apps, nil
}

func isApp(dir string) bool {
	for _, marker := range []string{"apps.py", "models.py", "models"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}

	return false
}

// load parses every models module once.
func (d *Django) load() (*modelIndex, error) {
	if d.index != nil {
		return d.index, nil
	}

	apps, err := d.Apps()
	if err != nil {
		return nil, err
	}

	idx := &modelIndex{classes: map[string][]djangoClass{}}

	for _, app := range apps {
		files, err := modelFiles(filepath.Join(d.Root, filepath.FromSlash(app)))
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			mod, err := pysrc.ParseFile(file)
			if err != nil {
				idx.parse = append(idx.parse, err)
				continue
			}

			rel, _ := filepath.Rel(d.Root, file)
			dotted := strings.ReplaceAll(strings.TrimSuffix(filepath.ToSlash(rel), ".py"), "/", ".")
			dotted = strings.TrimSuffix(dotted, ".__init__")

			for _, c := range mod.Classes() {
				idx.classes[c.Name] = append(idx.classes[c.Name], djangoClass{
					class:  c,
					module: mod,
					app:    path.Base(app),
					dotted: dotted,
				})
			}
		}
	}

	d.index = idx

	return idx, nil
}

func modelFiles(appDir string) ([]string, error) {
	var files []string

	if _, err := os.Stat(filepath.Join(appDir, "models.py")); err == nil {
		files = append(files, filepath.Join(appDir, "models.py"))
	}

	entries, err := os.ReadDir(filepath.Join(appDir, "models"))
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read %s", appDir)
	}

	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".py") {
			files = append(files, filepath.Join(appDir, "models", e.Name()))
		}
	}

	return files, nil
}

// isModel reports whether the class derives from a Django model, directly
// or through other model classes of the project.
func (d *Django) isModel(idx *modelIndex, c djangoClass, seen map[string]bool) bool {
	if c.class.HasBase(modelBases...) {
		return true
	}

	if seen == nil {
		seen = map[string]bool{}
	}

	if seen[c.class.Name] {
		return false
	}

	seen[c.class.Name] = true

	for _, base := range c.class.BaseNames() {
		for _, bc := range idx.classes[common.LastSegment(base)] {
			if d.isModel(idx, bc, seen) {
				return true
			}
		}
	}

	return false
}

func isAbstract(c *pysrc.Class) bool {
	meta, ok := c.Class("Meta")
	if !ok {
		return false
	}

	a, ok := meta.Assign("abstract")
	if !ok {
		return false
	}

	v, _ := a.Value.BoolValue()

	return v
}

// build collects the fields of a model class, inherited fields first.
func (d *Django) build(idx *modelIndex, c djangoClass) (descriptor.ModelDescriptor, error) {
	model := descriptor.ModelDescriptor{
		Name:        c.class.Name,
		Module:      c.dotted,
		Description: strings.TrimSpace(c.class.Doc),
	}

	fields, err := d.fields(idx, c, model.Name, map[string]bool{})
	if err != nil {
		return descriptor.ModelDescriptor{}, err
	}

	for _, f := range fields {
		if f.PrimaryKey {
			model.PrimaryKey = f.Name
			break
		}
	}

	if model.PrimaryKey == "" {
		id := descriptor.FieldDescriptor{
			Name:       "id",
			SourceType: descriptor.SourceInt,
			PrimaryKey: true,
			ReadOnly:   true,
		}
		fields = append([]descriptor.FieldDescriptor{id}, fields...)
		model.PrimaryKey = "id"
	}

	model.Fields = fields

	return model, nil
}

func (d *Django) fields(idx *modelIndex, c djangoClass, model string, seen map[string]bool) ([]descriptor.FieldDescriptor, error) {
	if seen[c.class.Name] {
		return nil, nil
	}

	seen[c.class.Name] = true

	var out []descriptor.FieldDescriptor

	for _, base := range c.class.BaseNames() {
		for _, bc := range idx.classes[common.LastSegment(base)] {
			if !d.isModel(idx, bc, nil) {
				continue
			}

			inherited, err := d.fields(idx, bc, model, seen)
			if err != nil {
				return nil, err
			}

			out = mergeFields(out, inherited)

			break
		}
	}

	fr := &fieldReader{tables: d.Tables, model: model, class: c.class, module: c.module}

	for _, a := range c.class.Assigns() {
		f, ok, err := fr.read(a)
		if err != nil {
			return nil, err
		}

		if ok {
			out = mergeFields(out, []descriptor.FieldDescriptor{f})
		}
	}

	return out, nil
}

// mergeFields appends fields, replacing earlier fields of the same name in place.
func mergeFields(dst, src []descriptor.FieldDescriptor) []descriptor.FieldDescriptor {
	for _, f := range src {
		i := slices.IndexFunc(dst, func(e descriptor.FieldDescriptor) bool { return e.Name == f.Name })
		if i >= 0 {
			dst[i] = f
		} else {
			dst = append(dst, f)
		}
	}

	return dst
}
