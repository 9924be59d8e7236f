package legacy

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/naming"
)

// moduleNames are the DRF modules of an app, as files or packages.
var moduleNames = []string{"serializers", "views", "viewsets"}

// App holds the legacy constructs of one Django app.
type App struct {
	Dir         string
	Serializers []descriptor.LegacyConstructDescriptor
	ViewSets    []descriptor.LegacyConstructDescriptor
	// Errors holds one ParseError per file that could not be read.
	Errors []error
}

// Feature pairs the constructs that migrate into one feature.
type Feature struct {
	Name       string
	Model      string
	Serializer *descriptor.LegacyConstructDescriptor
	ViewSet    *descriptor.LegacyConstructDescriptor
}

// ParseApp scans the DRF modules of the app in dir with the default tables.
func ParseApp(dir string) (*App, error) {
	return NewParser(mapping.DefaultTables()).ParseApp(dir)
}

// ParseApp scans the DRF modules of the app in dir. Files that fail to
// parse are recorded in App.Errors; the constructs of the other files are
// still returned.
func (p *Parser) ParseApp(dir string) (*App, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &diagnostic.NotFoundError{Kind: "app", Name: filepath.Base(dir), Where: filepath.Dir(dir)}
	}

	files, err := appFiles(dir)
	if err != nil {
		return nil, err
	}

	app := &App{Dir: dir}

	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", file)
		}

		constructs, err := p.Parse(file, src)
		if err != nil {
			app.Errors = append(app.Errors, err)
			continue
		}

		for _, c := range constructs {
			if c.Kind == descriptor.KindViewSet {
				app.ViewSets = append(app.ViewSets, c)
			} else {
				app.Serializers = append(app.Serializers, c)
			}
		}
	}

	return app, nil
}

func appFiles(dir string) ([]string, error) {
	var files []string

	for _, name := range moduleNames {
		file := filepath.Join(dir, name+".py")
		if _, err := os.Stat(file); err == nil {
			files = append(files, file)
		}

		matches, err := filepath.Glob(filepath.Join(dir, name, "*.py"))
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", dir)
		}

		sort.Strings(matches)
		files = append(files, matches...)
	}

	return files, nil
}

// Empty reports whether the app declares no serializer and no view-set.
func (a *App) Empty() bool {
	return len(a.Serializers) == 0 && len(a.ViewSets) == 0
}

// Serializer returns the serializer with the given class name.
func (a *App) Serializer(name string) (*descriptor.LegacyConstructDescriptor, bool) {
	for i := range a.Serializers {
		if a.Serializers[i].Name == name {
			return &a.Serializers[i], true
		}
	}

	return nil, false
}

// Features pairs every view-set with its serializer_class, then adds a
// feature for every serializer no view-set references. Feature names come
// from the class names; a later construct never replaces an earlier
// feature of the same name.
func (a *App) Features() []Feature {
	var (
		out  []Feature
		used = map[string]bool{}
		seen = map[string]bool{}
	)

	for i := range a.ViewSets {
		vs := &a.ViewSets[i]
		f := Feature{Name: naming.FeatureFromClass(vs.Name), Model: vs.TargetModel, ViewSet: vs}

		if s, ok := a.Serializer(vs.SerializerRef); ok {
			f.Serializer = s
			used[s.Name] = true

			if f.Model == "" {
				f.Model = s.TargetModel
			}
		}

		if seen[f.Name] {
			continue
		}

		seen[f.Name] = true
		out = append(out, f)
	}

	for i := range a.Serializers {
		s := &a.Serializers[i]
		if used[s.Name] {
			continue
		}

		f := Feature{Name: naming.FeatureFromClass(s.Name), Model: s.TargetModel, Serializer: s}
		if seen[f.Name] {
			continue
		}

		seen[f.Name] = true
		out = append(out, f)
	}

	return out
}
