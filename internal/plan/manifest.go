package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"ninja-orval-forge/internal/config"
	"ninja-orval-forge/internal/descriptor"
	"ninja-orval-forge/internal/diagnostic"
	"ninja-orval-forge/internal/mapping"
	"ninja-orval-forge/internal/render"
)

// ManifestVersion is the format version of the manifest file.
const ManifestVersion = 1

// FeatureRecord is what is needed to map a generated feature again, so
// shared artifacts keep registering features of earlier runs.
type FeatureRecord struct {
	Name       string                     `yaml:"name"`
	Model      descriptor.ModelDescriptor `yaml:"model"`
	Operations descriptor.OperationSet    `yaml:"operations"`
	Migrated   bool                       `yaml:"migrated,omitempty"`
	Source     []string                   `yaml:"source,omitempty"`
}

// RecordOf returns the record of a mapped feature.
func RecordOf(fd *mapping.FeatureDescriptor) FeatureRecord {
	return FeatureRecord{
		Name:       fd.Name,
		Model:      fd.Model.Clone(),
		Operations: append(descriptor.OperationSet(nil), fd.Operations...),
		Migrated:   fd.Migrated,
		Source:     append([]string(nil), fd.Source...),
	}
}

// Manifest records the hash of every file the engine wrote and the
// features it generated.
type Manifest struct {
	Version int `yaml:"version"`
	// Files maps slash separated paths to hex SHA-256 digests.
	Files    map[string]string `yaml:"files"`
	Features []FeatureRecord   `yaml:"features,omitempty"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Version: ManifestVersion, Files: map[string]string{}}
}

// Hash returns the hex SHA-256 digest of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// LoadManifest reads the manifest of the project at root. A missing file
// yields an empty manifest; an unreadable one is a configuration error.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, config.ManifestFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return NewManifest(), nil
	}

	if err != nil {
		return nil, &diagnostic.ConfigError{Key: config.ManifestFileName, Msg: err.Error()}
	}

	m := NewManifest()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, &diagnostic.ConfigError{Key: config.ManifestFileName, Msg: err.Error()}
	}

	if m.Version != ManifestVersion {
		return nil, &diagnostic.ConfigError{
			Key: config.ManifestFileName,
			Msg: "unsupported manifest version; delete the file to regenerate everything as new",
		}
	}

	if m.Files == nil {
		m.Files = map[string]string{}
	}

	return m, nil
}

// Marshal encodes the manifest. The output is stable for equal manifests.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, err
	}

	return append([]byte(render.Header(render.KindYAML)+"\n"), data...), nil
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{Version: m.Version, Files: make(map[string]string, len(m.Files))}

	for k, v := range m.Files {
		out.Files[k] = v
	}

	for _, rec := range m.Features {
		rec.Model = rec.Model.Clone()
		rec.Operations = append(descriptor.OperationSet(nil), rec.Operations...)
		rec.Source = append([]string(nil), rec.Source...)
		out.Features = append(out.Features, rec)
	}

	return out
}

// Record stores the hash of a written file.
func (m *Manifest) Record(path string, content []byte) {
	m.Files[path] = Hash(content)
}

// Recorded reports whether the manifest holds the digest of content for path.
func (m *Manifest) Recorded(path string, content []byte) bool {
	h, ok := m.Files[path]
	return ok && h == Hash(content)
}

// Feature returns the record of a feature.
func (m *Manifest) Feature(name string) (FeatureRecord, bool) {
	for _, rec := range m.Features {
		if rec.Name == name {
			return rec, true
		}
	}

	return FeatureRecord{}, false
}

// PutFeature adds or replaces a feature record, keeping records sorted by name.
func (m *Manifest) PutFeature(rec FeatureRecord) {
	replaced := false

	for i := range m.Features {
		if m.Features[i].Name == rec.Name {
			m.Features[i] = rec
			replaced = true
		}
	}

	if !replaced {
		m.Features = append(m.Features, rec)
	}

	sort.Slice(m.Features, func(i, j int) bool { return m.Features[i].Name < m.Features[j].Name })
}
