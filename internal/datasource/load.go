package datasource

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// FileSource reads a snapshot document from a YAML or JSON file. The
// document has three top-level lists: trusts, entities and projects.
type FileSource struct {
	path string
	typ  SourceType
}

// NewFileSource returns a file source of the given type.
func NewFileSource(path string, typ SourceType) *FileSource {
	return &FileSource{path: path, typ: typ}
}

// Name returns the file path.
func (f *FileSource) Name() string { return f.path }

// Type returns yaml or json.
func (f *FileSource) Type() SourceType { return f.typ }

// Path returns the file path.
func (f *FileSource) Path() string { return f.path }

// Load reads, decodes and validates the file.
func (f *FileSource) Load(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("reading %s: %w", f.path, err)
	}
	snap, err := Decode(data, f.typ)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	return finish(f.path, snap)
}

// Decode parses a YAML or JSON snapshot document. It does not validate.
func Decode(data []byte, typ SourceType) (model.Snapshot, error) {
	var snap model.Snapshot
	switch typ {
	case SourceTypeYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil {
			return model.Snapshot{}, err
		}
	case SourceTypeJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&snap); err != nil {
			return model.Snapshot{}, err
		}
	default:
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, typ)
	}
	return snap, nil
}

// Encode renders a snapshot as a YAML or JSON document.
func Encode(snap model.Snapshot, typ SourceType) ([]byte, error) {
	switch typ {
	case SourceTypeYAML:
		return yaml.Marshal(snap)
	case SourceTypeJSON:
		return json.MarshalIndent(snap, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, typ)
	}
}

// Save writes snap to path in the format implied by its extension. SQLite
// paths are written through WriteSQLite.
func Save(ctx context.Context, path string, snap model.Snapshot) error {
	typ, err := DetectType(path)
	if err != nil {
		return err
	}
	if typ == SourceTypeDemo {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	if typ == SourceTypeSQLite {
		return WriteSQLite(ctx, path, snap)
	}
	data, err := Encode(snap, typ)
	if err != nil {
		return err
	}
	// write-then-rename so a watcher never sees a half-written file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
