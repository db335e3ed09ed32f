package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// renameFunc is replaceable so tests can simulate failing renames.
var renameFunc = os.Rename

// FileHost keeps one scene document open and persists it as YAML.
type FileHost struct {
	doc    *Document
	path   string
	logger *slog.Logger
}

// NewUntitled returns a host holding an empty, never saved scene.
func NewUntitled(logger *slog.Logger) *FileHost {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHost{doc: &Document{}, logger: logger}
}

// Open loads the scene at path.
func Open(path string, logger *slog.Logger) (*FileHost, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve scene path: %w", err)
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read scene %q: %w", absPath, err)
	}

	doc, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scene %q: %w", absPath, err)
	}

	logger.Debug("scene opened", "path", absPath, "nodes", len(doc.Nodes))
	return &FileHost{doc: doc, path: absPath, logger: logger}, nil
}

// Decode parses and normalizes a YAML scene document.
func Decode(raw []byte) (*Document, error) {
	var doc Document
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	}
	if err := doc.Normalize(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode renders a scene document as YAML.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Document returns the open scene.
func (h *FileHost) Document() *Document {
	return h.doc
}

// CurrentPath returns the scene path, or false for an untitled scene.
func (h *FileHost) CurrentPath(context.Context) (string, bool) {
	return h.path, h.path != ""
}

// Save writes the scene back to its current path.
func (h *FileHost) Save(ctx context.Context) error {
	if h.path == "" {
		return errors.New("scene is untitled")
	}
	return h.write(ctx, h.path)
}

// SaveAs writes the scene to path and makes it the current path. The
// previous path is kept when the write fails.
func (h *FileHost) SaveAs(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve scene path: %w", err)
	}
	if err := h.write(ctx, absPath); err != nil {
		return err
	}
	h.path = absPath
	return nil
}

func (h *FileHost) write(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(h.doc)
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := writeFileAtomic(filepath.Dir(path), filepath.Base(path), data, 0o644); err != nil {
		return fmt.Errorf("write scene %q: %w", path, err)
	}
	h.logger.Debug("scene written", "path", path, "bytes", len(data))
	return nil
}

// writeFileAtomic writes data to dir/name through a temp file in the same
// directory followed by a rename, replacing an existing file.
func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := renameFunc(tmpName, filepath.Join(dir, name)); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Sync()
}
