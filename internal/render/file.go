package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilePath returns <root>/<owner>/<name>.<ext>. Path separators in owner or name are
// replaced so the file always lands one directory below root.
func FilePath(root, owner, name string, format Format) string {
	clean := func(s string) string {
		s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
		if s == "" {
			return "_"
		}
		return s
	}
	return filepath.Join(root, clean(owner), clean(name)+"."+format.Ext())
}

// WriteFile stores data at path through a temp file in the same directory, so a
// reader never sees a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
