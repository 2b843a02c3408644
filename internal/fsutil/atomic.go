package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

var (
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
	osChmod      = os.Chmod
)

// WriteFileAtomic writes data to filename by writing a temp file in the same
// directory and renaming it over the target.
// A crash mid-write leaves either the old content or the new content, never a mix.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	tmp, err := osCreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := osChmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := osRename(tmpName, filename); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	committed = true
	return nil
}
