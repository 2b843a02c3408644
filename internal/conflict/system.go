package conflict

import (
	"os"
	"path/filepath"

	"github.com/conn-castle/agent2upgrade/internal/fsutil"
)

// System abstracts the filesystem operations needed to find and resolve conflicts.
type System interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
	Glob(pattern string) ([]string, error)
	Rename(oldpath, newpath string) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile reads the named file and returns the contents.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFileAtomic writes data to filename through a temp file and rename.
func (RealSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(filename, data, perm)
}

// Glob returns the names of all files matching pattern.
func (RealSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// Rename renames oldpath to newpath.
func (RealSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
