package storage

import (
	"io/fs"
	"os"
)

// FileSystem abstracts the file operations the JSON store needs, so tests
// can substitute an in-memory or failing implementation.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)

	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Rename moves a file; the store relies on this being atomic on the
	// backing filesystem.
	Rename(oldpath, newpath string) error

	Remove(name string) error
}

// OSFileSystem is the default implementation backed by the os package.
type OSFileSystem struct{}

func (OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OSFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (OSFileSystem) Remove(name string) error {
	return os.Remove(name)
}
