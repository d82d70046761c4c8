// Package loader reads lexrope configuration sources into nested maps.
//
// TOML files and LEXROPE_* environment variables are each loaded into a
// map[string]any keyed by section; DeepMerge layers them.
package loader

import (
	"io/fs"
	"os"
)

// Loader produces one configuration layer. A source that does not exist
// yields a nil map and no error.
type Loader interface {
	Load() (map[string]any, error)
}

// FileSystem is the read access TOMLLoader needs. fstest.MapFS satisfies it.
type FileSystem interface {
	fs.FS
	ReadFile(path string) ([]byte, error)
	Stat(path string) (fs.FileInfo, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

func (OSFS) Open(name string) (fs.File, error)     { return os.Open(name) }
func (OSFS) ReadFile(path string) ([]byte, error)  { return os.ReadFile(path) }
func (OSFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// DefaultFS returns OSFS.
func DefaultFS() FileSystem {
	return OSFS{}
}
