package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hiredesk/internal/utils"
)

// LocalStorage persists uploaded files under a single directory. Stored
// names are prefixed with a NanoID so concurrent uploads of identically
// named files never collide.
type LocalStorage struct {
	dir string
}

// SavedFile describes a file written to the upload directory.
type SavedFile struct {
	// Name is the generated file name within the upload directory.
	Name string
	// Path is the directory-joined path recorded in the database and
	// used for later deletion.
	Path string
	// Size is the number of bytes written.
	Size int64
}

// New creates the upload directory if it does not exist.
func New(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}

	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes src to a uniquely named file. The write goes through a temp
// file and an atomic rename so a partially written upload is never visible
// under its final name.
func (s *LocalStorage) Save(src io.Reader, originalName string) (*SavedFile, error) {
	name := utils.NanoID() + "-" + sanitizeName(originalName)
	path := filepath.Join(s.dir, name)
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(f, src)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("write upload: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("close upload: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("rename upload: %w", err)
	}

	return &SavedFile{
		Name: name,
		Path: path,
		Size: size,
	}, nil
}

// Remove deletes a previously saved file. Removing a file that is already
// gone is not an error.
func (s *LocalStorage) Remove(path string) error {
	if path == "" {
		return nil
	}

	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a stored path is still present on disk.
func (s *LocalStorage) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// sanitizeName strips any directory components from a client-supplied file
// name and collapses characters that are awkward on disk.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	return name
}
