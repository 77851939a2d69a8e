// Package spool stores uploaded images on disk until their batch has been processed.
package spool

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okian/sect/internal/domain/ingest"
)

// ErrTooLarge is returned when an upload exceeds the configured size.
var ErrTooLarge = errors.New("upload too large")

// DefaultMaxFileSize caps a single spooled image.
const DefaultMaxFileSize = 20 << 20

// Dir writes uploads into a directory.
type Dir struct {
	path    string
	maxSize int64
}

// New creates the spool directory if needed. An empty path uses the system temp dir.
func New(path string, maxSize int64) (*Dir, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "sect-spool")
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Dir{path: path, maxSize: maxSize}, nil
}

// Path returns the spool directory.
func (d *Dir) Path() string { return d.path }

// Save copies r into a new spool file. The returned file keeps name as its
// display name and deletes its data on Remove.
func (d *Dir) Save(name string, r io.Reader) (*File, error) {
	f, err := os.CreateTemp(d.path, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("spool %s: %w", name, err)
	}
	n, err := io.Copy(f, io.LimitReader(r, d.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > d.maxSize {
		err = fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, name, d.maxSize)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, err
	}
	return &File{name: filepath.Base(name), path: f.Name()}, nil
}

// File is a spooled upload. It implements ingest.File.
type File struct {
	name string
	path string
}

// Name returns the uploaded file name.
func (f *File) Name() string { return f.name }

// Open opens the spooled data.
func (f *File) Open() (io.ReadCloser, error) { return os.Open(f.path) }

// Remove deletes the spooled data. Removing twice is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll deletes every spooled file in files, ignoring other kinds.
func RemoveAll(files []ingest.File) {
	for _, f := range files {
		if sf, ok := f.(*File); ok {
			_ = sf.Remove()
		}
	}
}

var _ ingest.File = (*File)(nil)
