package ingest

import (
	"bytes"
	"io"
)

type bytesFile struct {
	name string
	data []byte
}

// BytesFile wraps an image already held in memory.
func BytesFile(name string, data []byte) File {
	return bytesFile{name: name, data: data}
}

func (f bytesFile) Name() string { return f.name }

func (f bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// Rejected is a file refused before the batch started. The pipeline counts it
// as failed without hashing or analyzing it.
type Rejected struct {
	FileName string
	Err      error
}

func (f Rejected) Name() string { return f.FileName }

func (f Rejected) Open() (io.ReadCloser, error) { return nil, f.Err }
