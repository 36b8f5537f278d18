package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is a file waiting to be sent. Open may be called more than once
// when a request is replayed.
type Source interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
	name string
	size int64
}

// FileSource stats path and returns a Source reading it from disk.
func FileSource(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &fileSource{path: path, name: filepath.Base(path), size: fi.Size()}, nil
}

func (f *fileSource) Name() string { return f.name }
func (f *fileSource) Size() int64  { return f.size }

func (f *fileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource serves data from memory.
func BytesSource(name string, data []byte) Source {
	return &bytesSource{name: name, data: data}
}

func (b *bytesSource) Name() string { return b.name }
func (b *bytesSource) Size() int64  { return int64(len(b.data)) }

func (b *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}
