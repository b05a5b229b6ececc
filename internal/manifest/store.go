package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store loads and saves a manifest at one location.
type Store interface {
	Load(ctx context.Context) (*Manifest, error)
	Save(ctx context.Context, m *Manifest) error
	Location() string
}

// Open returns the store for location: "s3://bucket/key" selects an
// S3Store built from the environment, anything else is a file path.
func Open(location string, opts ...S3Option) (Store, error) {
	if strings.HasPrefix(location, "s3://") {
		bucket, key, err := ParseS3URL(location)
		if err != nil {
			return nil, err
		}
		return NewS3Store(NewS3Client(opts...), bucket, key), nil
	}
	if location == "" {
		return nil, errors.New("manifest location is empty")
	}
	return NewFileStore(location), nil
}

// FileStore keeps the manifest in a local file.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Location returns the file path.
func (s *FileStore) Location() string {
	return s.path
}

// Load reads the manifest file.
func (s *FileStore) Load(ctx context.Context) (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, err
	}
	m, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return m, nil
}

// Save writes the manifest, replacing the file atomically.
func (s *FileStore) Save(ctx context.Context, m *Manifest) error {
	var buf bytes.Buffer
	if err := Write(&buf, m); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
