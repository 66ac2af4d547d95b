package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore persists uploaded files under a local directory. Each file gets
// a unique suffixed name so concurrent uploads of the same filename never
// collide; the returned location is the full path on disk.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Put(data []byte, fileName string) (string, error) {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(filepath.Base(fileName), ext)
	if base == "" {
		base = "upload"
	}

	location := filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext))
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return location, nil
}

func (s *DiskStore) Delete(location string) error {
	if err := os.Remove(location); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
