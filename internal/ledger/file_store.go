package ledger

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

const (
	snapshotFileName = "state.json"
	versionFileName  = "schema.version"
)

// FileStore persists the ledger to a directory on disk. It has no change
// feed; cross-session sync requires the redis backend.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var _ Persistence = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(f.dir, snapshotFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (f *FileStore) StoreSnapshot(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Write-then-rename keeps a crash from truncating the snapshot.
	tmp := filepath.Join(f.dir, snapshotFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(f.dir, snapshotFileName))
}

func (f *FileStore) LoadVersion(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(f.dir, versionFileName))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *FileStore) StoreVersion(ctx context.Context, version string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.WriteFile(filepath.Join(f.dir, versionFileName), []byte(version), 0644)
}

// Watch is a no-op for the file backend.
func (f *FileStore) Watch(ctx context.Context, handler func(data []byte)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *FileStore) Close() error { return nil }
