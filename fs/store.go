package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/axtree"
)

// Ensure FileStore implements axtree.SnapshotWriter at compile time.
var _ axtree.SnapshotWriter = (*FileStore)(nil)

// FileStore writes snapshots with atomic replace semantics. Snapshots are
// written to a temporary directory, then moved into place on Commit,
// replacing the previous output as a whole.
type FileStore struct {
	baseDir string
	name    string
	mu      sync.Mutex
}

// NewFileStore creates a new FileStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewFileStore(baseDir, name string) *FileStore {
	return &FileStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// WriteSnapshot writes a rendered snapshot into the temporary directory.
func (s *FileStore) WriteSnapshot(ctx context.Context, snap *axtree.Snapshot, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeSnapshot(s.tempDir(), snap, text)
}

// Commit replaces the output directory with everything written so far.
func (s *FileStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Nothing was written; leave the previous output alone.
	if _, err := os.Stat(s.tempDir()); os.IsNotExist(err) {
		return nil
	}

	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards everything written since the last Commit.
func (s *FileStore) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.tempDir())
}
