package mock

import (
	"context"

	"github.com/fwojciec/axtree"
)

var _ axtree.SnapshotSource = (*SnapshotSource)(nil)

// SnapshotSource is a mock implementation of axtree.SnapshotSource.
type SnapshotSource struct {
	SnapshotFn func(ctx context.Context, url string) (*axtree.Snapshot, error)
	CloseFn    func() error
}

func (s *SnapshotSource) Snapshot(ctx context.Context, url string) (*axtree.Snapshot, error) {
	return s.SnapshotFn(ctx, url)
}

func (s *SnapshotSource) Close() error {
	return s.CloseFn()
}
