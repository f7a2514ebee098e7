package mock

import (
	"context"

	"github.com/fwojciec/axtree"
)

var _ axtree.SnapshotWriter = (*SnapshotWriter)(nil)

// SnapshotWriter is a mock implementation of axtree.SnapshotWriter.
type SnapshotWriter struct {
	WriteSnapshotFn func(ctx context.Context, snap *axtree.Snapshot, text string) error
}

func (w *SnapshotWriter) WriteSnapshot(ctx context.Context, snap *axtree.Snapshot, text string) error {
	return w.WriteSnapshotFn(ctx, snap, text)
}
