package mock

import (
	"context"

	"github.com/fwojciec/axtree"
)

var _ axtree.FrameResolver = (*FrameResolver)(nil)

// FrameResolver is a mock implementation of axtree.FrameResolver.
type FrameResolver struct {
	ResolveFrameIDFn func(ctx context.Context, backendNodeID int64) (string, error)
}

func (r *FrameResolver) ResolveFrameID(ctx context.Context, backendNodeID int64) (string, error) {
	return r.ResolveFrameIDFn(ctx, backendNodeID)
}
