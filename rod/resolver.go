package rod

import (
	"context"
	"fmt"

	"github.com/fwojciec/axtree"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure FrameResolver implements axtree.FrameResolver.
var _ axtree.FrameResolver = (*FrameResolver)(nil)

// FrameResolver resolves iframe owner nodes to frame ids using DOM.describeNode
// on a single page.
type FrameResolver struct {
	Page *rod.Page
}

// ResolveFrameID returns the id of the frame owned by the DOM node.
func (r *FrameResolver) ResolveFrameID(ctx context.Context, backendNodeID int64) (string, error) {
	res, err := proto.DOMDescribeNode{BackendNodeID: proto.DOMBackendNodeID(backendNodeID)}.Call(r.Page.Context(ctx))
	if err != nil {
		return "", fmt.Errorf("describing node %d: %w", backendNodeID, err)
	}
	if res.Node == nil || res.Node.FrameID == "" {
		return "", fmt.Errorf("node %d does not own a frame", backendNodeID)
	}
	return string(res.Node.FrameID), nil
}
