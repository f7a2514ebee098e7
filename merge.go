package axtree

import (
	"context"
	"log/slog"
	"slices"
)

// FrameResolver finds the frame hosted by an iframe element.
type FrameResolver interface {
	// ResolveFrameID returns the id of the frame whose owner is the DOM node
	// with the given backend node id.
	ResolveFrameID(ctx context.Context, backendNodeID int64) (string, error)
}

// Merger combines per-frame snapshots into a single tree.
type Merger struct {
	// Resolver maps iframe nodes to their frames. With no resolver frames
	// are concatenated without being linked.
	Resolver FrameResolver

	// Logger receives diagnostics about iframes that could not be linked.
	Logger *slog.Logger
}

// Merge concatenates the nodes of every frame, in order, and appends each
// frame's root node id to the children of the Iframe node that hosts it.
// Iframes that cannot be resolved, or whose frame was not captured, are left
// unlinked; this is expected for detached or empty frames and never fails
// the merge. The input frames are not modified.
func (m *Merger) Merge(ctx context.Context, frames []FrameTree) *Tree {
	logger := orDiscard(m.Logger)

	byID := make(map[string]int, len(frames))
	total := 0
	for i, f := range frames {
		if _, ok := byID[f.FrameID]; !ok {
			byID[f.FrameID] = i
		}
		total += len(f.Nodes)
	}

	tree := &Tree{Nodes: make([]Node, 0, total)}
	for _, f := range frames {
		for _, n := range f.Nodes {
			if n.RoleName() == RoleIframe {
				if rootID, ok := m.frameRoot(ctx, logger, &n, frames, byID); ok {
					n.ChildIDs = append(slices.Clone(n.ChildIDs), rootID)
				}
			}
			tree.Nodes = append(tree.Nodes, n)
		}
	}
	return tree
}

// frameRoot returns the node id of the root of the frame hosted by n.
func (m *Merger) frameRoot(ctx context.Context, logger *slog.Logger, n *Node, frames []FrameTree, byID map[string]int) (string, bool) {
	if m.Resolver == nil {
		return "", false
	}
	if n.BackendDOMNodeID == 0 {
		logger.Warn("iframe node has no backend DOM node", "nodeId", n.NodeID)
		return "", false
	}

	frameID, err := m.Resolver.ResolveFrameID(ctx, n.BackendDOMNodeID)
	if err != nil {
		logger.Warn("resolving iframe frame", "nodeId", n.NodeID, "backendNodeId", n.BackendDOMNodeID, "err", err)
		return "", false
	}

	i, ok := byID[frameID]
	if !ok || len(frames[i].Nodes) == 0 {
		logger.Warn("frame not captured", "frameId", frameID)
		return "", false
	}

	root := &frames[i].Nodes[0]
	if root.FrameID != "" && root.FrameID != frameID {
		logger.Warn("unexpected frame root", "frameId", frameID, "rootFrameId", root.FrameID)
		return "", false
	}
	return root.NodeID, true
}
