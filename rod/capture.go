package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fwojciec/axtree"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// frameIDs returns the ids of every frame in the page. The tree is walked
// with a stack, so later children are visited before earlier ones.
func frameIDs(page *rod.Page) ([]string, error) {
	res, err := proto.PageGetFrameTree{}.Call(page)
	if err != nil {
		return nil, fmt.Errorf("getting frame tree: %w", err)
	}

	var ids []string
	stack := []*proto.PageFrameTree{res.FrameTree}
	for len(stack) > 0 {
		ft := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ft == nil || ft.Frame == nil {
			continue
		}
		ids = append(ids, string(ft.Frame.ID))
		stack = append(stack, ft.ChildFrames...)
	}
	return ids, nil
}

// fullAXTree captures the accessibility tree of one frame. The response is
// decoded into axtree.Node rather than the generated proto types, which
// reject property names missing from the published enum.
func fullAXTree(ctx context.Context, page *rod.Page, frameID string) ([]axtree.Node, error) {
	req := proto.AccessibilityGetFullAXTree{FrameID: proto.PageFrameID(frameID)}
	raw, err := page.Call(ctx, string(page.SessionID), req.ProtoReq(), req)
	if err != nil {
		return nil, fmt.Errorf("getting accessibility tree: %w", err)
	}

	var res struct {
		Nodes []axtree.Node `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decoding accessibility tree: %w", err)
	}
	return res.Nodes, nil
}

// captureFrames captures the accessibility tree of every frame in the page.
// Frames that fail to capture are logged and omitted; it is an error only
// if no frame could be captured.
func captureFrames(ctx context.Context, page *rod.Page, logger *slog.Logger) ([]axtree.FrameTree, error) {
	ids, err := frameIDs(page)
	if err != nil {
		return nil, err
	}

	frames := make([]axtree.FrameTree, 0, len(ids))
	for _, id := range ids {
		nodes, err := fullAXTree(ctx, page, id)
		if err != nil {
			logger.Warn("capturing frame", "frameId", id, "err", err)
			continue
		}
		frames = append(frames, axtree.FrameTree{FrameID: id, Nodes: nodes})
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frame captured out of %d", len(ids))
	}
	return frames, nil
}
