package rod

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fwojciec/axtree"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

//go:embed marker.js
var markerJS string

//go:embed unmark.js
var unmarkJS string

// idAttribute holds an element's marker identifier, or an iframe's frame
// prefix.
const idAttribute = "data-twin-unique-id"

// Click listener detection limits. Nodes with more listeners than
// maxClickListeners are usually delegation roots, not controls.
const (
	clickListenerAttribute = "data-twin-agent-element-has-click-listener"
	maxClickListeners      = 10
)

var clickListenerTypes = map[string]bool{
	"click":     true,
	"mousedown": true,
	"dblclick":  true,
}

// flagClickListeners marks every element with a click-like event listener so
// the marker script can treat it as clickable.
func flagClickListeners(page *rod.Page) (int, error) {
	doc, err := proto.DOMGetDocument{}.Call(page)
	if err != nil {
		return 0, fmt.Errorf("getting document: %w", err)
	}
	body, err := proto.DOMQuerySelector{NodeID: doc.Root.NodeID, Selector: "body"}.Call(page)
	if err != nil {
		return 0, fmt.Errorf("querying body: %w", err)
	}
	obj, err := proto.DOMResolveNode{NodeID: body.NodeID}.Call(page)
	if err != nil {
		return 0, fmt.Errorf("resolving body: %w", err)
	}

	depth := -1
	res, err := proto.DOMDebuggerGetEventListeners{ObjectID: obj.Object.ObjectID, Depth: &depth}.Call(page)
	if err != nil {
		return 0, fmt.Errorf("getting event listeners: %w", err)
	}

	counts := make(map[proto.DOMBackendNodeID]int)
	var order []proto.DOMBackendNodeID
	for _, l := range res.Listeners {
		if !clickListenerTypes[l.Type] {
			continue
		}
		if counts[l.BackendNodeID] == 0 {
			order = append(order, l.BackendNodeID)
		}
		counts[l.BackendNodeID]++
	}

	var backendIDs []proto.DOMBackendNodeID
	for _, id := range order {
		if counts[id] <= maxClickListeners {
			backendIDs = append(backendIDs, id)
		}
	}
	if len(backendIDs) == 0 {
		return 0, nil
	}

	pushed, err := proto.DOMPushNodesByBackendIDsToFrontend{BackendNodeIDs: backendIDs}.Call(page)
	if err != nil {
		return 0, fmt.Errorf("pushing listener nodes: %w", err)
	}

	flagged := 0
	for _, nodeID := range pushed.NodeIDs {
		err := proto.DOMSetAttributeValue{NodeID: nodeID, Name: clickListenerAttribute, Value: "1"}.Call(page)
		if err != nil {
			continue
		}
		flagged++
	}
	return flagged, nil
}

// markFrames runs the marker script in the page and, recursively, in every
// iframe it can reach. It returns the element properties of all frames with
// bounding boxes translated to top-level viewport coordinates.
//
// A failure in the top-level document is returned; failures in nested frames
// are logged and that frame is skipped.
func markFrames(page *rod.Page, logger *slog.Logger) (axtree.ExtraProperties, error) {
	props := axtree.ExtraProperties{}
	if err := markFrame(page, "", 0, 0, props); err != nil {
		return nil, err
	}
	markChildFrames(page, "", 0, 0, props, map[string]bool{}, logger)
	return props, nil
}

// markChildFrames marks every iframe of frame. An iframe that already
// carries a frame prefix in its data-twin-unique-id attribute keeps it, so
// identifiers survive reordering of sibling iframes across captures; others
// get the next free positional prefix, which is written back to the
// element. used holds every prefix taken on the page.
func markChildFrames(frame *rod.Page, prefix string, offsetX, offsetY float64, props axtree.ExtraProperties, used map[string]bool, logger *slog.Logger) {
	iframes, err := frame.Elements("iframe")
	if err != nil {
		logger.Warn("listing iframes", "prefix", prefix, "err", err)
		return
	}

	existing := make([]string, len(iframes))
	for i, el := range iframes {
		if id, err := el.Attribute(idAttribute); err == nil && id != nil {
			existing[i] = *id
		}
	}
	prefixes := assignFramePrefixes(prefix, existing, used)

	for i, el := range iframes {
		childPrefix := prefixes[i]

		sandbox, err := el.Attribute("sandbox")
		if err == nil && sandbox != nil && !sandboxAllowsScripts(*sandbox) {
			logger.Debug("skipping sandboxed iframe", "prefix", childPrefix)
			continue
		}

		if childPrefix != existing[i] {
			if _, err := el.Eval(`(name, v) => this.setAttribute(name, v)`, idAttribute, childPrefix); err != nil {
				logger.Warn("tagging iframe", "prefix", childPrefix, "err", err)
			}
		}

		x, y, err := contentOrigin(el)
		if err != nil {
			logger.Warn("measuring iframe", "prefix", childPrefix, "err", err)
			continue
		}
		child, err := el.Frame()
		if err != nil {
			logger.Warn("entering iframe", "prefix", childPrefix, "err", err)
			continue
		}

		x, y = offsetX+x, offsetY+y
		if err := markFrame(child, childPrefix, x, y, props); err != nil {
			logger.Warn("marking iframe", "prefix", childPrefix, "err", err)
			continue
		}
		markChildFrames(child, childPrefix, x, y, props, used, logger)
	}
}

// markFrame runs the marker script in one document and adds its properties
// to props, shifting boxes by the frame's offset.
func markFrame(frame *rod.Page, prefix string, offsetX, offsetY float64, props axtree.ExtraProperties) error {
	res, err := frame.Eval(markerJS, prefix)
	if err != nil {
		return fmt.Errorf("running marker script: %w", err)
	}

	var frameProps axtree.ExtraProperties
	if err := json.Unmarshal([]byte(res.Value.Str()), &frameProps); err != nil {
		return fmt.Errorf("decoding marker result: %w", err)
	}

	for id, p := range frameProps {
		if p == nil {
			continue
		}
		if (offsetX != 0 || offsetY != 0) && p.HasBBox() {
			if box, err := p.Box(); err == nil {
				p.BBox = axtree.NewBBox(box.X+offsetX, box.Y+offsetY, box.Width, box.Height)
			}
		}
		props[id] = p
	}
	return nil
}

// unmarkFrames restores the aria-roledescription attributes the marker
// replaced, in the page and in every iframe reachable from it.
func unmarkFrames(frame *rod.Page, logger *slog.Logger) {
	if _, err := frame.Eval(unmarkJS); err != nil {
		logger.Debug("restoring role descriptions", "err", err)
		return
	}
	iframes, err := frame.Elements("iframe")
	if err != nil {
		return
	}
	for _, el := range iframes {
		child, err := el.Frame()
		if err != nil {
			continue
		}
		unmarkFrames(child, logger)
	}
}

// contentOrigin returns the viewport position of an iframe's content box.
func contentOrigin(el *rod.Element) (float64, float64, error) {
	res, err := el.Eval(`() => {
		const r = this.getBoundingClientRect();
		return JSON.stringify([r.left + this.clientLeft, r.top + this.clientTop]);
	}`)
	if err != nil {
		return 0, 0, err
	}
	var origin [2]float64
	if err := json.Unmarshal([]byte(res.Value.Str()), &origin); err != nil {
		return 0, 0, err
	}
	return origin[0], origin[1], nil
}

// assignFramePrefixes picks the identifier prefix of each iframe of a
// document whose own prefix is parent. existing holds each iframe's current
// data-twin-unique-id. Valid, unclaimed prefixes are kept; the rest get
// parent followed by the first free positional suffix. Every returned
// prefix is added to used.
func assignFramePrefixes(parent string, existing []string, used map[string]bool) []string {
	prefixes := make([]string, len(existing))
	for i, id := range existing {
		if isFramePrefix(id) && !used[id] {
			used[id] = true
			prefixes[i] = id
		}
	}

	next := 0
	for i := range prefixes {
		if prefixes[i] != "" {
			continue
		}
		for {
			p := parent + framePrefix(next)
			next++
			if !used[p] {
				used[p] = true
				prefixes[i] = p
				break
			}
		}
	}
	return prefixes
}

// isFramePrefix reports whether s can prefix element identifiers: one or
// more lower-case ASCII letters.
func isFramePrefix(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// framePrefix returns the positional suffix for the i-th iframe of a
// document: a, b, ..., z, aa, ab, ...
func framePrefix(i int) string {
	var b []byte
	for {
		b = append([]byte{byte('a' + i%26)}, b...)
		i = i/26 - 1
		if i < 0 {
			return string(b)
		}
	}
}

// sandboxAllowsScripts reports whether an iframe sandbox attribute value
// still lets the marker script run.
func sandboxAllowsScripts(sandbox string) bool {
	for _, token := range strings.Fields(sandbox) {
		if token == "allow-scripts" {
			return true
		}
	}
	return false
}
