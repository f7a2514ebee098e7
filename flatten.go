package axtree

import (
	"log/slog"
	"strings"
)

// Roles and properties with special handling in the text tree.
const (
	RoleGeneric    = "generic"
	RoleStaticText = "StaticText"
	RoleIframe     = "Iframe"
	RoleLineBreak  = "LineBreak"
)

// flagProperties are rendered as a bare name, and only when truthy.
var flagProperties = map[string]bool{
	"required": true,
	"focused":  true,
	"atomic":   true,
}

// DefaultIgnoredRoles returns the roles omitted from the text tree by default.
func DefaultIgnoredRoles() map[string]bool {
	return map[string]bool{RoleLineBreak: true}
}

// DefaultIgnoredProperties returns the properties omitted from the text tree
// by default. "url" duplicates the href property.
func DefaultIgnoredProperties() map[string]bool {
	return map[string]bool{
		"editable":  true,
		"readonly":  true,
		"level":     true,
		"settable":  true,
		"multiline": true,
		"invalid":   true,
		"focusable": true,
		"url":       true,
	}
}

// RenderConfig controls a single Flatten call.
type RenderConfig struct {
	WithVisible           bool
	WithClickable         bool
	WithCenterCoords      bool
	WithBoundingBoxCoords bool
	WithSOM               bool

	FilterVisibleOnly bool
	FilterWithIDOnly  bool
	FilterSOMOnly     bool

	// HideIDIfInvisible drops the "[id]" prefix of elements whose visibility
	// score is below VisibilityThreshold.
	HideIDIfInvisible bool

	// HideAllChildren filters every node whose parent was filtered, not just
	// static text.
	HideAllChildren bool

	RemoveRedundantStaticText bool

	// CoordDecimals is the number of fractional digits in coordinates.
	CoordDecimals int

	IgnoredRoles      map[string]bool
	IgnoredProperties map[string]bool
}

// DefaultRenderConfig returns the default configuration: no extra
// attributes, no filters, default ignored sets and redundant static text
// removal enabled.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		RemoveRedundantStaticText: true,
		IgnoredRoles:              DefaultIgnoredRoles(),
		IgnoredProperties:         DefaultIgnoredProperties(),
	}
}

// needsProperties reports whether any option reads the properties table.
func (c *RenderConfig) needsProperties() bool {
	return c.WithVisible || c.WithClickable || c.WithCenterCoords ||
		c.WithBoundingBoxCoords || c.WithSOM || c.FilterVisibleOnly ||
		c.FilterWithIDOnly || c.FilterSOMOnly || c.HideIDIfInvisible
}

// Validate returns an error if c cannot be rendered with props.
func (c *RenderConfig) Validate(props ExtraProperties) error {
	if props == nil && c.needsProperties() {
		return Errorf(EINVALID, "extra properties required by render options")
	}
	if c.CoordDecimals < 0 {
		return Errorf(EINVALID, "coordinate decimals must not be negative")
	}
	return nil
}

// Flatten renders a merged tree as indented text, one line per retained
// node, starting at the first node. Nodes that are skipped structurally
// (ignored roles, unnamed nodes, bare generic containers) emit no line but
// their children are still rendered at the same depth. The only error is a
// configuration that needs props when props is nil.
func Flatten(nodes []Node, props ExtraProperties, cfg RenderConfig, logger *slog.Logger) (string, error) {
	if err := cfg.Validate(props); err != nil {
		return "", err
	}
	if len(nodes) == 0 {
		return "", nil
	}

	f := &flattener{
		nodes:  nodes,
		index:  make(map[string]int, len(nodes)),
		onPath: make(map[int]bool),
		props:  props,
		cfg:    cfg,
		logger: orDiscard(logger),
	}
	for i, n := range nodes {
		f.index[n.NodeID] = i
	}

	f.walk(0, 0, false)

	text := strings.Join(f.lines, "\n")
	if cfg.RemoveRedundantStaticText {
		text = RemoveRedundantStaticText(text)
	}
	return text, nil
}

// flattener is the traversal context shared by every step of one Flatten
// call. Only lines and onPath change during the walk.
type flattener struct {
	nodes  []Node
	index  map[string]int
	onPath map[int]bool
	props  ExtraProperties
	cfg    RenderConfig
	logger *slog.Logger
	lines  []string
}

func (f *flattener) walk(idx, depth int, parentFiltered bool) {
	n := &f.nodes[idx]
	f.onPath[idx] = true
	defer delete(f.onPath, idx)

	skip, filtered := f.visit(n, depth, parentFiltered)

	childDepth := depth + 1
	if skip {
		childDepth = depth
	}
	for _, childID := range n.ChildIDs {
		if childID == n.NodeID {
			continue
		}
		childIdx, ok := f.index[childID]
		if !ok || f.onPath[childIdx] {
			continue
		}
		f.walk(childIdx, childDepth, filtered)
	}
}

// visit emits the line for n, if any. It reports whether n emitted no line
// and whether the classifier filtered it; children inherit the latter.
func (f *flattener) visit(n *Node, depth int, parentFiltered bool) (skip, filtered bool) {
	role := n.RoleName()
	if f.cfg.IgnoredRoles[role] || n.Name == nil {
		return true, false
	}

	id, attrs := f.attributes(n)
	if role == RoleGeneric && len(attrs) == 0 {
		skip = true
	}

	if role == RoleStaticText {
		if parentFiltered {
			skip = true
		}
	} else {
		var extra []string
		filtered, extra = Classify(id, f.props, f.cfg, f.logger)
		skip = skip || filtered || (f.cfg.HideAllChildren && parentFiltered)
		attrs = append(extra, attrs...)
	}

	if !skip {
		f.lines = append(f.lines, strings.Repeat("\t", depth)+f.render(n, role, id, attrs))
	}
	return skip, filtered
}

// attributes harvests the node's identifier and its printable properties.
func (f *flattener) attributes(n *Node) (id string, attrs []string) {
	for _, p := range n.Properties {
		if !p.Value.HasPayload() {
			continue
		}
		switch {
		case p.Name == IDProperty:
			id = p.Value.String()
		case f.cfg.IgnoredProperties[p.Name]:
		case flagProperties[p.Name]:
			if p.Value.Truthy() {
				attrs = append(attrs, p.Name)
			}
		default:
			attrs = append(attrs, p.Name+"="+p.Value.Repr())
		}
	}
	return id, attrs
}

func (f *flattener) render(n *Node, role, id string, attrs []string) string {
	var b strings.Builder
	if id != "" && !(f.cfg.HideIDIfInvisible && f.props.Visibility(id) < VisibilityThreshold) {
		b.WriteString("[")
		b.WriteString(id)
		b.WriteString("] ")
	}
	b.WriteString(role)
	b.WriteString(" ")
	b.WriteString(Repr(trimSpace(n.Name.String())))
	if !n.Value.IsNull() {
		b.WriteString(" value=")
		b.WriteString(n.Value.Repr())
	}
	for _, a := range attrs {
		b.WriteString(", ")
		b.WriteString(a)
	}
	return b.String()
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
