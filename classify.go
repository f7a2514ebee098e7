package axtree

import (
	"log/slog"
	"strconv"
	"strings"
)

// Classify decides whether the element with the given identifier is filtered
// out by cfg and returns the extra attributes to render for it, most
// significant first. An empty id means the node carries no identifier.
//
// Nodes without an identifier are only filtered by the id-only and
// set-of-marks-only filters; they are never hidden for visibility reasons.
// Identifiers missing from props are treated the same way. Malformed bounding
// boxes are reported to logger and the coordinate attribute is omitted.
func Classify(id string, props ExtraProperties, cfg RenderConfig, logger *slog.Logger) (skip bool, attrs []string) {
	if id == "" {
		return cfg.FilterWithIDOnly || cfg.FilterSOMOnly, nil
	}

	p, ok := props[id]
	if !ok || p == nil {
		return false, nil
	}

	visible := p.IsVisible()
	if cfg.FilterVisibleOnly && !visible {
		skip = true
	}
	if cfg.FilterSOMOnly && !p.SetOfMarks {
		skip = true
	}

	// Each attribute is prepended, so the last one added reads first.
	prepend := func(s string) {
		attrs = append([]string{s}, attrs...)
	}
	if cfg.WithSOM && p.SetOfMarks {
		prepend("som")
	}
	if cfg.WithVisible && visible {
		prepend("visible")
	}
	if cfg.WithClickable && p.Clickable {
		prepend("clickable")
	}
	if cfg.WithCenterCoords && p.HasBBox() {
		if box, err := p.Box(); err != nil {
			orDiscard(logger).Warn("invalid bounding box", "id", id, "err", err)
		} else {
			x, y := box.Center()
			prepend(`center="` + formatCoords(cfg.CoordDecimals, x, y) + `"`)
		}
	}
	if cfg.WithBoundingBoxCoords && p.HasBBox() {
		if box, err := p.Box(); err != nil {
			orDiscard(logger).Warn("invalid bounding box", "id", id, "err", err)
		} else {
			l, t, r, b := box.Corners()
			prepend(`box="` + formatCoords(cfg.CoordDecimals, l, t, r, b) + `"`)
		}
	}

	return skip, attrs
}

// formatCoords renders coordinates as "(a,b,...)" with a fixed number of
// fractional digits.
func formatCoords(decimals int, coords ...float64) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c, 'f', decimals, 64)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
