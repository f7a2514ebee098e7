package axtree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// VisibilityThreshold is the minimum visibility score at which an element is
// considered visible.
const VisibilityThreshold = 0.5

// ElementProperties is the externally measured metadata for one element.
type ElementProperties struct {
	// Visibility is the fraction of the element that is visible. A missing
	// score decodes as 0, which means invisible.
	Visibility float64 `json:"visibility"`

	// BBox is the element's bounding box as [x, y, width, height]. It is kept
	// raw because producers occasionally emit malformed boxes, which are
	// reported and ignored at render time instead of failing the decode.
	BBox json.RawMessage `json:"bbox,omitempty"`

	Clickable  bool `json:"clickable"`
	SetOfMarks bool `json:"set_of_marks"`
}

// IsVisible reports whether the visibility score reaches VisibilityThreshold.
func (p *ElementProperties) IsVisible() bool {
	return p.Visibility >= VisibilityThreshold
}

// HasBBox reports whether a non-null bounding box was supplied.
func (p *ElementProperties) HasBBox() bool {
	b := bytes.TrimSpace(p.BBox)
	return len(b) > 0 && !bytes.Equal(b, []byte("null"))
}

// Box decodes the bounding box. It returns an error if the box is not a list
// of exactly four numbers.
func (p *ElementProperties) Box() (BoundingBox, error) {
	var vals []float64
	if err := json.Unmarshal(p.BBox, &vals); err != nil {
		return BoundingBox{}, fmt.Errorf("decoding bbox %s: %w", p.BBox, err)
	}
	if len(vals) != 4 {
		return BoundingBox{}, fmt.Errorf("bbox %s: expected 4 values, got %d", p.BBox, len(vals))
	}
	return BoundingBox{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// BoundingBox is an element's box in page coordinates.
type BoundingBox struct {
	X, Y, Width, Height float64
}

// NewBBox encodes a bounding box for ElementProperties.BBox.
func NewBBox(x, y, width, height float64) json.RawMessage {
	b, _ := json.Marshal([]float64{x, y, width, height})
	return b
}

// Center returns the center point of the box.
func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Corners returns the box as left, top, right, bottom.
func (b BoundingBox) Corners() (left, top, right, bottom float64) {
	return b.X, b.Y, b.X + b.Width, b.Y + b.Height
}

// ExtraProperties maps element identifiers to their measured properties.
// A nil table means no table was supplied at all, which is distinct from an
// empty one.
type ExtraProperties map[string]*ElementProperties

// Visibility returns the visibility score for id, or 0 if id is unknown.
func (t ExtraProperties) Visibility(id string) float64 {
	if p, ok := t[id]; ok && p != nil {
		return p.Visibility
	}
	return 0
}
