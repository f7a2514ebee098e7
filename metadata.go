package axtree

import (
	"regexp"
	"strings"
)

// Property names used by the element marker side channel.
const (
	// IDProperty is the property that carries an element's stable identifier
	// once metadata has been extracted.
	IDProperty = "browsergym_id"

	// RoleDescriptionProperty is the property the element marker repurposes to
	// smuggle ElementMetadata through the accessibility snapshot.
	RoleDescriptionProperty = "roledescription"

	visibleProperty = "visible"
	hrefProperty    = "href"
)

// Sentinel markers delimiting each field of the encoded roledescription.
const (
	idMarker          = "<|bid|>"
	hrefMarker        = "<|href|>"
	descriptionMarker = "<|original_aria|>"
	visibilityMarker  = "<|visibility|>"
)

var (
	idRe          = markerRe(idMarker)
	hrefRe        = markerRe(hrefMarker)
	descriptionRe = markerRe(descriptionMarker)
	visibilityRe  = markerRe(visibilityMarker)
)

func markerRe(marker string) *regexp.Regexp {
	m := regexp.QuoteMeta(marker)
	return regexp.MustCompile(m + `(.*?)` + m)
}

// ElementMetadata is the per-element payload the element marker encodes into
// an element's aria-roledescription.
type ElementMetadata struct {
	// Identifier is the element's stable id, empty if none was assigned.
	Identifier string

	// LinkTarget is the element's href, empty if none.
	LinkTarget string

	// OriginalDescription is the real roledescription text, possibly empty.
	OriginalDescription string

	// Visible is the marker's own visibility verdict. It defaults to true
	// whenever the field is missing or holds anything but "true" or "false",
	// so that ambiguous input errs on the side of showing the element.
	Visible bool
}

// DecodeMetadata decodes a sentinel-encoded roledescription. Fields may
// appear in any order, each is optional, and text outside the markers is
// ignored. It never fails.
func DecodeMetadata(encoded string) ElementMetadata {
	md := ElementMetadata{
		Identifier:          firstMatch(idRe, encoded),
		LinkTarget:          firstMatch(hrefRe, encoded),
		OriginalDescription: firstMatch(descriptionRe, encoded),
		Visible:             true,
	}
	if m := visibilityRe.FindStringSubmatch(encoded); m != nil && m[1] == "false" {
		md.Visible = false
	}
	return md
}

// Encode renders md in the sentinel format. The element marker produces this
// format in the page; Encode exists for fixtures and offline tooling.
func (md ElementMetadata) Encode() string {
	var b strings.Builder
	writeField(&b, idMarker, md.Identifier)
	writeField(&b, hrefMarker, md.LinkTarget)
	writeField(&b, descriptionMarker, md.OriginalDescription)
	if md.Visible {
		writeField(&b, visibilityMarker, "true")
	} else {
		writeField(&b, visibilityMarker, "false")
	}
	return b.String()
}

func writeField(b *strings.Builder, marker, value string) {
	if value == "" {
		return
	}
	b.WriteString(marker)
	b.WriteString(value)
	b.WriteString(marker)
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// ExtractMetadata decodes the roledescription side channel of every node and
// turns it into ordinary properties: the roledescription gets its original
// text back (and is dropped when that is empty), and IDProperty, "visible"
// and "href" properties are appended as applicable. Nodes are copied; the
// input slice is left untouched.
func ExtractMetadata(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		if len(n.Properties) == 0 {
			continue
		}

		props := make([]Property, 0, len(n.Properties)+3)
		var extra []Property
		for _, p := range n.Properties {
			if p.Name != RoleDescriptionProperty || !p.Value.HasPayload() {
				props = append(props, p)
				continue
			}

			md := DecodeMetadata(p.Value.String())
			if md.OriginalDescription != "" {
				props = append(props, Property{Name: p.Name, Value: &Value{Type: p.Value.Type, Value: StringValue(md.OriginalDescription).Value}})
			}
			if md.Identifier != "" {
				extra = append(extra, Property{Name: IDProperty, Value: StringValue(md.Identifier)})
			}
			// Only flag hidden elements; "*" marks elements that are not interactable.
			if md.Identifier != "*" && !md.Visible {
				extra = append(extra, Property{Name: visibleProperty, Value: &Value{Type: "string", Value: BoolValue(false).Value}})
			}
			if md.LinkTarget != "" {
				extra = append(extra, Property{Name: hrefProperty, Value: StringValue(md.LinkTarget)})
			}
		}
		out[i].Properties = append(props, extra...)
	}
	return out
}

// ExtractFrameMetadata applies ExtractMetadata to every frame.
func ExtractFrameMetadata(frames []FrameTree) []FrameTree {
	out := make([]FrameTree, len(frames))
	for i, f := range frames {
		out[i] = FrameTree{FrameID: f.FrameID, Nodes: ExtractMetadata(f.Nodes)}
	}
	return out
}
