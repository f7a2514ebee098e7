package axtree

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Node is one node of a raw accessibility snapshot, in the shape returned by
// the Chrome DevTools Protocol Accessibility domain. Typed CDP bindings are
// avoided because property values are heterogeneous (strings, booleans,
// numbers, node lists) and some property names are not part of the published
// enum.
type Node struct {
	NodeID           string     `json:"nodeId"`
	Ignored          bool       `json:"ignored,omitempty"`
	Role             *Value     `json:"role,omitempty"`
	Name             *Value     `json:"name,omitempty"`
	Value            *Value     `json:"value,omitempty"`
	Properties       []Property `json:"properties,omitempty"`
	ParentID         string     `json:"parentId,omitempty"`
	ChildIDs         []string   `json:"childIds"`
	BackendDOMNodeID int64      `json:"backendDOMNodeId,omitempty"`
	FrameID          string     `json:"frameId,omitempty"`
}

// RoleName returns the node's role, or an empty string if it has none.
func (n *Node) RoleName() string {
	return n.Role.String()
}

// Value is a typed CDP accessibility value. The payload is kept raw so that
// it can be rendered exactly as it was captured.
type Value struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// StringValue returns a Value of type "string" holding s.
func StringValue(s string) *Value {
	b, _ := json.Marshal(s)
	return &Value{Type: "string", Value: b}
}

// BoolValue returns a Value of type "boolean" holding b.
func BoolValue(b bool) *Value {
	if b {
		return &Value{Type: "boolean", Value: json.RawMessage("true")}
	}
	return &Value{Type: "boolean", Value: json.RawMessage("false")}
}

// HasPayload reports whether the value carries a payload at all.
// A JSON null counts as a payload.
func (v *Value) HasPayload() bool {
	return v != nil && len(v.Value) > 0
}

// IsNull reports whether the payload is absent or JSON null.
func (v *Value) IsNull() bool {
	if !v.HasPayload() {
		return true
	}
	return bytes.Equal(bytes.TrimSpace(v.Value), []byte("null"))
}

// String returns the payload as a plain string. Non-string payloads are
// returned as their JSON text.
func (v *Value) String() string {
	if v == nil || v.Value == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return strings.Trim(string(v.Value), `"`)
}

// Repr renders the payload the way the text tree prints values.
func (v *Value) Repr() string {
	if v == nil {
		return reprNone
	}
	return reprJSON(v.Value)
}

// Truthy reports whether the payload is truthy: true, a non-empty string,
// a non-zero number or a non-empty list or object.
func (v *Value) Truthy() bool {
	if v.IsNull() {
		return false
	}
	var x any
	if err := json.Unmarshal(v.Value, &x); err != nil {
		return false
	}
	switch t := x.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return false
}

// Property is a named accessibility property. A node may carry several
// properties with the same name.
type Property struct {
	Name  string `json:"name"`
	Value *Value `json:"value,omitempty"`
}

// FrameTree is the raw accessibility snapshot of a single frame. By
// convention the first node is the frame's root.
type FrameTree struct {
	FrameID string `json:"frameId"`
	Nodes   []Node `json:"nodes"`
}

// Tree is a merged accessibility tree spanning every captured frame.
// The first node is the document root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}
