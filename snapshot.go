package axtree

import (
	"context"
	"log/slog"
	"time"
)

// Snapshot is a merged accessibility tree captured from one page, together
// with the element properties measured at capture time.
type Snapshot struct {
	ID         string          `json:"id"`
	URL        string          `json:"url"`
	Title      string          `json:"title"`
	Nodes      []Node          `json:"nodes"`
	Properties ExtraProperties `json:"properties"`

	// Text is the tree rendered with the default configuration and TextHash
	// its hash, used to tell whether a page changed between captures.
	Text     string `json:"text"`
	TextHash string `json:"textHash"`

	CapturedAt time.Time `json:"capturedAt"`
}

// Validate returns an error if the snapshot contains invalid fields.
func (s *Snapshot) Validate() error {
	if s.URL == "" {
		return Errorf(EINVALID, "snapshot URL required")
	}
	if len(s.Nodes) == 0 {
		return Errorf(EINVALID, "snapshot has no nodes")
	}
	return nil
}

// Render flattens the snapshot with cfg against its own properties. A
// snapshot captured without element properties can only be rendered with
// options that do not read them; anything else is EINVALID.
func (s *Snapshot) Render(cfg RenderConfig, logger *slog.Logger) (string, error) {
	return Flatten(s.Nodes, s.Properties, cfg, logger)
}

// SnapshotSource captures snapshots of live pages.
type SnapshotSource interface {
	// Snapshot navigates to the URL, marks interactable elements, captures
	// every frame and returns the merged tree.
	// The context controls timeout and cancellation.
	Snapshot(ctx context.Context, url string) (*Snapshot, error)

	// Close releases browser resources.
	Close() error
}

// SnapshotService represents a service for managing stored snapshots.
type SnapshotService interface {
	// CreateSnapshot stores a snapshot, assigning its ID, capture time if
	// unset, and text hash.
	CreateSnapshot(ctx context.Context, snap *Snapshot) error

	// FindSnapshotByID retrieves a snapshot by ID.
	// Returns ENOTFOUND if the snapshot does not exist.
	FindSnapshotByID(ctx context.Context, id string) (*Snapshot, error)

	// FindSnapshots retrieves snapshots matching the filter, newest first.
	FindSnapshots(ctx context.Context, filter SnapshotFilter) ([]*Snapshot, error)

	// DeleteSnapshot permanently removes a snapshot.
	// Returns ENOTFOUND if the snapshot does not exist.
	DeleteSnapshot(ctx context.Context, id string) error
}

// SnapshotFilter represents a filter for FindSnapshots.
type SnapshotFilter struct {
	ID  *string `json:"id"`
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// SnapshotWriter writes rendered snapshots somewhere outside the database.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap *Snapshot, text string) error
}

// HostLimiter spaces out page loads per host.
type HostLimiter interface {
	// Wait blocks until a page load from host is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}
