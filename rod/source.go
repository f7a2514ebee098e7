package rod

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/axtree"
)

// Ensure SnapshotSource implements axtree.SnapshotSource at compile time.
var _ axtree.SnapshotSource = (*SnapshotSource)(nil)

// DefaultTimeout bounds a single snapshot when the caller's context has no
// deadline of its own.
const DefaultTimeout = 30 * time.Second

// SnapshotSource captures accessibility snapshots of live pages with Chrome.
// SnapshotSource is safe for concurrent use by multiple goroutines.
type SnapshotSource struct {
	manager *BrowserManager
	timeout time.Duration
	logger  *slog.Logger
	mark    bool
	closed  atomic.Bool
}

// Option configures a SnapshotSource.
type Option func(*SnapshotSource)

// WithTimeout sets the per-snapshot timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *SnapshotSource) {
		s.timeout = d
	}
}

// WithLogger sets the logger for capture diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SnapshotSource) {
		s.logger = logger
	}
}

// WithoutMarking disables the element marker pre-pass. Snapshots taken this
// way carry no identifiers and no element properties.
func WithoutMarking() Option {
	return func(s *SnapshotSource) {
		s.mark = false
	}
}

// NewSnapshotSource returns a SnapshotSource that opens pages from manager.
// The source owns the manager and closes it on Close.
func NewSnapshotSource(manager *BrowserManager, opts ...Option) *SnapshotSource {
	s := &SnapshotSource{
		manager: manager,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		mark:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot navigates to url, marks interactable elements, captures the
// accessibility tree of every frame and merges them into one tree.
func (s *SnapshotSource) Snapshot(ctx context.Context, url string) (*axtree.Snapshot, error) {
	if s.closed.Load() {
		return nil, axtree.Errorf(axtree.EINVALID, "snapshot source is closed")
	}
	if url == "" {
		return nil, axtree.Errorf(axtree.EINVALID, "snapshot URL required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	page, release, err := s.manager.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	var props axtree.ExtraProperties
	if s.mark {
		if n, err := flagClickListeners(page); err != nil {
			s.logger.Warn("detecting click listeners", "url", url, "err", err)
		} else {
			s.logger.Debug("flagged click listeners", "url", url, "count", n)
		}

		props, err = markFrames(page, s.logger)
		if err != nil {
			return nil, err
		}
		defer unmarkFrames(page, s.logger)
	}

	frames, err := captureFrames(ctx, page, s.logger)
	if err != nil {
		return nil, err
	}
	frames = axtree.ExtractFrameMetadata(frames)

	merger := &axtree.Merger{Resolver: &FrameResolver{Page: page}, Logger: s.logger}
	tree := merger.Merge(ctx, frames)

	snap := &axtree.Snapshot{
		URL:        url,
		Nodes:      tree.Nodes,
		Properties: props,
		CapturedAt: time.Now().UTC(),
	}
	if info, err := page.Info(); err == nil {
		snap.Title = info.Title
	}
	return snap, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (s *SnapshotSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.manager.Close()
}
