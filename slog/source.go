package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/axtree"
)

// Ensure LoggingSnapshotSource implements axtree.SnapshotSource.
var _ axtree.SnapshotSource = (*LoggingSnapshotSource)(nil)

// LoggingSnapshotSource wraps a SnapshotSource with logging.
type LoggingSnapshotSource struct {
	next   axtree.SnapshotSource
	logger *slog.Logger
}

// NewLoggingSnapshotSource creates a new LoggingSnapshotSource.
func NewLoggingSnapshotSource(next axtree.SnapshotSource, logger *slog.Logger) *LoggingSnapshotSource {
	return &LoggingSnapshotSource{next: next, logger: logger}
}

// Snapshot delegates to the wrapped source and logs the node count,
// element count and duration.
func (s *LoggingSnapshotSource) Snapshot(ctx context.Context, url string) (snap *axtree.Snapshot, err error) {
	defer func(begin time.Time) {
		var nodes, elements int
		if snap != nil {
			nodes, elements = len(snap.Nodes), len(snap.Properties)
		}
		s.logger.Info("snapshot",
			"url", url,
			"nodes", nodes,
			"elements", elements,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Snapshot(ctx, url)
}

// Close delegates to the wrapped source.
func (s *LoggingSnapshotSource) Close() error {
	return s.next.Close()
}
