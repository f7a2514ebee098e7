package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/axtree"
)

// Ensure LoggingSnapshotWriter implements axtree.SnapshotWriter.
var _ axtree.SnapshotWriter = (*LoggingSnapshotWriter)(nil)

// LoggingSnapshotWriter wraps a SnapshotWriter with logging.
type LoggingSnapshotWriter struct {
	next   axtree.SnapshotWriter
	logger *slog.Logger
}

// NewLoggingSnapshotWriter creates a new LoggingSnapshotWriter.
func NewLoggingSnapshotWriter(next axtree.SnapshotWriter, logger *slog.Logger) *LoggingSnapshotWriter {
	return &LoggingSnapshotWriter{next: next, logger: logger}
}

// WriteSnapshot delegates to the wrapped writer and logs the written size.
func (w *LoggingSnapshotWriter) WriteSnapshot(ctx context.Context, snap *axtree.Snapshot, text string) (err error) {
	defer func(begin time.Time) {
		w.logger.Debug("write snapshot",
			"url", snap.URL,
			"bytes", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteSnapshot(ctx, snap, text)
}
