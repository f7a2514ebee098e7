package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/axtree"
)

// Ensure LoggingSnapshotService implements axtree.SnapshotService.
var _ axtree.SnapshotService = (*LoggingSnapshotService)(nil)

// LoggingSnapshotService wraps a SnapshotService with debug logging.
type LoggingSnapshotService struct {
	next   axtree.SnapshotService
	logger *slog.Logger
}

// NewLoggingSnapshotService creates a new LoggingSnapshotService.
func NewLoggingSnapshotService(next axtree.SnapshotService, logger *slog.Logger) *LoggingSnapshotService {
	return &LoggingSnapshotService{next: next, logger: logger}
}

// CreateSnapshot delegates to the wrapped service and logs the stored id.
func (s *LoggingSnapshotService) CreateSnapshot(ctx context.Context, snap *axtree.Snapshot) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("create snapshot",
			"id", snap.ID,
			"url", snap.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateSnapshot(ctx, snap)
}

// FindSnapshotByID delegates to the wrapped service.
func (s *LoggingSnapshotService) FindSnapshotByID(ctx context.Context, id string) (snap *axtree.Snapshot, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find snapshot",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindSnapshotByID(ctx, id)
}

// FindSnapshots delegates to the wrapped service and logs the result count.
func (s *LoggingSnapshotService) FindSnapshots(ctx context.Context, filter axtree.SnapshotFilter) (snaps []*axtree.Snapshot, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find snapshots",
			"count", len(snaps),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindSnapshots(ctx, filter)
}

// DeleteSnapshot delegates to the wrapped service.
func (s *LoggingSnapshotService) DeleteSnapshot(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("delete snapshot",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteSnapshot(ctx, id)
}
