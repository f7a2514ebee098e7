package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/axtree"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ axtree.SnapshotService = (*SnapshotService)(nil)

const snapshotColumns = "id, url, title, nodes, properties, text, text_hash, captured_at"

// SnapshotService implements axtree.SnapshotService using SQLite.
type SnapshotService struct {
	db *DB
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(db *DB) *SnapshotService {
	return &SnapshotService{db: db}
}

// CreateSnapshot stores a new snapshot. When the snapshot has no rendered
// text it is rendered with the default configuration first.
func (s *SnapshotService) CreateSnapshot(ctx context.Context, snap *axtree.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	if snap.Text == "" {
		// The default configuration reads no element properties.
		text, err := axtree.Flatten(snap.Nodes, axtree.ExtraProperties{}, axtree.DefaultRenderConfig(), nil)
		if err != nil {
			return err
		}
		snap.Text = text
	}

	nodes, err := json.Marshal(snap.Nodes)
	if err != nil {
		return fmt.Errorf("encoding nodes: %w", err)
	}
	var props sql.NullString
	if snap.Properties != nil {
		b, err := json.Marshal(snap.Properties)
		if err != nil {
			return fmt.Errorf("encoding properties: %w", err)
		}
		props = sql.NullString{String: string(b), Valid: true}
	}

	snap.ID = uuid.New().String()
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}
	snap.TextHash = hashContent(snap.Text)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (`+snapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.URL, snap.Title, string(nodes), props, snap.Text, snap.TextHash,
		formatTime(snap.CapturedAt))

	return err
}

// FindSnapshotByID retrieves a snapshot by ID.
func (s *SnapshotService) FindSnapshotByID(ctx context.Context, id string) (*axtree.Snapshot, error) {
	snaps, err := s.FindSnapshots(ctx, axtree.SnapshotFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, axtree.Errorf(axtree.ENOTFOUND, "snapshot not found")
	}
	return snaps[0], nil
}

// FindSnapshots retrieves snapshots matching the filter, newest first.
func (s *SnapshotService) FindSnapshots(ctx context.Context, filter axtree.SnapshotFilter) ([]*axtree.Snapshot, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + snapshotColumns + " FROM snapshots WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY captured_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*axtree.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	return snaps, rows.Err()
}

// DeleteSnapshot permanently removes a snapshot.
func (s *SnapshotService) DeleteSnapshot(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return axtree.Errorf(axtree.ENOTFOUND, "snapshot not found")
	}

	return nil
}

func scanSnapshot(rows *sql.Rows) (*axtree.Snapshot, error) {
	var snap axtree.Snapshot
	var nodes string
	var props sql.NullString
	var capturedAt string

	if err := rows.Scan(&snap.ID, &snap.URL, &snap.Title, &nodes, &props,
		&snap.Text, &snap.TextHash, &capturedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(nodes), &snap.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}
	if props.Valid {
		if err := json.Unmarshal([]byte(props.String), &snap.Properties); err != nil {
			return nil, fmt.Errorf("failed to decode properties: %w", err)
		}
	}

	var err error
	snap.CapturedAt, err = parseTime(capturedAt, "captured_at")
	if err != nil {
		return nil, err
	}

	return &snap, nil
}
