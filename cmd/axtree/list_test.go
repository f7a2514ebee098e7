package main_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/axtree"
	main "github.com/fwojciec/axtree/cmd/axtree"
	"github.com/fwojciec/axtree/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists snapshots with ID, time, URL, and title", func(t *testing.T) {
		t.Parallel()

		snapshots := &mock.SnapshotService{
			FindSnapshotsFn: func(_ context.Context, _ axtree.SnapshotFilter) ([]*axtree.Snapshot, error) {
				return []*axtree.Snapshot{
					{
						ID:         "snap-2",
						URL:        "https://example.com/b",
						Title:      "B",
						CapturedAt: time.Date(2025, 1, 16, 11, 0, 0, 0, time.UTC),
					},
					{
						ID:         "snap-1",
						URL:        "https://example.com/a",
						Title:      "A",
						CapturedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
					},
				}, nil
			},
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: stderr, Snapshots: snapshots}

		err := (&main.ListCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t,
			"snap-2  2025-01-16 11:00:00  https://example.com/b  B\n"+
				"snap-1  2025-01-15 10:00:00  https://example.com/a  A\n",
			stdout.String())
		assert.Empty(t, stderr.String())
	})

	t.Run("passes URL and limit to the filter", func(t *testing.T) {
		t.Parallel()

		var got axtree.SnapshotFilter
		snapshots := &mock.SnapshotService{
			FindSnapshotsFn: func(_ context.Context, filter axtree.SnapshotFilter) ([]*axtree.Snapshot, error) {
				got = filter
				return nil, nil
			},
		}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Snapshots: snapshots}

		err := (&main.ListCmd{URL: "https://example.com/a", Limit: 5}).Run(deps)

		require.NoError(t, err)
		require.NotNil(t, got.URL)
		assert.Equal(t, "https://example.com/a", *got.URL)
		assert.Equal(t, 5, got.Limit)
	})

	t.Run("shows message when no snapshots", func(t *testing.T) {
		t.Parallel()

		snapshots := &mock.SnapshotService{
			FindSnapshotsFn: func(_ context.Context, _ axtree.SnapshotFilter) ([]*axtree.Snapshot, error) {
				return []*axtree.Snapshot{}, nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Snapshots: snapshots}

		err := (&main.ListCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No snapshots found")
	})

	t.Run("returns error when find fails", func(t *testing.T) {
		t.Parallel()

		snapshots := &mock.SnapshotService{
			FindSnapshotsFn: func(_ context.Context, _ axtree.SnapshotFilter) ([]*axtree.Snapshot, error) {
				return nil, errors.New("database error")
			},
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: stderr, Snapshots: snapshots}

		err := (&main.ListCmd{}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error:")
		assert.Empty(t, stdout.String())
	})
}
