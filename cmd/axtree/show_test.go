package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/axtree"
	main "github.com/fwojciec/axtree/cmd/axtree"
	"github.com/fwojciec/axtree/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("renders the stored snapshot with flags", func(t *testing.T) {
		t.Parallel()

		snapshots := &mock.SnapshotService{
			FindSnapshotByIDFn: func(_ context.Context, id string) (*axtree.Snapshot, error) {
				snap := testSnapshot("https://example.com/", "Home")
				snap.ID = id
				return snap, nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Snapshots: snapshots}

		err := (&main.ShowCmd{ID: "snap-1", RenderFlags: main.RenderFlags{Clickable: true}}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "RootWebArea 'Home'\n\t[a1] button 'Go', clickable\n", stdout.String())
	})

	t.Run("rejects options that need properties the snapshot lacks", func(t *testing.T) {
		t.Parallel()

		snapshots := &mock.SnapshotService{
			FindSnapshotByIDFn: func(_ context.Context, id string) (*axtree.Snapshot, error) {
				snap := testSnapshot("https://example.com/", "Home")
				snap.ID = id
				snap.Properties = nil
				return snap, nil
			},
		}
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: stderr, Snapshots: snapshots}

		err := (&main.ShowCmd{ID: "snap-1", RenderFlags: main.RenderFlags{BBox: true}}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, axtree.EINVALID, axtree.ErrorCode(err))
		assert.Contains(t, stderr.String(), "extra properties required")
		assert.Empty(t, stdout.String())
	})

	t.Run("reports missing snapshot", func(t *testing.T) {
		t.Parallel()

		snapshots := &mock.SnapshotService{
			FindSnapshotByIDFn: func(_ context.Context, id string) (*axtree.Snapshot, error) {
				return nil, axtree.Errorf(axtree.ENOTFOUND, "snapshot not found")
			},
		}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: &bytes.Buffer{}, Stderr: stderr, Snapshots: snapshots}

		err := (&main.ShowCmd{ID: "missing"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, axtree.ENOTFOUND, axtree.ErrorCode(err))
		assert.Contains(t, stderr.String(), `snapshot "missing" not found`)
	})
}
