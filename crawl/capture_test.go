package crawl_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/axtree"
	"github.com/fwojciec/axtree/crawl"
	"github.com/fwojciec/axtree/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageSnapshot(url, name string) *axtree.Snapshot {
	return &axtree.Snapshot{
		URL: url,
		Nodes: []axtree.Node{
			{NodeID: "1", Role: axtree.StringValue("RootWebArea"), Name: axtree.StringValue(name), ChildIDs: []string{"2"}},
			{
				NodeID: "2",
				Role:   axtree.StringValue("button"),
				Name:   axtree.StringValue("Go"),
				Properties: []axtree.Property{
					{Name: axtree.IDProperty, Value: axtree.StringValue("a1")},
				},
			},
		},
		Properties: axtree.ExtraProperties{"a1": {Visibility: 1, Clickable: true}},
	}
}

func sourceFor(pages map[string]string) *mock.SnapshotSource {
	return &mock.SnapshotSource{
		SnapshotFn: func(_ context.Context, url string) (*axtree.Snapshot, error) {
			name, ok := pages[url]
			if !ok {
				return nil, errors.New("navigation failed")
			}
			return pageSnapshot(url, name), nil
		},
	}
}

func TestCapturer_Capture(t *testing.T) {
	t.Parallel()

	t.Run("renders every page in input order", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Capturer{
			Source: sourceFor(map[string]string{
				"https://a.com/": "A",
				"https://b.com/": "B",
				"https://c.com/": "C",
			}),
			Config:      axtree.DefaultRenderConfig(),
			Concurrency: 3,
			RetryDelays: []time.Duration{},
		}

		res, err := c.Capture(context.Background(), []string{"https://a.com/", "https://b.com/", "https://c.com/"}, nil)

		require.NoError(t, err)
		require.Len(t, res.Pages, 3)
		assert.Equal(t, 3, res.Captured)
		assert.Zero(t, res.Failed)
		assert.Equal(t, "RootWebArea 'A'\n\t[a1] button 'Go'", res.Pages[0].Text)
		assert.Equal(t, "RootWebArea 'B'\n\t[a1] button 'Go'", res.Pages[1].Text)
		assert.Equal(t, "RootWebArea 'C'\n\t[a1] button 'Go'", res.Pages[2].Text)
		assert.Equal(t, len(res.Pages[0].Text)*3, res.Bytes)
	})

	t.Run("applies render configuration", func(t *testing.T) {
		t.Parallel()

		cfg := axtree.DefaultRenderConfig()
		cfg.WithClickable = true
		c := &crawl.Capturer{
			Source:      sourceFor(map[string]string{"https://a.com/": "A"}),
			Config:      cfg,
			RetryDelays: []time.Duration{},
		}

		res, err := c.Capture(context.Background(), []string{"https://a.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, "RootWebArea 'A'\n\t[a1] button 'Go', clickable", res.Pages[0].Text)
	})

	t.Run("records failures without stopping other pages", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Capturer{
			Source:      sourceFor(map[string]string{"https://a.com/": "A"}),
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{},
		}

		res, err := c.Capture(context.Background(), []string{"https://missing.com/", "https://a.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Captured)
		assert.Equal(t, 1, res.Failed)
		assert.EqualError(t, res.Pages[0].Err, "navigation failed")
		assert.NoError(t, res.Pages[1].Err)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		source := &mock.SnapshotSource{
			SnapshotFn: func(_ context.Context, url string) (*axtree.Snapshot, error) {
				if calls.Add(1) < 3 {
					return nil, errors.New("timeout")
				}
				return pageSnapshot(url, "A"), nil
			},
		}
		c := &crawl.Capturer{
			Source:      source,
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
		}

		res, err := c.Capture(context.Background(), []string{"https://a.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Captured)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("does not retry invalid input", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		source := &mock.SnapshotSource{
			SnapshotFn: func(_ context.Context, _ string) (*axtree.Snapshot, error) {
				calls.Add(1)
				return nil, axtree.Errorf(axtree.EINVALID, "snapshot source is closed")
			},
		}
		c := &crawl.Capturer{
			Source:      source,
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{time.Millisecond, time.Millisecond},
		}

		res, err := c.Capture(context.Background(), []string{"https://a.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("stores and writes captured pages", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var stored []*axtree.Snapshot
		written := map[string]string{}
		c := &crawl.Capturer{
			Source: sourceFor(map[string]string{"https://a.com/": "A", "https://b.com/": "B"}),
			Snapshots: &mock.SnapshotService{
				CreateSnapshotFn: func(_ context.Context, snap *axtree.Snapshot) error {
					mu.Lock()
					defer mu.Unlock()
					snap.ID = "id-" + snap.URL
					stored = append(stored, snap)
					return nil
				},
			},
			Writer: &mock.SnapshotWriter{
				WriteSnapshotFn: func(_ context.Context, snap *axtree.Snapshot, text string) error {
					mu.Lock()
					defer mu.Unlock()
					written[snap.ID] = text
					return nil
				},
			},
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{},
		}

		res, err := c.Capture(context.Background(), []string{"https://a.com/", "https://b.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Captured)
		assert.Len(t, stored, 2)
		assert.Equal(t, "RootWebArea 'A'\n\t[a1] button 'Go'", written["id-https://a.com/"])
		assert.Equal(t, "RootWebArea 'B'\n\t[a1] button 'Go'", written["id-https://b.com/"])
	})

	t.Run("counts storage errors as failures", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Capturer{
			Source: sourceFor(map[string]string{"https://a.com/": "A"}),
			Snapshots: &mock.SnapshotService{
				CreateSnapshotFn: func(_ context.Context, _ *axtree.Snapshot) error {
					return errors.New("disk full")
				},
			},
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{},
		}

		res, err := c.Capture(context.Background(), []string{"https://a.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.ErrorContains(t, res.Pages[0].Err, "disk full")
	})

	t.Run("waits on the rate limiter per host", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		var hosts []string
		c := &crawl.Capturer{
			Source: sourceFor(map[string]string{"https://a.com/x": "A"}),
			RateLimiter: &mock.HostLimiter{
				WaitFn: func(_ context.Context, host string) error {
					mu.Lock()
					defer mu.Unlock()
					hosts = append(hosts, host)
					return nil
				},
			},
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{},
		}

		_, err := c.Capture(context.Background(), []string{"https://a.com/x"}, nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"a.com"}, hosts)
	})

	t.Run("reports progress events", func(t *testing.T) {
		t.Parallel()

		var events []crawl.ProgressEvent
		c := &crawl.Capturer{
			Source:      sourceFor(map[string]string{"https://a.com/": "A"}),
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{},
		}

		_, err := c.Capture(context.Background(), []string{"https://a.com/", "https://missing.com/"}, func(e crawl.ProgressEvent) {
			events = append(events, e)
		})

		require.NoError(t, err)
		require.Len(t, events, 4)
		assert.Equal(t, crawl.ProgressStarted, events[0].Type)
		assert.Equal(t, 2, events[0].Total)
		assert.Equal(t, crawl.ProgressFinished, events[3].Type)

		var completed, failed int
		for _, e := range events[1:3] {
			switch e.Type {
			case crawl.ProgressCompleted:
				completed++
			case crawl.ProgressFailed:
				failed++
				assert.Equal(t, "https://missing.com/", e.URL)
			}
		}
		assert.Equal(t, 1, completed)
		assert.Equal(t, 1, failed)
	})

	t.Run("fails pages captured without properties when options need them", func(t *testing.T) {
		t.Parallel()

		source := &mock.SnapshotSource{
			SnapshotFn: func(_ context.Context, url string) (*axtree.Snapshot, error) {
				snap := pageSnapshot(url, "A")
				snap.Properties = nil
				return snap, nil
			},
		}
		cfg := axtree.DefaultRenderConfig()
		cfg.WithBoundingBoxCoords = true
		c := &crawl.Capturer{Source: source, Config: cfg, RetryDelays: []time.Duration{}}

		res, err := c.Capture(context.Background(), []string{"https://a.com/"}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, axtree.EINVALID, axtree.ErrorCode(res.Pages[0].Err))
		assert.Empty(t, res.Pages[0].Text)
	})

	t.Run("rejects negative coordinate decimals", func(t *testing.T) {
		t.Parallel()

		cfg := axtree.DefaultRenderConfig()
		cfg.CoordDecimals = -1
		c := &crawl.Capturer{Source: sourceFor(nil), Config: cfg}

		_, err := c.Capture(context.Background(), []string{"https://a.com/"}, nil)

		assert.Equal(t, axtree.EINVALID, axtree.ErrorCode(err))
	})

	t.Run("returns context error when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := &crawl.Capturer{
			Source:      sourceFor(map[string]string{"https://a.com/": "A"}),
			Config:      axtree.DefaultRenderConfig(),
			RetryDelays: []time.Duration{},
		}

		_, err := c.Capture(ctx, []string{"https://a.com/"}, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSnapshotWithRetry(t *testing.T) {
	t.Parallel()

	t.Run("returns last error after all attempts", func(t *testing.T) {
		t.Parallel()

		var calls int
		fn := func(_ context.Context, _ string) (*axtree.Snapshot, error) {
			calls++
			return nil, errors.New("boom")
		}

		_, err := crawl.SnapshotWithRetry(context.Background(), "https://a.com/", fn, nil, []time.Duration{time.Millisecond, time.Millisecond})

		assert.EqualError(t, err, "boom")
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fn := func(_ context.Context, _ string) (*axtree.Snapshot, error) {
			cancel()
			return nil, errors.New("boom")
		}

		_, err := crawl.SnapshotWithRetry(ctx, "https://a.com/", fn, nil, []time.Duration{time.Hour})

		assert.ErrorIs(t, err, context.Canceled)
	})
}
