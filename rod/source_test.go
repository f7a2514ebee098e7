//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/axtree"
	"github.com/fwojciec/axtree/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `<!doctype html>
<html>
<head><title>Fixture</title></head>
<body>
  <h1>Settings</h1>
  <button>Save</button>
  <a href="/next">Next page</a>
  <div aria-roledescription="slide">Plain text</div>
  <iframe srcdoc="<button>Inner</button>"></iframe>
</body>
</html>`

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fixturePage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newSource(t *testing.T, opts ...rod.Option) *rod.SnapshotSource {
	t.Helper()
	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	source := rod.NewSnapshotSource(manager, opts...)
	t.Cleanup(func() { _ = source.Close() })
	return source
}

func TestSnapshotSource_Snapshot(t *testing.T) {
	t.Parallel()

	t.Run("captures a marked tree across frames", func(t *testing.T) {
		t.Parallel()

		srv := newFixtureServer(t)
		source := newSource(t)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		snap, err := source.Snapshot(ctx, srv.URL)
		require.NoError(t, err)

		assert.Equal(t, "Fixture", snap.Title)
		assert.Equal(t, srv.URL, snap.URL)
		require.NotEmpty(t, snap.Nodes)
		require.NotEmpty(t, snap.Properties)

		text, err := snap.Render(axtree.DefaultRenderConfig(), nil)
		require.NoError(t, err)

		assert.Contains(t, text, "[clickable-element-0] button 'Save'")
		assert.Contains(t, text, "link 'Next page'")
		assert.Contains(t, text, "href='/next'")
		assert.Contains(t, text, "button 'Inner'")
		assert.NotContains(t, text, "<|bid|>")
	})

	t.Run("props carry boxes for marked elements", func(t *testing.T) {
		t.Parallel()

		srv := newFixtureServer(t)
		source := newSource(t)

		snap, err := source.Snapshot(context.Background(), srv.URL)
		require.NoError(t, err)

		p, ok := snap.Properties["clickable-element-0"]
		require.True(t, ok)
		assert.True(t, p.HasBBox())
		assert.True(t, p.Clickable)
		assert.True(t, p.IsVisible())
	})

	t.Run("without marking no identifiers are assigned", func(t *testing.T) {
		t.Parallel()

		srv := newFixtureServer(t)
		source := newSource(t, rod.WithoutMarking())

		snap, err := source.Snapshot(context.Background(), srv.URL)
		require.NoError(t, err)

		assert.Nil(t, snap.Properties)
		text, err := snap.Render(axtree.DefaultRenderConfig(), nil)
		require.NoError(t, err)
		assert.Contains(t, text, "button 'Save'")
		assert.NotContains(t, text, "clickable-element")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()
		source := newSource(t)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		_, err := source.Snapshot(ctx, srv.URL)
		assert.Error(t, err)
	})

	t.Run("fails after close", func(t *testing.T) {
		t.Parallel()

		manager, err := rod.NewBrowserManager()
		require.NoError(t, err)
		source := rod.NewSnapshotSource(manager)
		require.NoError(t, source.Close())
		require.NoError(t, source.Close())

		_, err = source.Snapshot(context.Background(), "http://example.com")
		assert.Equal(t, axtree.EINVALID, axtree.ErrorCode(err))
	})
}
