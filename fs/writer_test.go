package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/axtree"
	"github.com/fwojciec/axtree/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "simple path",
			url:  "https://example.com/docs/api/users",
			want: "example.com/docs/api/users.txt",
		},
		{
			name: "trailing slash becomes index",
			url:  "https://example.com/docs/",
			want: "example.com/docs/index.txt",
		},
		{
			name: "root path becomes index",
			url:  "https://example.com/",
			want: "example.com/index.txt",
		},
		{
			name: "root without trailing slash",
			url:  "https://example.com",
			want: "example.com/index.txt",
		},
		{
			name: "ignores query string",
			url:  "https://example.com/docs/api?version=2",
			want: "example.com/docs/api.txt",
		},
		{
			name: "ignores fragment",
			url:  "https://example.com/docs/api#section",
			want: "example.com/docs/api.txt",
		},
		{
			name: "keeps port in host directory",
			url:  "http://localhost:8080/app",
			want: "localhost_8080/app.txt",
		},
		{
			name:    "rejects path traversal",
			url:     "https://example.com/../../../etc/passwd",
			wantErr: true,
		},
		{
			name:    "rejects missing host",
			url:     "/relative/path",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestFormatSnapshot(t *testing.T) {
	t.Parallel()

	snap := &axtree.Snapshot{
		ID:         "abc",
		URL:        "https://example.com/login",
		Title:      "Sign in",
		CapturedAt: time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC),
	}

	got := fs.FormatSnapshot(snap, "RootWebArea 'Sign in'\n\t[a1] button 'Go'")

	want := `---
source: https://example.com/login
title: Sign in
captured: 2025-01-08T09:30:00Z
id: abc
---

RootWebArea 'Sign in'
	[a1] button 'Go'
`
	assert.Equal(t, want, got)
}

func TestWriter_WriteSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("writes snapshot under host directory", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		w := fs.NewWriter(baseDir)

		snap := &axtree.Snapshot{URL: "https://example.com/docs/api", Title: "API"}
		err := w.WriteSnapshot(context.Background(), snap, "RootWebArea 'API'")

		require.NoError(t, err)
		content, err := os.ReadFile(filepath.Join(baseDir, "example.com", "docs", "api.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "source: https://example.com/docs/api")
		assert.Contains(t, string(content), "RootWebArea 'API'")
	})

	t.Run("leaves other files in place", func(t *testing.T) {
		t.Parallel()

		baseDir := t.TempDir()
		existing := filepath.Join(baseDir, "notes.txt")
		require.NoError(t, os.WriteFile(existing, []byte("keep"), 0644))
		w := fs.NewWriter(baseDir)

		err := w.WriteSnapshot(context.Background(), &axtree.Snapshot{URL: "https://example.com/"}, "x")

		require.NoError(t, err)
		_, err = os.Stat(existing)
		assert.NoError(t, err)
	})

	t.Run("rejects snapshot without URL", func(t *testing.T) {
		t.Parallel()

		w := fs.NewWriter(t.TempDir())

		err := w.WriteSnapshot(context.Background(), &axtree.Snapshot{}, "x")

		require.Error(t, err)
		assert.Equal(t, axtree.EINVALID, axtree.ErrorCode(err))
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		t.Parallel()

		w := fs.NewWriter(t.TempDir())

		err := w.WriteSnapshot(context.Background(), &axtree.Snapshot{URL: "https://example.com/../../etc/passwd"}, "x")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "path traversal")
	})
}
