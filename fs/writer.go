// Package fs provides file-based output for rendered snapshots.
package fs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/axtree"
)

// URLToPath converts a page URL to a relative file path under the host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.txt
//
// Returns an error if the path would escape the host directory.
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	// Ports are kept but colons are not portable in file names.
	host := strings.ReplaceAll(u.Host, ":", "_")

	p := u.Path
	switch {
	case p == "" || p == "/":
		p = "index.txt"
	case strings.HasSuffix(p, "/"):
		p = strings.TrimPrefix(p, "/") + "index.txt"
	default:
		p = strings.TrimPrefix(p, "/") + ".txt"
	}

	rel := path.Join(host, p)
	if !filepath.IsLocal(rel) || !strings.HasPrefix(rel, host+"/") {
		return "", fmt.Errorf("path traversal in url %q", rawURL)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path traversal in url %q", rawURL)
		}
	}
	return filepath.FromSlash(rel), nil
}

// FormatSnapshot formats a rendered snapshot with YAML frontmatter.
func FormatSnapshot(snap *axtree.Snapshot, text string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(snap.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(snap.Title)
	b.WriteString("\ncaptured: ")
	b.WriteString(snap.CapturedAt.UTC().Format("2006-01-02T15:04:05Z"))
	if snap.ID != "" {
		b.WriteString("\nid: ")
		b.WriteString(snap.ID)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

// writeSnapshot writes a formatted snapshot below baseDir.
func writeSnapshot(baseDir string, snap *axtree.Snapshot, text string) error {
	if snap.URL == "" {
		return axtree.Errorf(axtree.EINVALID, "snapshot URL required")
	}

	relPath, err := URLToPath(snap.URL)
	if err != nil {
		return axtree.Errorf(axtree.EINVALID, "%s", err)
	}

	fullPath := filepath.Join(baseDir, relPath)

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, []byte(FormatSnapshot(snap, text)), 0644)
}

// Ensure Writer implements axtree.SnapshotWriter at compile time.
var _ axtree.SnapshotWriter = (*Writer)(nil)

// Writer writes rendered snapshots as text files to a directory, next to
// whatever the directory already holds.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteSnapshot writes a rendered snapshot to disk.
func (w *Writer) WriteSnapshot(ctx context.Context, snap *axtree.Snapshot, text string) error {
	return writeSnapshot(w.baseDir, snap, text)
}
