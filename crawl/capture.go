// Package crawl provides batch snapshot orchestration.
// It coordinates rate limiting, capture with retries, rendering, storage and
// file output for many pages at once.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/axtree"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages captured in parallel when
// Capturer.Concurrency is not set.
const DefaultConcurrency = 4

// Capturer captures, renders and stores snapshots of many pages.
type Capturer struct {
	Source axtree.SnapshotSource

	// Snapshots, when set, stores every successful snapshot.
	Snapshots axtree.SnapshotService

	// Writer, when set, receives the rendered text of every snapshot.
	Writer axtree.SnapshotWriter

	// RateLimiter, when set, spaces out captures per host.
	RateLimiter axtree.HostLimiter

	// Config is the render configuration applied to every page.
	Config axtree.RenderConfig

	Concurrency int
	RetryDelays []time.Duration
	Logger      *slog.Logger
}

// Result holds the outcome of a batch capture.
type Result struct {
	// Pages holds one entry per input URL, in input order.
	Pages []Page

	Captured int
	Failed   int
	Bytes    int
}

// Page is the outcome of capturing one URL.
type Page struct {
	URL      string
	Snapshot *axtree.Snapshot
	Text     string
	Err      error
}

// ProgressEvent reports progress during a batch capture.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting capture progress.
type ProgressFunc func(event ProgressEvent)

// Capture snapshots every URL with bounded concurrency. A failure on one
// page is recorded in its Page entry and does not stop the others; Capture
// itself only fails if the render configuration is invalid or ctx is done.
// The progress callback, if provided, is called from a single goroutine.
func (c *Capturer) Capture(ctx context.Context, urls []string, progress ProgressFunc) (*Result, error) {
	if c.Config.CoordDecimals < 0 {
		return nil, axtree.Errorf(axtree.EINVALID, "coordinate decimals must not be negative")
	}

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	total := len(urls)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	type indexed struct {
		i    int
		page Page
	}
	resultCh := make(chan indexed, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, u := range urls {
			g.Go(func() error {
				resultCh <- indexed{i: i, page: c.capture(gctx, u, delays)}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Collect results in order
	res := &Result{Pages: make([]Page, len(urls))}
	completed := 0
	for r := range resultCh {
		completed++
		res.Pages[r.i] = r.page

		if r.page.Err != nil {
			res.Failed++
			if progress != nil {
				progress(ProgressEvent{Type: ProgressFailed, Completed: completed, Total: total, URL: r.page.URL, Error: r.page.Err})
			}
			continue
		}

		res.Captured++
		res.Bytes += len(r.page.Text)
		if progress != nil {
			progress(ProgressEvent{Type: ProgressCompleted, Completed: completed, Total: total, URL: r.page.URL})
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// capture runs the full pipeline for one URL.
func (c *Capturer) capture(ctx context.Context, rawURL string, delays []time.Duration) Page {
	page := Page{URL: rawURL}

	if c.RateLimiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			page.Err = axtree.Errorf(axtree.EINVALID, "invalid URL %q: %s", rawURL, err)
			return page
		}
		if err := c.RateLimiter.Wait(ctx, u.Host); err != nil {
			page.Err = err
			return page
		}
	}

	snap, err := SnapshotWithRetry(ctx, rawURL, c.Source.Snapshot, c.Logger, delays)
	if err != nil {
		page.Err = err
		return page
	}
	page.Snapshot = snap

	text, err := snap.Render(c.Config, c.Logger)
	if err != nil {
		page.Err = err
		return page
	}
	page.Text = text

	if c.Snapshots != nil {
		// The stored text always uses the default rendering so that hashes
		// stay comparable across runs with different flags.
		snap.Text = ""
		if err := c.Snapshots.CreateSnapshot(ctx, snap); err != nil {
			page.Err = fmt.Errorf("storing snapshot: %w", err)
			return page
		}
	}

	if c.Writer != nil {
		if err := c.Writer.WriteSnapshot(ctx, snap, text); err != nil {
			page.Err = fmt.Errorf("writing snapshot: %w", err)
			return page
		}
	}

	return page
}
