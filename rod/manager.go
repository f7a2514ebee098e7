package rod

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the default number of snapshots taken before the
// browser is recycled.
const DefaultMaxPages = 75

// BrowserManager owns the headless browser used for snapshots and recycles
// it after a fixed number of pages. Chrome's memory baseline keeps growing
// across pages even when every page is closed, so long batch runs restart it.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	current   *instance
	pageCount atomic.Int64
	maxPages  int64
	headless  bool
	mu        sync.Mutex
	closed    atomic.Bool
}

// instance is one launched browser. A recycled instance is shut down once
// the last page opened on it is released.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	pages    sync.WaitGroup
}

func (in *instance) close() error {
	err := in.browser.Close()
	in.launcher.Kill()
	return err
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of pages after which the browser is recycled.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// WithHeadless controls whether the browser runs headless. Defaults to true.
func WithHeadless(headless bool) ManagerOption {
	return func(bm *BrowserManager) {
		bm.headless = headless
	}
}

// NewBrowserManager launches a browser. Close must be called when the
// BrowserManager is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		headless: true,
	}
	for _, opt := range opts {
		opt(bm)
	}

	in, err := bm.launch()
	if err != nil {
		return nil, err
	}
	bm.current = in

	return bm, nil
}

// NewPage opens a blank page bound to ctx, recycling the browser first if it
// has served maxPages pages. The caller must call the returned release func
// when done with the page; it closes the page.
func (bm *BrowserManager) NewPage(ctx context.Context) (*rod.Page, func(), error) {
	if bm.closed.Load() {
		return nil, nil, fmt.Errorf("browser manager is closed")
	}

	bm.mu.Lock()
	if bm.current == nil {
		bm.mu.Unlock()
		return nil, nil, fmt.Errorf("browser manager is closed")
	}
	if bm.pageCount.Load() >= bm.maxPages {
		bm.recycle()
	}
	in := bm.current
	in.pages.Add(1)
	bm.mu.Unlock()

	p, err := in.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		in.pages.Done()
		return nil, nil, fmt.Errorf("opening page: %w", err)
	}
	bm.pageCount.Add(1)

	// The page is closed without ctx so that it is released even after a
	// timeout.
	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = p.Close()
			in.pages.Done()
		})
	}
	return p.Context(ctx), release, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	if !bm.closed.CompareAndSwap(false, true) {
		return nil
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.current == nil {
		return nil
	}
	err := bm.current.close()
	bm.current = nil
	return err
}

// launch starts a new browser instance with flags that keep background
// pages from being throttled mid-capture.
func (bm *BrowserManager) launch() (*instance, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(bm.headless)

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	return &instance{browser: browser, launcher: lnchr}, nil
}

// recycle replaces the current browser with a fresh one. The old browser is
// kept if the new one fails to launch, and is otherwise shut down in the
// background once its open pages are released.
// Must be called with mu held.
func (bm *BrowserManager) recycle() {
	in, err := bm.launch()
	if err != nil {
		return
	}

	old := bm.current
	bm.current = in
	bm.pageCount.Store(0)

	go func() {
		old.pages.Wait()
		_ = old.close()
	}()
}

// LauncherPID returns the process ID of the current browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.current == nil {
		return 0
	}
	return bm.current.launcher.PID()
}
