package main

import (
	"fmt"

	"github.com/fwojciec/axtree"
	"github.com/fwojciec/axtree/crawl"
)

// Run executes the snapshot command.
func (c *SnapshotCmd) Run(deps *Dependencies) error {
	if c.Replace && c.Out == "" {
		fmt.Fprintf(deps.Stderr, "error: --replace requires --out\n")
		return axtree.Errorf(axtree.EINVALID, "--replace requires --out")
	}

	capturer := deps.Capturer
	capturer.Config = c.RenderFlags.Config()

	// Trees go to stdout unless they are written to files, so progress is
	// only reported in that case.
	var progress crawl.ProgressFunc
	if c.Out != "" {
		progress = func(event crawl.ProgressEvent) {
			switch event.Type {
			case crawl.ProgressCompleted:
				fmt.Fprintf(deps.Stderr, "  [%d/%d] %s\n", event.Completed, event.Total, crawl.DisplayURL(event.URL, 60))
			case crawl.ProgressFailed:
				fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.URL, event.Error)
			}
		}
	}

	result, err := capturer.Capture(deps.Ctx, c.URLs, progress)
	if err != nil {
		if deps.Store != nil {
			_ = deps.Store.Abort()
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	if deps.Store != nil {
		if err := deps.Store.Commit(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
			return err
		}
	}

	for _, page := range result.Pages {
		if page.Err != nil {
			if progress == nil {
				fmt.Fprintf(deps.Stderr, "error: %s: %v\n", page.URL, page.Err)
			}
			continue
		}
		if c.Save {
			fmt.Fprintf(deps.Stderr, "Saved snapshot %s of %s\n", page.Snapshot.ID, page.URL)
		}
		if c.Out != "" {
			continue
		}
		if len(result.Pages) > 1 {
			fmt.Fprintf(deps.Stdout, "# %s\n", page.URL)
		}
		fmt.Fprintln(deps.Stdout, page.Text)
	}

	if c.Out != "" {
		fmt.Fprintf(deps.Stdout, "Captured %s to %s\n", crawl.Summarize(result), c.Out)
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed", result.Failed, len(result.Pages))
	}
	return nil
}
