package main

import (
	"fmt"

	"github.com/fwojciec/axtree"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	filter := axtree.SnapshotFilter{Limit: c.Limit}
	if c.URL != "" {
		filter.URL = &c.URL
	}

	snaps, err := deps.Snapshots.FindSnapshots(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	if len(snaps) == 0 {
		fmt.Fprintln(deps.Stdout, "No snapshots found. Use 'axtree snapshot --save' to capture one.")
		return nil
	}

	for _, s := range snaps {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", s.ID, s.CapturedAt.UTC().Format("2006-01-02 15:04:05"), s.URL, s.Title)
	}

	return nil
}
