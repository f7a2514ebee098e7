package main

import (
	"fmt"

	"github.com/fwojciec/axtree"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
	snap, err := deps.Snapshots.FindSnapshotByID(deps.Ctx, c.ID)
	if err != nil {
		if axtree.ErrorCode(err) == axtree.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: snapshot %q not found. Use 'axtree list' to see stored snapshots.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	text, err := snap.Render(c.RenderFlags.Config(), deps.Logger)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, text)
	return nil
}
