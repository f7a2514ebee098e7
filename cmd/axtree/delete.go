package main

import (
	"fmt"

	"github.com/fwojciec/axtree"
)

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return axtree.Errorf(axtree.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Snapshots.DeleteSnapshot(deps.Ctx, c.ID); err != nil {
		if axtree.ErrorCode(err) == axtree.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: snapshot %q not found. Use 'axtree list' to see stored snapshots.\n", c.ID)
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted snapshot %s\n", c.ID)
	return nil
}
