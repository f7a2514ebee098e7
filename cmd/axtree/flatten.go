package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/axtree"
)

// treeFile is the on-disk form of a tree: either an already merged node list
// or raw per-frame trees as captured from the browser.
type treeFile struct {
	Nodes  []axtree.Node      `json:"nodes"`
	Frames []axtree.FrameTree `json:"frames"`
}

// Run executes the flatten command.
func (c *FlattenCmd) Run(deps *Dependencies) error {
	nodes, err := c.loadNodes(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	var props axtree.ExtraProperties
	if c.Props != "" {
		data, err := os.ReadFile(c.Props)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", err)
			return err
		}
		if err := json.Unmarshal(data, &props); err != nil {
			err = axtree.Errorf(axtree.EINVALID, "invalid properties file %q: %s", c.Props, err)
			fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
			return err
		}
		if props == nil {
			props = axtree.ExtraProperties{}
		}
	}

	text, err := axtree.Flatten(nodes, props, c.RenderFlags.Config(), deps.Logger)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", axtree.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, text)
	return nil
}

// loadNodes reads the tree file. Frame trees have their encoded element
// metadata extracted and are merged in file order; iframes stay unlinked
// since there is no live page to resolve them against.
func (c *FlattenCmd) loadNodes(deps *Dependencies) ([]axtree.Node, error) {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return nil, err
	}

	var f treeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, axtree.Errorf(axtree.EINVALID, "invalid tree file %q: %s", c.File, err)
	}

	if len(f.Frames) > 0 {
		m := &axtree.Merger{Logger: deps.Logger}
		return m.Merge(deps.Ctx, axtree.ExtractFrameMetadata(f.Frames)).Nodes, nil
	}
	if len(f.Nodes) == 0 {
		return nil, axtree.Errorf(axtree.EINVALID, "tree file %q has no nodes", c.File)
	}
	return f.Nodes, nil
}
