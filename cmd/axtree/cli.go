package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/axtree"
	"github.com/fwojciec/axtree/crawl"
	"github.com/fwojciec/axtree/fs"
	"github.com/fwojciec/axtree/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	DB        *sqlite.DB
	Snapshots axtree.SnapshotService
	Capturer  *crawl.Capturer

	// Store is set when snapshot output replaces a directory atomically.
	Store *fs.FileStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string `name:"db" help:"Database path (default: $AXTREE_DB or ~/.axtree/axtree.db)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Snapshot SnapshotCmd `cmd:"" help:"Capture and render the accessibility tree of one or more pages"`
	Flatten  FlattenCmd  `cmd:"" help:"Render a saved accessibility tree file"`
	List     ListCmd     `cmd:"" help:"List stored snapshots"`
	Show     ShowCmd     `cmd:"" help:"Render a stored snapshot"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a stored snapshot"`
}

// RenderFlags are the rendering options shared by every command that prints
// a tree.
type RenderFlags struct {
	Visible      bool `help:"Append visibility to elements with an id"`
	Clickable    bool `help:"Mark clickable elements"`
	Center       bool `help:"Append center coordinates"`
	BBox         bool `name:"bbox" help:"Append bounding box coordinates"`
	SOM          bool `name:"som" help:"Mark set-of-marks elements"`
	VisibleOnly  bool `name:"visible-only" help:"Hide invisible elements"`
	WithIDOnly   bool `name:"with-id-only" help:"Hide elements without an id"`
	SOMOnly      bool `name:"som-only" help:"Hide elements outside the set of marks"`
	HideIDs      bool `name:"hide-invisible-ids" help:"Drop ids of invisible elements"`
	HideChildren bool `name:"hide-all-children" help:"Hide every child of a hidden element"`
	KeepText     bool `name:"keep-redundant-text" help:"Keep static text repeated by its parent"`
	Decimals     int  `default:"0" help:"Fractional digits in coordinates"`
}

// Config returns the render configuration selected by the flags.
func (f *RenderFlags) Config() axtree.RenderConfig {
	cfg := axtree.DefaultRenderConfig()
	cfg.WithVisible = f.Visible
	cfg.WithClickable = f.Clickable
	cfg.WithCenterCoords = f.Center
	cfg.WithBoundingBoxCoords = f.BBox
	cfg.WithSOM = f.SOM
	cfg.FilterVisibleOnly = f.VisibleOnly
	cfg.FilterWithIDOnly = f.WithIDOnly
	cfg.FilterSOMOnly = f.SOMOnly
	cfg.HideIDIfInvisible = f.HideIDs
	cfg.HideAllChildren = f.HideChildren
	cfg.RemoveRedundantStaticText = !f.KeepText
	cfg.CoordDecimals = f.Decimals
	return cfg
}

// SnapshotCmd is the "snapshot" subcommand.
type SnapshotCmd struct {
	URLs        []string           `arg:"" name:"url" help:"Page URLs to capture"`
	Save        bool               `short:"s" help:"Store snapshots in the database"`
	Out         string             `short:"o" type:"path" help:"Write rendered trees below this directory"`
	Replace     bool               `help:"Replace the output directory instead of adding to it"`
	Concurrency int                `short:"c" default:"4" help:"Concurrent page limit"`
	Rate        float64            `default:"1" help:"Page loads per second per host (0 for no limit)"`
	HostRate    map[string]float64 `name:"host-rate" help:"Page loads per second for one host, as HOST=RATE (repeatable)"`
	Timeout     time.Duration      `default:"30s" help:"Per-page capture timeout"`
	Headful     bool               `help:"Show the browser window"`
	NoMarking   bool               `help:"Skip element marking (no ids or element properties)"`

	RenderFlags `embed:""`
}

// FlattenCmd is the "flatten" subcommand.
type FlattenCmd struct {
	File  string `arg:"" type:"existingfile" help:"JSON file with a merged tree or per-frame trees"`
	Props string `type:"existingfile" help:"JSON file with element properties"`

	RenderFlags `embed:""`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	URL   string `help:"Only list snapshots of this URL"`
	Limit int    `short:"n" help:"Maximum number of snapshots to list"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	ID string `arg:"" help:"Snapshot ID"`

	RenderFlags `embed:""`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Snapshot ID"`
	Force bool   `help:"Confirm deletion"`
}
