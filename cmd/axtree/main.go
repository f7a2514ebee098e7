package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/axtree"
	"github.com/fwojciec/axtree/crawl"
	"github.com/fwojciec/axtree/fs"
	"github.com/fwojciec/axtree/rod"
	axslog "github.com/fwojciec/axtree/slog"
	"github.com/fwojciec/axtree/sqlite"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	SnapshotService axtree.SnapshotService
	SnapshotSource  axtree.SnapshotSource
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("axtree"),
		kong.Description("Capture and render browser accessibility trees as text."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'axtree --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	cmd := strings.Fields(kongCtx.Command())[0]

	if cmd == "list" || cmd == "show" || cmd == "delete" || (cmd == "snapshot" && cli.Snapshot.Save) {
		if err := m.openDB(cli.DB, stderr); err != nil {
			return err
		}
		defer m.Close()

		if m.SnapshotService == nil {
			m.SnapshotService = sqlite.NewSnapshotService(m.DB)
		}
		deps.DB = m.DB
		deps.Snapshots = axslog.NewLoggingSnapshotService(m.SnapshotService, logger)
	}

	if cmd == "snapshot" {
		source := m.SnapshotSource
		if source == nil {
			manager, err := rod.NewBrowserManager(rod.WithHeadless(!cli.Snapshot.Headful))
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			opts := []rod.Option{rod.WithTimeout(cli.Snapshot.Timeout), rod.WithLogger(logger)}
			if cli.Snapshot.NoMarking {
				opts = append(opts, rod.WithoutMarking())
			}
			source = rod.NewSnapshotSource(manager, opts...)
		}
		source = axslog.NewLoggingSnapshotSource(source, logger)
		defer source.Close()

		capturer := &crawl.Capturer{
			Source:      source,
			Snapshots:   deps.Snapshots,
			RateLimiter: crawl.NewHostLimiter(cli.Snapshot.Rate, cli.Snapshot.HostRate),
			Concurrency: cli.Snapshot.Concurrency,
			Logger:      logger,
		}

		if out := cli.Snapshot.Out; out != "" {
			var writer axtree.SnapshotWriter
			if cli.Snapshot.Replace {
				deps.Store = fs.NewFileStore(filepath.Dir(out), filepath.Base(out))
				writer = deps.Store
			} else {
				writer = fs.NewWriter(out)
			}
			capturer.Writer = axslog.NewLoggingSnapshotWriter(writer, logger)
		}
		deps.Capturer = capturer
	}

	return kongCtx.Run(deps)
}

// openDB opens the database at path, falling back to m.DBPath.
func (m *Main) openDB(path string, stderr io.Writer) error {
	if path == "" {
		path = m.DBPath
	}
	if dir := filepath.Dir(path); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}

	m.DB = sqlite.NewDB(path)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set AXTREE_DB or pass --db to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	return nil
}

func defaultDBPath() string {
	if path := os.Getenv("AXTREE_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "axtree.db"
	}
	return filepath.Join(home, ".axtree", "axtree.db")
}
