package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/tokendb/internal/tokens"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Database    string
	Include     []string
	Exclude     []string
	MarkRemoved bool
	Debounce    time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch -d <database> <input>...",
		Short: "Keep a database updated as its inputs change",
		Long: `Add the inputs to the database, then watch them and add again each
time one is written or replaced. With --mark-removed, entries missing from
the inputs are also marked removed today.

Runs until interrupted.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to update")
	cmd.Flags().StringArrayVarP(&opts.Include, "include", "i", nil, "keep only strings matching this regex (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Exclude, "exclude", "e", nil, "drop strings matching this regex (repeatable)")
	cmd.Flags().BoolVar(&opts.MarkRemoved, "mark-removed", false, "mark entries missing from the inputs as removed")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 250*time.Millisecond, "delay after the last change before updating")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runWatch(opts *WatchOptions, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	if _, err := loadDatabase(formatter, opts.Database); err != nil {
		return err
	}
	if _, err := tokens.CompilePatterns(append(append([]string(nil), opts.Include...), opts.Exclude...)); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	defer func() { _ = w.Close() }()

	// Directories are watched rather than files so inputs replaced by
	// rename keep being tracked.
	watched := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
		}
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("watch %s: %w", in, err))
		}
		watched[abs] = true
	}

	update := func() {
		changed, err := watchUpdate(ctx, opts, inputs)
		if err != nil {
			slog.ErrorContext(ctx, "Update failed", "database", opts.Database, "err", err)
			return
		}
		if changed > 0 {
			slog.InfoContext(ctx, "Database updated", "database", opts.Database, "changed", changed)
		}
	}

	slog.InfoContext(ctx, "Watching inputs", "database", opts.Database, "inputs", len(inputs))
	update()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !watched[event.Name] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				slog.DebugContext(ctx, "Input changed", "path", event.Name, "op", event.Op.String())
				pending = time.After(opts.Debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching inputs", "err", err)
		case <-pending:
			pending = nil
			update()
		}
	}
}

// watchUpdate applies one add (and optional mark-removed) pass and writes
// the database if anything changed. Returns the number of changed entries.
func watchUpdate(ctx context.Context, opts *WatchOptions, inputs []string) (int, error) {
	file, err := tokens.LoadFile(opts.Database)
	if err != nil {
		return 0, err
	}

	incoming, err := loadInputs(ctx, inputs)
	if err != nil {
		return 0, err
	}
	if _, err := applyFilter(incoming, opts.Include, opts.Exclude); err != nil {
		return 0, err
	}

	changed := len(addedOrRevived(file.Database, incoming))
	file.Merge(incoming)

	if opts.MarkRemoved {
		var present []string
		for _, e := range incoming.Entries() {
			if !e.Removed() {
				present = append(present, e.String)
			}
		}
		changed += len(file.MarkRemovals(present, time.Time{}))
	}

	if changed == 0 {
		return 0, nil
	}
	return changed, file.WriteToFile("")
}
