package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tokendb/internal/store"
)

// ArchiveOptions holds flags for the archive command.
type ArchiveOptions struct {
	*RootOptions
	Database string
	Store    string
	Label    string
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Store string
}

// ArchiveResult reports the snapshot written by archive.
type ArchiveResult struct {
	Snapshot store.Snapshot `json:"snapshot"`
	Store    string         `json:"store"`
}

func (r ArchiveResult) String() string {
	return fmt.Sprintf("✓ Archived %d entr%s as snapshot #%d %q (%s) in %s",
		r.Snapshot.EntryCount, plural(r.Snapshot.EntryCount, "y", "ies"),
		r.Snapshot.Seq, r.Snapshot.Label, r.Snapshot.ID, r.Store)
}

// SnapshotList is the history output without a token.
type SnapshotList struct {
	Snapshots []store.Snapshot `json:"snapshots"`
}

func (l SnapshotList) String() string {
	if len(l.Snapshots) == 0 {
		return "No snapshots archived."
	}
	var b strings.Builder
	for _, s := range l.Snapshots {
		fmt.Fprintf(&b, "#%d  %s  %-20s %d entries\n", s.Seq, s.ID, s.Label, s.EntryCount)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// TokenHistory is the history output for one token.
type TokenHistory struct {
	Token   string          `json:"token"`
	Matches []SnapshotEntry `json:"matches"`
}

// SnapshotEntry is an archived entry and the snapshot that holds it.
type SnapshotEntry struct {
	Snapshot store.Snapshot `json:"snapshot"`
	Entry    EntryView      `json:"entry"`
}

func (h TokenHistory) String() string {
	if len(h.Matches) == 0 {
		return fmt.Sprintf("%s: not found in any snapshot", h.Token)
	}
	var b strings.Builder
	for _, m := range h.Matches {
		fmt.Fprintf(&b, "#%d %s: %q", m.Snapshot.Seq, m.Snapshot.Label, m.Entry.String)
		if m.Entry.DateRemoved != "" {
			fmt.Fprintf(&b, " (removed %s)", m.Entry.DateRemoved)
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewArchiveCommand creates the archive command.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "archive -d <database> --store <archive.db>",
		Short: "Record a snapshot of a token database",
		Long: `Copy every entry of a database into a SQLite snapshot archive.

Snapshots are numbered in the order they are written and can be searched
with history, so tokens purged from the live database stay resolvable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to archive")
	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite archive path")
	cmd.Flags().StringVar(&opts.Label, "label", "", "snapshot label (default: database file name)")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runArchive(opts *ArchiveOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	file, err := loadDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}

	s, err := store.Open(opts.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err)
	}
	defer s.Close()

	label := opts.Label
	if label == "" {
		label = filepath.Base(file.Path)
	}

	snap, err := s.WriteSnapshot(cmd.Context(), label, file.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err)
	}

	return formatter.Success(ArchiveResult{Snapshot: snap, Store: opts.Store})
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history --store <archive.db> [token]",
		Short: "List archived snapshots or search them for a token",
		Long: `Without a token, list every snapshot in the archive. With a hexadecimal
token, print each archived entry for it, oldest snapshot first.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite archive path")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	var token uint32
	if len(args) == 1 {
		var err error
		if token, err = parseToken(args[0]); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
		}
	}

	if _, err := os.Stat(opts.Store); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("open archive: %w", err))
	}
	s, err := store.Open(opts.Store)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err)
	}
	defer s.Close()

	if len(args) == 0 {
		snapshots, err := s.ListSnapshots(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err)
		}
		return formatter.Success(SnapshotList{Snapshots: snapshots})
	}

	matches, err := s.LookupToken(ctx, token)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err)
	}

	history := TokenHistory{
		Token:   fmt.Sprintf("%08x", token),
		Matches: make([]SnapshotEntry, len(matches)),
	}
	for i, m := range matches {
		history.Matches[i] = SnapshotEntry{Snapshot: m.Snapshot, Entry: entryView(m.Entry)}
	}
	return formatter.Success(history)
}
