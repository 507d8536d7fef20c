package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// MarkRemovedOptions holds flags for the mark-removed command.
type MarkRemovedOptions struct {
	*RootOptions
	Database string
	Date     string
}

// NewMarkRemovedCommand creates the mark-removed command.
func NewMarkRemovedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkRemovedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mark-removed -d <database> <input>...",
		Short: "Mark strings missing from the inputs as removed",
		Long: `Mark every database entry whose string is not present in the inputs
as removed on the given date (today, UTC, by default).

An entry that already has an earlier removal date keeps it. Strings in the
inputs that are not in the database are not added.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkRemoved(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to update")
	cmd.Flags().StringVar(&opts.Date, "date", "", "removal date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runMarkRemoved(opts *MarkRemovedOptions, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	date, err := parseDateFlag(opts.Date)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
	}

	file, err := loadDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}

	live, err := loadInputs(cmd.Context(), inputs)
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), err)
	}

	var present []string
	for _, e := range live.Entries() {
		if !e.Removed() {
			present = append(present, e.String)
		}
	}

	marked := file.MarkRemovals(present, date)
	slog.Debug("marked removals", "database", file.Path, "count", len(marked))

	if err := saveDatabase(formatter, file); err != nil {
		return err
	}

	return formatter.Success(UpdateResult{
		Database: file.Path,
		Format:   file.Format.String(),
		Entries:  file.Len(),
		Changed:  entryViews(marked),
		action:   "Marked removed",
	})
}
