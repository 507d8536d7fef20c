package cli

import (
	"github.com/spf13/cobra"
)

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	Database string
	Before   string
}

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge -d <database>",
		Short: "Delete entries removed on or before a date",
		Long: `Delete removed entries from the database.

With --before, only entries removed on or before that date are deleted;
without it every removed entry is deleted. Present entries are never
purged.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPurge(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to update")
	cmd.Flags().StringVar(&opts.Before, "before", "", "purge entries removed on or before YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runPurge(opts *PurgeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cutoff, err := parseDateFlag(opts.Before)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
	}

	file, err := loadDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}

	purged := file.Purge(cutoff)
	for _, e := range purged {
		formatter.VerboseLog("Purged %08x %q", e.Token, e.String)
	}

	if err := saveDatabase(formatter, file); err != nil {
		return err
	}

	return formatter.Success(UpdateResult{
		Database: file.Path,
		Format:   file.Format.String(),
		Entries:  file.Len(),
		Changed:  entryViews(purged),
		action:   "Purged",
	})
}
