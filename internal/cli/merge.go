package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tokendb/internal/tokens"
)

// MergeOptions holds flags for the merge command.
type MergeOptions struct {
	*RootOptions
	Database string
}

// NewMergeCommand creates the merge command.
func NewMergeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MergeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "merge -d <database> <database>...",
		Short: "Merge other token databases into a database",
		Long: `Merge entries from other binary or CSV databases into a database.

An entry present in any database stays present. Otherwise the latest
removal date wins. Merging is idempotent and order-independent.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to update")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runMerge(opts *MergeOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	file, err := loadDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}

	others := make([]*tokens.Database, 0, len(paths))
	for _, path := range paths {
		other, err := tokens.LoadFile(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, readErrorCode(err), err)
		}
		formatter.VerboseLog("Merging %d entries from %s", other.Len(), path)
		others = append(others, other.Database)
	}

	incoming := tokens.Merged(others...)
	changed := addedOrRevived(file.Database, incoming)
	file.Merge(incoming)

	if err := saveDatabase(formatter, file); err != nil {
		return err
	}

	return formatter.Success(UpdateResult{
		Database: file.Path,
		Format:   file.Format.String(),
		Entries:  file.Len(),
		Changed:  entryViews(changed),
		action:   "Merged",
	})
}
