package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tokendb/internal/tokens"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Database string
	Include  []string
	Exclude  []string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add -d <database> <input>...",
		Short: "Add strings to an existing token database",
		Long: `Add strings from the inputs to an existing database.

Strings already in the database that were marked removed become present
again. Removal dates carried by database inputs are reconciled the same
way merge does. The database keeps its format.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to update")
	cmd.Flags().StringArrayVarP(&opts.Include, "include", "i", nil, "keep only strings matching this regex (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Exclude, "exclude", "e", nil, "drop strings matching this regex (repeatable)")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runAdd(opts *AddOptions, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	file, err := loadDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}

	incoming, err := loadInputs(cmd.Context(), inputs)
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), err)
	}
	if _, err := applyFilter(incoming, opts.Include, opts.Exclude); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
	}

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
		action:   "Added",
	})
}

// addedOrRevived lists the incoming entries that are new to db or that will
// make a removed entry present again.
func addedOrRevived(db, incoming *tokens.Database) []tokens.Entry {
	var out []tokens.Entry
	for _, e := range incoming.Entries() {
		existing, ok := db.Get(e.Key())
		if !ok || (existing.Removed() && !e.Removed()) {
			out = append(out, e)
		}
	}
	return out
}
