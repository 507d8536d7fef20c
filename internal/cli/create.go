package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tokendb/internal/tokens"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Database string
	Type     string
	Force    bool
	Include  []string
	Exclude  []string
}

// UpdateResult summarizes a command that rewrote a database.
type UpdateResult struct {
	Database string      `json:"database"`
	Format   string      `json:"format"`
	Entries  int         `json:"entries"`
	Changed  []EntryView `json:"changed"`
	action   string
}

func (r UpdateResult) String() string {
	return fmt.Sprintf("✓ %s %d entr%s in %s (%d total, %s)",
		r.action, len(r.Changed), plural(len(r.Changed), "y", "ies"), r.Database, r.Entries, r.Format)
}

// EntryView is the JSON form of an entry: hex token and YYYY-MM-DD date.
type EntryView struct {
	Token       string `json:"token"`
	String      string `json:"string"`
	DateRemoved string `json:"date_removed,omitempty"`
}

func entryView(e tokens.Entry) EntryView {
	return EntryView{
		Token:       fmt.Sprintf("%08x", e.Token),
		String:      e.String,
		DateRemoved: tokens.FormatDate(e.DateRemoved),
	}
}

func entryViews(entries []tokens.Entry) []EntryView {
	views := make([]EntryView, len(entries))
	for i, e := range entries {
		views[i] = entryView(e)
	}
	return views
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create -d <database> <input>...",
		Short: "Create a token database from strings or other databases",
		Long: `Create a new token database.

Each input is a binary token database, a CSV token database (.csv), or a
text file with one string per line. Include and exclude patterns are
regular expressions applied to the strings before they are written.

Examples:
  tokendb create -d tokens.bin strings.txt
  tokendb create -d tokens.csv --type csv -i '^ERR' strings.txt old.bin`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to create")
	cmd.Flags().StringVar(&opts.Type, "type", "binary", "database format (binary|csv)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing database")
	cmd.Flags().StringArrayVarP(&opts.Include, "include", "i", nil, "keep only strings matching this regex (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Exclude, "exclude", "e", nil, "drop strings matching this regex (repeatable)")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runCreate(opts *CreateOptions, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	format, err := tokens.ParseFormat(opts.Type)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
	}

	if !opts.Force {
		if _, err := os.Stat(opts.Database); err == nil {
			return formatter.Fail(ExitCommandError, ErrCodeExists,
				fmt.Errorf("%s already exists: use --force to overwrite", opts.Database))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
	}

	db, err := loadInputs(cmd.Context(), inputs)
	if err != nil {
		return formatter.Fail(ExitCommandError, readErrorCode(err), err)
	}
	if _, err := applyFilter(db, opts.Include, opts.Exclude); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
	}

	file := tokens.NewDatabaseFile(opts.Database, format, db)
	if err := saveDatabase(formatter, file); err != nil {
		return err
	}

	return formatter.Success(UpdateResult{
		Database: opts.Database,
		Format:   format.String(),
		Entries:  db.Len(),
		Changed:  entryViews(db.Entries()),
		action:   "Created",
	})
}
