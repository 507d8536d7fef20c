package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	Database string
}

// TokenLookup holds the entries matching one token.
type TokenLookup struct {
	Token   string      `json:"token"`
	Entries []EntryView `json:"entries"`
}

// LookupResult holds a TokenLookup per requested token.
type LookupResult struct {
	Tokens []TokenLookup `json:"tokens"`
}

func (r LookupResult) String() string {
	var b strings.Builder
	for _, t := range r.Tokens {
		if len(t.Entries) == 0 {
			fmt.Fprintf(&b, "%s: not found\n", t.Token)
			continue
		}
		for _, e := range t.Entries {
			fmt.Fprintf(&b, "%s: %q", t.Token, e.String)
			if e.DateRemoved != "" {
				fmt.Fprintf(&b, " (removed %s)", e.DateRemoved)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup -d <database> <token>...",
		Short: "Find the strings for hexadecimal tokens",
		Long: `Print every entry whose token matches. Tokens are hexadecimal, with or
without a 0x prefix.

Examples:
  tokendb lookup -d tokens.bin 17da7ef3
  tokendb lookup -d tokens.csv 0x4016d473 deadbeef`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Database, "database", "d", "", "database file to search")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func runLookup(opts *LookupOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	tokenList := make([]uint32, len(args))
	for i, arg := range args {
		token, err := parseToken(arg)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArg, err)
		}
		tokenList[i] = token
	}

	file, err := loadDatabase(formatter, opts.Database)
	if err != nil {
		return err
	}

	result := LookupResult{Tokens: make([]TokenLookup, len(tokenList))}
	for i, token := range tokenList {
		result.Tokens[i] = TokenLookup{
			Token:   fmt.Sprintf("%08x", token),
			Entries: entryViews(file.Lookup(token)),
		}
	}

	return formatter.Success(result)
}
