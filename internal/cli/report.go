package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tokendb/internal/tokens"
)

// DatabaseReport summarizes one token database.
type DatabaseReport struct {
	Path       string            `json:"path"`
	Format     string            `json:"format"`
	Entries    int               `json:"entries"`
	Present    int               `json:"present"`
	Removed    int               `json:"removed"`
	Collisions []CollisionReport `json:"collisions"`
}

// CollisionReport lists the strings that share a token.
type CollisionReport struct {
	Token   string      `json:"token"`
	Entries []EntryView `json:"entries"`
}

// ReportResult holds the reports for every database argument.
type ReportResult struct {
	Databases []DatabaseReport `json:"databases"`
}

func (r ReportResult) String() string {
	var b strings.Builder
	for i, db := range r.Databases {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", db.Path, db.Format)
		fmt.Fprintf(&b, "  entries:    %d\n", db.Entries)
		fmt.Fprintf(&b, "  present:    %d\n", db.Present)
		fmt.Fprintf(&b, "  removed:    %d\n", db.Removed)
		fmt.Fprintf(&b, "  collisions: %d\n", len(db.Collisions))
		for _, c := range db.Collisions {
			fmt.Fprintf(&b, "    %s:", c.Token)
			for _, e := range c.Entries {
				fmt.Fprintf(&b, " %q", e.String)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <database>...",
		Short: "Summarize token databases",
		Long: `Print entry counts and token collisions for each database.

A collision is a token shared by more than one string; detokenizing such a
token is ambiguous.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runReport(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ReportResult{Databases: make([]DatabaseReport, 0, len(paths))}
	for _, path := range paths {
		file, err := loadDatabase(formatter, path)
		if err != nil {
			return err
		}
		result.Databases = append(result.Databases, buildReport(file))
	}

	return formatter.Success(result)
}

func buildReport(file *tokens.DatabaseFile) DatabaseReport {
	report := DatabaseReport{
		Path:       file.Path,
		Format:     file.Format.String(),
		Entries:    file.Len(),
		Collisions: []CollisionReport{},
	}
	for _, e := range file.Entries() {
		if e.Removed() {
			report.Removed++
		} else {
			report.Present++
		}
	}
	for _, c := range file.Collisions() {
		report.Collisions = append(report.Collisions, CollisionReport{
			Token:   fmt.Sprintf("%08x", c.Token),
			Entries: entryViews(c.Entries),
		})
	}
	return report
}
