package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// newLogger builds the slog handler used by every command. Colour is only
// enabled when w is a terminal.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)
	if verbose {
		level.Set(slog.LevelDebug)
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Dates and tokens are what matter here; wall-clock time is noise.
			if a.Key == slog.TimeKey && len(groups) == 0 && !verbose {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// setupLogging installs the CLI logger as the slog default.
func setupLogging(w io.Writer, verbose bool) {
	slog.SetDefault(newLogger(w, verbose))
}
