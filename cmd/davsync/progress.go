package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"

	"github.com/davsync/davsync/internal/sync"
)

// newProgressRenderer draws a progress bar on f as the engine ticks.
// Returns nil (progress dropped) when f is not a terminal, so redirected
// output stays clean.
func newProgressRenderer(f *os.File) sync.ProgressFunc {
	if !isatty.IsTerminal(f.Fd()) {
		return nil
	}

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return func(done, total int) {
		if total == 0 {
			return
		}
		fmt.Fprintf(f, "\r%s %d/%d", bar.ViewAs(float64(done)/float64(total)), done, total)
		if done == total {
			fmt.Fprintln(f)
		}
	}
}
