package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// UIManager handles all user interface concerns (progress, verbose output, status lines)
type UIManager interface {
	NewProgressBar(total int, description string) ProgressBar

	Verbose(format string, args ...any)
	Printf(format string, args ...any)
	Println(args ...any)
	Warnf(format string, args ...any)

	// Interactive reports whether stdout is a terminal
	Interactive() bool
}

// ProgressBar interface abstracts progress bar operations
type ProgressBar interface {
	Set(current int)
	Describe(description string)
	Finish()
}

// StandardUIManager writes status to stdout and warnings to stderr
type StandardUIManager struct {
	out         io.Writer
	errOut      io.Writer
	verbose     bool
	quiet       bool
	interactive bool

	// bar is the visible progress bar, cleared before status lines
	bar *progressbar.ProgressBar
}

func NewUIManager(verbose, quiet bool) UIManager {
	return &StandardUIManager{
		out:         os.Stdout,
		errOut:      os.Stderr,
		verbose:     verbose,
		quiet:       quiet,
		interactive: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

// NewWriterUIManager writes to the given writers, never showing progress bars
func NewWriterUIManager(out, errOut io.Writer, verbose, quiet bool) UIManager {
	return &StandardUIManager{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		quiet:   quiet,
	}
}

// NewProgressBar returns a visible bar only on an interactive, non-verbose terminal;
// verbose output would tear the bar apart. Status lines clear the bar first and
// it redraws on the next Set.
func (ui *StandardUIManager) NewProgressBar(total int, description string) ProgressBar {
	if ui.quiet || ui.verbose || !ui.interactive {
		return &SilentProgressBar{bar: progressbar.DefaultSilent(int64(total))}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ui.errOut),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	ui.bar = bar
	return &VisibleProgressBar{bar: bar, ui: ui}
}

// clearBar erases the progress bar line so a status line starts at column 0
func (ui *StandardUIManager) clearBar() {
	if ui.bar != nil {
		_ = ui.bar.Clear()
	}
}

func (ui *StandardUIManager) Verbose(format string, args ...any) {
	if ui.verbose {
		ui.clearBar()
		fmt.Fprintf(ui.out, format, args...)
	}
}

func (ui *StandardUIManager) Printf(format string, args ...any) {
	if !ui.quiet {
		ui.clearBar()
		fmt.Fprintf(ui.out, format, args...)
	}
}

func (ui *StandardUIManager) Println(args ...any) {
	if !ui.quiet {
		ui.clearBar()
		fmt.Fprintln(ui.out, args...)
	}
}

// Warnf is printed even in quiet mode
func (ui *StandardUIManager) Warnf(format string, args ...any) {
	ui.clearBar()
	fmt.Fprintf(ui.errOut, "Warning: "+format, args...)
}

func (ui *StandardUIManager) Interactive() bool {
	return ui.interactive
}

// VisibleProgressBar wraps the actual progress bar
type VisibleProgressBar struct {
	bar *progressbar.ProgressBar
	ui  *StandardUIManager
}

func (v *VisibleProgressBar) Set(current int) {
	_ = v.bar.Set(current)
}

func (v *VisibleProgressBar) Describe(description string) {
	v.bar.Describe(description)
}

func (v *VisibleProgressBar) Finish() {
	_ = v.bar.Finish()
	if v.ui.bar == v.bar {
		v.ui.bar = nil
	}
}

// SilentProgressBar implements a silent progress bar
type SilentProgressBar struct {
	bar *progressbar.ProgressBar
}

func (s *SilentProgressBar) Set(current int) {
	_ = s.bar.Set(current)
}

func (s *SilentProgressBar) Describe(description string) {}

func (s *SilentProgressBar) Finish() {
	_ = s.bar.Finish()
}
