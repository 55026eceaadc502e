package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// getTerminalWidth gets terminal width with fallback
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}

	if width > 10 {
		return width - 4
	}

	return width
}

// RenderMarkdown renders markdown content with glamour
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(getTerminalWidth()),
		glamour.WithColorProfile(termenv.EnvColorProfile()),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	rendered, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	return rendered, nil
}

// SummaryMarkdown formats a batch summary as a markdown report
func SummaryMarkdown(summary *Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Process completed\n\n")
	fmt.Fprintf(&sb, "%d of %d jobs succeeded.\n\n", summary.Succeeded(), len(summary.Outcomes))

	if len(summary.Outcomes) == 0 {
		return sb.String()
	}

	sb.WriteString("| # | Title | Language | Result |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, o := range summary.Outcomes {
		title, language := "-", "-"
		if o.Metadata != nil {
			title = o.Metadata.Title
			if o.Metadata.DetectedLanguage != "" {
				language = o.Metadata.DetectedLanguage
			}
		}

		result := "ok"
		if !o.OK() {
			result = "failed while " + o.Stage.String()
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", o.Job.Index+1, escapeCell(title), language, result)
	}

	if failed := summary.Failed(); failed > 0 {
		sb.WriteString("\n### Failed\n\n")
		for _, o := range summary.Outcomes {
			if !o.OK() {
				fmt.Fprintf(&sb, "- `%s`: %s\n", o.Job.URL, escapeCell(errString(o.Err)))
			}
		}
	}

	return sb.String()
}

// SummaryText formats a batch summary as plain lines
func SummaryText(summary *Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nProcess completed: %d of %d jobs succeeded.\n", summary.Succeeded(), len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		if !o.OK() {
			fmt.Fprintf(&sb, "  - %s (%s): %s\n", o.Job.URL, o.Stage, errString(o.Err))
		}
	}
	return sb.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
