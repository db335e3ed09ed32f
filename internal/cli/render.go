package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/qcc-tools/qcc/internal/checks"
	"github.com/qcc-tools/qcc/internal/qc"
)

// statusPalette colours check statuses like the traffic lights of the checklist UI.
type statusPalette struct {
	styles map[checks.Status]lipgloss.Style
	title  lipgloss.Style
	faint  lipgloss.Style
}

// newStatusPalette detects color support from w itself, so buffers render plain text.
func newStatusPalette(w io.Writer) statusPalette {
	r := lipgloss.NewRenderer(w)
	return statusPalette{
		styles: map[checks.Status]lipgloss.Style{
			checks.StatusPassed:  r.NewStyle().Foreground(lipgloss.Color("2")),
			checks.StatusFailed:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			checks.StatusSkipped: r.NewStyle().Foreground(lipgloss.Color("3")),
			checks.StatusPending: r.NewStyle().Foreground(lipgloss.Color("8")),
		},
		title: r.NewStyle().Bold(true),
		faint: r.NewStyle().Faint(true),
	}
}

func (p statusPalette) status(s checks.Status) string {
	label := fmt.Sprintf("%-8s", string(s))
	if style, ok := p.styles[s]; ok {
		return style.Render(label)
	}
	return label
}

// renderResults prints one line per check: status, then name.
func renderResults(w io.Writer, department string, results []checks.Result) error {
	p := newStatusPalette(w)
	var b strings.Builder
	b.WriteString(p.title.Render(department))
	b.WriteString("\n")
	for _, res := range results {
		fmt.Fprintf(&b, "  %s %s\n", p.status(res.Status), res.Check)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderReport prints the description of a check followed by its report lines.
func renderReport(w io.Writer, report qc.Report) error {
	p := newStatusPalette(w)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", p.title.Render(report.Check), p.status(report.Status))
	for _, line := range report.Description {
		fmt.Fprintf(&b, "%s\n", p.faint.Render(line))
	}
	if len(report.Description) > 0 {
		b.WriteString("\n")
	}
	for _, line := range report.Lines {
		fmt.Fprintf(&b, "%s\n", line)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderSummary prints whether the scene is ready to publish.
func renderSummary(w io.Writer, session *qc.Session) error {
	p := newStatusPalette(w)
	var line string
	if failing := session.Failing(); len(failing) > 0 {
		line = p.status(checks.StatusFailed) + " " + fmt.Sprintf("%d check(s) not passed: %s", len(failing), strings.Join(failing, ", "))
	} else {
		line = p.status(checks.StatusPassed) + " All checks passed, ready to publish"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
