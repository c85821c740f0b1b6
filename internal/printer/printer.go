// Package printer provides the styled output sink tasks write to.
//
// All task output goes through a Printer so help rendering and task bodies
// stay testable: hand them a bytes.Buffer instead of os.Stdout and the
// styling degrades to plain text when the sink is not a terminal.
package printer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Style names a visual treatment for a span of output.
type Style string

const (
	StyleNone    Style = "none"
	StyleHeader  Style = "header"
	StyleError   Style = "error"
	StyleInfo    Style = "info"
	StyleComment Style = "comment"
)

var (
	colorGreen  = lipgloss.Color("#a9dc76")
	colorRed    = lipgloss.Color("#ff6188")
	colorCyan   = lipgloss.Color("#78dce8")
	colorGray   = lipgloss.Color("#727072")
	colorYellow = lipgloss.Color("#ffd866")

	styleHeader  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleInfo    = lipgloss.NewStyle().Foreground(colorCyan)
	styleComment = lipgloss.NewStyle().Foreground(colorGray)
	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
)

// Printer writes styled text to an underlying writer.
type Printer struct {
	w io.Writer
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer returns the underlying sink. Table renderers and help text borrow
// it directly.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Write writes text with the given style, no trailing newline.
func (p *Printer) Write(text string, style Style) {
	fmt.Fprint(p.w, render(text, style))
}

// Writeln writes text with the given style followed by a newline.
func (p *Printer) Writeln(text string, style Style) {
	fmt.Fprintln(p.w, render(text, style))
}

// Printf writes unstyled formatted text.
func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

// Header writes a styled section header line.
func (p *Printer) Header(text string) {
	p.Writeln(text, StyleHeader)
}

// Error writes a styled error line.
func (p *Printer) Error(text string) {
	p.Writeln(text, StyleError)
}

// OK writes a styled success line.
func (p *Printer) OK(text string) {
	fmt.Fprintln(p.w, styleOK.Render(text))
}

func render(text string, style Style) string {
	switch style {
	case StyleHeader:
		return styleHeader.Render(text)
	case StyleError:
		return styleError.Render(text)
	case StyleInfo:
		return styleInfo.Render(text)
	case StyleComment:
		return styleComment.Render(text)
	default:
		return text
	}
}
