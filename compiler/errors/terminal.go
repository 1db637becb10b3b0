package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	errorHeader   = color.New(color.FgRed, color.Bold)
	warningHeader = color.New(color.FgYellow, color.Bold)
	infoHeader    = color.New(color.FgBlue, color.Bold)
	gutterColor   = color.New(color.FgBlue)
	caretColor    = color.New(color.FgRed)
	hintColor     = color.New(color.FgCyan, color.Bold)
)

// formatReport renders one diagnostic as a multi-line block:
//
//	error: unexpected token "+"
//	 --> demo.nest:3:5
//	  |
//	3 | a + + b
//	  |     ^
//	  = help: expected an expression
func (r *Reporter) formatReport(rep Report) string {
	var sb strings.Builder

	header := rep.Severity.String()
	sb.WriteString(r.paint(headerColorFor(rep.Severity), header))
	sb.WriteString(": ")
	sb.WriteString(rep.Message)
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf(" %s %s:%d:%d\n",
		r.paint(gutterColor, "-->"), r.file, rep.Line, rep.Column))

	if line, ok := r.sourceLine(rep.Line); ok {
		num := fmt.Sprintf("%d", rep.Line)
		pad := strings.Repeat(" ", len(num))

		sb.WriteString(fmt.Sprintf("%s %s\n", pad, r.paint(gutterColor, "|")))
		sb.WriteString(fmt.Sprintf("%s %s %s\n",
			r.paint(gutterColor, num), r.paint(gutterColor, "|"), line))

		width := len([]rune(rep.TokenText))
		if width < 1 {
			width = 1
		}
		offset := rep.Column - 1
		if offset < 0 {
			offset = 0
		}
		sb.WriteString(fmt.Sprintf("%s %s %s%s\n",
			pad, r.paint(gutterColor, "|"),
			strings.Repeat(" ", offset),
			r.paint(caretColor, strings.Repeat("^", width))))
	}

	if rep.Hint != "" {
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			r.paint(gutterColor, "="),
			r.paint(hintColor, "help:"),
			rep.Hint))
	}

	return sb.String()
}

func headerColorFor(s Severity) *color.Color {
	switch s {
	case Warning:
		return warningHeader
	case Info:
		return infoHeader
	default:
		return errorHeader
	}
}

// paint colorizes s unless coloring is suppressed
func (r *Reporter) paint(c *color.Color, s string) string {
	if r.noColor {
		return s
	}
	return c.Sprint(s)
}
