// Completion: 100% - Diagnostic formatting matches the stage-tagged report format
package minic

import (
	"fmt"
	"strings"
)

// Stage names a pipeline phase that can produce diagnostics.
type Stage int

const (
	StageLexical Stage = iota
	StageSyntax
	StageScope
	StageType
	StageRuntime
)

func (s Stage) String() string {
	switch s {
	case StageLexical:
		return "Lexical"
	case StageSyntax:
		return "Syntax"
	case StageScope:
		return "Scope"
	case StageType:
		return "Type"
	case StageRuntime:
		return "Runtime"
	default:
		return "Unknown"
	}
}

// SourceLocation is a 1-based line/column position within a source string.
type SourceLocation struct {
	Line   int
	Column int
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Diagnostic is a single stage-tagged error or warning with a source
// position; it is rendered with a 3-line source window and a caret.
type Diagnostic struct {
	Stage    Stage
	Message  string
	Location SourceLocation
}

// Format renders the diagnostic the way the external collaborator expects:
// a stage label, an error line, a "--> line:column" locator, a blank line,
// then up to three source lines (previous, offending, next) with the
// offending line prefixed by '>' and followed by a caret line. Color
// escapes are the caller's concern; the core only ever emits plain text.
func (d Diagnostic) Format(source string) string {
	var sb strings.Builder
	sb.WriteString(d.Stage.String())
	sb.WriteString(" error:\n")
	sb.WriteString("--> ")
	sb.WriteString(d.Location.String())
	sb.WriteString("\n\n")

	lines := strings.Split(source, "\n")
	lineIdx := d.Location.Line - 1
	if lineIdx < 0 || lineIdx >= len(lines) {
		sb.WriteString(d.Message)
		sb.WriteString("\n")
		return sb.String()
	}

	if lineIdx > 0 {
		sb.WriteString(formatSourceLine(lineIdx, lines[lineIdx-1], false))
	}
	sb.WriteString(formatSourceLine(lineIdx, lines[lineIdx], true))

	col := d.Location.Column - 1
	if col < 0 {
		col = 0
	}
	sb.WriteString("     ")
	sb.WriteString(strings.Repeat(" ", col))
	sb.WriteString("^\n")

	if lineIdx+1 < len(lines) {
		sb.WriteString(formatSourceLine(lineIdx+1, lines[lineIdx+1], false))
	}

	sb.WriteString(d.Message)
	sb.WriteString("\n")
	return sb.String()
}

// formatSourceLine renders one line of the 3-line window: a right-aligned
// 4-character line number, a '>' marker for the offending line, then the
// source text.
func formatSourceLine(lineIdx int, text string, offending bool) string {
	marker := " "
	if offending {
		marker = ">"
	}
	return fmt.Sprintf("%4d %s %s\n", lineIdx+1, marker, text)
}

// ErrorCollector accumulates diagnostics for one pipeline stage and renders
// them against the source they came from.
type ErrorCollector struct {
	source string
	diags  []Diagnostic
}

// NewErrorCollector creates a collector bound to the given source text.
func NewErrorCollector(source string) *ErrorCollector {
	return &ErrorCollector{source: source}
}

// Add records one diagnostic.
func (ec *ErrorCollector) Add(stage Stage, line, column int, message string) {
	ec.diags = append(ec.diags, Diagnostic{
		Stage:    stage,
		Message:  message,
		Location: SourceLocation{Line: line, Column: column},
	})
}

// HasErrors reports whether any diagnostic has been recorded.
func (ec *ErrorCollector) HasErrors() bool { return len(ec.diags) > 0 }

// Count returns the number of recorded diagnostics.
func (ec *ErrorCollector) Count() int { return len(ec.diags) }

// Render formats every recorded diagnostic, in order, separated by a blank
// line, producing the final diagnostic-or-output string the pipeline
// returns to its caller.
func (ec *ErrorCollector) Render() string {
	var sb strings.Builder
	for i, d := range ec.diags {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(d.Format(ec.source))
	}
	return sb.String()
}
