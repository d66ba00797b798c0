package diagnostics

import (
	"fmt"

	"github.com/trixnz/vetur/internal/templatecheck/sourcemap"
)

// Severity of a diagnostic. The template type check has no warning tier;
// everything user-visible is an error.
type Severity string

const (
	SeverityError Severity = "error"
)

// Source is the constant source identifier so editors group template
// diagnostics together.
const Source = "vetur"

// Diagnostic is a user-visible diagnostic in template coordinates.
type Diagnostic struct {
	Range    sourcemap.Range
	Severity Severity
	Message  string
	Code     int
	Source   string
}

// Position is a 1-based line/column location.
type Position struct {
	Line   int
	Column int
}

// PositionAt converts a byte offset in src to a 1-based position. Offsets
// past the end of src clamp to the final position.
func PositionAt(src string, offset int) Position {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

// Render formats the diagnostic against the template source it belongs to,
// Go compiler style: line:col: error: message.
func (d Diagnostic) Render(src string) string {
	p := PositionAt(src, d.Range.Start)
	return fmt.Sprintf("%d:%d: %s: %s", p.Line, p.Column, d.Severity, d.Message)
}
