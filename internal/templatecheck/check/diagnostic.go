package check

import "github.com/trixnz/vetur/internal/templatecheck/sourcemap"

// Category separates semantic diagnostics from syntactic ones. The synthetic
// program is syntactically well-formed by construction, so syntactic
// diagnostics indicate an internal bug, never user error.
type Category int

const (
	CategorySemantic Category = iota
	CategorySyntactic
)

// Diagnostic codes, matching the host checker's numbering for the error
// shapes the template check can produce.
const (
	CodeTypeNotAssignable     = 2322
	CodePropertyNotFound      = 2339
	CodeArgumentNotAssignable = 2345
	CodeNotCallable           = 2349
	CodeWrongArgCount         = 2554
)

// Diagnostic is a raw checker diagnostic against the synthetic program.
// Span is in synthetic-buffer coordinates. Chain holds follow-on message
// lines elaborating the primary message.
type Diagnostic struct {
	Span     sourcemap.Range
	Category Category
	Code     int
	Message  string
	Chain    []string
}
