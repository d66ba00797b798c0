package diagnostics

import (
	"strings"

	"github.com/trixnz/vetur/internal/templatecheck/check"
	"github.com/trixnz/vetur/internal/templatecheck/sourcemap"
)

// MapDiagnostics translates raw checker diagnostics into template
// coordinates. Syntactic diagnostics are dropped unconditionally: the
// synthetic program is well-formed by construction, so they would indicate
// an internal bug, not user error. Every semantic diagnostic survives; one
// whose span has no source-map entry is anchored at the start of the
// template rather than dropped.
func MapDiagnostics(raw []check.Diagnostic, m *sourcemap.Map) []Diagnostic {
	out := make([]Diagnostic, 0, len(raw))
	for _, d := range raw {
		if d.Category == check.CategorySyntactic {
			continue
		}
		rng, ok := m.MapBack(d.Span)
		if !ok {
			rng = sourcemap.Sentinel
		}
		msg := d.Message
		if len(d.Chain) > 0 {
			msg = msg + "\n" + strings.Join(d.Chain, "\n")
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: SeverityError,
			Message:  msg,
			Code:     d.Code,
			Source:   Source,
		})
	}
	return out
}
