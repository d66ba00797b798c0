package templatecheck

import (
	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/check"
	"github.com/trixnz/vetur/internal/templatecheck/script"
)

// TemplateParser turns template source into the template AST. The default
// is the in-repo parser; a language-server host with its own SFC parser can
// substitute it.
type TemplateParser interface {
	Parse(src string) ([]ast.Node, error)
}

// Transformer produces the synthetic expression forest for a template.
type Transformer interface {
	Transform(roots []ast.Node) []script.Expr
}

// Checker is the downstream type-checker session. It is long-lived and
// keyed by file path: the core keeps one shadow document per template in
// sync and requests diagnostics by tier.
type Checker interface {
	SyncShadow(path string, roots []script.Expr, comp check.Component)
	Drop(path string)
	Diagnostics(path string, cat check.Category) []check.Diagnostic
}
