package transform

import (
	"log/slog"

	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/script"
)

// Injector parses raw expression operands and rewrites free identifiers into
// property accesses on the component instance. Failures never surface to the
// user: they are logged and replaced with a neutral literal so the rest of
// the template still type-checks.
type Injector struct {
	log *slog.Logger
}

// NewInjector builds an injector; a nil logger falls back to slog.Default().
func NewInjector(log *slog.Logger) *Injector {
	if log == nil {
		log = slog.Default()
	}
	return &Injector{log: log}
}

// ParseExpression parses a raw operand under scope and returns the rewritten
// expression. The input is wrapped in parentheses before parsing so that
// brace-initial inputs become object literals rather than statement blocks;
// node offsets are shifted back by one accordingly.
func (in *Injector) ParseExpression(raw ast.RawExpression, scope Scope) script.Expr {
	parsed, err := script.ParseExpression("(" + raw.Text + ")")
	if err != nil {
		in.log.Warn("expression did not parse, substituting neutral literal",
			"expr", raw.Text, "offset", raw.Offset, "err", err)
		return in.neutral(raw)
	}
	paren, ok := parsed.(*script.Paren)
	if !ok {
		in.log.Warn("parse yielded no top-level parenthesized expression, substituting neutral literal",
			"expr", raw.Text, "offset", raw.Offset)
		return in.neutral(raw)
	}
	return in.rewrite(paren.X, scope, raw.Offset-1)
}

// ParseParams parses iteration binder patterns. A pattern that fails to
// parse is logged and dropped; iteration still type-checks with the
// remaining binders.
func (in *Injector) ParseParams(left []ast.RawExpression) []script.Pattern {
	var params []script.Pattern
	for _, raw := range left {
		pat, err := script.ParsePattern(raw.Text)
		if err != nil {
			in.log.Warn("binder pattern did not parse, dropping",
				"pattern", raw.Text, "offset", raw.Offset, "err", err)
			continue
		}
		clearPattern(pat)
		params = append(params, pat)
	}
	return params
}

// ParseStatements parses an event-handler body as expression statements and
// rewrites each under scope. Statements that are not expressions are logged
// and replaced by empty statements.
func (in *Injector) ParseStatements(raw ast.RawExpression, scope Scope) []script.Stmt {
	stmts, errs := script.ParseStatements(raw.Text)
	for _, err := range errs {
		in.log.Warn("handler statement is not an expression, substituting empty statement",
			"body", raw.Text, "offset", raw.Offset, "err", err)
	}
	for _, st := range stmts {
		if es, ok := st.(*script.ExprStmt); ok {
			es.X = in.rewrite(es.X, scope, raw.Offset)
		}
	}
	return stmts
}

func (in *Injector) neutral(raw ast.RawExpression) script.Expr {
	lit := script.NewString("")
	lit.SetMapRange(script.Range{Start: raw.Offset, End: raw.Offset + len(raw.Text)})
	return lit
}

// stamp sets the node's source-map range to the template span of its parsed
// text. origin is the template offset corresponding to parse offset zero.
func stamp(e script.Expr, origin int) {
	pr := e.ParseRange()
	if pr.Valid() {
		e.SetMapRange(script.Range{Start: origin + pr.Start, End: origin + pr.End})
	}
}

// rewrite applies the scope-injection rules. The first matching rule handles
// the node; every produced expression except object literals is stamped with
// its template range.
func (in *Injector) rewrite(e script.Expr, scope Scope, origin int) script.Expr {
	switch n := e.(type) {
	case *script.Ident:
		if scope.Has(n.Name) {
			stamp(n, origin)
			return n
		}
		stamp(n, origin)
		m := &script.Member{X: script.NewThis(), Name: n.Name, NameMap: n.MapRange(), NameSynth: script.NoRange}
		m.SetMapRange(n.MapRange())
		n.ClearParseRange()
		return m
	case *script.This:
		stamp(n, origin)
		return n
	case *script.Member:
		n.X = in.rewrite(n.X, scope, origin)
		stamp(n, origin)
		if pr := n.MapRange(); pr.Valid() {
			n.NameMap = script.Range{Start: pr.End - len(n.Name), End: pr.End}
		}
		return n
	case *script.Index:
		n.X = in.rewrite(n.X, scope, origin)
		n.Key = in.rewrite(n.Key, scope, origin)
		stamp(n, origin)
		return n
	case *script.Unary:
		n.X = in.rewrite(n.X, scope, origin)
		stamp(n, origin)
		return n
	case *script.Binary:
		n.X = in.rewrite(n.X, scope, origin)
		n.Y = in.rewrite(n.Y, scope, origin)
		stamp(n, origin)
		return n
	case *script.Assign:
		n.Target = in.rewrite(n.Target, scope, origin)
		n.Value = in.rewrite(n.Value, scope, origin)
		stamp(n, origin)
		return n
	case *script.Cond:
		n.Cond = in.rewrite(n.Cond, scope, origin)
		n.Then = in.rewrite(n.Then, scope, origin)
		n.Else = in.rewrite(n.Else, scope, origin)
		stamp(n, origin)
		return n
	case *script.Call:
		n.Fun = in.rewrite(n.Fun, scope, origin)
		for i, a := range n.Args {
			n.Args[i] = in.rewrite(a, scope, origin)
		}
		stamp(n, origin)
		return n
	case *script.Paren:
		n.X = in.rewrite(n.X, scope, origin)
		stamp(n, origin)
		return n
	case *script.Object:
		// Object literals are structural: no source-map range of their own.
		for _, prop := range n.Props {
			if prop.Spread {
				prop.Value = in.rewrite(prop.Value, scope, origin)
				continue
			}
			if prop.Computed != nil {
				prop.Computed = in.rewrite(prop.Computed, scope, origin)
				prop.Value = in.rewrite(prop.Value, scope, origin)
				continue
			}
			if prop.Shorthand {
				id, ok := prop.Value.(*script.Ident)
				if ok && !scope.Has(id.Name) {
					prop.Shorthand = false
				}
				prop.Value = in.rewrite(prop.Value, scope, origin)
				continue
			}
			prop.Value = in.rewrite(prop.Value, scope, origin)
		}
		return n
	case *script.Array:
		for i, el := range n.Elems {
			if el != nil {
				n.Elems[i] = in.rewrite(el, scope, origin)
			}
		}
		stamp(n, origin)
		return n
	case *script.Spread:
		n.X = in.rewrite(n.X, scope, origin)
		stamp(n, origin)
		return n
	case *script.Arrow:
		var binders []string
		for _, p := range n.Params {
			binders = append(binders, script.Binders(p)...)
			clearPattern(p)
		}
		n.Body = in.rewrite(n.Body, scope.With(binders...), origin)
		stamp(n, origin)
		return n
	case *script.TemplateLit:
		for i, x := range n.Exprs {
			n.Exprs[i] = in.rewrite(x, scope, origin)
		}
		stamp(n, origin)
		return n
	default:
		// Literals and anything else pass through unchanged; their parser
		// positions are only meaningful relative to the parenthesized input,
		// so reset them to the sentinel after stamping the map range.
		stamp(e, origin)
		e.ClearParseRange()
		return e
	}
}

func clearPattern(p script.Pattern) {
	p.ClearParseRange()
	switch pat := p.(type) {
	case *script.ObjectPat:
		for _, prop := range pat.Props {
			clearPattern(prop.Value)
		}
	case *script.ArrayPat:
		for _, el := range pat.Elems {
			if el != nil {
				clearPattern(el)
			}
		}
	case *script.DefaultPat:
		clearPattern(pat.Pat)
	case *script.RestPat:
		clearPattern(pat.Pat)
	}
}
