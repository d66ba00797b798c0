package transform

import (
	"strings"

	"github.com/trixnz/vetur/internal/templatecheck/script"
	"github.com/trixnz/vetur/internal/templatecheck/sourcemap"
)

// Program is the emitted synthetic program: its text, the expression forest
// it was printed from, and the source map recorded during emission.
type Program struct {
	Text  string
	Roots []script.Expr
	Map   *sourcemap.Map
}

// Emit prints the expression forest as the synthetic program. Printing
// assigns every node its synthetic range and records a source-map entry for
// every node carrying a template range, so diagnostics reported against any
// printed node can be mapped back.
func Emit(roots []script.Expr) *Program {
	p := &printer{m: &sourcemap.Map{}}
	p.print(HelperRender + "(this, [\n")
	for _, r := range roots {
		p.print("  ")
		p.expr(r)
		p.print(",\n")
	}
	p.print("])\n")
	return &Program{Text: p.b.String(), Roots: roots, Map: p.m}
}

type printer struct {
	b strings.Builder
	m *sourcemap.Map
}

func (p *printer) print(s string) { p.b.WriteString(s) }

func (p *printer) expr(e script.Expr) {
	if e == nil {
		return
	}
	start := p.b.Len()
	switch n := e.(type) {
	case *script.Ident:
		p.print(n.Name)
	case *script.This:
		p.print("this")
	case *script.Member:
		p.expr(n.X)
		p.print(".")
		nameStart := p.b.Len()
		p.print(n.Name)
		n.NameSynth = script.Range{Start: nameStart, End: p.b.Len()}
		if n.NameMap.Valid() && n.NameMap.End > n.NameMap.Start {
			p.m.Add(
				sourcemap.Range{Start: nameStart, End: p.b.Len()},
				sourcemap.Range{Start: n.NameMap.Start, End: n.NameMap.End},
			)
		}
	case *script.Index:
		p.expr(n.X)
		p.print("[")
		p.expr(n.Key)
		p.print("]")
	case *script.Call:
		p.expr(n.Fun)
		p.print("(")
		for i, a := range n.Args {
			if i > 0 {
				p.print(", ")
			}
			p.expr(a)
		}
		p.print(")")
	case *script.Unary:
		if n.Postfix {
			p.expr(n.X)
			p.print(n.Op)
		} else {
			p.print(n.Op)
			if isWordOp(n.Op) {
				p.print(" ")
			}
			p.expr(n.X)
		}
	case *script.Binary:
		p.expr(n.X)
		p.print(" " + n.Op + " ")
		p.expr(n.Y)
	case *script.Assign:
		p.expr(n.Target)
		p.print(" " + n.Op + " ")
		p.expr(n.Value)
	case *script.Cond:
		p.expr(n.Cond)
		p.print(" ? ")
		p.expr(n.Then)
		p.print(" : ")
		p.expr(n.Else)
	case *script.Paren:
		p.print("(")
		p.expr(n.X)
		p.print(")")
	case *script.Object:
		p.print("{")
		for i, prop := range n.Props {
			if i > 0 {
				p.print(", ")
			}
			p.objectProp(prop)
		}
		p.print("}")
	case *script.Array:
		p.print("[")
		for i, el := range n.Elems {
			if i > 0 {
				p.print(", ")
			}
			p.expr(el)
		}
		p.print("]")
	case *script.Spread:
		p.print("...")
		p.expr(n.X)
	case *script.Arrow:
		p.print("(")
		for i, param := range n.Params {
			if i > 0 {
				p.print(", ")
			}
			p.pattern(param)
		}
		p.print(") => ")
		p.expr(n.Body)
	case *script.FuncLit:
		p.print("function (")
		for i, param := range n.Params {
			if i > 0 {
				p.print(", ")
			}
			p.pattern(param)
		}
		p.print(") { ")
		for _, st := range n.Body {
			p.stmt(st)
		}
		p.print("}")
	case *script.TemplateLit:
		p.print("`")
		for i, q := range n.Quasis {
			p.print(q)
			if i < len(n.Exprs) {
				p.print("${")
				p.expr(n.Exprs[i])
				p.print("}")
			}
		}
		p.print("`")
	case *script.Lit:
		p.print(n.Raw)
	}
	end := p.b.Len()
	e.SetSynthRange(script.Range{Start: start, End: end})
	if mr := e.MapRange(); mr.Valid() && mr.End > mr.Start {
		p.m.Add(sourcemap.Range{Start: start, End: end}, sourcemap.Range{Start: mr.Start, End: mr.End})
	}
}

func (p *printer) objectProp(prop *script.ObjectProp) {
	switch {
	case prop.Spread:
		p.print("...")
		p.expr(prop.Value)
	case prop.Computed != nil:
		p.print("[")
		p.expr(prop.Computed)
		p.print("]: ")
		p.expr(prop.Value)
	case prop.Shorthand:
		p.expr(prop.Value)
	case prop.KeyQuoted || !isIdentName(prop.Name):
		p.print(quoteKey(prop.Name) + ": ")
		p.expr(prop.Value)
	default:
		p.print(prop.Name + ": ")
		p.expr(prop.Value)
	}
}

func (p *printer) stmt(s script.Stmt) {
	switch n := s.(type) {
	case *script.ExprStmt:
		p.expr(n.X)
		p.print("; ")
	case *script.EmptyStmt:
		p.print("; ")
	}
}

func (p *printer) pattern(pat script.Pattern) {
	switch n := pat.(type) {
	case *script.IdentPat:
		p.print(n.Name)
	case *script.ObjectPat:
		p.print("{")
		for i, prop := range n.Props {
			if i > 0 {
				p.print(", ")
			}
			switch {
			case prop.Rest:
				p.print("...")
				p.pattern(prop.Value)
			case isShorthandPatProp(prop):
				p.pattern(prop.Value)
			default:
				p.print(prop.Key + ": ")
				p.pattern(prop.Value)
			}
		}
		p.print("}")
	case *script.ArrayPat:
		p.print("[")
		for i, el := range n.Elems {
			if i > 0 {
				p.print(", ")
			}
			if el != nil {
				p.pattern(el)
			}
		}
		p.print("]")
	case *script.DefaultPat:
		p.pattern(n.Pat)
		p.print(" = ")
		p.expr(n.Default)
	case *script.RestPat:
		p.print("...")
		p.pattern(n.Pat)
	}
}

func isShorthandPatProp(prop *script.ObjectPatProp) bool {
	id, ok := prop.Value.(*script.IdentPat)
	return ok && id.Name == prop.Key
}

func isWordOp(op string) bool {
	switch op {
	case "typeof", "void", "delete", "in", "instanceof":
		return true
	}
	return false
}

func isIdentName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '$' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func quoteKey(name string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
