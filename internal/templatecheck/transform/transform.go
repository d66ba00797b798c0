package transform

import (
	"log/slog"

	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/script"
)

// Transformer walks the template AST and emits one synthetic expression per
// top-level child. Element nodes become componentHelper calls, iteration
// wraps the element in an iterationHelper callback, event-handler bodies
// become listenerHelper calls, text becomes string literals.
type Transformer struct {
	inj *Injector
	log *slog.Logger
}

// NewTransformer builds a transformer; a nil logger falls back to
// slog.Default().
func NewTransformer(log *slog.Logger) *Transformer {
	if log == nil {
		log = slog.Default()
	}
	return &Transformer{inj: NewInjector(log), log: log}
}

// Transform produces the synthetic expression forest for the template roots.
func (t *Transformer) Transform(roots []ast.Node) []script.Expr {
	scope := NewScope()
	out := make([]script.Expr, 0, len(roots))
	for _, n := range roots {
		out = append(out, t.transformNode(n, scope))
	}
	return out
}

func (t *Transformer) transformNode(n ast.Node, scope Scope) script.Expr {
	switch node := n.(type) {
	case *ast.Element:
		return t.transformElement(node, scope)
	case *ast.ExpressionContainer:
		if node.Expression == nil {
			return script.NewString("")
		}
		return t.inj.ParseExpression(*node.Expression, scope)
	case *ast.Text:
		lit := script.NewString(node.Value)
		lit.SetMapRange(script.Range{Start: node.Rng.Start, End: node.Rng.End})
		return lit
	default:
		t.log.Warn("template node variant not modeled, substituting neutral literal")
		return script.NewString("")
	}
}

func (t *Transformer) transformElement(el *ast.Element, scope Scope) script.Expr {
	// Iteration binders are in scope for the element's attributes and
	// children, but not for the iteration source itself.
	extended := scope.With(el.LocalVariables...)

	data := t.buildData(el.Attributes, extended)
	children := &script.Array{}
	for _, c := range el.Children {
		children.Elems = append(children.Elems, t.transformNode(c, extended))
	}

	expr := script.Expr(&script.Call{
		Fun:  script.NewIdent(HelperComponent),
		Args: []script.Expr{script.NewString(el.Name), data, children},
	})

	for i := range el.Attributes {
		a := &el.Attributes[i]
		if a.Kind() != ast.DirectiveFor || a.Iteration == nil {
			continue
		}
		source := t.inj.ParseExpression(a.Iteration.Right, scope)
		params := t.inj.ParseParams(a.Iteration.Left)
		expr = &script.Call{
			Fun:  script.NewIdent(HelperIteration),
			Args: []script.Expr{source, &script.Arrow{Params: params, Body: expr}},
		}
		break
	}
	return expr
}

// buildData assembles the attribute data object: props, on, directives, in
// that order.
func (t *Transformer) buildData(attrs []ast.Attribute, scope Scope) *script.Object {
	props := &script.Object{}
	on := &script.Object{}
	directives := &script.Array{}

	for i := range attrs {
		a := &attrs[i]
		switch a.Kind() {
		case ast.DirectiveFor, ast.DirectiveSlot, ast.DirectiveSlotScope:
			continue
		}
		if !a.Directive {
			// A binding directive may target the same logical attribute as a
			// plain class/style, which would duplicate a key in the synthetic
			// object.
			if a.Name == "class" || a.Name == "style" {
				continue
			}
			var value script.Expr = script.NewBool(true)
			if a.Value != nil {
				value = script.NewString(*a.Value)
			}
			props.Props = append(props.Props, &script.ObjectProp{Name: a.Name, KeyQuoted: true, Value: value})
			continue
		}
		switch a.Kind() {
		case ast.DirectiveBind:
			var value script.Expr = script.NewBool(true)
			if a.Operand != nil {
				value = t.inj.ParseExpression(*a.Operand, scope)
			}
			props.Props = append(props.Props, t.attach(a.Argument, value, scope))
		case ast.DirectiveOn:
			handler := t.handlerExpr(a, scope)
			on.Props = append(on.Props, t.attach(a.Argument, handler, scope))
		default:
			if a.Argument != nil && a.Argument.Dynamic && a.Argument.Expr != nil {
				directives.Elems = append(directives.Elems, t.inj.ParseExpression(*a.Argument.Expr, scope))
			}
			if a.Operand != nil {
				directives.Elems = append(directives.Elems, t.inj.ParseExpression(*a.Operand, scope))
			}
		}
	}

	return &script.Object{Props: []*script.ObjectProp{
		{Name: "props", Value: props},
		{Name: "on", Value: on},
		{Name: "directives", Value: directives},
	}}
}

// attach applies the argument-name rules for a directive value landing in a
// data object.
func (t *Transformer) attach(arg *ast.Argument, value script.Expr, scope Scope) *script.ObjectProp {
	switch {
	case arg == nil:
		return &script.ObjectProp{Spread: true, Value: value}
	case !arg.Dynamic:
		return &script.ObjectProp{Name: arg.Name, KeyQuoted: true, Value: value}
	case arg.Expr != nil:
		return &script.ObjectProp{Computed: t.inj.ParseExpression(*arg.Expr, scope), Value: value}
	default:
		// Dynamic argument with no key expression: a no-op spread.
		return &script.ObjectProp{Spread: true, Value: &script.Object{}}
	}
}

// handlerExpr models an event directive value. A simple expression (a path
// to a method, an arrow function) is emitted directly; a statement body is
// wrapped in a listenerHelper call whose function body sees $event and
// arguments.
func (t *Transformer) handlerExpr(a *ast.Attribute, scope Scope) script.Expr {
	if a.Operand == nil {
		return script.NewString("")
	}
	if simple, ok := t.simpleHandler(*a.Operand, scope); ok {
		return simple
	}
	stmts := t.inj.ParseStatements(*a.Operand, scope.With("$event", "arguments"))
	fn := &script.FuncLit{
		Params: []script.Pattern{&script.IdentPat{Name: "$event"}},
		Body:   stmts,
	}
	return &script.Call{
		Fun:  script.NewIdent(HelperListener),
		Args: []script.Expr{script.NewThis(), fn},
	}
}

// simpleHandler reports whether the handler value is a bare method path or
// function expression, and if so returns its rewrite.
func (t *Transformer) simpleHandler(raw ast.RawExpression, scope Scope) (script.Expr, bool) {
	parsed, err := script.ParseExpression("(" + raw.Text + ")")
	if err != nil {
		return nil, false
	}
	paren, ok := parsed.(*script.Paren)
	if !ok {
		return nil, false
	}
	switch paren.X.(type) {
	case *script.Ident, *script.Member, *script.Index, *script.Arrow:
		return t.inj.ParseExpression(raw, scope), true
	}
	return nil, false
}
