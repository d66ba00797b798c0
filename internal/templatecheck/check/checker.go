package check

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/trixnz/vetur/internal/templatecheck/script"
	"github.com/trixnz/vetur/internal/templatecheck/sourcemap"
	"github.com/trixnz/vetur/internal/templatecheck/transform"
)

// Session is the long-lived checker session. Shadow documents are keyed by
// file path and replaced wholesale whenever the owning template changes.
type Session struct {
	shadows map[string]*shadow
}

type shadow struct {
	comp  Component
	roots []script.Expr
}

// NewSession creates an empty checker session.
func NewSession() *Session {
	return &Session{shadows: make(map[string]*shadow)}
}

// SyncShadow installs or replaces the shadow document for path.
func (s *Session) SyncShadow(path string, roots []script.Expr, comp Component) {
	s.shadows[path] = &shadow{comp: comp, roots: roots}
}

// Drop removes the shadow document for path.
func (s *Session) Drop(path string) {
	delete(s.shadows, path)
}

// Diagnostics type-checks the shadow document for path. The synthetic
// program is well-formed by construction, so the syntactic tier is always
// empty.
func (s *Session) Diagnostics(path string, cat Category) []Diagnostic {
	if cat == CategorySyntactic {
		return nil
	}
	sh, ok := s.shadows[path]
	if !ok {
		return nil
	}
	c := &checker{comp: sh.comp}
	env := map[string]cty.Type{}
	for _, r := range sh.roots {
		c.infer(r, env)
	}
	return c.diags
}

// checker walks the synthetic expression forest inferring types and
// reporting semantic diagnostics with synthetic spans.
type checker struct {
	comp  Component
	diags []Diagnostic
}

// inferred is a checked expression's type, with an optional literal display
// for diagnostics and an optional callable signature.
type inferred struct {
	ty      cty.Type
	display string
	method  *function.Function
	comp    bool
}

var dynamic = inferred{ty: cty.DynamicPseudoType}

func (i inferred) isDynamic() bool { return i.comp || i.ty == cty.DynamicPseudoType }

func (i inferred) name() string {
	if i.display != "" {
		return i.display
	}
	return TypeName(i.ty)
}

func spanOf(e script.Expr) sourcemap.Range {
	if r := e.SynthRange(); r.Valid() {
		return sourcemap.Range{Start: r.Start, End: r.End}
	}
	return sourcemap.Range{}
}

func (c *checker) report(span sourcemap.Range, code int, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Span:     span,
		Category: CategorySemantic,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) infer(e script.Expr, env map[string]cty.Type) inferred {
	switch n := e.(type) {
	case *script.Lit:
		switch n.Kind {
		case script.LitNumber:
			return inferred{ty: cty.Number, display: n.Raw}
		case script.LitString:
			return inferred{ty: cty.String, display: `"` + n.Value + `"`}
		case script.LitBool:
			return inferred{ty: cty.Bool, display: n.Raw}
		default:
			return dynamic
		}
	case *script.This:
		return inferred{ty: cty.DynamicPseudoType, comp: true}
	case *script.Ident:
		if ty, ok := env[n.Name]; ok {
			return inferred{ty: ty}
		}
		return dynamic
	case *script.Member:
		return c.inferMember(n, env)
	case *script.Index:
		return c.inferIndex(n, env)
	case *script.Call:
		return c.inferCall(n, env)
	case *script.Unary:
		c.infer(n.X, env)
		switch n.Op {
		case "!", "delete":
			return inferred{ty: cty.Bool}
		case "typeof":
			return inferred{ty: cty.String}
		case "+", "-", "~", "++", "--":
			return inferred{ty: cty.Number}
		default:
			return dynamic
		}
	case *script.Binary:
		x := c.infer(n.X, env)
		y := c.infer(n.Y, env)
		switch n.Op {
		case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "in", "instanceof":
			return inferred{ty: cty.Bool}
		case "&&", "||", "??":
			return dynamic
		case "+":
			if x.ty == cty.String || y.ty == cty.String {
				return inferred{ty: cty.String}
			}
			if x.ty == cty.Number && y.ty == cty.Number {
				return inferred{ty: cty.Number}
			}
			return dynamic
		default:
			return inferred{ty: cty.Number}
		}
	case *script.Assign:
		target := c.infer(n.Target, env)
		value := c.infer(n.Value, env)
		if !target.isDynamic() && !value.isDynamic() && !assignable(value.ty, target.ty) {
			c.report(spanOf(n.Value), CodeTypeNotAssignable,
				"Type '%s' is not assignable to type '%s'.", value.name(), TypeName(target.ty))
		}
		return target
	case *script.Cond:
		c.infer(n.Cond, env)
		then := c.infer(n.Then, env)
		els := c.infer(n.Else, env)
		if !then.isDynamic() && !els.isDynamic() && then.ty.Equals(els.ty) {
			return inferred{ty: then.ty}
		}
		return dynamic
	case *script.Paren:
		return c.infer(n.X, env)
	case *script.Object:
		return c.inferObject(n, env)
	case *script.Array:
		return c.inferArray(n, env)
	case *script.Spread:
		c.infer(n.X, env)
		return dynamic
	case *script.Arrow:
		c.checkArrow(n, env, nil)
		return dynamic
	case *script.FuncLit:
		c.checkFuncLit(n, env)
		return dynamic
	case *script.TemplateLit:
		for _, x := range n.Exprs {
			c.infer(x, env)
		}
		return inferred{ty: cty.String}
	default:
		return dynamic
	}
}

func (c *checker) inferMember(n *script.Member, env map[string]cty.Type) inferred {
	x := c.infer(n.X, env)
	nameSpan := spanOf(n)
	if r := n.NameSynth; r.Valid() && r.End > r.Start {
		nameSpan = sourcemap.Range{Start: r.Start, End: r.End}
	}
	if x.comp {
		m, ok := c.comp.Members[n.Name]
		if !ok {
			c.report(nameSpan, CodePropertyNotFound,
				"Property '%s' does not exist on type '%s'.", n.Name, c.comp.Name)
			return dynamic
		}
		if m.Method != nil {
			return inferred{ty: cty.DynamicPseudoType, method: m.Method}
		}
		return inferred{ty: m.Type}
	}
	if x.ty == cty.DynamicPseudoType {
		return dynamic
	}
	if x.ty.IsObjectType() {
		if x.ty.HasAttribute(n.Name) {
			return inferred{ty: x.ty.AttributeType(n.Name)}
		}
		c.report(nameSpan, CodePropertyNotFound,
			"Property '%s' does not exist on type '%s'.", n.Name, TypeName(x.ty))
		return dynamic
	}
	if ty, ok := builtinMember(x.ty, n.Name); ok {
		return inferred{ty: ty}
	}
	c.report(nameSpan, CodePropertyNotFound,
		"Property '%s' does not exist on type '%s'.", n.Name, TypeName(x.ty))
	return dynamic
}

func (c *checker) inferIndex(n *script.Index, env map[string]cty.Type) inferred {
	x := c.infer(n.X, env)
	c.infer(n.Key, env)
	switch {
	case x.isDynamic():
		return dynamic
	case x.ty.IsListType() || x.ty.IsSetType() || x.ty.IsMapType():
		return inferred{ty: x.ty.ElementType()}
	case x.ty.IsTupleType():
		return dynamic
	case x.ty == cty.String:
		return inferred{ty: cty.String}
	case x.ty.IsObjectType():
		if lit, ok := n.Key.(*script.Lit); ok && lit.Kind == script.LitString {
			if x.ty.HasAttribute(lit.Value) {
				return inferred{ty: x.ty.AttributeType(lit.Value)}
			}
			c.report(spanOf(n), CodePropertyNotFound,
				"Property '%s' does not exist on type '%s'.", lit.Value, TypeName(x.ty))
		}
		return dynamic
	default:
		return dynamic
	}
}

func (c *checker) inferCall(n *script.Call, env map[string]cty.Type) inferred {
	if id, ok := n.Fun.(*script.Ident); ok {
		switch id.Name {
		case transform.HelperComponent:
			for _, a := range n.Args {
				c.infer(a, env)
			}
			return dynamic
		case transform.HelperIteration:
			return c.inferIteration(n, env)
		case transform.HelperListener:
			for _, a := range n.Args {
				if fn, ok := a.(*script.FuncLit); ok {
					c.checkFuncLit(fn, env)
					continue
				}
				c.infer(a, env)
			}
			return dynamic
		case transform.HelperRender:
			for _, a := range n.Args {
				c.infer(a, env)
			}
			return dynamic
		}
	}

	callee := c.infer(n.Fun, env)
	if callee.method != nil {
		return c.checkMethodCall(n, *callee.method, env)
	}
	if callee.isDynamic() {
		for _, a := range n.Args {
			c.infer(a, env)
		}
		return dynamic
	}
	c.report(spanOf(n.Fun), CodeNotCallable, "This expression is not callable.")
	for _, a := range n.Args {
		c.infer(a, env)
	}
	return dynamic
}

func (c *checker) checkMethodCall(n *script.Call, fn function.Function, env map[string]cty.Type) inferred {
	params := fn.Params()
	varParam := fn.VarParam()
	if (varParam == nil && len(n.Args) != len(params)) || len(n.Args) < len(params) {
		c.report(spanOf(n), CodeWrongArgCount,
			"Expected %d arguments, but got %d.", len(params), len(n.Args))
	}
	for i, arg := range n.Args {
		var want cty.Type
		switch {
		case i < len(params):
			want = params[i].Type
		case varParam != nil:
			want = varParam.Type
		default:
			c.infer(arg, env)
			continue
		}
		got := c.infer(arg, env)
		if !got.isDynamic() && want != cty.DynamicPseudoType && !assignable(got.ty, want) {
			c.report(spanOf(arg), CodeArgumentNotAssignable,
				"Argument of type '%s' is not assignable to parameter of type '%s'.",
				got.name(), TypeName(want))
		}
	}
	declared := make([]cty.Type, len(params))
	for i, p := range params {
		declared[i] = p.Type
	}
	ret, err := fn.ReturnType(declared)
	if err != nil {
		return dynamic
	}
	return inferred{ty: ret}
}

func (c *checker) inferIteration(n *script.Call, env map[string]cty.Type) inferred {
	if len(n.Args) == 0 {
		return dynamic
	}
	src := c.infer(n.Args[0], env)
	elem := elementType(src)
	if len(n.Args) > 1 {
		if arrow, ok := n.Args[1].(*script.Arrow); ok {
			c.checkArrow(arrow, env, []cty.Type{elem, cty.Number})
		} else {
			c.infer(n.Args[1], env)
		}
	}
	return dynamic
}

// elementType resolves what one iteration step yields for a source type.
func elementType(src inferred) cty.Type {
	switch {
	case src.isDynamic():
		return cty.DynamicPseudoType
	case src.ty.IsListType() || src.ty.IsSetType() || src.ty.IsMapType():
		return src.ty.ElementType()
	case src.ty == cty.String:
		return cty.String
	default:
		return cty.DynamicPseudoType
	}
}

// checkArrow types an arrow body with the given positional parameter types;
// parameters beyond the provided types are dynamic.
func (c *checker) checkArrow(n *script.Arrow, env map[string]cty.Type, paramTypes []cty.Type) {
	inner := extend(env, n.Params, paramTypes)
	c.infer(n.Body, inner)
}

func (c *checker) checkFuncLit(n *script.FuncLit, env map[string]cty.Type) {
	inner := extend(env, n.Params, nil)
	inner["arguments"] = cty.DynamicPseudoType
	for _, st := range n.Body {
		if es, ok := st.(*script.ExprStmt); ok {
			c.infer(es.X, inner)
		}
	}
}

// extend copies env and binds each parameter pattern's names. Only a
// top-level identifier pattern receives the positional type; destructured
// binders are dynamic.
func extend(env map[string]cty.Type, params []script.Pattern, paramTypes []cty.Type) map[string]cty.Type {
	inner := make(map[string]cty.Type, len(env)+len(params))
	for k, v := range env {
		inner[k] = v
	}
	for i, p := range params {
		ty := cty.DynamicPseudoType
		if i < len(paramTypes) {
			ty = paramTypes[i]
		}
		if id, ok := p.(*script.IdentPat); ok {
			inner[id.Name] = ty
			continue
		}
		for _, name := range script.Binders(p) {
			inner[name] = cty.DynamicPseudoType
		}
	}
	return inner
}

func (c *checker) inferObject(n *script.Object, env map[string]cty.Type) inferred {
	attrs := make(map[string]cty.Type)
	exact := true
	for _, prop := range n.Props {
		switch {
		case prop.Spread:
			c.infer(prop.Value, env)
			exact = false
		case prop.Computed != nil:
			c.infer(prop.Computed, env)
			c.infer(prop.Value, env)
			exact = false
		default:
			v := c.infer(prop.Value, env)
			attrs[prop.Name] = v.ty
		}
	}
	if !exact {
		return dynamic
	}
	return inferred{ty: cty.Object(attrs)}
}

func (c *checker) inferArray(n *script.Array, env map[string]cty.Type) inferred {
	elem := cty.NilType
	uniform := true
	for _, el := range n.Elems {
		if el == nil {
			continue
		}
		v := c.infer(el, env)
		if elem == cty.NilType {
			elem = v.ty
		} else if !elem.Equals(v.ty) {
			uniform = false
		}
	}
	if elem == cty.NilType || !uniform {
		elem = cty.DynamicPseudoType
	}
	return inferred{ty: cty.List(elem)}
}

// assignable is strict structural assignability: equal types, a dynamic
// side, or element-wise for collections.
func assignable(src, dst cty.Type) bool {
	if src == cty.DynamicPseudoType || dst == cty.DynamicPseudoType {
		return true
	}
	if src.Equals(dst) {
		return true
	}
	if (src.IsListType() || src.IsSetType()) && (dst.IsListType() || dst.IsSetType()) {
		return assignable(src.ElementType(), dst.ElementType())
	}
	if src.IsObjectType() && dst.IsObjectType() {
		for name, want := range dst.AttributeTypes() {
			if !src.HasAttribute(name) || !assignable(src.AttributeType(name), want) {
				return false
			}
		}
		return true
	}
	return false
}
