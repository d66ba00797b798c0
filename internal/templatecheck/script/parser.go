package script

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// parser is a recursive-descent expression parser over the lexed token
// stream. Precedence is a ladder of binary levels, conditional and
// assignment at the top. Node ranges are byte offsets into the parsed text.
type parser struct {
	toks []lexer.Token
	pos  int
}

// ParseExpression parses text as a single expression and fails if tokens
// remain. Callers that need brace-initial inputs treated as object literals
// wrap the text in parentheses first.
func ParseExpression(text string) (Expr, error) {
	toks, err := lexAll(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, errors.Errorf("unexpected %q after expression", p.peek().Value)
	}
	return e, nil
}

// ParsePattern parses text as a binding pattern (arrow parameter shape).
func ParsePattern(text string) (Pattern, error) {
	toks, err := lexAll(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, errors.Errorf("unexpected %q after pattern", p.peek().Value)
	}
	return pat, nil
}

// ParseStatements parses text as a sequence of expression statements
// separated by semicolons. A segment that does not parse as an expression
// yields an EmptyStmt and a corresponding error; parsing continues with the
// next segment.
func ParseStatements(text string) ([]Stmt, []error) {
	toks, err := lexAll(text)
	if err != nil {
		return []Stmt{&EmptyStmt{}}, []error{err}
	}
	var stmts []Stmt
	var errs []error
	for _, seg := range splitStatements(toks) {
		if len(seg) == 0 {
			continue
		}
		p := &parser{toks: seg}
		e, err := p.parseAssign()
		if err == nil && !p.eof() {
			err = errors.Errorf("unexpected %q after statement", p.peek().Value)
		}
		if err != nil {
			stmts = append(stmts, &EmptyStmt{})
			errs = append(errs, err)
			continue
		}
		stmts = append(stmts, &ExprStmt{X: e})
	}
	if len(stmts) == 0 {
		stmts = append(stmts, &EmptyStmt{})
	}
	return stmts, errs
}

// splitStatements splits a token stream on top-level semicolons.
func splitStatements(toks []lexer.Token) [][]lexer.Token {
	var segs [][]lexer.Token
	depth := 0
	start := 0
	for i, t := range toks {
		if t.Type == tokPunct {
			switch t.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ";":
				if depth == 0 {
					segs = append(segs, toks[start:i])
					start = i + 1
				}
			}
		}
	}
	segs = append(segs, toks[start:])
	return segs
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() lexer.Token {
	if p.eof() {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() lexer.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) isPunct(v string) bool {
	t := p.peek()
	return t.Type == tokPunct && t.Value == v
}

func (p *parser) expectPunct(v string) (lexer.Token, error) {
	if !p.isPunct(v) {
		return lexer.Token{}, errors.Errorf("expected %q, got %q", v, p.peek().Value)
	}
	return p.next(), nil
}

func tokEnd(t lexer.Token) int { return t.Pos.Offset + len(t.Value) }

func exprEnd(e Expr) int { return e.ParseRange().End }

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true, "^=": true,
}

func (p *parser) parseAssign() (Expr, error) {
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.Type == tokPunct && assignOps[t.Value] {
		p.next()
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &Assign{position: at(left.ParseRange().Start, exprEnd(right)), Op: t.Value, Target: left, Value: right}, nil
	}
	return left, nil
}

func (p *parser) parseConditional() (Expr, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return cond, nil
	}
	p.next()
	then, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	els, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &Cond{position: at(cond.ParseRange().Start, exprEnd(els)), Cond: cond, Then: then, Else: els}, nil
}

// binaryLevels orders binary operators from loosest to tightest.
var binaryLevels = [][]string{
	{"??"},
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"===", "!==", "==", "!="},
	{"<=", ">=", "<", ">", "in", "instanceof"},
	{"<<", ">>>", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseBinary(level int) (Expr, error) {
	if level >= len(binaryLevels) {
		return p.parseExponent()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		matched := ""
		for _, op := range binaryLevels[level] {
			if t.Type == tokPunct && t.Value == op {
				matched = op
				break
			}
			if t.Type == tokIdent && (op == "in" || op == "instanceof") && t.Value == op {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &Binary{position: at(left.ParseRange().Start, exprEnd(right)), Op: matched, X: left, Y: right}
	}
}

func (p *parser) parseExponent() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.isPunct("**") {
		p.next()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return &Binary{position: at(left.ParseRange().Start, exprEnd(right)), Op: "**", X: left, Y: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.Type == tokPunct {
		switch t.Value {
		case "!", "~", "+", "-", "++", "--":
			p.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Unary{position: at(t.Pos.Offset, exprEnd(x)), Op: t.Value, X: x}, nil
		}
	}
	if t.Type == tokIdent {
		switch t.Value {
		case "typeof", "void", "delete":
			p.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Unary{position: at(t.Pos.Offset, exprEnd(x)), Op: t.Value, X: x}, nil
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parseCallMember()
	if err != nil {
		return nil, err
	}
	if p.isPunct("++") || p.isPunct("--") {
		t := p.next()
		return &Unary{position: at(x.ParseRange().Start, tokEnd(t)), Op: t.Value, X: x, Postfix: true}, nil
	}
	return x, nil
}

func (p *parser) parseCallMember() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct(".") || p.isPunct("?."):
			p.next()
			name := p.peek()
			if name.Type != tokIdent {
				return nil, errors.Errorf("expected property name, got %q", name.Value)
			}
			p.next()
			x = &Member{position: at(x.ParseRange().Start, tokEnd(name)), X: x, Name: name.Value, NameMap: NoRange, NameSynth: NoRange}
		case p.isPunct("["):
			p.next()
			key, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			end, err := p.expectPunct("]")
			if err != nil {
				return nil, err
			}
			x = &Index{position: at(x.ParseRange().Start, tokEnd(end)), X: x, Key: key}
		case p.isPunct("("):
			p.next()
			var args []Expr
			for !p.isPunct(")") {
				arg, err := p.parseArg()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.isPunct(",") {
					p.next()
					continue
				}
				break
			}
			end, err := p.expectPunct(")")
			if err != nil {
				return nil, err
			}
			x = &Call{position: at(x.ParseRange().Start, tokEnd(end)), Fun: x, Args: args}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseArg() (Expr, error) {
	if p.isPunct("...") {
		t := p.next()
		x, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &Spread{position: at(t.Pos.Offset, exprEnd(x)), X: x}, nil
	}
	return p.parseAssign()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch {
	case t.Type == tokNumber:
		p.next()
		return &Lit{position: at(t.Pos.Offset, tokEnd(t)), Kind: LitNumber, Raw: t.Value}, nil
	case t.Type == tokString:
		p.next()
		return &Lit{position: at(t.Pos.Offset, tokEnd(t)), Kind: LitString, Raw: t.Value, Value: unquote(t.Value)}, nil
	case t.Type == tokBacktickOpen:
		return p.parseTemplate()
	case t.Type == tokIdent:
		switch t.Value {
		case "true", "false":
			p.next()
			return &Lit{position: at(t.Pos.Offset, tokEnd(t)), Kind: LitBool, Raw: t.Value}, nil
		case "null":
			p.next()
			return &Lit{position: at(t.Pos.Offset, tokEnd(t)), Kind: LitNull, Raw: t.Value}, nil
		case "this":
			p.next()
			return &This{position: at(t.Pos.Offset, tokEnd(t))}, nil
		}
		// ident => expr
		if nx := p.peekAt(1); nx.Type == tokPunct && nx.Value == "=>" {
			return p.parseArrowFromIdent()
		}
		p.next()
		return &Ident{position: at(t.Pos.Offset, tokEnd(t)), Name: t.Value}, nil
	case t.Type == tokPunct && t.Value == "(":
		if p.isArrowParams() {
			return p.parseArrowFromParens()
		}
		p.next()
		inner, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		end, err := p.expectPunct(")")
		if err != nil {
			return nil, err
		}
		return &Paren{position: at(t.Pos.Offset, tokEnd(end)), X: inner}, nil
	case t.Type == tokPunct && t.Value == "{":
		return p.parseObject()
	case t.Type == tokPunct && t.Value == "[":
		return p.parseArray()
	}
	return nil, errors.Errorf("unexpected token %q", t.Value)
}

// isArrowParams looks ahead from an opening paren for `) =>`.
func (p *parser) isArrowParams() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Type != tokPunct {
			continue
		}
		switch t.Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				nx := lexer.Token{Type: lexer.EOF}
				if i+1 < len(p.toks) {
					nx = p.toks[i+1]
				}
				return nx.Type == tokPunct && nx.Value == "=>"
			}
		}
	}
	return false
}

func (p *parser) parseArrowFromIdent() (Expr, error) {
	t := p.next()
	pat := &IdentPat{patpos: patpos{parse: Range{Start: t.Pos.Offset, End: tokEnd(t)}}, Name: t.Value}
	if _, err := p.expectPunct("=>"); err != nil {
		return nil, err
	}
	body, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &Arrow{position: at(t.Pos.Offset, exprEnd(body)), Params: []Pattern{pat}, Body: body}, nil
}

func (p *parser) parseArrowFromParens() (Expr, error) {
	open, err := p.expectPunct("(")
	if err != nil {
		return nil, err
	}
	var params []Pattern
	for !p.isPunct(")") {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		params = append(params, pat)
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("=>"); err != nil {
		return nil, err
	}
	body, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &Arrow{position: at(open.Pos.Offset, exprEnd(body)), Params: params, Body: body}, nil
}

func (p *parser) parsePattern() (Pattern, error) {
	if p.isPunct("...") {
		t := p.next()
		inner, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		return &RestPat{patpos: patpos{parse: Range{Start: t.Pos.Offset, End: inner.ParseRange().End}}, Pat: inner}, nil
	}
	base, err := p.parsePatternBase()
	if err != nil {
		return nil, err
	}
	if p.isPunct("=") {
		p.next()
		def, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &DefaultPat{patpos: patpos{parse: Range{Start: base.ParseRange().Start, End: exprEnd(def)}}, Pat: base, Default: def}, nil
	}
	return base, nil
}

func (p *parser) parsePatternBase() (Pattern, error) {
	t := p.peek()
	switch {
	case t.Type == tokIdent:
		p.next()
		return &IdentPat{patpos: patpos{parse: Range{Start: t.Pos.Offset, End: tokEnd(t)}}, Name: t.Value}, nil
	case t.Type == tokPunct && t.Value == "{":
		p.next()
		pat := &ObjectPat{patpos: patpos{parse: Range{Start: t.Pos.Offset, End: -1}}}
		for !p.isPunct("}") {
			if p.isPunct("...") {
				p.next()
				inner, err := p.parsePattern()
				if err != nil {
					return nil, err
				}
				pat.Props = append(pat.Props, &ObjectPatProp{Value: inner, Rest: true})
			} else {
				key := p.peek()
				if key.Type != tokIdent && key.Type != tokString {
					return nil, errors.Errorf("expected pattern key, got %q", key.Value)
				}
				p.next()
				keyName := key.Value
				if key.Type == tokString {
					keyName = unquote(key.Value)
				}
				var value Pattern = &IdentPat{patpos: patpos{parse: Range{Start: key.Pos.Offset, End: tokEnd(key)}}, Name: keyName}
				if p.isPunct(":") {
					p.next()
					inner, err := p.parsePattern()
					if err != nil {
						return nil, err
					}
					value = inner
				} else if p.isPunct("=") {
					p.next()
					def, err := p.parseAssign()
					if err != nil {
						return nil, err
					}
					value = &DefaultPat{patpos: patpos{parse: Range{Start: key.Pos.Offset, End: exprEnd(def)}}, Pat: value, Default: def}
				}
				pat.Props = append(pat.Props, &ObjectPatProp{Key: keyName, Value: value})
			}
			if p.isPunct(",") {
				p.next()
				continue
			}
			break
		}
		end, err := p.expectPunct("}")
		if err != nil {
			return nil, err
		}
		pat.parse.End = tokEnd(end)
		return pat, nil
	case t.Type == tokPunct && t.Value == "[":
		p.next()
		pat := &ArrayPat{patpos: patpos{parse: Range{Start: t.Pos.Offset, End: -1}}}
		for !p.isPunct("]") {
			if p.isPunct(",") {
				p.next()
				pat.Elems = append(pat.Elems, nil)
				continue
			}
			inner, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			pat.Elems = append(pat.Elems, inner)
			if p.isPunct(",") {
				p.next()
			}
		}
		end, err := p.expectPunct("]")
		if err != nil {
			return nil, err
		}
		pat.parse.End = tokEnd(end)
		return pat, nil
	}
	return nil, errors.Errorf("expected binding pattern, got %q", t.Value)
}

func (p *parser) parseObject() (Expr, error) {
	open, err := p.expectPunct("{")
	if err != nil {
		return nil, err
	}
	obj := &Object{position: at(open.Pos.Offset, -1)}
	for !p.isPunct("}") {
		prop, err := p.parseObjectProp()
		if err != nil {
			return nil, err
		}
		obj.Props = append(obj.Props, prop)
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	end, err := p.expectPunct("}")
	if err != nil {
		return nil, err
	}
	obj.position.parse.End = tokEnd(end)
	return obj, nil
}

func (p *parser) parseObjectProp() (*ObjectProp, error) {
	if p.isPunct("...") {
		p.next()
		x, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ObjectProp{Spread: true, Value: x}, nil
	}
	if p.isPunct("[") {
		p.next()
		key, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		value, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ObjectProp{Computed: key, Value: value}, nil
	}
	key := p.peek()
	switch key.Type {
	case tokIdent, tokString, tokNumber:
	default:
		return nil, errors.Errorf("expected property key, got %q", key.Value)
	}
	p.next()
	name := key.Value
	quoted := key.Type == tokString
	if quoted {
		name = unquote(key.Value)
	}
	if p.isPunct(":") {
		p.next()
		value, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ObjectProp{Name: name, Value: value, KeyQuoted: quoted}, nil
	}
	if key.Type != tokIdent {
		return nil, errors.Errorf("expected ':' after property key %q", key.Value)
	}
	// Shorthand {x}: value is the identifier itself.
	value := &Ident{position: at(key.Pos.Offset, tokEnd(key)), Name: key.Value}
	return &ObjectProp{Name: name, Value: value, Shorthand: true}, nil
}

func (p *parser) parseArray() (Expr, error) {
	open, err := p.expectPunct("[")
	if err != nil {
		return nil, err
	}
	arr := &Array{position: at(open.Pos.Offset, -1)}
	for !p.isPunct("]") {
		if p.isPunct(",") {
			p.next()
			arr.Elems = append(arr.Elems, nil)
			continue
		}
		el, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, el)
		if p.isPunct(",") {
			p.next()
		}
	}
	end, err := p.expectPunct("]")
	if err != nil {
		return nil, err
	}
	arr.position.parse.End = tokEnd(end)
	return arr, nil
}

func (p *parser) parseTemplate() (Expr, error) {
	open := p.next() // BacktickOpen
	lit := &TemplateLit{position: at(open.Pos.Offset, -1)}
	quasi := strings.Builder{}
	for {
		t := p.peek()
		switch t.Type {
		case tokChars:
			p.next()
			quasi.WriteString(t.Value)
		case tokInterpOpen:
			p.next()
			lit.Quasis = append(lit.Quasis, quasi.String())
			quasi.Reset()
			inner, err := p.parseAssign()
			if err != nil {
				return nil, err
			}
			if t := p.peek(); t.Type != tokInterpClose {
				return nil, errors.Errorf("expected '}' in template literal, got %q", t.Value)
			}
			p.next()
			lit.Exprs = append(lit.Exprs, inner)
		case tokBacktickClose:
			p.next()
			lit.Quasis = append(lit.Quasis, quasi.String())
			lit.position.parse.End = tokEnd(t)
			return lit, nil
		default:
			return nil, errors.Errorf("unterminated template literal")
		}
	}
}

func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	// Reuse Go unquoting for the common escapes; fall back to the raw body.
	if v, err := strconv.Unquote(`"` + strings.ReplaceAll(body, `"`, `\"`) + `"`); err == nil {
		return v
	}
	return body
}
