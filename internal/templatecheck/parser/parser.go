package parser

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/script"
)

// Parser is a hand-written template parser. It produces the template AST
// with a byte range on every node; directive operands keep their exact
// source text and absolute offset so later expression parses map back into
// the template buffer.
type Parser struct {
	src string
	pos int
}

// Parse parses template source into its root nodes.
func Parse(src string) ([]ast.Node, error) {
	p := &Parser{src: src}
	nodes, err := p.parseNodes("")
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, errors.Errorf("unexpected %q at offset %d", p.src[p.pos], p.pos)
	}
	return nodes, nil
}

// voidElements never have children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func (p *Parser) parseNodes(closing string) ([]ast.Node, error) {
	var nodes []ast.Node
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				p.pos = len(p.src)
				continue
			}
			p.pos += end + len("-->")
		case strings.HasPrefix(rest, "{{"):
			node, err := p.parseInterpolation()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		case strings.HasPrefix(rest, "</"):
			if closing == "" {
				// Stray close tag at the top level: skip it.
				p.skipCloseTag()
				continue
			}
			p.skipCloseTag()
			return nodes, nil
		case strings.HasPrefix(rest, "<"):
			node, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		default:
			nodes = append(nodes, p.parseText())
		}
	}
	return nodes, nil
}

func (p *Parser) skipCloseTag() {
	end := strings.IndexByte(p.src[p.pos:], '>')
	if end < 0 {
		p.pos = len(p.src)
		return
	}
	p.pos += end + 1
}

func (p *Parser) parseInterpolation() (ast.Node, error) {
	start := p.pos
	end := strings.Index(p.src[p.pos:], "}}")
	if end < 0 {
		return nil, errors.Errorf("unterminated interpolation at offset %d", start)
	}
	inner := p.src[p.pos+2 : p.pos+end]
	node := &ast.ExpressionContainer{Rng: ast.Range{Start: start, End: p.pos + end + 2}}
	if strings.TrimSpace(inner) != "" {
		node.Expression = &ast.RawExpression{Text: inner, Offset: start + 2}
	}
	p.pos += end + 2
	return node, nil
}

func (p *Parser) parseText() ast.Node {
	start := p.pos
	for p.pos < len(p.src) {
		if p.src[p.pos] == '<' || strings.HasPrefix(p.src[p.pos:], "{{") {
			break
		}
		p.pos++
	}
	return &ast.Text{Value: p.src[start:p.pos], Rng: ast.Range{Start: start, End: p.pos}}
}

func (p *Parser) parseElement() (ast.Node, error) {
	start := p.pos
	p.pos++ // '<'
	name := p.readName()
	if name == "" {
		// A lone '<' that does not open a tag is text.
		p.pos = start
		return p.parseLtText(), nil
	}

	el := &ast.Element{Name: name}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, errors.Errorf("unterminated tag <%s>", name)
		}
		if strings.HasPrefix(p.src[p.pos:], "/>") {
			p.pos += 2
			el.Rng = ast.Range{Start: start, End: p.pos}
			p.finishElement(el)
			return el, nil
		}
		if p.src[p.pos] == '>' {
			p.pos++
			break
		}
		attr, err := p.parseAttribute()
		if err != nil {
			return nil, err
		}
		el.Attributes = append(el.Attributes, attr)
	}

	if voidElements[strings.ToLower(name)] {
		el.Rng = ast.Range{Start: start, End: p.pos}
		p.finishElement(el)
		return el, nil
	}

	children, err := p.parseNodes(name)
	if err != nil {
		return nil, err
	}
	el.Children = children
	el.Rng = ast.Range{Start: start, End: p.pos}
	p.finishElement(el)
	return el, nil
}

// parseLtText consumes a '<' that starts no tag as literal text.
func (p *Parser) parseLtText() ast.Node {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		if p.src[p.pos] == '<' || strings.HasPrefix(p.src[p.pos:], "{{") {
			break
		}
		p.pos++
	}
	return &ast.Text{Value: p.src[start:p.pos], Rng: ast.Range{Start: start, End: p.pos}}
}

// finishElement derives the element's iteration locals from its directives.
func (p *Parser) finishElement(el *ast.Element) {
	for i := range el.Attributes {
		a := &el.Attributes[i]
		if a.Kind() != ast.DirectiveFor || a.Iteration == nil {
			continue
		}
		for _, left := range a.Iteration.Left {
			pat, err := script.ParsePattern(left.Text)
			if err != nil {
				if name := strings.TrimSpace(left.Text); isIdent(name) {
					el.LocalVariables = append(el.LocalVariables, name)
				}
				continue
			}
			el.LocalVariables = append(el.LocalVariables, script.Binders(pat)...)
		}
	}
}

func (p *Parser) readName() string {
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *Parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *Parser) parseAttribute() (ast.Attribute, error) {
	start := p.pos
	for p.pos < len(p.src) && !isAttrNameEnd(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return ast.Attribute{}, errors.Errorf("malformed attribute at offset %d", start)
	}

	var value *string
	valueOffset := -1
	if p.pos < len(p.src) && p.src[p.pos] == '=' {
		p.pos++
		v, off, err := p.parseAttrValue()
		if err != nil {
			return ast.Attribute{}, err
		}
		value = &v
		valueOffset = off
	}

	attr := classify(name, start, value, valueOffset)
	attr.Rng = ast.Range{Start: start, End: p.pos}
	return attr, nil
}

func (p *Parser) parseAttrValue() (string, int, error) {
	if p.pos < len(p.src) && (p.src[p.pos] == '"' || p.src[p.pos] == '\'') {
		quote := p.src[p.pos]
		p.pos++
		start := p.pos
		end := strings.IndexByte(p.src[p.pos:], quote)
		if end < 0 {
			return "", 0, errors.Errorf("unterminated attribute value at offset %d", start)
		}
		p.pos += end + 1
		return p.src[start : start+end], start, nil
	}
	start := p.pos
	for p.pos < len(p.src) && !isAttrNameEnd(p.src[p.pos]) && p.src[p.pos] != '"' && p.src[p.pos] != '\'' {
		p.pos++
	}
	return p.src[start:p.pos], start, nil
}

// classify derives the attribute shape from its name: v-* directives, the
// : and @ shorthands, # for the slot shorthand, a slot-scope attribute as
// the slot-scope directive, everything else plain.
func classify(name string, nameOffset int, value *string, valueOffset int) ast.Attribute {
	var dirName, argPart string
	argOffset := -1

	switch {
	case strings.HasPrefix(name, "v-"):
		body := name[2:]
		if i := strings.IndexByte(body, ':'); i >= 0 {
			dirName = body[:i]
			argPart = body[i+1:]
			argOffset = nameOffset + 2 + i + 1
		} else {
			dirName = body
		}
		// Modifiers apply to the directive, not its argument.
		if argPart == "" {
			if i := strings.IndexByte(dirName, '.'); i >= 0 {
				dirName = dirName[:i]
			}
		}
	case strings.HasPrefix(name, ":"):
		dirName = "bind"
		argPart = name[1:]
		argOffset = nameOffset + 1
	case strings.HasPrefix(name, "@"):
		dirName = "on"
		argPart = name[1:]
		argOffset = nameOffset + 1
	case strings.HasPrefix(name, "#"):
		dirName = "slot"
		argPart = name[1:]
		argOffset = nameOffset + 1
	case name == "slot-scope":
		dirName = "slot-scope"
	default:
		return ast.Attribute{Name: name, Value: value}
	}

	attr := ast.Attribute{Directive: true, Name: dirName}
	if argPart != "" {
		attr.Argument = parseArgument(argPart, argOffset)
	}
	if value != nil {
		if ast.KindOf(dirName) == ast.DirectiveFor {
			attr.Iteration = parseIteration(*value, valueOffset)
		} else {
			attr.Operand = &ast.RawExpression{Text: *value, Offset: valueOffset}
		}
	}
	return attr
}

func parseArgument(part string, offset int) *ast.Argument {
	// Strip modifiers from a static argument; a dynamic [expr] keeps its
	// brackets intact first.
	if strings.HasPrefix(part, "[") {
		end := strings.IndexByte(part, ']')
		if end < 0 {
			end = len(part)
		}
		inner := part[1:end]
		arg := &ast.Argument{Dynamic: true, Rng: ast.Range{Start: offset, End: offset + len(part)}}
		if strings.TrimSpace(inner) != "" {
			arg.Expr = &ast.RawExpression{Text: inner, Offset: offset + 1}
		}
		return arg
	}
	name := part
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return &ast.Argument{Name: name, Rng: ast.Range{Start: offset, End: offset + len(name)}}
}

// parseIteration splits an iteration value into binder patterns and source:
// "item in items", "(item, i) in items", "item of items".
func parseIteration(value string, offset int) *ast.IterationExpression {
	sepIdx, sepLen := findIterationSep(value)
	if sepIdx < 0 {
		// No separator: treat the whole value as the source expression.
		text, off := trimRaw(value, offset)
		return &ast.IterationExpression{Right: ast.RawExpression{Text: text, Offset: off}}
	}

	leftText, leftOff := trimRaw(value[:sepIdx], offset)
	rightText, rightOff := trimRaw(value[sepIdx+sepLen:], offset+sepIdx+sepLen)

	it := &ast.IterationExpression{Right: ast.RawExpression{Text: rightText, Offset: rightOff}}
	if strings.HasPrefix(leftText, "(") && strings.HasSuffix(leftText, ")") {
		leftText = leftText[1 : len(leftText)-1]
		leftOff++
	}
	for _, part := range splitTopLevel(leftText, ',') {
		text, off := trimRaw(part.text, leftOff+part.offset)
		if text == "" {
			continue
		}
		it.Left = append(it.Left, ast.RawExpression{Text: text, Offset: off})
	}
	return it
}

// findIterationSep locates the top-level " in " or " of " separator.
func findIterationSep(s string) (int, int) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ' ':
			if depth != 0 {
				continue
			}
			rest := s[i:]
			if strings.HasPrefix(rest, " in ") || strings.HasPrefix(rest, " of ") {
				return i, 4
			}
		}
	}
	return -1, 0
}

type segment struct {
	text   string
	offset int
}

// splitTopLevel splits s on sep outside any bracket nesting.
func splitTopLevel(s string, sep byte) []segment {
	var segs []segment
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case sep:
			if depth == 0 {
				segs = append(segs, segment{text: s[start:i], offset: start})
				start = i + 1
			}
		}
	}
	segs = append(segs, segment{text: s[start:], offset: start})
	return segs
}

// trimRaw trims surrounding whitespace, keeping the offset pointing at the
// first retained byte.
func trimRaw(s string, offset int) (string, int) {
	for len(s) > 0 && isSpaceByte(s[0]) {
		s = s[1:]
		offset++
	}
	for len(s) > 0 && isSpaceByte(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s, offset
}

func isSpaceByte(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

func isAttrNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '=', '>', '/':
		return true
	}
	return false
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '$' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
