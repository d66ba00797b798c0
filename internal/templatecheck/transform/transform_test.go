package transform

import (
	"strings"
	"testing"

	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/script"
)

func strptr(s string) *string { return &s }

func transformOne(t *testing.T, node ast.Node) *Program {
	t.Helper()
	tr := NewTransformer(testLogger())
	return Emit(tr.Transform([]ast.Node{node}))
}

func TestTransform_TextBecomesStringLiteral(t *testing.T) {
	prog := transformOne(t, &ast.Text{Value: "hello", Rng: ast.Range{Start: 0, End: 5}})
	if !strings.Contains(prog.Text, `"hello"`) {
		t.Errorf("emitted %q, want text literal", prog.Text)
	}
}

func TestTransform_ElementShape(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{
			{Name: "id", Value: strptr("main")},
		},
		Children: []ast.Node{
			&ast.Text{Value: "x", Rng: ast.Range{Start: 10, End: 11}},
		},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, HelperComponent+`("div", `) {
		t.Fatalf("emitted %q, want componentHelper call", prog.Text)
	}
	if !strings.Contains(prog.Text, `props: {"id": "main"}`) {
		t.Errorf("emitted %q, want plain attribute in props", prog.Text)
	}
	if !strings.Contains(prog.Text, "on: {}") || !strings.Contains(prog.Text, "directives: []") {
		t.Errorf("emitted %q, want empty on/directives groups", prog.Text)
	}
}

func TestTransform_ClassAndStyleSkipped(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{
			{Name: "class", Value: strptr("x")},
			{Name: "style", Value: strptr("color:red")},
			{Name: "data-foo", Value: strptr("bar")},
		},
	}
	prog := transformOne(t, el)
	if strings.Contains(prog.Text, `"class"`) || strings.Contains(prog.Text, `"style"`) {
		t.Errorf("emitted %q, plain class/style must be skipped", prog.Text)
	}
	if !strings.Contains(prog.Text, `"data-foo": "bar"`) {
		t.Errorf("emitted %q, want hyphenated attribute kept", prog.Text)
	}
}

func TestTransform_ValuelessAttributeIsTrue(t *testing.T) {
	el := &ast.Element{
		Name:       "input",
		Attributes: []ast.Attribute{{Name: "disabled"}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, `"disabled": true`) {
		t.Errorf("emitted %q, want boolean true for valueless attribute", prog.Text)
	}
}

func TestTransform_BindStaticArgument(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "bind",
			Argument:  &ast.Argument{Name: "title"},
			Operand:   &ast.RawExpression{Text: "msg", Offset: 16},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, `"title": this.msg`) {
		t.Errorf("emitted %q, want bound property", prog.Text)
	}
}

func TestTransform_BindWithoutArgumentSpreads(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "bind",
			Operand:   &ast.RawExpression{Text: "obj", Offset: 0},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, "...this.obj") {
		t.Errorf("emitted %q, want spread binding", prog.Text)
	}
}

func TestTransform_BindDynamicArgument(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "bind",
			Argument:  &ast.Argument{Dynamic: true, Expr: &ast.RawExpression{Text: "key", Offset: 12}},
			Operand:   &ast.RawExpression{Text: "value", Offset: 18},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, "[this.key]: this.value") {
		t.Errorf("emitted %q, want computed property key", prog.Text)
	}
}

func TestTransform_BindDynamicArgumentWithoutKeyIsNoopSpread(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "bind",
			Argument:  &ast.Argument{Dynamic: true},
			Operand:   &ast.RawExpression{Text: "value", Offset: 0},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, "...{}") {
		t.Errorf("emitted %q, want no-op spread", prog.Text)
	}
}

func TestTransform_IterationWrapsElement(t *testing.T) {
	el := &ast.Element{
		Name:           "li",
		LocalVariables: []string{"item"},
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "for",
			Iteration: &ast.IterationExpression{
				Left:  []ast.RawExpression{{Text: "item", Offset: 15}},
				Right: ast.RawExpression{Text: "items", Offset: 23},
			},
		}},
		Children: []ast.Node{
			&ast.ExpressionContainer{
				Expression: &ast.RawExpression{Text: "item.name", Offset: 33},
				Rng:        ast.Range{Start: 31, End: 44},
			},
		},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, HelperIteration+"(this.items, (item) => ") {
		t.Fatalf("emitted %q, want iterationHelper wrapper", prog.Text)
	}
	// The iteration binder is in scope inside the element.
	if !strings.Contains(prog.Text, "item.name") || strings.Contains(prog.Text, "this.item.name") {
		t.Errorf("emitted %q, binder must shadow the component member", prog.Text)
	}
	// The for directive itself contributes nothing else.
	if strings.Contains(prog.Text, `"for"`) {
		t.Errorf("emitted %q, for directive leaked into props", prog.Text)
	}
}

func TestTransform_SlotDirectivesSkipped(t *testing.T) {
	el := &ast.Element{
		Name: "template",
		Attributes: []ast.Attribute{
			{Directive: true, Name: "slot", Argument: &ast.Argument{Name: "header"}},
			{Directive: true, Name: "slot-scope", Operand: &ast.RawExpression{Text: "props", Offset: 0}},
		},
	}
	prog := transformOne(t, el)
	if strings.Contains(prog.Text, "slot") {
		t.Errorf("emitted %q, slot directives must not contribute", prog.Text)
	}
}

func TestTransform_MethodPathHandlerEmittedDirectly(t *testing.T) {
	el := &ast.Element{
		Name: "button",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "on",
			Argument:  &ast.Argument{Name: "click"},
			Operand:   &ast.RawExpression{Text: "onClick", Offset: 0},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, `"click": this.onClick`) {
		t.Errorf("emitted %q, want direct method path", prog.Text)
	}
	if strings.Contains(prog.Text, HelperListener) {
		t.Errorf("emitted %q, method path must not be wrapped", prog.Text)
	}
}

func TestTransform_StatementHandlerWrapped(t *testing.T) {
	el := &ast.Element{
		Name: "button",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "on",
			Argument:  &ast.Argument{Name: "click"},
			Operand:   &ast.RawExpression{Text: "count = count + 1; log($event)", Offset: 0},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, HelperListener+"(this, function ($event) {") {
		t.Fatalf("emitted %q, want listener wrapper", prog.Text)
	}
	if !strings.Contains(prog.Text, "this.count = this.count + 1") {
		t.Errorf("emitted %q, statement identifiers must be rewritten", prog.Text)
	}
	if !strings.Contains(prog.Text, "this.log($event)") {
		t.Errorf("emitted %q, $event must stay in scope", prog.Text)
	}
}

func TestTransform_OtherDirectiveOperandsChecked(t *testing.T) {
	el := &ast.Element{
		Name: "div",
		Attributes: []ast.Attribute{{
			Directive: true,
			Name:      "custom",
			Argument:  &ast.Argument{Dynamic: true, Expr: &ast.RawExpression{Text: "argExpr", Offset: 0}},
			Operand:   &ast.RawExpression{Text: "valExpr", Offset: 10},
		}},
	}
	prog := transformOne(t, el)
	if !strings.Contains(prog.Text, "directives: [this.argExpr, this.valExpr]") {
		t.Errorf("emitted %q, want directive operands collected", prog.Text)
	}
}

func TestTransform_EmptyInterpolation(t *testing.T) {
	prog := transformOne(t, &ast.ExpressionContainer{Rng: ast.Range{Start: 0, End: 4}})
	if !strings.Contains(prog.Text, `""`) {
		t.Errorf("emitted %q, want neutral literal", prog.Text)
	}
}

func TestEmit_RenderWrapperAndRanges(t *testing.T) {
	inj := NewInjector(testLogger())
	e := inj.ParseExpression(raw("msg", 6), NewScope())
	prog := Emit([]script.Expr{e})
	if !strings.HasPrefix(prog.Text, HelperRender+"(this, [") {
		t.Fatalf("emitted %q, want render wrapper", prog.Text)
	}
	synthStart := strings.Index(prog.Text, "this.msg")
	if synthStart < 0 {
		t.Fatalf("emitted %q, want rewritten expression", prog.Text)
	}
	m := e.(*script.Member)
	if m.SynthRange().Start != synthStart {
		t.Errorf("synth range = %+v, want start %d", m.SynthRange(), synthStart)
	}
	if len(prog.Map.Entries()) == 0 {
		t.Fatalf("no source-map entries recorded")
	}
}
