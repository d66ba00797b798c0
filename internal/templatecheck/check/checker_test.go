package check

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/script"
	"github.com/trixnz/vetur/internal/templatecheck/transform"
)

func testComponent() Component {
	return Component{
		Name: "CompDefault",
		Members: map[string]Member{
			"msg":     Prop(cty.String),
			"num":     Prop(cty.Number),
			"items":   Prop(cty.List(cty.String)),
			"user":    Prop(cty.Object(map[string]cty.Type{"name": cty.String})),
			"onClick": Method(Func(cty.DynamicPseudoType, cty.String)),
		},
	}
}

// checkExpr runs one raw template operand through the injector, emits it,
// and returns the checker diagnostics.
func checkExpr(t *testing.T, expr string, scope transform.Scope) []Diagnostic {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	inj := transform.NewInjector(log)
	e := inj.ParseExpression(ast.RawExpression{Text: expr, Offset: 0}, scope)
	prog := transform.Emit([]script.Expr{e})

	sess := NewSession()
	sess.SyncShadow("doc", prog.Roots, testComponent())
	return sess.Diagnostics("doc", CategorySemantic)
}

func TestChecker_KnownMemberClean(t *testing.T) {
	if diags := checkExpr(t, "msg", transform.NewScope()); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestChecker_UnknownMember(t *testing.T) {
	diags := checkExpr(t, "messaage", transform.NewScope())
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Code != CodePropertyNotFound {
		t.Errorf("code = %d, want %d", d.Code, CodePropertyNotFound)
	}
	if !strings.HasPrefix(d.Message, "Property 'messaage' does not exist on type") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestChecker_MemberOfListElement(t *testing.T) {
	diags := checkExpr(t, "items[0].notExists", transform.NewScope())
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %+v", len(diags), diags)
	}
	if !strings.Contains(diags[0].Message, "'notExists' does not exist on type 'string'") {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestChecker_ObjectMember(t *testing.T) {
	if diags := checkExpr(t, "user.name", transform.NewScope()); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	diags := checkExpr(t, "user.nope", transform.NewScope())
	if len(diags) != 1 || diags[0].Code != CodePropertyNotFound {
		t.Fatalf("diagnostics = %+v, want one property error", diags)
	}
}

func TestChecker_MethodArgumentMismatch(t *testing.T) {
	diags := checkExpr(t, "onClick(123)", transform.NewScope())
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Code != CodeArgumentNotAssignable {
		t.Errorf("code = %d, want %d", d.Code, CodeArgumentNotAssignable)
	}
	if d.Message != "Argument of type '123' is not assignable to parameter of type 'string'." {
		t.Errorf("message = %q", d.Message)
	}
}

func TestChecker_MethodArity(t *testing.T) {
	diags := checkExpr(t, "onClick()", transform.NewScope())
	if len(diags) != 1 || diags[0].Code != CodeWrongArgCount {
		t.Fatalf("diagnostics = %+v, want one arity error", diags)
	}
	if diags[0].Message != "Expected 1 arguments, but got 0." {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestChecker_AssignmentMismatch(t *testing.T) {
	diags := checkExpr(t, "num = 'test'", transform.NewScope())
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Code != CodeTypeNotAssignable {
		t.Errorf("code = %d, want %d", d.Code, CodeTypeNotAssignable)
	}
	if d.Message != `Type '"test"' is not assignable to type 'number'.` {
		t.Errorf("message = %q", d.Message)
	}
}

func TestChecker_AssignmentMatchClean(t *testing.T) {
	if diags := checkExpr(t, "num = 2", transform.NewScope()); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestChecker_NotCallable(t *testing.T) {
	diags := checkExpr(t, "msg()", transform.NewScope())
	if len(diags) != 1 || diags[0].Code != CodeNotCallable {
		t.Fatalf("diagnostics = %+v, want one not-callable error", diags)
	}
}

func TestChecker_ScopedIdentifierIsDynamic(t *testing.T) {
	// A name bound by the template (iteration binder, arrow parameter)
	// without a known type never produces member errors.
	if diags := checkExpr(t, "row.anything", transform.NewScope("row")); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestChecker_SyntacticTierAlwaysEmpty(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	inj := transform.NewInjector(log)
	e := inj.ParseExpression(ast.RawExpression{Text: "messaage", Offset: 0}, transform.NewScope())
	prog := transform.Emit([]script.Expr{e})

	sess := NewSession()
	sess.SyncShadow("doc", prog.Roots, testComponent())
	if diags := sess.Diagnostics("doc", CategorySyntactic); len(diags) != 0 {
		t.Fatalf("syntactic diagnostics = %+v, want none", diags)
	}
}

func TestChecker_IterationBinderTyped(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	inj := transform.NewInjector(log)

	source := inj.ParseExpression(ast.RawExpression{Text: "items", Offset: 0}, transform.NewScope())
	body := inj.ParseExpression(ast.RawExpression{Text: "item.notExists", Offset: 10}, transform.NewScope("item"))
	loop := &script.Call{
		Fun: script.NewIdent(transform.HelperIteration),
		Args: []script.Expr{
			source,
			&script.Arrow{Params: []script.Pattern{&script.IdentPat{Name: "item"}}, Body: body},
		},
	}
	prog := transform.Emit([]script.Expr{loop})

	sess := NewSession()
	sess.SyncShadow("doc", prog.Roots, testComponent())
	diags := sess.Diagnostics("doc", CategorySemantic)
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %+v", len(diags), diags)
	}
	if !strings.Contains(diags[0].Message, "'notExists' does not exist on type 'string'") {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		ty   cty.Type
		want string
	}{
		{cty.String, "string"},
		{cty.Number, "number"},
		{cty.Bool, "boolean"},
		{cty.List(cty.String), "string[]"},
		{cty.DynamicPseudoType, "any"},
		{cty.Object(map[string]cty.Type{"a": cty.Number}), "{ a: number; }"},
	}
	for _, tc := range tests {
		if got := TypeName(tc.ty); got != tc.want {
			t.Errorf("TypeName(%v) = %q, want %q", tc.ty, got, tc.want)
		}
	}
}
