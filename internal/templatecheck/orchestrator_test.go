package templatecheck

import (
	"io"
	"log/slog"
	"testing"

	"github.com/zclconf/go-cty/cty"

	"github.com/trixnz/vetur/internal/templatecheck/check"
	"github.com/trixnz/vetur/internal/templatecheck/script"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testComponent() check.Component {
	return check.Component{
		Name: "CompDefault",
		Members: map[string]check.Member{
			"msg": check.Prop(cty.String),
		},
	}
}

func TestValidator_ReportsTemplateErrors(t *testing.T) {
	v := NewBuilder().WithLogger(testLogger()).Build()
	v.DidChange("a.vue", `<p>{{ messaage }}</p>`, 1)

	diags, err := v.Validate("a.vue", testComponent())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %+v", len(diags), diags)
	}
	if diags[0].Code != check.CodePropertyNotFound {
		t.Errorf("code = %d", diags[0].Code)
	}
}

func TestValidator_UnknownDocument(t *testing.T) {
	v := NewBuilder().WithLogger(testLogger()).Build()
	if _, err := v.Validate("missing.vue", testComponent()); err == nil {
		t.Fatalf("expected an error for an unknown document")
	}
}

func TestValidator_Idempotent(t *testing.T) {
	v := NewBuilder().WithLogger(testLogger()).Build()
	v.DidChange("a.vue", `<p>{{ messaage }}</p><p>{{ alsoMissing }}</p>`, 1)

	first, err := v.Validate("a.vue", testComponent())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	second, err := v.Validate("a.vue", testComponent())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("diagnostic %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// supersedingChecker bumps the validated document mid-flight, simulating a
// newer snapshot arriving between the check request and the mapping stage.
type supersedingChecker struct {
	inner Checker
	v     **Validator
	path  string
}

func (c *supersedingChecker) SyncShadow(path string, roots []script.Expr, comp check.Component) {
	c.inner.SyncShadow(path, roots, comp)
}

func (c *supersedingChecker) Drop(path string) { c.inner.Drop(path) }

func (c *supersedingChecker) Diagnostics(path string, cat check.Category) []check.Diagnostic {
	(*c.v).DidChange(c.path, `<p>newer</p>`, 2)
	return c.inner.Diagnostics(path, cat)
}

func TestValidator_SupersededMidFlight(t *testing.T) {
	var v *Validator
	sc := &supersedingChecker{inner: check.NewSession(), v: &v, path: "a.vue"}
	v = NewBuilder().WithLogger(testLogger()).WithChecker(sc).Build()

	v.DidChange("a.vue", `<p>{{ messaage }}</p>`, 1)
	if _, err := v.Validate("a.vue", testComponent()); err != ErrSuperseded {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}

	// The newer snapshot validates normally.
	diags, err := v.Validate("a.vue", testComponent())
	if err != nil {
		t.Fatalf("Validate after supersede: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %+v, want none", diags)
	}
}

func TestValidator_DidCloseDropsShadow(t *testing.T) {
	sess := check.NewSession()
	v := NewBuilder().WithLogger(testLogger()).WithChecker(sess).Build()
	v.DidChange("a.vue", `<p>{{ messaage }}</p>`, 1)
	if _, err := v.Validate("a.vue", testComponent()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	v.DidClose("a.vue")
	if diags := sess.Diagnostics(ShadowPath("a.vue"), check.CategorySemantic); len(diags) != 0 {
		t.Errorf("shadow survived close: %+v", diags)
	}
}

func TestShadowPath(t *testing.T) {
	if got := ShadowPath("comp.vue"); got != "comp.vue.__vls" {
		t.Errorf("ShadowPath = %q", got)
	}
}
