package templatecheck

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/trixnz/vetur/internal/templatecheck/ast"
	"github.com/trixnz/vetur/internal/templatecheck/check"
	"github.com/trixnz/vetur/internal/templatecheck/diagnostics"
	"github.com/trixnz/vetur/internal/templatecheck/parser"
	"github.com/trixnz/vetur/internal/templatecheck/transform"
)

// ShadowSuffix distinguishes a template's synthetic shadow document from the
// template itself in the checker session.
const ShadowSuffix = ".__vls"

// ShadowPath returns the checker-session path of a template's shadow.
func ShadowPath(path string) string { return path + ShadowSuffix }

// ErrSuperseded reports that a newer revision of the document arrived while
// a validation was in flight; the caller should retry against the latest
// snapshot.
var ErrSuperseded = errors.New("validation superseded by a newer document version")

// Validator runs the synchronous validation pipeline: parse the template,
// transform it into the synthetic program, sync the checker's shadow
// document, request semantic diagnostics, and map them back to template
// coordinates. Each validation gets a fresh scope stack and source map;
// cancellation is cooperative via document-version comparison at the yield
// points between stages.
type Validator struct {
	parser      TemplateParser
	transformer Transformer
	checker     Checker
	log         *slog.Logger

	docs map[string]*document
}

type document struct {
	text    string
	version int
}

// Builder assembles a Validator.
type Builder struct {
	parser      TemplateParser
	transformer Transformer
	checker     Checker
	log         *slog.Logger
}

// NewBuilder starts a builder with the default components.
func NewBuilder() *Builder { return &Builder{} }

// WithLogger sets the internal logging channel.
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// WithParser substitutes the template parser.
func (b *Builder) WithParser(p TemplateParser) *Builder {
	b.parser = p
	return b
}

// WithChecker substitutes the downstream checker session.
func (b *Builder) WithChecker(c Checker) *Builder {
	b.checker = c
	return b
}

// Build creates the configured validator.
func (b *Builder) Build() *Validator {
	log := b.log
	if log == nil {
		log = slog.Default()
	}
	p := b.parser
	if p == nil {
		p = defaultParser{}
	}
	var t Transformer = b.transformer
	if t == nil {
		t = transform.NewTransformer(log)
	}
	c := b.checker
	if c == nil {
		c = check.NewSession()
	}
	return &Validator{
		parser:      p,
		transformer: t,
		checker:     c,
		log:         log,
		docs:        make(map[string]*document),
	}
}

type defaultParser struct{}

func (defaultParser) Parse(src string) ([]ast.Node, error) { return parser.Parse(src) }

// NewValidator builds a validator with default components.
func NewValidator() *Validator { return NewBuilder().Build() }

// DidChange installs the latest snapshot of a template document.
func (v *Validator) DidChange(path, text string, version int) {
	doc, ok := v.docs[path]
	if !ok {
		v.docs[path] = &document{text: text, version: version}
		return
	}
	doc.text = text
	doc.version = version
}

// DidClose forgets a document and its shadow.
func (v *Validator) DidClose(path string) {
	delete(v.docs, path)
	v.checker.Drop(ShadowPath(path))
}

// Validate type-checks the latest snapshot of path against the component's
// declared members. It returns ErrSuperseded when a newer snapshot arrives
// mid-flight.
func (v *Validator) Validate(path string, comp check.Component) ([]diagnostics.Diagnostic, error) {
	doc, ok := v.docs[path]
	if !ok {
		return nil, errors.Errorf("no document for path %q", path)
	}
	version := doc.version

	roots, err := v.parser.Parse(doc.text)
	if err != nil {
		return nil, errors.Wrapf(err, "parse template %q", path)
	}

	exprs := v.transformer.Transform(roots)
	prog := transform.Emit(exprs)

	if v.superseded(path, version) {
		return nil, ErrSuperseded
	}

	shadow := ShadowPath(path)
	v.checker.SyncShadow(shadow, prog.Roots, comp)
	raw := v.checker.Diagnostics(shadow, check.CategorySemantic)

	if v.superseded(path, version) {
		return nil, ErrSuperseded
	}

	return diagnostics.MapDiagnostics(raw, prog.Map), nil
}

func (v *Validator) superseded(path string, version int) bool {
	doc, ok := v.docs[path]
	return !ok || doc.version != version
}
