// Package templatecheck is the public surface of the template type-checking
// core: it validates component template markup against the component's
// declared members and reports type errors with ranges into the template
// source.
package templatecheck

import (
	"log/slog"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	core "github.com/trixnz/vetur/internal/templatecheck"
	"github.com/trixnz/vetur/internal/templatecheck/check"
	"github.com/trixnz/vetur/internal/templatecheck/diagnostics"
)

// Diagnostic is a template-coordinate diagnostic.
type Diagnostic = diagnostics.Diagnostic

// Position is a 1-based line/column location in the template source.
type Position = diagnostics.Position

// Component describes the declared members template expressions resolve
// against.
type Component = check.Component

// Member is a declared component member.
type Member = check.Member

// Prop declares a data member with a type.
func Prop(ty cty.Type) Member { return check.Prop(ty) }

// Method declares a callable member.
func Method(fn function.Function) Member { return check.Method(fn) }

// Func builds a method signature from a return type and required parameter
// types.
func Func(ret cty.Type, params ...cty.Type) function.Function {
	return check.Func(ret, params...)
}

// PositionAt converts a byte offset in src to a 1-based position.
func PositionAt(src string, offset int) Position { return diagnostics.PositionAt(src, offset) }

// Service validates template documents against a long-lived checker
// session. It is not safe for concurrent use; it is designed for a
// single-threaded language-server event loop.
type Service struct {
	v *Validator
}

// Validator is the underlying validation pipeline.
type Validator = core.Validator

// ErrSuperseded reports that a newer document snapshot arrived while a
// validation was in flight.
var ErrSuperseded = core.ErrSuperseded

// New creates a service with the default pipeline.
func New() *Service {
	return &Service{v: core.NewValidator()}
}

// NewWithLogger creates a service routing internal diagnostics to log.
func NewWithLogger(log *slog.Logger) *Service {
	return &Service{v: core.NewBuilder().WithLogger(log).Build()}
}

// DidChange installs the latest snapshot of a template document.
func (s *Service) DidChange(path, text string, version int) {
	s.v.DidChange(path, text, version)
}

// DidClose forgets a document.
func (s *Service) DidClose(path string) {
	s.v.DidClose(path)
}

// Validate type-checks the latest snapshot of path.
func (s *Service) Validate(path string, comp Component) ([]Diagnostic, error) {
	return s.v.Validate(path, comp)
}

// Check is the one-shot form: validate template source against a component
// in a fresh session.
func Check(template string, comp Component) ([]Diagnostic, error) {
	v := core.NewValidator()
	v.DidChange("inline", template, 1)
	return v.Validate("inline", comp)
}
