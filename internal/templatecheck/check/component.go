package check

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Component is the script-block type model: the declared members the
// template's bare identifiers resolve against.
type Component struct {
	Name    string
	Members map[string]Member
}

// Member is a declared component member: a data property with a type, or a
// method with a callable signature.
type Member struct {
	Type   cty.Type
	Method *function.Function
}

// Prop declares a data member.
func Prop(ty cty.Type) Member { return Member{Type: ty} }

// Method declares a callable member.
func Method(fn function.Function) Member { return Member{Method: &fn} }

// Func is a convenience constructor for a method signature with required
// positional parameters and a return type.
func Func(ret cty.Type, params ...cty.Type) function.Function {
	specs := make([]function.Parameter, len(params))
	for i, p := range params {
		specs[i] = function.Parameter{Name: fmt.Sprintf("arg%d", i), Type: p}
	}
	return function.New(&function.Spec{
		Params: specs,
		Type:   function.StaticReturnType(ret),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.UnknownVal(retType), nil
		},
	})
}

// TypeName renders a cty type the way the host checker names it in
// diagnostics.
func TypeName(ty cty.Type) string {
	switch {
	case ty == cty.DynamicPseudoType:
		return "any"
	case ty == cty.String:
		return "string"
	case ty == cty.Number:
		return "number"
	case ty == cty.Bool:
		return "boolean"
	case ty.IsListType() || ty.IsSetType():
		return TypeName(ty.ElementType()) + "[]"
	case ty.IsTupleType():
		return "any[]"
	case ty.IsMapType():
		return "{ [key: string]: " + TypeName(ty.ElementType()) + " }"
	case ty.IsObjectType():
		attrs := ty.AttributeTypes()
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + ": " + TypeName(attrs[name])
		}
		if len(parts) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(parts, "; ") + "; }"
	default:
		return ty.FriendlyName()
	}
}
