package check

import "github.com/zclconf/go-cty/cty"

// Built-in members of primitive and collection types. Only `length` carries
// a precise type; the rest resolve to the dynamic type, which is enough to
// keep well-formed member chains from producing spurious diagnostics.

var stringMembers = memberSet(
	"at", "charAt", "charCodeAt", "codePointAt", "concat", "endsWith",
	"includes", "indexOf", "lastIndexOf", "localeCompare", "match",
	"normalize", "padEnd", "padStart", "repeat", "replace", "replaceAll",
	"search", "slice", "split", "startsWith", "substring", "toLowerCase",
	"toString", "toUpperCase", "trim", "trimEnd", "trimStart", "valueOf",
)

var numberMembers = memberSet(
	"toExponential", "toFixed", "toLocaleString", "toPrecision", "toString",
	"valueOf",
)

var boolMembers = memberSet("toString", "valueOf")

var arrayMembers = memberSet(
	"at", "concat", "entries", "every", "filter", "find", "findIndex",
	"findLast", "flat", "flatMap", "forEach", "includes", "indexOf", "join",
	"keys", "lastIndexOf", "map", "reduce", "reduceRight", "reverse",
	"slice", "some", "sort", "toString", "values",
)

func memberSet(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// builtinMember resolves a property on a non-object type. The second result
// is false when the type has no such member.
func builtinMember(ty cty.Type, name string) (cty.Type, bool) {
	var members map[string]struct{}
	switch {
	case ty == cty.String:
		if name == "length" {
			return cty.Number, true
		}
		members = stringMembers
	case ty == cty.Number:
		members = numberMembers
	case ty == cty.Bool:
		members = boolMembers
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		if name == "length" {
			return cty.Number, true
		}
		members = arrayMembers
	case ty.IsMapType():
		// String-keyed index signature: any member resolves to the element.
		return ty.ElementType(), true
	default:
		return cty.NilType, false
	}
	if _, ok := members[name]; ok {
		return cty.DynamicPseudoType, true
	}
	return cty.NilType, false
}
