package script

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// Lexer definition for the template expression language. Template literals
// need nesting, so backticks push a Template state and ${ pushes an
// interpolation state that reuses the root rules. A bare `}` inside an
// interpolation closes it, so object literals directly inside an
// interpolation must be parenthesized; unparenthesized ones take the
// neutral-substitution path.
var lexdef = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Number", Pattern: `(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`},
		{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
		{Name: "BacktickOpen", Pattern: "`", Action: lexer.Push("Template")},
		{Name: "Ident", Pattern: `[$_\pL][$_\pL\p{Nd}]*`},
		{Name: "Punct", Pattern: `>>>=|\.\.\.|\*\*=|>>>|<<=|>>=|===|!==|=>|\?\?|\?\.|&&|\|\||\+\+|--|\*\*|==|!=|<=|>=|<<|>>|\+=|-=|\*=|/=|%=|&=|\|=|\^=|[-+*/%&|^!~<>=?:;,.()\[\]{}]`},
	},
	"Template": {
		{Name: "BacktickClose", Pattern: "`", Action: lexer.Pop()},
		{Name: "InterpOpen", Pattern: `\$\{`, Action: lexer.Push("Interp")},
		{Name: "Chars", Pattern: "(?:\\\\.|\\$[^{`\\\\]|[^$\\\\`])+"},
	},
	"Interp": {
		{Name: "InterpClose", Pattern: `\}`, Action: lexer.Pop()},
		lexer.Include("Root"),
	},
})

var symbols = lexdef.Symbols()

var (
	tokWhitespace    = symbols["Whitespace"]
	tokNumber        = symbols["Number"]
	tokString        = symbols["String"]
	tokIdent         = symbols["Ident"]
	tokPunct         = symbols["Punct"]
	tokBacktickOpen  = symbols["BacktickOpen"]
	tokBacktickClose = symbols["BacktickClose"]
	tokInterpOpen    = symbols["InterpOpen"]
	tokInterpClose   = symbols["InterpClose"]
	tokChars         = symbols["Chars"]
)

// lexAll tokenizes src and drops whitespace. Token offsets are byte offsets
// into src.
func lexAll(src string) ([]lexer.Token, error) {
	lx, err := lexdef.LexString("", src)
	if err != nil {
		return nil, errors.Wrap(err, "lex expression")
	}
	all, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, errors.Wrap(err, "lex expression")
	}
	out := make([]lexer.Token, 0, len(all))
	for _, t := range all {
		if t.Type == tokWhitespace || t.EOF() {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
