package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SSALexer tokenizes the textual IR accepted by package irtext, in the same
// stateful-lexer style as the teacher's grammar.KansoLexer.
var SSALexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Arrow", `->`, nil},
		{"Tilde", `~`, nil},
		{"Label", `bb[0-9]+`, nil},
		{"Ident", `[A-Za-z_][A-Za-z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},
		{"OpSymbol", `(=:=|==|!=|>=|<=|[+\-*/<>])`, nil},
		{"Punct", `[{}()\[\],:=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
