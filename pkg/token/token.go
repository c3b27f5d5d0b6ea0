package token

type Type int

const (
	EOF Type = iota
	Illegal
	Ident
	Number
	Int
	Void
	If
	Else
	While
	Return
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semi
	Comma
	Assign
	Plus
	Minus
	Star
	Slash
	Or
	And
	Shl
	Shr
	Lt
	Gt
	Lte
	Gte
	EqEq
	Neq
)

var KeywordMap = map[string]Type{
	"int":    Int,
	"void":   Void,
	"if":     If,
	"else":   Else,
	"while":  While,
	"return": Return,
}

var symbols = map[Type]string{
	EOF: "end of file", Illegal: "illegal character", Ident: "identifier", Number: "number",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}", LBracket: "[", RBracket: "]",
	Semi: ";", Comma: ",", Assign: "=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Or: "|", And: "&", Shl: "<<", Shr: ">>",
	Lt: "<", Gt: ">", Lte: "<=", Gte: ">=", EqEq: "==", Neq: "!=",
}

// Reverse mapping from Type to the keyword string
var TypeStrings = make(map[Type]string)

func init() {
	for str, typ := range KeywordMap {
		TypeStrings[typ] = str
	}
	for typ, str := range symbols {
		TypeStrings[typ] = str
	}
}

func (t Type) String() string {
	if s, ok := TypeStrings[t]; ok {
		return s
	}
	return "unknown"
}

// IsRelational reports whether t compares its operands.
func (t Type) IsRelational() bool { return t >= Lt && t <= Neq }

type Token struct {
	Type   Type
	Value  string
	Line   int
	Column int
	Len    int
}
