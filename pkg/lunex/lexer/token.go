// Package lexer converts dialect source text into a flat token sequence.
package lexer

import "fmt"

// Kind is the lexical category of a token.
type Kind uint8

// Token kinds.
const (
	EOF Kind = iota
	Invalid
	Name
	Keyword
	Number
	String
	Boolean
	Nil
	Punct
)

var kindNames = [...]string{
	EOF:     "EOF",
	Invalid: "Invalid",
	Name:    "Name",
	Keyword: "Keyword",
	Number:  "Number",
	String:  "String",
	Boolean: "Boolean",
	Nil:     "Nil",
	Punct:   "Punctuator",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// Location is a 1-based line/column span. Columns count bytes.
type Location struct {
	StartLine int `json:"start_line" yaml:"start_line"`
	StartCol  int `json:"start_col"  yaml:"start_col"`
	EndLine   int `json:"end_line"   yaml:"end_line"`
	EndCol    int `json:"end_col"    yaml:"end_col"`
}

// Token is one lexeme. Start and End are byte offsets, End exclusive.
//
// Value holds the identifier, keyword or punctuator text, the decoded
// contents of a string, or the numeral text. Raw is the exact source slice.
type Token struct {
	Kind     Kind
	Value    string
	Raw      string
	Start    int
	End      int
	Loc      Location
	Template bool // backquoted string; Value holds the undecoded body
	Long     bool // long bracket string
}

// Is reports whether the token is the given keyword or punctuator.
func (t Token) Is(value string) bool {
	return (t.Kind == Keyword || t.Kind == Punct) && t.Value == value
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "<eof>"
	}

	return t.Raw
}

// keywords is the closed keyword set: Lua 5.4 plus dialect additions.
var keywords = map[string]struct{}{
	"and": {}, "break": {}, "do": {}, "else": {}, "elseif": {}, "end": {},
	"for": {}, "function": {}, "goto": {}, "if": {}, "in": {}, "local": {},
	"not": {}, "or": {}, "repeat": {}, "return": {}, "then": {}, "until": {},
	"while": {},
	"class": {}, "extends": {}, "static": {}, "public": {}, "private": {},
	"async": {}, "await": {}, "throw": {}, "import": {}, "of": {},
	"stopif": {}, "breakif": {}, "continueif": {}, "continue": {},
	"super": {}, "self": {},
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]

	return ok
}

// punctuators is ordered longest first so the first prefix match wins.
var punctuators = []string{
	"...", "..=", "||=",
	"==", "~=", "<=", ">=", "->", "=>", "?.", "?:", "?[", "??", "++",
	"+=", "-=", "*=", "/=", "%=", "&&", "||", "//", "<<", ">>", "..", "::",
	"+", "-", "*", "/", "%", "^", "#", "&", "~", "|", "<", ">", "=",
	"(", ")", "{", "}", "[", "]", ";", ":", ",", ".",
}
