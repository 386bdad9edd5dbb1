package generator

import (
	"sort"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// Whitespace recovers the blank lines of the original source from its
// token array. Each source line is replayed at most once.
type Whitespace struct {
	source string
	tokens []lexer.Token
	used   map[int]bool
}

// NewWhitespace indexes tokens, which must be sorted by byte offset and
// lexed from source.
func NewWhitespace(source string, tokens []lexer.Token) *Whitespace {
	return &Whitespace{source: source, tokens: tokens, used: make(map[int]bool)}
}

// find returns the index of the token starting at offset, or -1.
func (w *Whitespace) find(offset int) int {
	i := sort.Search(len(w.tokens), func(i int) bool { return w.tokens[i].Start >= offset })
	if i < len(w.tokens) && w.tokens[i].Start == offset && w.tokens[i].Kind != lexer.EOF {
		return i
	}

	return -1
}

// NewlinesBefore returns how many line breaks separated the first token of
// node from the token before it, not counting comment lines, or -1 when the node has no source range
// or its line was already replayed.
func (w *Whitespace) NewlinesBefore(node *ast.Node) int {
	if w == nil || node == nil || !node.Span.Valid() {
		return -1
	}

	i := w.find(node.Span.Start)
	if i < 0 {
		return -1
	}

	tok := w.tokens[i]
	if w.used[tok.Loc.StartLine] {
		return -1
	}

	w.used[tok.Loc.StartLine] = true

	if i == 0 {
		return tok.Loc.StartLine - 1
	}

	prev := w.tokens[i-1]
	if tok.Loc.StartLine == prev.Loc.EndLine {
		return 0
	}

	// Without the source text every skipped line counts as blank.
	if prev.End > tok.Start || tok.Start > len(w.source) {
		return tok.Loc.StartLine - prev.Loc.EndLine
	}

	return 1 + lexer.BlankLines(w.source[prev.End:tok.Start])
}

// SpansLines reports whether node covered more than one source line.
func SpansLines(node *ast.Node) bool {
	return node != nil && node.Loc != nil && node.Loc.EndLine > node.Loc.StartLine
}
