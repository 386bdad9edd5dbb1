// Package generator prints a lowered syntax tree as plain Lua 5.4 source.
//
// Output is rebuilt from the tree, not copied from the input: the source
// text and its tokens only contribute blank lines and the indent unit.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// ErrUnlowered is returned when the tree still holds a dialect construct.
var ErrUnlowered = errors.New("node has no plain Lua form")

// DefaultIndent is used when the source has no indented line.
const DefaultIndent = "  "

// Options configures the printed layout.
type Options struct {
	// Indent is the indent unit. Empty detects it from the source.
	Indent string
	// Compact separates statements with spaces instead of newlines.
	Compact bool
	// RetainLines places each statement on its source line where possible.
	RetainLines bool
}

// Generate prints root. source and tokens are the input the tree was
// parsed from; both may be empty for synthetic trees.
func Generate(root *ast.Node, source string, tokens []lexer.Token, opts Options) (out string, err error) {
	indent := opts.Indent
	if indent == "" {
		indent = DetectIndent(source)
	}

	g := &generator{
		buf:    NewBuffer(),
		ws:     NewWhitespace(source, tokens),
		indent: indent,
		opts:   opts,
	}

	defer func() {
		if r := recover(); r != nil {
			u, ok := r.(unlowered)
			if !ok {
				panic(r)
			}

			out, err = "", fmt.Errorf("%w: %s", ErrUnlowered, u.node)
		}
	}()

	g.node(root)

	return g.buf.String(), nil
}

// DetectIndent returns the indent unit of source: a tab when the first
// indented line starts with one, else the smallest run of leading spaces.
func DetectIndent(source string) string {
	smallest := 0

	for line := range strings.Lines(source) {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}

		lead := line[:len(line)-len(trimmed)]
		if lead == "" {
			continue
		}

		if lead[0] == '\t' {
			if smallest == 0 {
				return "\t"
			}

			continue
		}

		if spaces := len(lead) - len(strings.TrimLeft(lead, " ")); spaces > 0 && (smallest == 0 || spaces < smallest) {
			smallest = spaces
		}
	}

	if smallest == 0 {
		return DefaultIndent
	}

	return strings.Repeat(" ", min(smallest, 8))
}

// unlowered carries a dialect node out of the printers.
type unlowered struct{ node *ast.Node }

type generator struct {
	buf    *Buffer
	ws     *Whitespace
	indent string
	opts   Options
	level  int
}

// ----------------------------------------------------------------------------
// Primitives

func (g *generator) write(text string) {
	if g.level > 0 && g.buf.AtLineStart() {
		g.buf.Append(strings.Repeat(g.indent, g.level))
	}

	g.buf.Append(text)
}

// word writes keyword-like text, separated from a preceding word.
func (g *generator) word(text string) {
	if isWordByte(g.buf.Last()) && text != "" && isWordByte(text[0]) {
		g.space()
	}

	g.write(text)
}

// token writes punctuation. It is never auto-spaced except to keep two
// minus signs from starting a comment.
func (g *generator) token(text string) {
	if g.buf.Last() == '-' && strings.HasPrefix(text, "-") {
		g.space()
	}

	g.write(text)
}

func (g *generator) space() { g.buf.QueueSpace() }

func (g *generator) newline(n int) {
	if g.opts.Compact || g.opts.RetainLines {
		g.space()

		return
	}

	g.buf.QueueNewlines(n)
}

func (g *generator) indentIn() { g.level++ }

func (g *generator) dedent() { g.level-- }

func isWordByte(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

// ----------------------------------------------------------------------------
// Blocks

// statements prints a statement list, replaying the source's blank lines.
func (g *generator) statements(list []*ast.Node) {
	for i, stmt := range list {
		if g.opts.RetainLines && stmt.Loc != nil {
			g.buf.PadTo(stmt.Loc.StartLine)
			g.space()
		} else {
			n := g.ws.NewlinesBefore(stmt)
			if n < 1 || i == 0 {
				n = 1
			}

			g.newline(n)
		}

		g.node(stmt)
	}
}

// block prints an indented body and leaves the output ready for the
// closing keyword.
func (g *generator) block(list []*ast.Node) {
	if len(list) == 0 {
		g.space()

		return
	}

	g.indentIn()
	g.statements(list)
	g.dedent()
	g.newline(1)
}
