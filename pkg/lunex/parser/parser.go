// Package parser builds the dialect syntax tree from source text.
//
// The parser is a single-pass recursive descent over the token array with
// precedence climbing for binary operators. It tracks lexical scopes inline:
// every identifier is tagged local or global when it is parsed, and bare
// uses of imported names are rewritten into member accesses on the spot.
package parser

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// Options configures a parse.
type Options struct {
	// Arena receives the nodes. Nil allocates a fresh arena.
	Arena *ast.Arena
}

// Parse tokenizes and parses src into a Chunk. The token array is returned
// for the code generator's whitespace reconstruction.
func Parse(src string, opts Options) (*ast.Node, []lexer.Token, error) {
	toks, err := lexer.Tokenize(src, lexer.Options{})
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize: %w", err)
	}

	chunk, err := ParseTokens(toks, opts)
	if err != nil {
		return nil, nil, err
	}

	return chunk, toks, nil
}

// ParseTokens parses an EOF-terminated token array into a Chunk.
func ParseTokens(toks []lexer.Token, opts Options) (chunk *ast.Node, err error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != lexer.EOF {
		toks = append(slices.Clip(toks), lexer.Token{Kind: lexer.EOF})
	}

	arena := opts.Arena
	if arena == nil {
		arena = ast.NewArena()
	}

	p := &parser{
		toks:      toks,
		arena:     arena,
		b:         ast.NewBuilder(arena),
		globalSet: make(map[string]bool),
	}
	p.tok = toks[0]

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}

			chunk, err = nil, b.err
		}
	}()

	return p.parseChunk(), nil
}

// bailout carries the first diagnostic out of the recursive descent.
type bailout struct{ err *diag.Diagnostic }

type parser struct {
	toks  []lexer.Token
	pos   int
	tok   lexer.Token
	prev  lexer.Token
	arena *ast.Arena
	b     *ast.Builder

	scopes    []*blockScope
	globals   []string
	globalSet map[string]bool
}

// blockScope is one entry of the lexical scope stack.
type blockScope struct {
	names    map[string]bool
	imports  map[string]*ast.Node
	function bool
	async    bool
	vararg   bool
	loop     bool
}

// ----------------------------------------------------------------------------
// Token navigation

func (p *parser) next() {
	p.prev = p.tok
	if p.pos < len(p.toks)-1 {
		p.pos++
	}

	p.tok = p.toks[p.pos]
}

func (p *parser) peek(n int) lexer.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}

	return p.toks[len(p.toks)-1]
}

// got consumes the current token when it is the keyword or punctuator value.
func (p *parser) got(value string) bool {
	if p.tok.Is(value) {
		p.next()

		return true
	}

	return false
}

func (p *parser) want(value string) {
	if !p.got(value) {
		p.errorf("'%s' expected near %s", value, p.near())
	}
}

// wantMatch consumes the closing token of a construct opened at line.
func (p *parser) wantMatch(closing, opening string, line int) {
	if p.got(closing) {
		return
	}

	if line == p.tok.Loc.StartLine {
		p.errorf("'%s' expected near %s", closing, p.near())
	}

	p.errorf("'%s' expected (to close '%s' at line %d) near %s", closing, opening, line, p.near())
}

// wantName accepts a name. self is a keyword of the dialect but an
// ordinary name in plain Lua, so it is accepted too.
func (p *parser) wantName() lexer.Token {
	tok := p.tok
	if tok.Kind != lexer.Name && !tok.Is("self") {
		p.errorf("<name> expected near %s", p.near())
	}

	p.next()

	return tok
}

func (p *parser) near() string {
	if p.tok.Kind == lexer.EOF {
		return "<eof>"
	}

	return "'" + p.tok.Raw + "'"
}

// ----------------------------------------------------------------------------
// Diagnostics

func (p *parser) errorf(format string, args ...any) {
	p.errorAt(p.tok, diag.Parse, format, args...)
}

func (p *parser) semanticf(at lexer.Token, format string, args ...any) {
	p.errorAt(at, diag.Semantic, format, args...)
}

func (p *parser) errorAt(at lexer.Token, kind diag.Kind, format string, args ...any) {
	panic(bailout{diag.Newf(kind, at.Loc.StartLine, at.Loc.StartCol, at.Start, format, args...)})
}

func (p *parser) semanticAtNode(n *ast.Node, msg string) {
	at := p.tok
	if n.Loc != nil {
		at = lexer.Token{Start: n.Span.Start, Loc: *n.Loc}
	}

	p.errorAt(at, diag.Semantic, "%s", msg)
}

// ----------------------------------------------------------------------------
// Locations

// marker records where a production started.
type marker struct{ tok lexer.Token }

func (p *parser) mark() marker { return marker{tok: p.tok} }

// finish closes the marker at the previous token and attaches the location.
func (p *parser) finish(m marker, n *ast.Node) *ast.Node {
	end := p.prev
	if end.End < m.tok.Start {
		end = m.tok
	}

	n.Loc = &lexer.Location{
		StartLine: m.tok.Loc.StartLine,
		StartCol:  m.tok.Loc.StartCol,
		EndLine:   end.Loc.EndLine,
		EndCol:    end.Loc.EndCol,
	}
	n.Span = ast.Span{Start: m.tok.Start, End: end.End}

	return n
}

// ----------------------------------------------------------------------------
// Scopes

func (p *parser) pushScope(s *blockScope) {
	s.names = make(map[string]bool)
	p.scopes = append(p.scopes, s)
}

func (p *parser) pushBlock() { p.pushScope(&blockScope{}) }

func (p *parser) pushLoop() { p.pushScope(&blockScope{loop: true}) }

func (p *parser) popScope() { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *parser) current() *blockScope { return p.scopes[len(p.scopes)-1] }

func (p *parser) declare(name string) {
	s := p.current()
	s.names[name] = true
	delete(s.imports, name)
}

func (p *parser) isLocal(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i].names[name] {
			return true
		}
	}

	return false
}

// enclosingFunction returns the innermost function scope.
func (p *parser) enclosingFunction() *blockScope {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i].function {
			return p.scopes[i]
		}
	}

	return nil
}

// inLoop reports whether a loop encloses the current position without an
// intervening function boundary.
func (p *parser) inLoop() bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i].loop {
			return true
		}

		if p.scopes[i].function {
			return false
		}
	}

	return false
}

func (p *parser) addGlobal(name string) {
	if !p.globalSet[name] {
		p.globalSet[name] = true
		p.globals = append(p.globals, name)
	}
}

// identifier builds the node for a name use, resolving locals and imports.
func (p *parser) identifier(tok lexer.Token) *ast.Node {
	name := tok.Value
	m := marker{tok: tok}

	for i := len(p.scopes) - 1; i >= 0; i-- {
		s := p.scopes[i]
		if s.names[name] {
			id := p.b.LocalIdent(name)

			return p.finishToken(m, id)
		}

		if src, ok := s.imports[name]; ok {
			member := p.b.Member(p.arena.Clone(src), name)
			p.finishToken(m, member.Child(ast.FieldIdentifier))

			return p.finishToken(m, member)
		}
	}

	p.addGlobal(name)

	return p.finishToken(m, p.b.Ident(name))
}

// declaredIdentifier builds a local identifier node for a new binding.
func (p *parser) declaredIdentifier(tok lexer.Token) *ast.Node {
	return p.finishToken(marker{tok: tok}, p.b.LocalIdent(tok.Value))
}

// plainIdentifier builds a field or method name, which is not a variable.
func (p *parser) plainIdentifier(tok lexer.Token) *ast.Node {
	return p.finishToken(marker{tok: tok}, p.b.Ident(tok.Value))
}

func (p *parser) finishToken(m marker, n *ast.Node) *ast.Node {
	loc := m.tok.Loc
	n.Loc = &loc
	n.Span = ast.Span{Start: m.tok.Start, End: m.tok.End}

	return n
}

// ----------------------------------------------------------------------------
// Chunk and blocks

func (p *parser) parseChunk() *ast.Node {
	m := p.mark()

	p.pushScope(&blockScope{function: true, vararg: true})
	body := p.block()
	p.popScope()

	if p.tok.Kind != lexer.EOF {
		p.errorf("'<eof>' expected near %s", p.near())
	}

	chunk := p.b.Make(ast.Chunk, body)
	chunk.Globals = p.globals

	if len(p.toks) > 1 {
		p.finish(m, chunk)
	}

	return chunk
}

func (p *parser) blockFollow() bool {
	switch {
	case p.tok.Kind == lexer.EOF:
		return true
	case p.tok.Kind != lexer.Keyword:
		return false
	}

	switch p.tok.Value {
	case "end", "else", "elseif", "until":
		return true
	}

	return false
}

// block parses statements up to a block terminator. A return statement must
// be the last statement of its block.
func (p *parser) block() []*ast.Node {
	body := []*ast.Node{}

	for !p.blockFollow() {
		if p.tok.Is("return") {
			body = append(body, p.returnStatement())

			if !p.blockFollow() {
				p.errorf("'end' expected near %s", p.near())
			}

			break
		}

		if stmt := p.statement(); stmt != nil {
			body = append(body, stmt)
		}
	}

	return body
}
