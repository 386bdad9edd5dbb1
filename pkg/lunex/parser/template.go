package parser

import (
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// template splits a backquoted string into literal and expression parts.
// Each ${...} span is lexed with its real position and parsed in the
// current scope.
func (p *parser) template(tok lexer.Token) *ast.Node {
	body := tok.Value
	parts := []*ast.Node{}
	literalStart := 0

	flush := func(end int) {
		if end <= literalStart {
			return
		}

		text, err := lexer.DecodeEscapes(body[literalStart:end])
		if err != nil {
			p.errorAt(tok, diag.Lex, "invalid escape in template string")
		}

		parts = append(parts, p.b.Str(text))
	}

	for i := 0; i < len(body); {
		switch {
		case body[i] == '\\':
			i += 2
		case body[i] == '$' && i+1 < len(body) && body[i+1] == '{':
			flush(i)

			exprStart := i + 2

			j := lexer.InterpolationEnd(body, exprStart)
			if j < 0 {
				p.errorAt(tok, diag.Lex, "unfinished interpolation in template string")
			}

			parts = append(parts, p.interpolation(tok, exprStart, j))
			i = j + 1
			literalStart = j + 1
		default:
			i++
		}
	}

	flush(len(body))

	return p.b.Make(ast.TemplateString, parts)
}

// interpolation parses body[start:end] of a template token as an expression.
func (p *parser) interpolation(tok lexer.Token, start, end int) *ast.Node {
	line, col := tok.Loc.StartLine, tok.Loc.StartCol

	// Raw begins with the opening backquote, so body offset i is Raw[i+1].
	for _, ch := range []byte(tok.Raw[:start+1]) {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	toks, err := lexer.Tokenize(tok.Value[start:end], lexer.Options{
		Offset: tok.Start + 1 + start,
		Line:   line,
		Column: col,
	})
	if err != nil {
		if d, ok := diag.As(err); ok {
			panic(bailout{d})
		}

		p.errorAt(tok, diag.Lex, "%v", err)
	}

	if len(toks) == 1 {
		p.errorAt(toks[0], diag.Parse, "empty interpolation in template string")
	}

	savedToks, savedPos, savedTok, savedPrev := p.toks, p.pos, p.tok, p.prev
	p.toks, p.pos, p.tok = toks, 0, toks[0]

	expr := p.expression()
	if p.tok.Kind != lexer.EOF {
		p.errorf("'}' expected near %s", p.near())
	}

	p.toks, p.pos, p.tok, p.prev = savedToks, savedPos, savedTok, savedPrev

	return expr
}
