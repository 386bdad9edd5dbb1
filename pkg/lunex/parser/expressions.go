package parser

import (
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// priority holds the left and right binding power of a binary operator.
// Right-associative operators bind weaker on the right.
type priority struct{ left, right int }

var binaryPriority = map[string]priority{
	"or": {1, 1}, "||": {1, 1}, "??": {1, 1},
	"and": {2, 2}, "&&": {2, 2},
	"<": {3, 3}, ">": {3, 3}, "<=": {3, 3}, ">=": {3, 3}, "~=": {3, 3}, "==": {3, 3},
	"|": {4, 4},
	"~": {5, 5},
	"&": {6, 6},
	"<<": {7, 7}, ">>": {7, 7},
	"..": {9, 8},
	"+": {10, 10}, "-": {10, 10},
	"*": {11, 11}, "/": {11, 11}, "//": {11, 11}, "%": {11, 11},
	"^": {14, 13},
}

const unaryPriority = 12

func (p *parser) expression() *ast.Node { return p.subexpression(0) }

func (p *parser) expressionList() []*ast.Node {
	list := []*ast.Node{p.expression()}
	for p.got(",") {
		list = append(list, p.expression())
	}

	return list
}

// subexpression parses operators binding tighter than limit.
func (p *parser) subexpression(limit int) *ast.Node {
	m := p.mark()

	var left *ast.Node

	switch tok := p.tok; {
	case tok.Is("await"):
		if fn := p.enclosingFunction(); fn == nil || !fn.async {
			p.semanticf(tok, "'await' is only allowed inside an async function")
		}

		p.next()
		left = p.finish(m, p.b.Make(ast.AwaitExpression, p.subexpression(unaryPriority)))
	case tok.Is("not") || tok.Is("-") || tok.Is("#") || tok.Is("~"):
		p.next()
		left = p.finish(m, p.b.Unary(tok.Value, p.subexpression(unaryPriority)))
	default:
		left = p.simpleExpression()
	}

	for {
		op := p.tok
		if op.Kind != lexer.Punct && op.Kind != lexer.Keyword {
			break
		}

		prio, ok := binaryPriority[op.Value]
		if !ok || prio.left <= limit {
			break
		}

		p.next()
		right := p.subexpression(prio.right)
		left = p.finish(m, p.binary(op.Value, left, right))
	}

	return left
}

func (p *parser) binary(op string, left, right *ast.Node) *ast.Node {
	switch op {
	case "or", "||":
		return p.b.Logical("or", left, right)
	case "and", "&&":
		return p.b.Logical("and", left, right)
	case "??":
		return p.b.Make(ast.NilCoalesceExpression, left, right)
	}

	return p.b.Binary(op, left, right)
}

func (p *parser) simpleExpression() *ast.Node {
	m := p.mark()
	tok := p.tok

	switch {
	case tok.Kind == lexer.Number:
		p.next()

		return p.finish(m, p.b.Make(ast.NumericLiteral, tok.Value, tok.Raw))
	case tok.Kind == lexer.String && tok.Template:
		p.next()

		return p.finish(m, p.template(tok))
	case tok.Kind == lexer.String:
		return p.stringLiteral()
	case tok.Kind == lexer.Nil:
		p.next()

		return p.finish(m, p.b.Nil())
	case tok.Kind == lexer.Boolean:
		p.next()

		return p.finish(m, p.b.Make(ast.BooleanLiteral, tok.Value))
	case tok.Is("..."):
		return p.varargOrSpread()
	case tok.Is("{"):
		return p.table()
	case tok.Is("function"):
		return p.functionExpression(m, false)
	case tok.Is("async") && p.peek(1).Is("function"):
		p.next()

		return p.functionExpression(m, true)
	case tok.Is("async") && p.arrowAhead(1):
		p.next()

		return p.arrowFunction(m, true)
	case tok.Is("(") && p.arrowAhead(0):
		return p.arrowFunction(m, false)
	}

	return p.suffixedExpression()
}

func (p *parser) stringLiteral() *ast.Node {
	m := p.mark()
	tok := p.tok
	p.next()

	lit := p.b.Make(ast.StringLiteral, tok.Value, tok.Raw)
	if tok.Long {
		lit.Set(ast.LongString)
	}

	return p.finish(m, lit)
}

// varargOrSpread parses `...`. Directly followed by an expression it is a
// spread of that expression, otherwise the vararg expression.
func (p *parser) varargOrSpread() *ast.Node {
	m := p.mark()
	tok := p.tok
	next := p.peek(1)

	if next.Start == tok.End && startsExpression(next) {
		p.next()

		return p.finish(m, p.b.Make(ast.SpreadElement, p.simpleExpression()))
	}

	if fn := p.enclosingFunction(); fn == nil || !fn.vararg {
		p.errorf("cannot use '...' outside a vararg function near '...'")
	}

	p.next()

	return p.finish(m, p.b.Vararg())
}

func startsExpression(tok lexer.Token) bool {
	switch tok.Kind {
	case lexer.Name, lexer.Number, lexer.String, lexer.Nil, lexer.Boolean:
		return true
	}

	return tok.Is("(") || tok.Is("{") || tok.Is("self") || tok.Is("super") || tok.Is("function")
}

func (p *parser) primaryExpression() *ast.Node {
	tok := p.tok

	switch {
	case tok.Kind == lexer.Name, tok.Is("self"):
		p.next()

		return p.identifier(tok)
	case tok.Is("super"):
		p.next()

		return p.finishToken(marker{tok: tok}, p.b.Make(ast.SuperExpression))
	case tok.Is("("):
		p.next()
		expr := p.expression()
		p.wantMatch(")", "(", tok.Loc.StartLine)
		expr.Set(ast.InParens)

		return expr
	}

	p.errorf("unexpected symbol near %s", p.near())

	return nil
}

// suffixedExpression parses a primary expression followed by field, index,
// method and call suffixes. After the first safe-navigation link every later
// suffix of the chain becomes a SafeMemberExpression.
func (p *parser) suffixedExpression() *ast.Node {
	m := p.mark()
	expr := p.primaryExpression()
	safe := false

	for {
		tok := p.tok

		switch {
		case tok.Is(".") || tok.Is("?."):
			p.next()
			key := p.plainIdentifier(p.wantName())

			if tok.Is("?.") || safe {
				expr = p.safeLink(expr, ".", key, nil, nil, tok.Is("?."))
				safe = true

				break
			}

			expr = p.b.Make(ast.MemberExpression, expr, ".", key)
		case tok.Is("[") || tok.Is("?["):
			p.next()
			index := p.expression()
			p.wantMatch("]", "[", tok.Loc.StartLine)

			if tok.Is("?[") || safe {
				expr = p.safeLink(expr, "[", nil, index, nil, tok.Is("?["))
				safe = true

				break
			}

			expr = p.b.Index(expr, index)
		case tok.Is(":") || tok.Is("?:"):
			p.next()
			key := p.plainIdentifier(p.wantName())
			args, _ := p.callArguments()

			if tok.Is("?:") || safe {
				expr = p.safeLink(expr, ":", key, nil, args, tok.Is("?:"))
				safe = true

				break
			}

			call := p.b.Call(p.finish(m, p.b.Make(ast.MemberExpression, expr, ":", key)), args...)
			expr = call
		case p.startsArguments():
			args, style := p.callArguments()

			if safe {
				expr = p.safeLink(expr, "(", nil, nil, args, false)

				break
			}

			expr = p.b.Call(expr, args...)
			expr.Operator = style
		default:
			return expr
		}

		expr = p.finish(m, expr)
	}
}

func (p *parser) safeLink(base *ast.Node, indexer string, key, index *ast.Node, args []*ast.Node, optional bool) *ast.Node {
	link := p.b.Make(ast.SafeMemberExpression, base, indexer, key, index, args)
	if optional {
		link.Set(ast.Optional)
	}

	return link
}

// startsArguments reports whether the current token opens call arguments.
// A table constructor on a later line starts a new statement instead.
func (p *parser) startsArguments() bool {
	switch {
	case p.tok.Is("("):
		return true
	case p.tok.Is("{"):
		return p.tok.Loc.StartLine == p.prev.Loc.EndLine
	case p.tok.Kind == lexer.String:
		return !p.tok.Template
	}

	return false
}

// callArguments parses `(explist)`, a table constructor or a string. The
// style is "" for parenthesized arguments, "{" or "\"" otherwise.
func (p *parser) callArguments() ([]*ast.Node, string) {
	tok := p.tok

	switch {
	case tok.Is("("):
		p.next()

		args := []*ast.Node{}
		if !p.tok.Is(")") {
			args = p.expressionList()
		}

		p.wantMatch(")", "(", tok.Loc.StartLine)

		return args, ""
	case tok.Is("{"):
		return []*ast.Node{p.table()}, "{"
	case tok.Kind == lexer.String && !tok.Template:
		return []*ast.Node{p.stringLiteral()}, "\""
	}

	p.errorf("function arguments expected near %s", p.near())

	return nil, ""
}

func (p *parser) table() *ast.Node {
	m := p.mark()
	line := p.tok.Loc.StartLine
	p.want("{")

	fields := []*ast.Node{}

	for !p.tok.Is("}") {
		fm := p.mark()

		var field *ast.Node

		switch {
		case p.tok.Is("["):
			p.next()
			key := p.expression()
			p.want("]")
			p.want("=")
			field = p.b.Make(ast.TableKey, key, p.expression())
		case p.tok.Kind == lexer.Name && p.peek(1).Is("="):
			key := p.plainIdentifier(p.tok)
			p.next()
			p.next()
			field = p.b.Make(ast.TableKeyString, key, p.expression())
		default:
			value := p.expression()
			if value.Kind == ast.SpreadElement {
				field = value
			} else {
				field = p.b.Item(value)
			}
		}

		fields = append(fields, p.finish(fm, field))

		if !p.got(",") && !p.got(";") {
			break
		}
	}

	p.wantMatch("}", "{", line)

	return p.finish(m, p.b.Table(fields...))
}

// arrowAhead reports whether the token at offset opens the parameter list
// of an arrow function.
func (p *parser) arrowAhead(offset int) bool {
	if !p.peek(offset).Is("(") {
		return false
	}

	depth := 0

	for i := p.pos + offset; i < len(p.toks); i++ {
		tok := p.toks[i]

		switch {
		case tok.Kind == lexer.EOF:
			return false
		case tok.Is("("):
			depth++
		case tok.Is(")"):
			depth--
			if depth == 0 {
				after := p.peek(i - p.pos + 1)

				return after.Is("=>") || after.Is("->")
			}
		}
	}

	return false
}
