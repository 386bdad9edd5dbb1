package parser

import (
	"strings"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// functionBody parses `(params) block end` in a fresh function scope. Method
// bodies see an implicit self.
func (p *parser) functionBody(method, async bool, line int) ([]*ast.Node, []*ast.Node) {
	p.pushScope(&blockScope{function: true, async: async})

	if method {
		p.declare("self")
	}

	p.want("(")
	params := p.parameters()
	p.want(")")

	body := p.block()
	p.popScope()

	p.wantMatch("end", "function", line)

	return params, body
}

// parameters parses `name [: T|T] [= default], ... [, ...]` up to `)`.
func (p *parser) parameters() []*ast.Node {
	params := []*ast.Node{}
	if p.tok.Is(")") {
		return params
	}

	for {
		m := p.mark()

		if p.got("...") {
			p.current().vararg = true
			params = append(params, p.finish(m, p.b.Vararg()))

			break
		}

		name := p.wantName()
		param := p.b.Make(ast.Parameter, p.declaredIdentifier(name))

		if p.got(":") {
			types := []string{p.typeName()}
			for p.got("|") {
				types = append(types, p.typeName())
			}

			param.Value = strings.Join(types, "|")
		}

		if p.got("=") {
			param.SetChild(ast.FieldDefault, p.expression())
		}

		p.declare(name.Value)
		params = append(params, p.finish(m, param))

		if !p.got(",") {
			break
		}
	}

	return params
}

func (p *parser) typeName() string {
	tok := p.tok

	switch {
	case tok.Kind == lexer.Name, tok.Kind == lexer.Nil, tok.Is("function"):
		p.next()

		return tok.Raw
	}

	p.errorf("type name expected near %s", p.near())

	return ""
}

func (p *parser) functionExpression(m marker, async bool) *ast.Node {
	line := p.tok.Loc.StartLine
	p.want("function")

	params, body := p.functionBody(false, async, line)

	fn := p.b.Func(params, body...)
	if async {
		fn.Set(ast.IsAsync)
	}

	return p.finish(m, fn)
}

// arrowFunction parses `(params) => block end` and `(params) -> block end`.
// The thin arrow takes self as an implicit first parameter.
func (p *parser) arrowFunction(m marker, async bool) *ast.Node {
	line := p.tok.Loc.StartLine

	p.pushScope(&blockScope{function: true, async: async})
	p.want("(")
	params := p.parameters()
	p.want(")")

	arrow := p.tok
	if !arrow.Is("=>") && !arrow.Is("->") {
		p.errorf("'=>' expected near %s", p.near())
	}

	p.next()

	thin := arrow.Is("->")
	if thin {
		p.declare("self")
		params = append([]*ast.Node{p.b.Param("self")}, params...)
	}

	body := p.block()
	p.popScope()

	p.wantMatch("end", arrow.Value, line)

	fn := p.b.Make(ast.ArrowFunctionExpression, params, body)
	if thin {
		fn.Set(ast.ThinArrow)
	}

	if async {
		fn.Set(ast.IsAsync)
	}

	return p.finish(m, fn)
}

// classDeclaration parses `[public|private] class Name [extends expr] ... end`.
// A class is private, and so a local, unless declared public.
func (p *parser) classDeclaration(m marker) *ast.Node {
	public := p.got("public")
	if !public {
		p.got("private")
	}

	line := p.tok.Loc.StartLine
	p.want("class")
	nameTok := p.wantName()

	var parent *ast.Node
	if p.got("extends") {
		parent = p.expression()
	}

	var name *ast.Node

	if public {
		name = p.identifier(nameTok)
	} else {
		p.declare(nameTok.Value)
		name = p.declaredIdentifier(nameTok)
	}

	p.pushBlock()

	members := []*ast.Node{}

	for !p.tok.Is("end") {
		if p.tok.Kind == lexer.EOF {
			break
		}

		if p.got(";") {
			continue
		}

		members = append(members, p.classMember())
	}

	p.popScope()
	p.wantMatch("end", "class", line)

	class := p.b.Make(ast.ClassDeclaration, name, parent, members)
	if public {
		class.Set(ast.IsPublic)
	}

	return p.finish(m, class)
}

func (p *parser) classMember() *ast.Node {
	m := p.mark()
	line := p.tok.Loc.StartLine

	var flags ast.Flags

modifiers:
	for {
		switch {
		case p.got("public"):
			flags |= ast.IsPublic
		case p.got("private"):
			flags |= ast.IsPrivate
		case p.got("static"):
			flags |= ast.IsStatic
		default:
			break modifiers
		}
	}

	if p.tok.Kind == lexer.Name && (p.tok.Value == "_get" || p.tok.Value == "_set") && p.peek(1).Kind == lexer.Name {
		return p.accessor(m, flags, line)
	}

	async := p.got("async")

	if p.got("function") {
		key := p.plainIdentifier(p.wantName())
		params, body := p.functionBody(true, async, line)

		method := p.b.Make(ast.ClassMethod, key, params, body)
		method.Set(flags | ast.IsMethod)

		if async {
			method.Set(ast.IsAsync)
		}

		return p.finish(m, method)
	}

	if async {
		p.errorf("'function' expected near %s", p.near())
	}

	key := p.plainIdentifier(p.wantName())
	p.want("=")

	field := p.b.Make(ast.ClassField, key, p.expression())
	field.Set(flags)

	return p.finish(m, field)
}

// accessor parses `_get name() ... end` and `_set name(value) ... end`.
func (p *parser) accessor(m marker, flags ast.Flags, line int) *ast.Node {
	kindTok := p.tok
	p.next()

	key := p.plainIdentifier(p.wantName())
	params, body := p.functionBody(true, false, line)

	method := p.b.Make(ast.ClassMethod, key, params, body)
	method.Set(flags | ast.IsMethod)

	if kindTok.Value == "_get" {
		if len(params) != 0 {
			p.errorAt(kindTok, diag.Parse, "getter '%s' takes no parameters", key.Name)
		}

		method.Set(ast.Getter)
	} else {
		if len(params) != 1 || params[0].Kind != ast.Parameter {
			p.errorAt(kindTok, diag.Parse, "setter '%s' takes exactly one parameter", key.Name)
		}

		method.Set(ast.Setter)
	}

	return p.finish(m, method)
}
