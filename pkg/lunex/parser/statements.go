package parser

import (
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

var mutationOperators = map[string]bool{
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true, "..=": true, "||=": true,
}

// statement parses one statement. It returns nil for an empty statement.
func (p *parser) statement() *ast.Node {
	m := p.mark()
	tok := p.tok

	switch {
	case tok.Is(";"):
		p.next()

		return nil
	case tok.Is("::"):
		return p.labelStatement(m)
	case tok.Is("{"):
		return p.destructuring(m, false)
	case tok.Kind != lexer.Keyword:
		return p.expressionStatement(m)
	}

	switch tok.Value {
	case "break":
		p.requireLoop(tok)
		p.next()

		return p.finish(m, p.b.Break())
	case "goto":
		p.next()

		return p.finish(m, p.b.Make(ast.GotoStatement, p.plainIdentifier(p.wantName())))
	case "do":
		return p.doStatement(m)
	case "while":
		return p.whileStatement(m)
	case "repeat":
		return p.repeatStatement(m)
	case "if":
		return p.ifStatement(m)
	case "for":
		return p.forStatement(m)
	case "function":
		return p.functionDeclaration(m, false, false)
	case "async":
		p.next()

		return p.functionDeclaration(m, false, true)
	case "local":
		return p.localStatement(m)
	case "class", "public", "private":
		return p.classDeclaration(m)
	case "continue":
		p.requireLoop(tok)
		p.next()

		return p.finish(m, p.b.Make(ast.ContinueStatement))
	case "stopif", "breakif", "continueif":
		return p.shortcutStatement(m)
	case "throw":
		p.next()

		return p.finish(m, p.b.Make(ast.ThrowStatement, p.expression()))
	case "import":
		return p.importStatement(m)
	}

	return p.expressionStatement(m)
}

func (p *parser) requireLoop(tok lexer.Token) {
	if !p.inLoop() {
		p.semanticf(tok, "'%s' outside a loop", tok.Value)
	}
}

func (p *parser) labelStatement(m marker) *ast.Node {
	p.want("::")
	label := p.plainIdentifier(p.wantName())
	p.want("::")

	return p.finish(m, p.b.Make(ast.LabelStatement, label))
}

func (p *parser) doStatement(m marker) *ast.Node {
	line := p.tok.Loc.StartLine
	p.want("do")

	p.pushBlock()
	body := p.block()
	p.popScope()

	p.wantMatch("end", "do", line)

	return p.finish(m, p.b.Do(body...))
}

func (p *parser) whileStatement(m marker) *ast.Node {
	line := p.tok.Loc.StartLine
	p.want("while")
	cond := p.expression()
	p.want("do")

	p.pushLoop()
	body := p.block()
	p.popScope()

	p.wantMatch("end", "while", line)

	return p.finish(m, p.b.Make(ast.WhileStatement, cond, body))
}

// repeatStatement parses repeat-until. The condition sees the body's locals.
func (p *parser) repeatStatement(m marker) *ast.Node {
	line := p.tok.Loc.StartLine
	p.want("repeat")

	p.pushLoop()
	body := p.block()
	p.wantMatch("until", "repeat", line)
	cond := p.expression()
	p.popScope()

	return p.finish(m, p.b.Make(ast.RepeatStatement, cond, body))
}

func (p *parser) ifStatement(m marker) *ast.Node {
	line := p.tok.Loc.StartLine
	clauses := []*ast.Node{p.conditionalClause(ast.IfClause, "if")}

	for p.tok.Is("elseif") {
		clauses = append(clauses, p.conditionalClause(ast.ElseifClause, "elseif"))
	}

	if p.tok.Is("else") {
		cm := p.mark()
		p.next()

		p.pushBlock()
		body := p.block()
		p.popScope()

		clauses = append(clauses, p.finish(cm, p.b.Make(ast.ElseClause, body)))
	}

	p.wantMatch("end", "if", line)

	return p.finish(m, p.b.Make(ast.IfStatement, clauses))
}

func (p *parser) conditionalClause(kind ast.Kind, keyword string) *ast.Node {
	m := p.mark()
	p.want(keyword)
	cond := p.expression()
	p.want("then")

	p.pushBlock()
	body := p.block()
	p.popScope()

	return p.finish(m, p.b.Make(kind, cond, body))
}

func (p *parser) forStatement(m marker) *ast.Node {
	line := p.tok.Loc.StartLine
	p.want("for")
	first := p.wantName()

	if p.got("=") {
		start := p.expression()
		p.want(",")
		end := p.expression()

		var step *ast.Node
		if p.got(",") {
			step = p.expression()
		}

		p.want("do")

		p.pushLoop()
		p.declare(first.Value)
		variable := p.declaredIdentifier(first)
		body := p.block()
		p.popScope()

		p.wantMatch("end", "for", line)

		return p.finish(m, p.b.Make(ast.ForNumericStatement, variable, start, end, step, body))
	}

	names := []lexer.Token{first}
	for p.got(",") {
		names = append(names, p.wantName())
	}

	kind := ast.ForGenericStatement

	switch {
	case p.got("in"):
	case p.got("of"):
		kind = ast.ForOfStatement
	default:
		p.errorf("'=' or 'in' expected near %s", p.near())
	}

	iterators := p.expressionList()
	p.want("do")

	p.pushLoop()

	variables := make([]*ast.Node, len(names))
	for i, name := range names {
		p.declare(name.Value)
		variables[i] = p.declaredIdentifier(name)
	}

	body := p.block()
	p.popScope()

	p.wantMatch("end", "for", line)

	return p.finish(m, p.b.Make(kind, variables, iterators, body))
}

func (p *parser) functionDeclaration(m marker, local, async bool) *ast.Node {
	line := p.tok.Loc.StartLine
	p.want("function")

	var (
		name   *ast.Node
		method bool
	)

	if local {
		tok := p.wantName()
		p.declare(tok.Value)
		name = p.declaredIdentifier(tok)
	} else {
		nm := p.mark()
		name = p.identifier(p.wantName())

		for p.tok.Is(".") {
			p.next()
			key := p.plainIdentifier(p.wantName())
			name = p.finish(nm, p.b.Make(ast.MemberExpression, name, ".", key))
		}

		if p.got(":") {
			key := p.plainIdentifier(p.wantName())
			name = p.finish(nm, p.b.Make(ast.MemberExpression, name, ":", key))
			method = true
		}
	}

	params, body := p.functionBody(method, async, line)

	fn := p.b.Make(ast.FunctionDeclaration, name, params, body)
	if local {
		fn.Set(ast.IsLocal)
	}

	if async {
		fn.Set(ast.IsAsync)
	}

	if method {
		fn.Set(ast.IsMethod)
	}

	return p.finish(m, fn)
}

func (p *parser) localStatement(m marker) *ast.Node {
	p.want("local")

	switch {
	case p.tok.Is("function"):
		return p.functionDeclaration(m, true, false)
	case p.tok.Is("async"):
		p.next()

		return p.functionDeclaration(m, true, true)
	case p.tok.Is("{"):
		return p.destructuring(m, true)
	}

	var (
		names []lexer.Token
		vars  []*ast.Node
	)

	for {
		tok := p.wantName()
		id := p.declaredIdentifier(tok)

		if p.got("<") {
			attrib := p.wantName()
			if attrib.Value != "const" && attrib.Value != "close" {
				p.errorAt(attrib, diag.Parse, "unknown attribute '%s'", attrib.Value)
			}

			p.want(">")
			id.Value = attrib.Value
		}

		names = append(names, tok)
		vars = append(vars, id)

		if !p.got(",") {
			break
		}
	}

	init := []*ast.Node{}
	if p.got("=") {
		init = p.expressionList()
	}

	for _, name := range names {
		p.declare(name.Value)
	}

	return p.finish(m, p.b.Local(vars, init))
}

// destructuring parses `local {a, b} = expr` and `{a, b} = expr`.
func (p *parser) destructuring(m marker, local bool) *ast.Node {
	p.want("{")

	var names []lexer.Token

	for !p.tok.Is("}") {
		names = append(names, p.wantName())

		if !p.got(",") {
			break
		}
	}

	if len(names) == 0 {
		p.errorf("<name> expected near %s", p.near())
	}

	p.want("}")
	p.want("=")
	value := p.expression()

	nodes := make([]*ast.Node, len(names))

	for i, name := range names {
		if local {
			p.declare(name.Value)
			nodes[i] = p.declaredIdentifier(name)

			continue
		}

		nodes[i] = p.checkTarget(p.identifier(name))
	}

	stmt := p.b.Make(ast.DestructuringStatement, nodes, value)
	if local {
		stmt.Set(ast.IsLocal)
	}

	return p.finish(m, stmt)
}

func (p *parser) shortcutStatement(m marker) *ast.Node {
	tok := p.tok

	kind := ast.StopIfStatement

	switch tok.Value {
	case "breakif":
		kind = ast.BreakIfStatement
		p.requireLoop(tok)
	case "continueif":
		kind = ast.ContinueIfStatement
		p.requireLoop(tok)
	}

	p.next()

	return p.finish(m, p.b.Make(kind, p.expressionList()))
}

// importStatement parses `import a, b from expr` and registers the names so
// later bare uses resolve to members of expr.
func (p *parser) importStatement(m marker) *ast.Node {
	p.want("import")

	var names []*ast.Node

	for {
		names = append(names, p.plainIdentifier(p.wantName()))

		if !p.got(",") {
			break
		}
	}

	if p.tok.Kind != lexer.Name || p.tok.Value != "from" {
		p.errorf("'from' expected near %s", p.near())
	}

	p.next()
	source := p.expression()

	s := p.current()
	if s.imports == nil {
		s.imports = make(map[string]*ast.Node)
	}

	for _, name := range names {
		delete(s.names, name.Name)
		s.imports[name.Name] = source
	}

	return p.finish(m, p.b.Make(ast.ImportStatement, names, source))
}

func (p *parser) returnStatement() *ast.Node {
	m := p.mark()
	p.want("return")

	args := []*ast.Node{}
	if !p.blockFollow() && !p.tok.Is(";") {
		args = p.expressionList()
	}

	p.got(";")

	return p.finish(m, p.b.Return(args...))
}

func (p *parser) expressionStatement(m marker) *ast.Node {
	expr := p.suffixedExpression()

	switch {
	case p.tok.Is("=") || p.tok.Is(","):
		vars := []*ast.Node{p.checkTarget(expr)}
		for p.got(",") {
			vars = append(vars, p.checkTarget(p.suffixedExpression()))
		}

		p.want("=")
		init := p.expressionList()

		return p.finish(m, p.b.Assign(vars, init))
	case mutationOperators[p.tok.Value] && p.tok.Kind == lexer.Punct:
		op := p.tok.Value
		p.checkTarget(expr)
		p.next()
		value := p.expression()

		return p.finish(m, p.b.Make(ast.MutationStatement, op, expr, value))
	case p.tok.Is("++"):
		p.checkTarget(expr)
		p.next()

		return p.finish(m, p.b.Make(ast.MutationStatement, "++", expr))
	}

	if !isCall(expr) {
		p.errorf("syntax error near %s", p.near())
	}

	return p.finish(m, p.b.CallStmt(expr))
}

// checkTarget rejects anything but an unparenthesized name, field or index.
func (p *parser) checkTarget(expr *ast.Node) *ast.Node {
	valid := false

	switch expr.Kind {
	case ast.Identifier, ast.IndexExpression:
		valid = true
	case ast.MemberExpression:
		valid = expr.Operator == "."
	}

	if !valid || expr.Has(ast.InParens) {
		p.semanticAtNode(expr, "invalid assignment target")
	}

	return expr
}

func isCall(expr *ast.Node) bool {
	if expr.Has(ast.InParens) {
		return false
	}

	switch expr.Kind {
	case ast.CallExpression:
		return true
	case ast.SafeMemberExpression:
		return expr.Operator == "(" || expr.Operator == ":"
	}

	return false
}
