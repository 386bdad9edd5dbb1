package generator

import (
	"slices"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// Binding power of the plain Lua operators.
var binaryPrecedence = map[string]int{
	"or":  1,
	"and": 2,
	"<":   3, ">": 3, "<=": 3, ">=": 3, "~=": 3, "==": 3,
	"|":  4,
	"~":  5,
	"&":  6,
	"<<": 7, ">>": 7,
	"..": 9,
	"+":  10, "-": 10,
	"*": 11, "/": 11, "//": 11, "%": 11,
	"^": 14,
}

const (
	unaryPrecedence = 12
	atomPrecedence  = 100
)

func rightAssociative(op string) bool { return op == ".." || op == "^" }

func precedence(n *ast.Node) int {
	switch n.Kind {
	case ast.BinaryExpression, ast.LogicalExpression:
		return binaryPrecedence[n.Operator]
	case ast.UnaryExpression:
		return unaryPrecedence
	}

	return atomPrecedence
}

// node dispatches on the node kind.
func (g *generator) node(n *ast.Node) {
	switch n.Kind {
	case ast.Chunk:
		g.statements(n.Body())
	case ast.DoStatement:
		g.word("do")
		g.block(n.Body())
		g.word("end")
	case ast.LocalStatement:
		g.localStatement(n)
	case ast.AssignmentStatement:
		g.list(n.List(ast.FieldVariables))
		g.space()
		g.token("=")
		g.space()
		g.list(n.List(ast.FieldInit))
	case ast.CallStatement:
		g.expr(n.Child(ast.FieldExpression), 0)
	case ast.WhileStatement:
		g.word("while")
		g.space()
		g.expr(n.Child(ast.FieldCondition), 0)
		g.space()
		g.word("do")
		g.block(n.Body())
		g.word("end")
	case ast.RepeatStatement:
		g.word("repeat")
		g.block(n.Body())
		g.word("until")
		g.space()
		g.expr(n.Child(ast.FieldCondition), 0)
	case ast.IfStatement:
		g.ifStatement(n)
	case ast.ForNumericStatement:
		g.forNumeric(n)
	case ast.ForGenericStatement:
		g.word("for")
		g.space()
		g.list(n.List(ast.FieldVariables))
		g.space()
		g.word("in")
		g.space()
		g.list(n.List(ast.FieldIterators))
		g.space()
		g.word("do")
		g.block(n.Body())
		g.word("end")
	case ast.FunctionDeclaration:
		if n.Has(ast.IsLocal) {
			g.word("local")
			g.space()
		}

		g.word("function")
		g.space()
		g.expr(n.Child(ast.FieldIdentifier), 0)
		g.function(n)
	case ast.ReturnStatement:
		g.word("return")

		if args := n.List(ast.FieldArguments); len(args) > 0 {
			g.space()
			g.list(args)
		}
	case ast.BreakStatement:
		g.word("break")
	case ast.GotoStatement:
		g.word("goto")
		g.space()
		g.word(n.Child(ast.FieldLabel).Name)
	case ast.LabelStatement:
		g.token("::")
		g.word(n.Child(ast.FieldLabel).Name)
		g.token("::")
	default:
		g.exprInner(n)
	}
}

func (g *generator) localStatement(n *ast.Node) {
	g.word("local")
	g.space()

	for i, v := range n.List(ast.FieldVariables) {
		if i > 0 {
			g.token(",")
			g.space()
		}

		g.word(v.Name)

		if v.Value != "" {
			g.space()
			g.token("<")
			g.word(v.Value)
			g.token(">")
		}
	}

	if init := n.List(ast.FieldInit); len(init) > 0 {
		g.space()
		g.token("=")
		g.space()
		g.list(init)
	}
}

func (g *generator) ifStatement(n *ast.Node) {
	for _, clause := range n.List(ast.FieldClauses) {
		switch clause.Kind {
		case ast.IfClause, ast.ElseifClause:
			if clause.Kind == ast.IfClause {
				g.word("if")
			} else {
				g.word("elseif")
			}

			g.space()
			g.expr(clause.Child(ast.FieldCondition), 0)
			g.space()
			g.word("then")
		case ast.ElseClause:
			g.word("else")
		default:
			panic(unlowered{clause})
		}

		g.block(clause.Body())
	}

	g.word("end")
}

func (g *generator) forNumeric(n *ast.Node) {
	g.word("for")
	g.space()
	g.word(n.Child(ast.FieldVariable).Name)
	g.space()
	g.token("=")
	g.space()
	g.expr(n.Child(ast.FieldStart), 0)
	g.token(",")
	g.space()
	g.expr(n.Child(ast.FieldEnd), 0)

	if step := n.Child(ast.FieldStep); step != nil {
		g.token(",")
		g.space()
		g.expr(step, 0)
	}

	g.space()
	g.word("do")
	g.block(n.Body())
	g.word("end")
}

// function prints `(params) body end` of a function node.
func (g *generator) function(n *ast.Node) {
	g.token("(")

	for i, param := range n.List(ast.FieldParameters) {
		if i > 0 {
			g.token(",")
			g.space()
		}

		switch param.Kind {
		case ast.Parameter:
			g.word(param.Child(ast.FieldIdentifier).Name)
		case ast.VarargLiteral:
			g.token("...")
		case ast.Identifier:
			g.word(param.Name)
		default:
			panic(unlowered{param})
		}
	}

	g.token(")")
	g.block(n.Body())
	g.word("end")
}

func (g *generator) list(nodes []*ast.Node) {
	for i, n := range nodes {
		if i > 0 {
			g.token(",")
			g.space()
		}

		g.expr(n, 0)
	}
}

// ----------------------------------------------------------------------------
// Expressions

// expr prints n, parenthesized when the source had parentheses or when it
// binds weaker than minimum.
func (g *generator) expr(n *ast.Node, minimum int) {
	parens := n.Has(ast.InParens) || precedence(n) < minimum
	if parens {
		g.token("(")
	}

	g.exprInner(n)

	if parens {
		g.token(")")
	}
}

// prefix prints the base of a member, index or call, which Lua restricts
// to names, accesses, calls and parenthesized expressions.
func (g *generator) prefix(n *ast.Node) {
	switch n.Kind {
	case ast.Identifier, ast.MemberExpression, ast.IndexExpression, ast.CallExpression:
		g.expr(n, 0)

		return
	}

	if n.Has(ast.InParens) {
		g.expr(n, 0)

		return
	}

	g.token("(")
	g.expr(n, 0)
	g.token(")")
}

func (g *generator) exprInner(n *ast.Node) {
	switch n.Kind {
	case ast.Identifier:
		g.word(n.Name)
	case ast.StringLiteral:
		raw := n.Raw
		if raw == "" {
			raw = ast.QuoteString(n.Value)
		}

		g.word(raw)
	case ast.NumericLiteral:
		raw := n.Raw
		if raw == "" {
			raw = n.Value
		}

		g.word(raw)
	case ast.BooleanLiteral:
		g.word(n.Value)
	case ast.NilLiteral:
		g.word("nil")
	case ast.VarargLiteral:
		g.token("...")
	case ast.FunctionExpression:
		g.word("function")
		g.function(n)
	case ast.TableConstructorExpression:
		g.table(n)
	case ast.BinaryExpression, ast.LogicalExpression:
		g.binary(n)
	case ast.UnaryExpression:
		if n.Operator == "not" {
			g.word("not")
			g.space()
		} else {
			g.token(n.Operator)
		}

		g.expr(n.Child(ast.FieldArgument), unaryPrecedence)
	case ast.MemberExpression:
		g.prefix(n.Child(ast.FieldBase))
		g.token(n.Operator)
		g.word(n.Child(ast.FieldIdentifier).Name)
	case ast.IndexExpression:
		g.prefix(n.Child(ast.FieldBase))
		g.token("[")
		g.expr(n.Child(ast.FieldIndex), 0)
		g.token("]")
	case ast.CallExpression:
		g.call(n)
	default:
		panic(unlowered{n})
	}
}

func (g *generator) binary(n *ast.Node) {
	op := n.Operator
	prec := binaryPrecedence[op]

	left, right := prec, prec+1
	if rightAssociative(op) {
		left, right = prec+1, prec
	}

	g.expr(n.Child(ast.FieldLeft), left)
	g.space()

	if op == "and" || op == "or" {
		g.word(op)
	} else {
		g.token(op)
	}

	g.space()
	g.expr(n.Child(ast.FieldRight), right)
}

func (g *generator) call(n *ast.Node) {
	g.prefix(n.Child(ast.FieldBase))

	args := n.List(ast.FieldArguments)

	if len(args) == 1 && !args[0].Has(ast.InParens) {
		switch {
		case n.Operator == "{" && args[0].Kind == ast.TableConstructorExpression:
			g.space()
			g.table(args[0])

			return
		case n.Operator == "\"" && args[0].Kind == ast.StringLiteral:
			g.space()
			g.exprInner(args[0])

			return
		}
	}

	g.token("(")
	g.list(args)
	g.token(")")
}

// table prints a constructor on one line, or one field per line when the
// source constructor spanned several lines or a synthetic one holds
// function values.
func (g *generator) table(n *ast.Node) {
	fields := n.List(ast.FieldFields)
	if len(fields) == 0 {
		g.token("{}")

		return
	}

	g.token("{")

	if SpansLines(n) || n.Loc == nil && slices.ContainsFunc(fields, holdsFunction) {
		g.indentIn()

		for _, field := range fields {
			g.newline(1)
			g.tableField(field)
			g.token(",")
		}

		g.dedent()
		g.newline(1)
	} else {
		for i, field := range fields {
			if i > 0 {
				g.token(",")
				g.space()
			}

			g.tableField(field)
		}
	}

	g.token("}")
}

func (g *generator) tableField(n *ast.Node) {
	switch n.Kind {
	case ast.TableKey:
		g.token("[")
		g.expr(n.Child(ast.FieldKey), 0)
		g.token("]")
	case ast.TableKeyString:
		g.word(n.Child(ast.FieldKey).Name)
	case ast.TableValue:
		g.expr(n.Child(ast.FieldValue), 0)

		return
	default:
		panic(unlowered{n})
	}

	g.space()
	g.token("=")
	g.space()
	g.expr(n.Child(ast.FieldValue), 0)
}

func holdsFunction(field *ast.Node) bool {
	value := field.Child(ast.FieldValue)

	return value != nil && value.Kind == ast.FunctionExpression
}
