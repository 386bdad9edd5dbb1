package transform

import (
	"fmt"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// mutationOperators maps a mutation operator to its binary operator.
var mutationOperators = map[string]string{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"/=":  "/",
	"%=":  "%",
	"..=": "..",
	"||=": "or",
	"++":  "+",
}

// mutation rewrites `t op= v` to `t = t op v` and `t++` to `t = t + 1`.
func (c *compiler) mutation(p *traverse.Path) error {
	n := p.Node

	op, ok := mutationOperators[n.Operator]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, n.Operator)
	}

	target := n.Child(ast.FieldVariable)

	value := n.Child(ast.FieldValue)
	if n.Operator == "++" {
		value = c.b.Int(1)
	}

	var expr *ast.Node
	if op == "or" {
		expr = c.b.Logical(op, c.clone(target), value)
	} else {
		expr = c.b.Binary(op, c.clone(target), value)
	}

	return c.replace(p, c.b.Assign([]*ast.Node{target}, []*ast.Node{expr}))
}

// forOf rewrites `for k, v of t` to `for k, v in pairs(t)`.
func (c *compiler) forOf(p *traverse.Path) error {
	n := p.Node
	iter := c.b.CallNamed("pairs", n.List(ast.FieldIterators)...)

	return c.replace(p, c.b.Make(ast.ForGenericStatement, n.List(ast.FieldVariables), []*ast.Node{iter}, n.Body()))
}

// destructuring rewrites `local {a, b} = v` to a nil-checked pair of
// member reads. A non-name initializer is stored in a temporary first so it
// is evaluated once.
func (c *compiler) destructuring(p *traverse.Path) error {
	n := p.Node
	value := n.Child(ast.FieldValue)

	var out []*ast.Node

	base := value
	if value.Kind != ast.Identifier || value.Has(ast.InParens) {
		tmp := p.Scope().GenerateUID("ref")
		out = append(out, c.b.LocalNames([]string{tmp}, value))
		base = c.b.LocalIdent(tmp)
	}

	check := c.b.Binary("~=", c.clone(base), c.b.Nil())
	out = append(out, c.b.CallStmt(c.b.CallNamed("assert", check, c.b.Str("cannot destructure nil value"))))

	names := n.List(ast.FieldNames)
	values := make([]*ast.Node, len(names))

	for i, name := range names {
		values[i] = c.b.Member(c.clone(base), name.Name)
	}

	if n.Has(ast.IsLocal) {
		out = append(out, c.b.Local(names, values))
	} else {
		out = append(out, c.b.Assign(names, values))
	}

	return c.replaceMany(p, out)
}

// shortcut rewrites stopif, breakif and continueif to a guarded statement.
func (c *compiler) shortcut(p *traverse.Path) error {
	n := p.Node

	var action *ast.Node

	switch n.Kind {
	case ast.StopIfStatement:
		action = c.b.Return()
	case ast.BreakIfStatement:
		action = c.b.Break()
	default:
		action = c.b.Make(ast.ContinueStatement)
	}

	return c.replace(p, c.b.If(c.andChain(n.List(ast.FieldArguments)), action))
}

// continueLabel appends a continue label to a loop body that holds a
// continue for this loop. A repeat body is wrapped in a block first so the
// goto does not jump into the scope of a body local; the until condition
// then no longer sees those locals, so reading one is an error.
func (c *compiler) continueLabel(p *traverse.Path) error {
	n := p.Node
	if _, done := c.continueLabels[n.ID]; done || !hasContinue(n.Body()) {
		return nil
	}

	body := n.Body()
	if n.Kind == ast.RepeatStatement {
		if err := untilReadsBodyLocal(p); err != nil {
			return err
		}

		body = []*ast.Node{c.b.Do(body...)}
	}

	label := p.Scope().GenerateUID("continue")
	c.continueLabels[n.ID] = label

	n.SetList(ast.FieldBody, append(append([]*ast.Node{}, body...), c.b.Label(label)))

	return nil
}

// untilReadsBodyLocal reports a read of a repeat body local in the until
// condition of the repeat statement p.
func untilReadsBodyLocal(p *traverse.Path) error {
	cond := p.Node.Child(ast.FieldCondition)
	if cond == nil {
		return nil
	}

	scope := p.Scope()

	var err error

	cond.Walk(func(n *ast.Node) bool {
		if err != nil {
			return false
		}

		if n.Kind != ast.Identifier {
			return true
		}

		b, ok := scope.Bindings[n.Name]
		if !ok {
			return true
		}

		for _, ref := range b.ReferencePaths {
			if ref.Node == n {
				err = semantic(n, "'until' cannot read local '%s' of a repeat body that uses 'continue'", n.Name)

				return false
			}
		}

		return true
	})

	return err
}

// hasContinue reports whether list holds a continue that belongs to the
// loop owning list.
func hasContinue(list []*ast.Node) bool {
	found := false

	for _, stmt := range list {
		stmt.Walk(func(n *ast.Node) bool {
			switch {
			case found:
				return false
			case n.Kind == ast.ContinueStatement, n.Kind == ast.ContinueIfStatement:
				found = true

				return false
			case n.Is(ast.Loop), n.Is(ast.Function), n.Kind == ast.ClassDeclaration:
				return false
			}

			return true
		})
	}

	return found
}

func (c *compiler) continueStatement(p *traverse.Path) error {
	loop := p.FindParent(func(cur *traverse.Path) bool { return cur.Is(ast.Loop) })
	if loop == nil {
		return semantic(p.Node, "'continue' outside a loop")
	}

	label, ok := c.continueLabels[loop.Node.ID]
	if !ok {
		return semantic(p.Node, "'continue' outside a loop")
	}

	return c.replace(p, c.b.Goto(label))
}

// throw rewrites `throw e` to `error(e)`.
func (c *compiler) throw(p *traverse.Path) error {
	return c.replace(p, c.b.CallStmt(c.b.CallNamed("error", p.Node.Child(ast.FieldArgument))))
}

// importStatement drops the statement. Uses of the imported names were
// rewritten to member reads when they were parsed.
func (c *compiler) importStatement(p *traverse.Path) error {
	c.rewrites++

	return p.Remove()
}

// safeCallStatement rewrites a statement-level safe call chain to a guarded
// call, since a bare `and` chain is not a statement.
func (c *compiler) safeCallStatement(p *traverse.Path) error {
	expr := p.Node.Child(ast.FieldExpression)
	if expr.Kind != ast.SafeMemberExpression {
		return nil
	}

	guards, last := c.safeTerms(expr)
	if len(guards) == 0 {
		return c.replace(p, c.b.CallStmt(last))
	}

	return c.replace(p, c.b.If(c.andChain(guards), c.b.CallStmt(last)))
}
