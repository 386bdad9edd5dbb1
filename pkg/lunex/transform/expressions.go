package transform

import (
	"slices"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// template folds the parts of a template string into a right-nested `..`
// chain. Interpolated parts go through tostring.
func (c *compiler) template(p *traverse.Path) error {
	parts := p.Node.List(ast.FieldParts)
	if len(parts) == 0 {
		return c.replace(p, c.b.Str(""))
	}

	var out *ast.Node

	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if part.Kind != ast.StringLiteral {
			part = c.b.CallNamed("tostring", part)
		}

		if out == nil {
			out = part
		} else {
			out = c.b.Binary("..", part, out)
		}
	}

	return c.replace(p, out)
}

// tableSpread rewrites a constructor holding spread fields to a call of
// the table concatenation helper. Runs of plain fields become sub-tables.
func (c *compiler) tableSpread(p *traverse.Path) error {
	fields := p.Node.List(ast.FieldFields)
	if !slices.ContainsFunc(fields, func(f *ast.Node) bool { return f.Kind == ast.SpreadElement }) {
		return nil
	}

	var args, pending []*ast.Node

	flush := func() {
		if len(pending) > 0 {
			args = append(args, c.b.Table(pending...))
			pending = nil
		}
	}

	for _, field := range fields {
		if field.Kind == ast.SpreadElement {
			flush()

			args = append(args, field.Child(ast.FieldArgument))

			continue
		}

		pending = append(pending, field)
	}

	flush()
	c.use(helperConcatTables)

	return c.replace(p, c.b.CallNamed(helperConcatTables, args...))
}

// spread rewrites `...t` outside a constructor to `table.unpack(t)`.
func (c *compiler) spread(p *traverse.Path) error {
	unpack := c.b.Member(c.b.Ident("table"), "unpack")

	return c.replace(p, c.b.Call(unpack, p.Node.Child(ast.FieldArgument)))
}

// safeMember rewrites a safe navigation chain to an `and` chain guarding
// every optional link.
func (c *compiler) safeMember(p *traverse.Path) error {
	guards, last := c.safeTerms(p.Node)

	out := last
	if len(guards) > 0 {
		out = c.andChain(append(guards, last))
		out.Set(ast.InParens)
	}

	return c.replace(p, out)
}

// safeTerms flattens the chain ending at n. It returns the value guarded
// before each optional link and the full access.
func (c *compiler) safeTerms(n *ast.Node) ([]*ast.Node, *ast.Node) {
	var links []*ast.Node

	for n.Kind == ast.SafeMemberExpression {
		links = append(links, n)
		n = n.Child(ast.FieldBase)
	}

	slices.Reverse(links)

	var guards []*ast.Node

	cur := n
	for _, link := range links {
		if link.Has(ast.Optional) {
			guards = append(guards, cur)
			cur = c.clone(cur)
		}

		cur = c.access(cur, link)
	}

	return guards, cur
}

// access applies one link of a safe chain to base.
func (c *compiler) access(base, link *ast.Node) *ast.Node {
	switch link.Operator {
	case ".":
		return c.b.Member(base, link.Child(ast.FieldIdentifier).Name)
	case "[":
		return c.b.Index(base, link.Child(ast.FieldIndex))
	case ":":
		return c.b.Call(c.b.Method(base, link.Child(ast.FieldIdentifier).Name), link.List(ast.FieldArguments)...)
	default:
		return c.b.Call(base, link.List(ast.FieldArguments)...)
	}
}

// nilCoalesce rewrites `a ?? b` to an immediately called function so a is
// evaluated once and b only when a is nil.
func (c *compiler) nilCoalesce(p *traverse.Path) error {
	n := p.Node
	right := n.Child(ast.FieldRight)

	if containsVararg(right) {
		return semantic(n, "cannot use '...' on the right of '??'")
	}

	v := p.Scope().GenerateUID("v")
	fn := c.b.Func([]*ast.Node{c.b.Param(v)},
		c.b.If(c.b.Binary("==", c.b.LocalIdent(v), c.b.Nil()), c.b.Return(right)),
		c.b.Return(c.b.LocalIdent(v)),
	)

	return c.replace(p, c.b.Call(fn, n.Child(ast.FieldLeft)))
}

func containsVararg(n *ast.Node) bool {
	found := false

	n.Walk(func(cur *ast.Node) bool {
		if cur.Kind == ast.VarargLiteral {
			found = true
		}

		return !found && !cur.Is(ast.Function)
	})

	return found
}

// await rewrites `await e` to a call of the await helper.
func (c *compiler) await(p *traverse.Path) error {
	c.use(helperAwait)

	return c.replace(p, c.b.CallNamed(helperAwait, p.Node.Child(ast.FieldArgument)))
}

// straySuper rejects super outside a class body. Class lowering rewrites
// every super it accepts before the traversal reaches it.
func (c *compiler) straySuper(p *traverse.Path) error {
	return semantic(p.Node, "'super' used outside a class method")
}
