package transform

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// parameters moves default values and type annotations into guard
// statements at the top of the function body, in parameter order.
func (c *compiler) parameters(p *traverse.Path) error {
	n := p.Node

	var guards []*ast.Node

	for _, param := range n.List(ast.FieldParameters) {
		if param.Kind != ast.Parameter {
			continue
		}

		name := param.Child(ast.FieldIdentifier).Name

		if def := param.Child(ast.FieldDefault); def != nil {
			isNil := c.b.Binary("==", c.b.LocalIdent(name), c.b.Nil())
			set := c.b.Assign([]*ast.Node{c.b.LocalIdent(name)}, []*ast.Node{def})
			guards = append(guards, c.b.If(isNil, set))

			param.SetChild(ast.FieldDefault, nil)
		}

		if param.Value != "" {
			guards = append(guards, c.typeCheck(p.Scope(), name, param.Value)...)
			param.Value = ""
		}
	}

	if len(guards) == 0 {
		return nil
	}

	c.rewrites++
	n.SetList(ast.FieldBody, append(guards, n.Body()...))

	return nil
}

// typeCheck builds
//
//	local _type = type(name)
//	if _type == "table" and type(name.__type) == "function" then _type = name:__type() end
//	assert(_type == "A" or _type == "B", "bad argument ...")
//
// A class instance reports its class name through __type, so a "table"
// annotation also accepts the raw type.
func (c *compiler) typeCheck(scope *traverse.Scope, name, types string) []*ast.Node {
	tmp := scope.GenerateUID("type")
	ref := func() *ast.Node { return c.b.LocalIdent(tmp) }
	arg := func() *ast.Node { return c.b.LocalIdent(name) }

	local := c.b.LocalNames([]string{tmp}, c.b.CallNamed("type", arg()))

	hasType := c.b.Logical("and",
		c.b.Binary("==", ref(), c.b.Str("table")),
		c.b.Binary("==", c.b.CallNamed("type", c.b.Member(arg(), "__type")), c.b.Str("function")),
	)
	refine := c.b.If(hasType, c.b.Assign([]*ast.Node{ref()}, []*ast.Node{c.b.Call(c.b.Method(arg(), "__type"))}))

	var check *ast.Node

	or := func(term *ast.Node) {
		if check == nil {
			check = term
		} else {
			check = c.b.Logical("or", check, term)
		}
	}

	for t := range strings.SplitSeq(types, "|") {
		or(c.b.Binary("==", ref(), c.b.Str(t)))

		if t == "table" {
			or(c.b.Binary("==", c.b.CallNamed("type", arg()), c.b.Str(t)))
		}
	}

	msg := c.b.Binary("..",
		c.b.Str(fmt.Sprintf("bad argument '%s' (expected %s, got ", name, types)),
		c.b.Binary("..", ref(), c.b.Str(")")),
	)

	return []*ast.Node{local, refine, c.b.CallStmt(c.b.CallNamed("assert", check, msg))}
}

// async wraps the body of an async function:
//
//	return __async(function(...) body end, ...)
func (c *compiler) async(p *traverse.Path) error {
	n := p.Node
	if !n.Has(ast.IsAsync) {
		return nil
	}

	n.Clear(ast.IsAsync)
	c.use(helperAsync)
	c.rewrites++

	var params, args []*ast.Node

	if declared := n.List(ast.FieldParameters); len(declared) > 0 && declared[len(declared)-1].Kind == ast.VarargLiteral {
		params = []*ast.Node{c.b.Vararg()}
		args = []*ast.Node{c.b.Vararg()}
	}

	body := c.b.Func(params, n.Body()...)
	n.SetList(ast.FieldBody, []*ast.Node{c.b.Return(c.b.CallNamed(helperAsync, append([]*ast.Node{body}, args...)...))})

	return nil
}

// arrow rewrites an arrow function to a function expression. Thin arrows
// already carry their self parameter.
func (c *compiler) arrow(p *traverse.Path) error {
	n := p.Node

	fn := c.b.Func(n.List(ast.FieldParameters), n.Body()...)
	fn.Flags = n.Flags &^ ast.ThinArrow

	return c.replace(p, fn)
}
