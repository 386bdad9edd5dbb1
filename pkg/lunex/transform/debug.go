package transform

import (
	"fmt"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// debugRangeName holds the source range of the last entered block.
const debugRangeName = "_debug_range"

// debugRange prepends `_debug_range = "L:C-L:C"` to the body of a source
// block. Synthetic blocks have no range and are left alone.
func (c *compiler) debugRange(p *traverse.Path) error {
	n := p.Node
	if n.Loc == nil || c.instrumented[n.ID] {
		return nil
	}

	c.instrumented[n.ID] = true
	c.rewrites++

	loc := n.Loc
	text := fmt.Sprintf("%d:%d-%d:%d", loc.StartLine, loc.StartCol, loc.EndLine, loc.EndCol)

	n.Prepend(ast.FieldBody, c.b.Assign([]*ast.Node{c.b.Ident(debugRangeName)}, []*ast.Node{c.b.Str(text)}))

	return nil
}

// wrapDebug runs the chunk body under xpcall:
//
//	local _debug_range
//	local _ok, _err = xpcall(function(...) body end, function(err)
//	  return tostring(err) .. " [" .. tostring(_debug_range) .. "]"
//	end, ...)
//	if not _ok then error(_err, 0) end
//
// Values returned by the chunk are dropped.
func (c *compiler) wrapDebug() {
	root := c.ctx.Root()
	scope := root.Scope()
	ok, errName := scope.GenerateUID("ok"), scope.GenerateUID("err")

	body := c.b.Func([]*ast.Node{c.b.Vararg()}, root.Node.Body()...)

	message := c.b.Binary("..", c.b.CallNamed("tostring", c.b.LocalIdent("err")),
		c.b.Binary("..", c.b.Str(" ["),
			c.b.Binary("..", c.b.CallNamed("tostring", c.b.LocalIdent(debugRangeName)), c.b.Str("]"))))
	handler := c.b.Func([]*ast.Node{c.b.Param("err")}, c.b.Return(message))

	root.Node.SetList(ast.FieldBody, []*ast.Node{
		c.b.LocalNames([]string{debugRangeName}),
		c.b.LocalNames([]string{ok, errName}, c.b.CallNamed("xpcall", body, handler, c.b.Vararg())),
		c.b.If(c.b.Unary("not", c.b.LocalIdent(ok)),
			c.b.CallStmt(c.b.CallNamed("error", c.b.LocalIdent(errName), c.b.Int(0)))),
	})
}
