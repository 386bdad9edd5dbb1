package traverse_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/parser"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

func newContext(t *testing.T, src string) *traverse.Context {
	t.Helper()

	arena := ast.NewArena()

	chunk, _, err := parser.Parse(src, parser.Options{Arena: arena})
	require.NoError(t, err)

	return traverse.NewContext(arena, chunk)
}

// names walks the tree and records identifier names in visit order.
func names(t *testing.T, ctx *traverse.Context) []string {
	t.Helper()

	var out []string

	v := traverse.NewVisitors()
	require.NoError(t, v.On("Identifier", func(p *traverse.Path) error {
		out = append(out, p.Node.Name)

		return nil
	}))
	require.NoError(t, traverse.Traverse(ctx, ctx.Root(), v))

	return out
}

// first returns the path of the first node of kind in walk order.
func first(t *testing.T, ctx *traverse.Context, kind ast.Kind) *traverse.Path {
	t.Helper()

	var found *traverse.Path

	v := traverse.NewVisitors()
	require.NoError(t, v.On(kind.String(), func(p *traverse.Path) error {
		found = p
		p.Stop()

		return nil
	}))
	require.NoError(t, traverse.Traverse(ctx, ctx.Root(), v))
	require.NotNil(t, found, "no %s in tree", kind)

	return found
}

func TestExpandKey(t *testing.T) {
	t.Parallel()

	kinds, err := traverse.ExpandKey("Identifier|Loop|WhileStatement")
	require.NoError(t, err)

	assert.Equal(t, ast.Identifier, kinds[0])
	assert.Contains(t, kinds, ast.WhileStatement)
	assert.Contains(t, kinds, ast.RepeatStatement)
	assert.Contains(t, kinds, ast.ForOfStatement)

	count := 0

	for _, kind := range kinds {
		if kind == ast.WhileStatement {
			count++
		}
	}

	assert.Equal(t, 1, count)

	_, err = traverse.ExpandKey("Identifier|Bogus")
	require.ErrorIs(t, err, traverse.ErrUnknownVisitorKey)
}

func TestTraverseOrder(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "local a = b + c\nf(a)")
	assert.Equal(t, []string{"a", "b", "c", "f", "a"}, names(t, ctx))
}

func TestTraverseEnterExit(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "do x() end")

	var events []string

	v := traverse.NewVisitors()
	require.NoError(t, v.Add("DoStatement|CallStatement", traverse.Hooks{
		Enter: func(p *traverse.Path) error {
			events = append(events, "enter "+p.Kind().String())

			return nil
		},
		Exit: func(p *traverse.Path) error {
			events = append(events, "exit "+p.Kind().String())

			return nil
		},
	}))
	require.NoError(t, traverse.Traverse(ctx, ctx.Root(), v))

	assert.Equal(t, []string{
		"enter DoStatement",
		"enter CallStatement",
		"exit CallStatement",
		"exit DoStatement",
	}, events)
}

func TestTraverseSkipAndStop(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "a()\nlocal f = function() b() end\nc()\nd()")

	var seen []string

	v := traverse.NewVisitors()
	require.NoError(t, v.On("FunctionExpression", func(p *traverse.Path) error {
		p.Skip()

		return nil
	}))
	require.NoError(t, v.On("Identifier", func(p *traverse.Path) error {
		seen = append(seen, p.Node.Name)
		if p.Node.Name == "c" {
			p.Stop()
		}

		return nil
	}))
	require.NoError(t, traverse.Traverse(ctx, ctx.Root(), v))

	assert.Equal(t, []string{"a", "f", "c"}, seen)
}

func TestTraverseHandlerError(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "a()\nb()")
	boom := errors.New("boom")

	v := traverse.NewVisitors()
	require.NoError(t, v.On("Identifier", func(*traverse.Path) error { return boom }))

	err := traverse.Traverse(ctx, ctx.Root(), v)
	require.ErrorIs(t, err, boom)
}

func TestInsertedNodesAreVisited(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "f()\nh()")
	b := ctx.Builder

	var seen []string

	v := traverse.NewVisitors()
	require.NoError(t, v.On("CallStatement", func(p *traverse.Path) error {
		base := p.Node.Child(ast.FieldExpression).Child(ast.FieldBase)
		if base.Name != "f" {
			return nil
		}

		_, err := p.InsertAfter(b.CallStmt(b.CallNamed("g")))

		return err
	}))
	require.NoError(t, v.On("Identifier", func(p *traverse.Path) error {
		seen = append(seen, p.Node.Name)

		return nil
	}))
	require.NoError(t, traverse.Traverse(ctx, ctx.Root(), v))

	assert.Equal(t, []string{"f", "g", "h"}, seen)
	assert.Len(t, ctx.Root().Node.Body(), 3)
}

func TestReplaceWithRequeues(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "print(x)")
	b := ctx.Builder

	v := traverse.NewVisitors()
	require.NoError(t, v.On("Identifier", func(p *traverse.Path) error {
		if p.Node.Name == "x" {
			return p.ReplaceWith(b.Ident("y"))
		}

		return nil
	}))
	require.NoError(t, traverse.Traverse(ctx, ctx.Root(), v))

	assert.Equal(t, []string{"print", "y"}, names(t, ctx))
}

func TestReplaceWithMultipleShiftsSiblings(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "a()\nb()\nc()")
	b := ctx.Builder
	root := ctx.Root()

	stmts := root.GetList(ast.FieldBody)
	require.Len(t, stmts, 3)

	last := stmts[2]

	paths, err := stmts[1].ReplaceWithMultiple([]*ast.Node{
		b.CallStmt(b.CallNamed("x")),
		b.CallStmt(b.CallNamed("y")),
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, 2, paths[1].Index)
	assert.Equal(t, 3, last.Index)
	assert.Equal(t, []string{"a", "x", "y", "c"}, names(t, ctx))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "a()\nb()\nc()")
	stmts := ctx.Root().GetList(ast.FieldBody)

	require.NoError(t, stmts[0].Remove())
	assert.True(t, stmts[0].Removed)
	assert.Equal(t, 0, stmts[1].Index)
	assert.Equal(t, 1, stmts[2].Index)

	err := stmts[0].Remove()
	require.ErrorIs(t, err, traverse.ErrPathRemoved)

	assert.Equal(t, []string{"b", "c"}, names(t, ctx))
}

func TestRemovalHooks(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "while x do end\nrepeat until w\nif y then end\nz()")

	loop := first(t, ctx, ast.WhileStatement)
	require.NoError(t, loop.Get(ast.FieldCondition).Remove())

	until := first(t, ctx, ast.RepeatStatement).Get(ast.FieldCondition)
	require.NoError(t, until.Remove())
	assert.True(t, until.Removed)
	require.Len(t, ctx.Root().Node.Body(), 2)

	clause := first(t, ctx, ast.IfClause)
	require.NoError(t, clause.Remove())

	call := first(t, ctx, ast.CallExpression)
	require.NoError(t, call.Remove())

	assert.Empty(t, ctx.Root().Node.Body())
}

func TestReplaceWithRejects(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "a()")
	b := ctx.Builder

	err := ctx.Root().ReplaceWith(b.Ident("x"))
	require.ErrorIs(t, err, traverse.ErrReplaceRoot)

	stmt := ctx.Root().GetList(ast.FieldBody)[0]

	err = stmt.ReplaceWith(b.Ident("x"))
	require.ErrorIs(t, err, traverse.ErrStatementToExpression)

	err = stmt.ReplaceWith(nil)
	require.ErrorIs(t, err, traverse.ErrNilNode)

	_, err = stmt.Get(ast.FieldExpression).InsertAfter(b.Ident("x"))
	require.ErrorIs(t, err, traverse.ErrNotInList)
}

func TestPathsAreCached(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "a()")
	root := ctx.Root()

	assert.Same(t, root, ctx.Root())
	assert.Same(t, root.GetList(ast.FieldBody)[0], root.GetList(ast.FieldBody)[0])
}

func TestScopeBindings(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "local a = 1\nprint(a)\nlocal function f(p)\n  a = p\n  return q\nend")

	program := ctx.Root().Scope()
	require.NotNil(t, program)

	a := program.GetBinding("a")
	require.NotNil(t, a)
	assert.Equal(t, traverse.BindingLocal, a.Kind)
	assert.Equal(t, 1, a.References())
	assert.True(t, a.Constant)

	f := program.GetBinding("f")
	require.NotNil(t, f)
	assert.Equal(t, traverse.BindingLocal, f.Kind)

	fn := first(t, ctx, ast.FunctionDeclaration)
	inner := fn.Scope()
	require.NotNil(t, inner)
	assert.Same(t, program, inner.Parent)

	p := inner.GetBinding("p")
	require.NotNil(t, p)
	assert.Equal(t, traverse.BindingParam, p.Kind)
	assert.Equal(t, 1, p.References())

	assert.False(t, inner.HasOwnBinding("a"))
	assert.True(t, inner.HasBinding("a"))
	assert.False(t, a.Constant)
	assert.Len(t, a.ConstantViolations, 1)

	assert.Contains(t, program.Globals, "print")
	assert.Contains(t, program.Globals, "q")
}

func TestLoopVariablesAreVars(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "for i = 1, n do end\nfor k, v in pairs(t) do end\nlocal function f(a) end")

	numeric := first(t, ctx, ast.ForNumericStatement).Scope()
	assert.Equal(t, traverse.BindingVar, numeric.GetBinding("i").Kind)
	assert.False(t, numeric.HasOwnBinding("n"))

	generic := first(t, ctx, ast.ForGenericStatement).Scope()
	require.True(t, generic.HasOwnBinding("k"))
	require.True(t, generic.HasOwnBinding("v"))
	assert.Equal(t, traverse.BindingVar, generic.GetBinding("k").Kind)
	assert.Equal(t, traverse.BindingVar, generic.GetBinding("v").Kind)
	assert.Equal(t, "var", traverse.BindingVar.String())

	fn := first(t, ctx, ast.FunctionDeclaration).Scope()
	assert.Equal(t, traverse.BindingParam, fn.GetBinding("a").Kind)
}

func TestGenerateUID(t *testing.T) {
	t.Parallel()

	ctx := newContext(t, "local _ref = 1\n::_tmp::")
	scope := ctx.Root().Scope()

	assert.Equal(t, "_ref1", scope.GenerateUID("ref"))
	assert.Equal(t, "_ref2", scope.GenerateUID("_ref"))
	assert.Equal(t, "_tmp1", scope.GenerateUID("tmp"))
	assert.Equal(t, "_base", scope.GenerateUID("base"))

	nested := first(t, ctx, ast.LocalStatement).Scope()
	assert.Equal(t, "_ref3", nested.GenerateUID("ref"))
}
