package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

func TestRegistryChildFieldsOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]ast.Field{ast.FieldVariable, ast.FieldStart, ast.FieldEnd, ast.FieldStep, ast.FieldBody},
		ast.ChildFields(ast.ForNumericStatement))
	assert.Equal(t, []ast.Field{ast.FieldBody, ast.FieldCondition}, ast.ChildFields(ast.RepeatStatement))
	assert.Equal(t, []ast.Field{ast.FieldCondition, ast.FieldBody}, ast.ConstructorFields(ast.RepeatStatement))
}

func TestEveryKindIsDefined(t *testing.T) {
	t.Parallel()

	for _, kind := range ast.AllKinds() {
		assert.True(t, ast.Defined(kind), kind.String())

		_, clash := ast.GroupByName(kind.String())
		assert.False(t, clash, kind.String())
	}
}

func TestGroups(t *testing.T) {
	t.Parallel()

	assert.True(t, ast.WhileStatement.Is(ast.Loop))
	assert.True(t, ast.WhileStatement.Is(ast.Scopable))
	assert.False(t, ast.Identifier.Is(ast.Statement))
	assert.True(t, ast.SpreadElement.Is(ast.Expression))
	assert.True(t, ast.SpreadElement.Is(ast.TableElement))

	loops := ast.KindsIn(ast.Loop)
	assert.ElementsMatch(t, []ast.Kind{
		ast.WhileStatement, ast.RepeatStatement, ast.ForNumericStatement,
		ast.ForGenericStatement, ast.ForOfStatement,
	}, loops)

	both := ast.KindsIn(ast.Loop | ast.Clause)
	assert.Len(t, both, len(loops)+3)

	group, ok := ast.GroupByName("Expression")
	require.True(t, ok)
	assert.Equal(t, ast.Expression, group)
	assert.Equal(t, "Statement|Declaration", (ast.Statement | ast.Declaration).String())
}

func TestBuildAssignsConstructorFields(t *testing.T) {
	t.Parallel()

	arena := ast.NewArena()
	left, err := ast.Build(arena, ast.Identifier, "x")
	require.NoError(t, err)

	right, err := ast.Build(arena, ast.NumericLiteral, "1", "1")
	require.NoError(t, err)

	bin, err := ast.Build(arena, ast.BinaryExpression, "+", left, right)
	require.NoError(t, err)

	assert.Equal(t, "+", bin.Operator)
	assert.Same(t, left, bin.Child(ast.FieldLeft))
	assert.Same(t, right, bin.Child(ast.FieldRight))
	assert.Equal(t, []*ast.Node{left, right}, bin.Children())
	assert.Equal(t, ast.NodeID(2), bin.ID)
	assert.Same(t, bin, arena.Get(bin.ID))
}

func TestBuildRejectsExtraArguments(t *testing.T) {
	t.Parallel()

	_, err := ast.Build(ast.NewArena(), ast.Identifier, "x", "y")
	require.ErrorIs(t, err, ast.ErrArity)

	_, err = ast.Build(ast.NewArena(), ast.BreakStatement, nil)
	require.ErrorIs(t, err, ast.ErrArity)
}

func TestBuildRejectsWrongArgumentType(t *testing.T) {
	t.Parallel()

	_, err := ast.Build(ast.NewArena(), ast.Identifier, 42)
	require.ErrorIs(t, err, ast.ErrArgument)

	_, err = ast.Build(ast.NewArena(), ast.ReturnStatement, "x")
	require.ErrorIs(t, err, ast.ErrArgument)
}

func TestBuildReorderedConstructor(t *testing.T) {
	t.Parallel()

	b := ast.NewBuilder(ast.NewArena())
	cond := b.Bool(true)
	body := []*ast.Node{b.Break()}
	rep := b.Make(ast.RepeatStatement, cond, body)

	assert.Same(t, cond, rep.Child(ast.FieldCondition))
	assert.Equal(t, body, rep.Body())
	assert.Equal(t, []*ast.Node{body[0], cond}, rep.Children())
}

func TestNodeListEditing(t *testing.T) {
	t.Parallel()

	b := ast.NewBuilder(ast.NewArena())
	chunk := b.Make(ast.Chunk, []*ast.Node{b.Break()})
	first := b.Label("top")

	chunk.Prepend(ast.FieldBody, first)
	chunk.Append(ast.FieldBody, b.Goto("top"))

	kinds := make([]ast.Kind, 0, 3)
	for _, stmt := range chunk.Body() {
		kinds = append(kinds, stmt.Kind)
	}

	assert.Equal(t, []ast.Kind{ast.LabelStatement, ast.BreakStatement, ast.GotoStatement}, kinds)
	assert.Panics(t, func() { chunk.SetChild(ast.FieldBody, first) })
	assert.Nil(t, chunk.Child(ast.FieldCondition))
}

func TestArenaClone(t *testing.T) {
	t.Parallel()

	arena := ast.NewArena()
	b := ast.NewBuilder(arena)
	orig := b.Member(b.Index(b.Ident("a"), b.Str("k")), "b")
	orig.Set(ast.InParens)

	clone := arena.Clone(orig)
	require.NotSame(t, orig, clone)
	assert.NotEqual(t, orig.ID, clone.ID)
	assert.True(t, clone.Has(ast.InParens))
	assert.Equal(t, ".", clone.Operator)

	base := clone.Child(ast.FieldBase)
	require.NotNil(t, base)
	assert.NotSame(t, orig.Child(ast.FieldBase), base)
	assert.Equal(t, `"k"`, base.Child(ast.FieldIndex).Raw)
}

func TestQuoteString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"a\"b\\c\n"`, ast.QuoteString("a\"b\\c\n"))
	assert.Equal(t, `"\0001"`, ast.QuoteString("\x001"))
	assert.Equal(t, `"héllo"`, ast.QuoteString("héllo"))
}

func TestToMap(t *testing.T) {
	t.Parallel()

	b := ast.NewBuilder(ast.NewArena())
	stmt := b.Local([]*ast.Node{b.LocalIdent("x")}, []*ast.Node{b.Int(1)})

	dump := ast.ToMap(stmt)
	assert.Equal(t, "LocalStatement", dump["type"])

	vars, ok := dump["variables"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, vars, 1)
	assert.Equal(t, "x", vars[0]["name"])
	assert.Equal(t, []string{"isLocal"}, vars[0]["flags"])
}
