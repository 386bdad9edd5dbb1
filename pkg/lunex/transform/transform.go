// Package transform lowers every dialect construct of a parsed chunk to
// plain Lua.
//
// Lowering is one traversal over a fixed rule table. Rules are keyed by node
// kind or group, run on enter, and replace the node they match; the engine
// requeues replacements so nested dialect constructs are reached no matter
// which rule produced them. Runtime helpers referenced by the lowered code
// are prepended to the chunk after the traversal.
package transform

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// ErrUnknownOperator is returned for a mutation operator without a plain form.
var ErrUnknownOperator = errors.New("unknown mutation operator")

// Options configures a lowering.
type Options struct {
	// Debug instruments blocks with their source ranges and runs the chunk
	// under an error handler that reports the last entered range.
	Debug bool
}

// Stats summarizes what a lowering did.
type Stats struct {
	Rewrites int
	Helpers  []string
}

// rule is one entry of the rule table.
type rule struct {
	key   string
	enter func(c *compiler, p *traverse.Path) error
}

// rules is applied in order; handlers registered for the same kind run in
// table order. ForOf is rewritten before the loop rules see it so a loop is
// labelled once.
var rules = []rule{
	{"ForOfStatement", (*compiler).forOf},
	{"Loop", (*compiler).continueLabel},
	{"ContinueStatement", (*compiler).continueStatement},
	{"StopIfStatement|BreakIfStatement|ContinueIfStatement", (*compiler).shortcut},
	{"MutationStatement", (*compiler).mutation},
	{"DestructuringStatement", (*compiler).destructuring},
	{"ThrowStatement", (*compiler).throw},
	{"ImportStatement", (*compiler).importStatement},
	{"CallStatement", (*compiler).safeCallStatement},
	{"ClassDeclaration", (*compiler).class},
	{"Function", (*compiler).parameters},
	{"Function", (*compiler).async},
	{"ArrowFunctionExpression", (*compiler).arrow},
	{"TemplateString", (*compiler).template},
	{"TableConstructorExpression", (*compiler).tableSpread},
	{"SpreadElement", (*compiler).spread},
	{"SafeMemberExpression", (*compiler).safeMember},
	{"NilCoalesceExpression", (*compiler).nilCoalesce},
	{"AwaitExpression", (*compiler).await},
	{"SuperExpression", (*compiler).straySuper},
}

var debugRule = rule{"IfClause|ElseifClause|ElseClause|WhileStatement|DoStatement", (*compiler).debugRange}

// compiler is the per-lowering state.
type compiler struct {
	ctx  *traverse.Context
	b    *ast.Builder
	opts Options

	helpers        map[string]bool
	continueLabels map[ast.NodeID]string
	instrumented   map[ast.NodeID]bool
	rewrites       int
}

// Compile lowers the tree owned by tctx in place. The lowered root is
// tctx.Root().Node afterwards.
func Compile(tctx *traverse.Context, opts Options) (Stats, error) {
	c := &compiler{
		ctx:            tctx,
		b:              tctx.Builder,
		opts:           opts,
		helpers:        make(map[string]bool),
		continueLabels: make(map[ast.NodeID]string),
		instrumented:   make(map[ast.NodeID]bool),
	}

	visitors, err := c.visitors()
	if err != nil {
		return Stats{}, err
	}

	if err := traverse.Traverse(tctx, tctx.Root(), visitors); err != nil {
		return Stats{}, err
	}

	if opts.Debug {
		c.wrapDebug()
	}

	used, err := c.materializeHelpers()
	if err != nil {
		return Stats{}, err
	}

	return Stats{Rewrites: c.rewrites, Helpers: used}, nil
}

func (c *compiler) visitors() (*traverse.Visitors, error) {
	table := rules
	if c.opts.Debug {
		table = append(append([]rule{}, rules...), debugRule)
	}

	v := traverse.NewVisitors()

	for _, r := range table {
		enter := r.enter
		if err := v.On(r.key, func(p *traverse.Path) error { return enter(c, p) }); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.key, err)
		}
	}

	return v, nil
}

// replace swaps the path's node for n. Statements inherit the source range
// of the node they replace so blank lines survive; expressions inherit the
// source parentheses.
func (c *compiler) replace(p *traverse.Path, n *ast.Node) error {
	inherit(n, p.Node)
	c.rewrites++

	return p.ReplaceWith(n)
}

func (c *compiler) replaceMany(p *traverse.Path, nodes []*ast.Node) error {
	if len(nodes) > 0 {
		inherit(nodes[0], p.Node)
	}

	c.rewrites++

	_, err := p.ReplaceWithMultiple(nodes)

	return err
}

func inherit(n, old *ast.Node) {
	if old.Is(ast.Expression) {
		n.Flags |= old.Flags & ast.InParens
	}

	if n.Loc == nil && old.Loc != nil {
		loc := *old.Loc
		n.Loc = &loc
	}

	if !n.Span.Valid() {
		n.Span = old.Span
	}
}

// semantic returns a Semantic diagnostic positioned at n.
func semantic(n *ast.Node, format string, args ...any) error {
	line, col := 0, 0
	if n.Loc != nil {
		line, col = n.Loc.StartLine, n.Loc.StartCol
	}

	return diag.Newf(diag.Semantic, line, col, n.Span.Start, format, args...)
}

// clone returns a deep copy of n for use at a second site.
func (c *compiler) clone(n *ast.Node) *ast.Node { return c.ctx.Arena.Clone(n) }

// andChain folds terms into a left-nested `and` chain.
func (c *compiler) andChain(terms []*ast.Node) *ast.Node {
	out := terms[0]
	for _, term := range terms[1:] {
		out = c.b.Logical("and", out, term)
	}

	return out
}
