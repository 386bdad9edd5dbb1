package traverse

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// ReplaceWith puts node in place of the path's node and requeues the path.
func (p *Path) ReplaceWith(node *ast.Node) error {
	p.resync()

	if err := p.checkMutable(); err != nil {
		return err
	}

	if node == nil {
		return ErrNilNode
	}

	if p.Parent == nil && node.Kind != ast.Chunk {
		return fmt.Errorf("%w: got %s", ErrReplaceRoot, node.Kind)
	}

	if p.Is(ast.Statement) && node.Is(ast.Expression) && !node.Is(ast.Statement) {
		return fmt.Errorf("%w: %s with %s", ErrStatementToExpression, p.Kind(), node.Kind)
	}

	old := p.Node
	if old == node {
		return nil
	}

	if p.Parent == nil {
		p.ctx.root = node
	} else if p.Index >= 0 {
		p.Parent.List(p.Field)[p.Index] = node
	} else {
		p.Parent.SetChild(p.Field, node)
	}

	p.Node = node
	p.scope = nil
	p.ctx.rekey(p, old)
	p.ctx.requeue(p)

	return nil
}

// ReplaceWithMultiple splices nodes in place of the path's node. The path
// keeps pointing at the first node. An empty list removes the node.
func (p *Path) ReplaceWithMultiple(nodes []*ast.Node) ([]*Path, error) {
	p.resync()

	if err := p.checkMutable(); err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, p.Remove()
	}

	if !p.InList() {
		if len(nodes) == 1 {
			return []*Path{p}, p.ReplaceWith(nodes[0])
		}

		return nil, ErrNotInList
	}

	if slices.Contains(nodes, nil) {
		return nil, ErrNilNode
	}

	list := p.Parent.List(p.Field)
	spliced := slices.Concat(list[:p.Index], nodes, list[p.Index+1:])
	p.Parent.SetList(p.Field, spliced)

	p.ctx.shiftSiblings(p.Parent, p.Field, p.Index+1, len(nodes)-1, p)

	old := p.Node
	p.Node = nodes[0]
	p.scope = nil
	p.ctx.rekey(p, old)

	paths := []*Path{p}
	for i := 1; i < len(nodes); i++ {
		paths = append(paths, p.ctx.PathFor(p.ParentPath, p.Parent, p.Field, p.Index+i))
	}

	p.ctx.requeue(paths...)

	return paths, nil
}

// InsertBefore inserts nodes ahead of the path's node in its list.
func (p *Path) InsertBefore(nodes ...*ast.Node) ([]*Path, error) {
	return p.insert(nodes, 0)
}

// InsertAfter inserts nodes behind the path's node in its list.
func (p *Path) InsertAfter(nodes ...*ast.Node) ([]*Path, error) {
	return p.insert(nodes, 1)
}

func (p *Path) insert(nodes []*ast.Node, offset int) ([]*Path, error) {
	p.resync()

	if err := p.checkMutable(); err != nil {
		return nil, err
	}

	if !p.InList() {
		return nil, ErrNotInList
	}

	if slices.Contains(nodes, nil) {
		return nil, ErrNilNode
	}

	if len(nodes) == 0 {
		return nil, nil
	}

	at := p.Index + offset
	list := p.Parent.List(p.Field)
	p.Parent.SetList(p.Field, slices.Concat(list[:at], nodes, list[at:]))
	p.ctx.shiftSiblings(p.Parent, p.Field, at, len(nodes), nil)

	paths := make([]*Path, len(nodes))
	for i := range nodes {
		paths[i] = p.ctx.PathFor(p.ParentPath, p.Parent, p.Field, at+i)
	}

	p.ctx.requeue(paths...)

	return paths, nil
}

// Remove deletes the node from its parent. Removal hooks may widen the
// removal to an ancestor.
func (p *Path) Remove() error {
	p.resync()

	if err := p.checkMutable(); err != nil {
		return err
	}

	if p.Parent == nil {
		return fmt.Errorf("%w: cannot remove the root", ErrReplaceRoot)
	}

	for _, hook := range removalHooks {
		if handled, err := hook(p); handled {
			if err == nil {
				p.markRemoved()
			}

			return err
		}
	}

	if p.Index >= 0 {
		list := p.Parent.List(p.Field)
		p.Parent.SetList(p.Field, slices.Delete(slices.Clone(list), p.Index, p.Index+1))
		p.ctx.shiftSiblings(p.Parent, p.Field, p.Index+1, -1, p)
	} else {
		p.Parent.SetChild(p.Field, nil)
	}

	p.markRemoved()

	return nil
}

func (p *Path) markRemoved() {
	p.ctx.forget(p)
	p.Removed = true
}

func (p *Path) checkMutable() error {
	if p.Removed {
		return fmt.Errorf("%w: %s", ErrPathRemoved, p.Node.Kind)
	}

	return nil
}

// removalHook may take over a removal. It reports whether it did.
type removalHook func(p *Path) (bool, error)

// removalHooks is filled in init since the hooks call Remove themselves.
var removalHooks []removalHook

func init() {
	removalHooks = []removalHook{
		removeLoopWithTest,
		removeExpressionStatement,
		removeLastClause,
	}
}

// removeLoopWithTest removes a while or repeat loop whose test is removed.
func removeLoopWithTest(p *Path) (bool, error) {
	if p.Field != ast.FieldCondition || p.ParentPath == nil || !p.ParentPath.Is(ast.Loop) {
		return false, nil
	}

	return true, p.ParentPath.Remove()
}

// removeExpressionStatement removes a call statement whose call is removed.
func removeExpressionStatement(p *Path) (bool, error) {
	if p.Field != ast.FieldExpression || p.ParentPath == nil || p.Parent.Kind != ast.CallStatement {
		return false, nil
	}

	return true, p.ParentPath.Remove()
}

// removeLastClause removes an if statement when its only clause goes.
func removeLastClause(p *Path) (bool, error) {
	if p.Field != ast.FieldClauses || p.ParentPath == nil || len(p.Parent.List(ast.FieldClauses)) != 1 {
		return false, nil
	}

	return true, p.ParentPath.Remove()
}
