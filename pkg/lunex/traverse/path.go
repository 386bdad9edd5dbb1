package traverse

import (
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// Path is a stable handle on a node at a slot of its parent. There is one
// Path per (parent, node) pair for the life of the Context.
type Path struct {
	Node       *ast.Node
	Parent     *ast.Node
	ParentPath *Path
	Field      ast.Field
	Index      int
	Removed    bool

	ctx        *Context
	scope      *Scope
	shouldSkip bool
	shouldStop bool
}

// Context returns the owning context.
func (p *Path) Context() *Context { return p.ctx }

// Kind returns the node kind.
func (p *Path) Kind() ast.Kind { return p.Node.Kind }

// Is reports whether the node belongs to any group in g.
func (p *Path) Is(g ast.Group) bool { return p.Node.Is(g) }

// InList reports whether the node sits in a list field.
func (p *Path) InList() bool { return p.Index >= 0 && p.Parent != nil }

// Skip stops the current walk from descending into the node.
func (p *Path) Skip() { p.shouldSkip = true }

// Stop aborts the current walk.
func (p *Path) Stop() { p.shouldStop = true }

// Get returns the path of a single child field, nil when empty.
func (p *Path) Get(field ast.Field) *Path {
	return p.ctx.PathFor(p, p.Node, field, -1)
}

// GetList returns the paths of a list child field.
func (p *Path) GetList(field ast.Field) []*Path {
	list := p.Node.List(field)
	out := make([]*Path, 0, len(list))

	for i := range list {
		if child := p.ctx.PathFor(p, p.Node, field, i); child != nil {
			out = append(out, child)
		}
	}

	return out
}

// Children returns the paths of every direct child in traversal order.
func (p *Path) Children() []*Path {
	var out []*Path

	for _, field := range p.Node.Fields() {
		if field.IsList() {
			out = append(out, p.GetList(field)...)

			continue
		}

		if child := p.Get(field); child != nil {
			out = append(out, child)
		}
	}

	return out
}

// FindParent returns the nearest ancestor path matching fn.
func (p *Path) FindParent(fn func(*Path) bool) *Path {
	for cur := p.ParentPath; cur != nil; cur = cur.ParentPath {
		if fn(cur) {
			return cur
		}
	}

	return nil
}

// Find returns p or its nearest ancestor matching fn.
func (p *Path) Find(fn func(*Path) bool) *Path {
	if fn(p) {
		return p
	}

	return p.FindParent(fn)
}

// StatementParent returns the nearest statement path that sits in a block.
func (p *Path) StatementParent() *Path {
	return p.Find(func(cur *Path) bool {
		return cur.Is(ast.Statement) && cur.InList() && cur.Field == ast.FieldBody
	})
}

// FunctionParent returns the nearest enclosing function path.
func (p *Path) FunctionParent() *Path {
	return p.FindParent(func(cur *Path) bool { return cur.Is(ast.Function) })
}

// Siblings returns the paths of the list p sits in.
func (p *Path) Siblings() []*Path {
	if !p.InList() {
		return nil
	}

	return p.ParentPath.GetList(p.Field)
}

// resync realigns Field and Index with the live parent after edits made
// through other paths.
func (p *Path) resync() {
	if p.Parent == nil || p.Removed {
		return
	}

	if p.Index >= 0 {
		list := p.Parent.List(p.Field)
		if p.Index < len(list) && list[p.Index] == p.Node {
			return
		}
	} else if p.Parent.Child(p.Field) == p.Node {
		return
	}

	for _, field := range p.Parent.Fields() {
		if !field.IsList() {
			if p.Parent.Child(field) == p.Node {
				p.Field, p.Index = field, -1

				return
			}

			continue
		}

		for i, child := range p.Parent.List(field) {
			if child == p.Node {
				p.Field, p.Index = field, i

				return
			}
		}
	}

	p.Removed = true
}
