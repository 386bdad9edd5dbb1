// Package traverse walks and mutates the syntax tree of one compile.
//
// A Context owns every cache of a compile: the Path table, the Scope table,
// the generated-name registry and the stack of active work queues. Caches
// are keyed by arena node ids and die with the Context.
package traverse

import (
	"errors"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// Path mutation errors.
var (
	ErrPathRemoved           = errors.New("path has been removed")
	ErrReplaceRoot           = errors.New("root can only be replaced with a chunk")
	ErrStatementToExpression = errors.New("cannot replace a statement with an expression")
	ErrNotInList             = errors.New("path is not inside a list container")
	ErrNilNode               = errors.New("replacement node is nil")
)

// Context is the per-compile traversal state. Not safe for concurrent use.
type Context struct {
	Arena   *ast.Arena
	Builder *ast.Builder

	root     *ast.Node
	paths    map[ast.NodeID]map[ast.NodeID]*Path
	scopes   map[scopeKey]*Scope
	reserved map[string]bool
	uids     map[string]bool
	queues   []*queue
}

type scopeKey struct {
	node   ast.NodeID
	parent *Scope
}

// rootParent keys paths without a parent node.
const rootParent ast.NodeID = -1

// NewContext prepares a context for the tree rooted at root. Every name
// used in the tree is reserved so generated names never collide with them.
func NewContext(arena *ast.Arena, root *ast.Node) *Context {
	c := &Context{
		Arena:    arena,
		Builder:  ast.NewBuilder(arena),
		root:     root,
		paths:    make(map[ast.NodeID]map[ast.NodeID]*Path),
		scopes:   make(map[scopeKey]*Scope),
		reserved: make(map[string]bool),
		uids:     make(map[string]bool),
	}

	for _, name := range root.Globals {
		c.reserved[name] = true
	}

	root.Walk(func(n *ast.Node) bool {
		if n.Kind == ast.Identifier {
			c.reserved[n.Name] = true
		}

		return true
	})

	return c
}

// Root returns the path of the tree root.
func (c *Context) Root() *Path {
	return c.lookup(nil, nil, c.root, ast.NoField, -1)
}

// PathFor returns the unique path for the child of parent at field and
// index (-1 for single fields). It returns nil when the slot is empty.
func (c *Context) PathFor(parentPath *Path, parent *ast.Node, field ast.Field, index int) *Path {
	var node *ast.Node

	if index >= 0 {
		list := parent.List(field)
		if index >= len(list) {
			return nil
		}

		node = list[index]
	} else {
		node = parent.Child(field)
	}

	if node == nil {
		return nil
	}

	return c.lookup(parentPath, parent, node, field, index)
}

func (c *Context) lookup(parentPath *Path, parent, node *ast.Node, field ast.Field, index int) *Path {
	parentID := rootParent
	if parent != nil {
		parentID = parent.ID
	}

	children := c.paths[parentID]
	if children == nil {
		children = make(map[ast.NodeID]*Path)
		c.paths[parentID] = children
	}

	if p, ok := children[node.ID]; ok {
		p.Field, p.Index = field, index
		if parentPath != nil {
			p.ParentPath = parentPath
		}

		return p
	}

	p := &Path{
		Node:       node,
		Parent:     parent,
		ParentPath: parentPath,
		Field:      field,
		Index:      index,
		ctx:        c,
	}
	children[node.ID] = p

	return p
}

// rekey moves a cached path to a new node after a replacement.
func (c *Context) rekey(p *Path, old *ast.Node) {
	parentID := rootParent
	if p.Parent != nil {
		parentID = p.Parent.ID
	}

	children := c.paths[parentID]
	if children[old.ID] == p {
		delete(children, old.ID)
	}

	children[p.Node.ID] = p
}

func (c *Context) forget(p *Path) {
	parentID := rootParent
	if p.Parent != nil {
		parentID = p.Parent.ID
	}

	if children := c.paths[parentID]; children[p.Node.ID] == p {
		delete(children, p.Node.ID)
	}
}

// shiftSiblings moves the list index of cached sibling paths at or after
// from by delta.
func (c *Context) shiftSiblings(parent *ast.Node, field ast.Field, from, delta int, skip *Path) {
	for _, sibling := range c.paths[parent.ID] {
		if sibling != skip && sibling.Field == field && sibling.Index >= from {
			sibling.Index += delta
		}
	}
}

// requeue schedules p in the innermost active work queue.
func (c *Context) requeue(paths ...*Path) {
	if len(c.queues) == 0 {
		return
	}

	q := c.queues[len(c.queues)-1]
	q.priority = append(q.priority, paths...)
}
