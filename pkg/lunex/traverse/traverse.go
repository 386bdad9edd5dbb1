package traverse

import "github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"

// queue is the work list of one tree level. Paths requeued by mutations
// land in priority and run before the remaining scheduled siblings.
type queue struct {
	priority []*Path
	visited  map[ast.NodeID]bool
}

type walker struct {
	ctx      *Context
	visitors *Visitors
	stopped  bool
}

// Traverse walks from and its descendants depth first, calling the enter
// callbacks of each node before its children and the exit callbacks after.
func Traverse(ctx *Context, from *Path, visitors *Visitors) error {
	w := &walker{ctx: ctx, visitors: visitors}

	return w.visitQueue([]*Path{from})
}

// Traverse walks the descendants of p, not p itself.
func (p *Path) Traverse(visitors *Visitors) error {
	w := &walker{ctx: p.ctx, visitors: visitors}

	return w.visitChildren(p)
}

func (w *walker) visitQueue(paths []*Path) error {
	if len(paths) == 0 {
		return nil
	}

	q := &queue{visited: make(map[ast.NodeID]bool)}

	w.ctx.queues = append(w.ctx.queues, q)
	defer func() { w.ctx.queues = w.ctx.queues[:len(w.ctx.queues)-1] }()

	for _, p := range paths {
		if err := w.visitPath(q, p); err != nil {
			return err
		}

		for len(q.priority) > 0 && !w.stopped {
			next := q.priority[0]
			q.priority = q.priority[1:]

			if err := w.visitPath(q, next); err != nil {
				return err
			}
		}

		if w.stopped {
			return nil
		}
	}

	return nil
}

func (w *walker) visitPath(q *queue, p *Path) error {
	p.resync()

	if p.Removed || q.visited[p.Node.ID] {
		return nil
	}

	q.visited[p.Node.ID] = true
	p.shouldSkip, p.shouldStop = false, false

	node := p.Node

	done, err := w.call(p, node, w.visitors.Enter(node.Kind))
	if err != nil || done {
		return err
	}

	if !p.shouldSkip {
		if err := w.visitChildren(p); err != nil {
			return err
		}

		if w.stopped || p.Removed || p.Node != node {
			return nil
		}
	}

	_, err = w.call(p, node, w.visitors.Exit(node.Kind))

	return err
}

// call runs handlers on p. It reports done when the walk must not go on
// with this node: it was removed, replaced or the walk was stopped.
func (w *walker) call(p *Path, node *ast.Node, handlers []Handler) (bool, error) {
	for _, h := range handlers {
		if err := h(p); err != nil {
			return true, err
		}

		if p.shouldStop {
			w.stopped = true

			return true, nil
		}

		if p.Removed || p.Node != node {
			return true, nil
		}
	}

	return false, nil
}

func (w *walker) visitChildren(p *Path) error {
	node := p.Node

	for _, field := range node.Fields() {
		var paths []*Path

		if field.IsList() {
			paths = p.GetList(field)
		} else if child := p.Get(field); child != nil {
			paths = []*Path{child}
		}

		if err := w.visitQueue(paths); err != nil {
			return err
		}

		if w.stopped || p.Removed || p.Node != node {
			return nil
		}
	}

	return nil
}
