package transform

import (
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// memberMode is the kind of class member whose body is rewritten.
type memberMode uint8

const (
	modeMethod memberMode = iota
	modeStatic
	modeConstructor
)

// superRewriter resolves super and private member accesses in the body of
// one class member, and checks the super call rules of constructors.
type superRewriter struct {
	c      *compiler
	info   *classInfo
	mode   memberMode
	called bool
}

// member rewrites a method or field in place.
func (r *superRewriter) member(m *ast.Node) error {
	if m.Kind == ast.ClassField {
		value, err := r.node(m.Child(ast.FieldValue))
		if err != nil {
			return err
		}

		m.SetChild(ast.FieldValue, value)

		return nil
	}

	if err := r.list(m.List(ast.FieldParameters)); err != nil {
		return err
	}

	return r.list(m.Body())
}

// constructor rewrites a constructor and returns the index of the top-level
// statement holding the super call, -1 in a base class.
func (r *superRewriter) constructor(m *ast.Node) (int, error) {
	if err := r.list(m.List(ast.FieldParameters)); err != nil {
		return 0, err
	}

	at := -1
	body := m.Body()

	for i, stmt := range body {
		before := r.called

		out, err := r.node(stmt)
		if err != nil {
			return 0, err
		}

		body[i] = out

		if !before && r.called {
			at = i
		}
	}

	if r.info.derived && !r.called {
		return 0, semantic(m, "constructor of derived class '%s' must call 'super()'", r.info.name)
	}

	return at, nil
}

func (r *superRewriter) list(list []*ast.Node) error {
	for i, n := range list {
		out, err := r.node(n)
		if err != nil {
			return err
		}

		list[i] = out
	}

	return nil
}

func (r *superRewriter) children(n *ast.Node) error {
	for _, field := range n.Fields() {
		if field.IsList() {
			if err := r.list(n.List(field)); err != nil {
				return err
			}

			continue
		}

		child := n.Child(field)
		if child == nil {
			continue
		}

		out, err := r.node(child)
		if err != nil {
			return err
		}

		n.SetChild(field, out)
	}

	return nil
}

// node returns the rewritten form of n.
func (r *superRewriter) node(n *ast.Node) (*ast.Node, error) {
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case ast.ClassDeclaration:
		// Lowered on its own, with its own parent.
		return n, nil
	case ast.Identifier:
		if n.Name == "self" {
			return n, r.beforeSuper(n, "'self'")
		}
	case ast.SuperExpression:
		return nil, semantic(n, "'super' must be called or indexed")
	case ast.CallExpression:
		return r.call(n)
	case ast.MemberExpression:
		return r.access(n)
	case ast.IndexExpression:
		if base := n.Child(ast.FieldBase); base.Kind == ast.SuperExpression {
			table, err := r.superTable(base)
			if err != nil {
				return nil, err
			}

			index, err := r.node(n.Child(ast.FieldIndex))
			if err != nil {
				return nil, err
			}

			return r.keepParens(n, r.c.b.Index(table, index)), nil
		}
	}

	if n.Is(ast.Function) && (n.Has(ast.ThinArrow) || n.Has(ast.IsMethod)) {
		// A nested self-taking function brings its own self.
		inner := &superRewriter{c: r.c, info: r.info, mode: modeMethod, called: true}
		if r.mode == modeStatic {
			inner.mode = modeStatic
		}

		return n, inner.children(n)
	}

	return n, r.children(n)
}

func (r *superRewriter) call(n *ast.Node) (*ast.Node, error) {
	base := n.Child(ast.FieldBase)

	switch {
	case base.Kind == ast.SuperExpression:
		return r.superCall(n)
	case base.Kind == ast.MemberExpression && base.Operator == ":":
		target := base.Child(ast.FieldBase)
		name := base.Child(ast.FieldIdentifier).Name

		switch {
		case target.Kind == ast.SuperExpression:
			// super:m(args) -> _parent.__base.m(self, args)
			table, err := r.superTable(target)
			if err != nil {
				return nil, err
			}

			args, err := r.args(n)
			if err != nil {
				return nil, err
			}

			fn := r.c.b.Member(table, name)

			return r.keepParens(n, r.c.b.Call(fn, append([]*ast.Node{r.c.b.LocalIdent("self")}, args...)...)), nil
		case isSelf(target) && r.info.privates[name]:
			// self:priv(args) -> priv(self, args)
			if err := r.beforeSuper(target, "'self'"); err != nil {
				return nil, err
			}

			args, err := r.args(n)
			if err != nil {
				return nil, err
			}

			return r.keepParens(n, r.c.b.Call(r.c.b.LocalIdent(name), append([]*ast.Node{target}, args...)...)), nil
		}
	}

	return n, r.children(n)
}

// superCall rewrites super(args) to _parent.__init(self, args).
func (r *superRewriter) superCall(n *ast.Node) (*ast.Node, error) {
	at := n.Child(ast.FieldBase)

	if !r.info.derived {
		return nil, semantic(at, "'super' used in class '%s' which has no parent", r.info.name)
	}

	if r.mode != modeConstructor {
		return nil, semantic(at, "'super()' can only be called in a derived class constructor")
	}

	args, err := r.args(n)
	if err != nil {
		return nil, err
	}

	r.called = true

	init := r.c.b.Member(r.c.b.LocalIdent(r.info.parent), "__init")

	return r.keepParens(n, r.c.b.Call(init, append([]*ast.Node{r.c.b.LocalIdent("self")}, args...)...)), nil
}

func (r *superRewriter) access(n *ast.Node) (*ast.Node, error) {
	base := n.Child(ast.FieldBase)
	name := n.Child(ast.FieldIdentifier).Name

	switch {
	case base.Kind == ast.SuperExpression:
		// super.x -> _parent.__base.x
		table, err := r.superTable(base)
		if err != nil {
			return nil, err
		}

		return r.keepParens(n, r.c.b.Member(table, name)), nil
	case isSelf(base) && n.Operator == "." && r.info.privates[name]:
		// self.priv -> priv
		if err := r.beforeSuper(base, "'self'"); err != nil {
			return nil, err
		}

		return r.keepParens(n, r.c.b.LocalIdent(name)), nil
	}

	return n, r.children(n)
}

// superTable returns the table super accesses resolve against: the parent
// base for instance members, the parent class for static ones. at is the
// super keyword.
func (r *superRewriter) superTable(at *ast.Node) (*ast.Node, error) {
	if !r.info.derived {
		return nil, semantic(at, "'super' used in class '%s' which has no parent", r.info.name)
	}

	if err := r.beforeSuper(at, "'super'"); err != nil {
		return nil, err
	}

	parent := r.c.b.LocalIdent(r.info.parent)
	if r.mode == modeStatic {
		return parent, nil
	}

	return r.c.b.Member(parent, "__base"), nil
}

// beforeSuper rejects what a derived constructor uses before calling super.
func (r *superRewriter) beforeSuper(at *ast.Node, what string) error {
	if r.mode == modeConstructor && r.info.derived && !r.called {
		return semantic(at, "%s used before 'super()' call in constructor of '%s'", what, r.info.name)
	}

	return nil
}

func (r *superRewriter) args(call *ast.Node) ([]*ast.Node, error) {
	args := call.List(ast.FieldArguments)
	if err := r.list(args); err != nil {
		return nil, err
	}

	return args, nil
}

func (r *superRewriter) keepParens(old, n *ast.Node) *ast.Node {
	n.Flags |= old.Flags & ast.InParens

	return n
}

func isSelf(n *ast.Node) bool { return n.Kind == ast.Identifier && n.Name == "self" }
