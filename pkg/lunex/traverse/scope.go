package traverse

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// BindingKind classifies how a name was declared.
type BindingKind uint8

// Binding kinds. Loop variables are vars; function parameters and the
// implicit self are params.
const (
	BindingUnknown BindingKind = iota
	BindingParam
	BindingVar
	BindingLocal
)

func (k BindingKind) String() string {
	switch k {
	case BindingParam:
		return "param"
	case BindingVar:
		return "var"
	case BindingLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Binding records a declared name and where it is read and written.
type Binding struct {
	Name               string
	Identifier         *ast.Node
	Path               *Path
	Kind               BindingKind
	ReferencePaths     []*Path
	ConstantViolations []*Path
	Constant           bool
}

// References returns the number of reads of the binding.
func (b *Binding) References() int { return len(b.ReferencePaths) }

func (b *Binding) reassign(p *Path) {
	b.ConstantViolations = append(b.ConstantViolations, p)
	b.Constant = false
}

// Scope is the lexical environment of a Scopable node.
type Scope struct {
	Path     *Path
	Parent   *Scope
	Bindings map[string]*Binding
	Globals  map[string]*ast.Node
	Labels   map[string]*Path

	uids map[string]bool
	ctx  *Context
}

// Scope returns the scope of the nearest Scopable path at or above p.
func (p *Path) Scope() *Scope {
	if p.scope != nil {
		return p.scope
	}

	owner := p.Find(func(cur *Path) bool { return cur.Is(ast.Scopable) })
	if owner == nil {
		return nil
	}

	var parent *Scope
	if owner.ParentPath != nil {
		parent = owner.ParentPath.Scope()
	}

	p.scope = p.ctx.ScopeFor(owner, parent)

	return p.scope
}

// ScopeFor returns the cached scope of the Scopable path p under parent,
// collecting it on first use.
func (c *Context) ScopeFor(p *Path, parent *Scope) *Scope {
	key := scopeKey{node: p.Node.ID, parent: parent}
	if s, ok := c.scopes[key]; ok {
		return s
	}

	s := &Scope{
		Path:     p,
		Parent:   parent,
		Bindings: make(map[string]*Binding),
		Globals:  make(map[string]*ast.Node),
		Labels:   make(map[string]*Path),
		uids:     make(map[string]bool),
		ctx:      c,
	}
	c.scopes[key] = s

	s.collect()

	return s
}

// Crawl discards the collected bindings and collects them again.
func (s *Scope) Crawl() {
	s.Bindings = make(map[string]*Binding)
	s.Globals = make(map[string]*ast.Node)
	s.Labels = make(map[string]*Path)
	s.collect()
}

// GetBinding finds the binding of name in s or an enclosing scope.
func (s *Scope) GetBinding(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.Bindings[name]; ok {
			return b
		}
	}

	return nil
}

// HasBinding reports whether name is bound in s or an enclosing scope.
func (s *Scope) HasBinding(name string) bool { return s.GetBinding(name) != nil }

// HasOwnBinding reports whether name is bound in s itself.
func (s *Scope) HasOwnBinding(name string) bool {
	_, ok := s.Bindings[name]

	return ok
}

// Register declares name in s.
func (s *Scope) Register(name string, kind BindingKind, id *ast.Node, p *Path) *Binding {
	b := &Binding{Name: name, Identifier: id, Path: p, Kind: kind, Constant: true}
	s.Bindings[name] = b

	return b
}

// hasName reports whether name is taken anywhere up the chain.
func (s *Scope) hasName(name string) bool {
	if s.ctx.reserved[name] || s.ctx.uids[name] {
		return true
	}

	for cur := s; cur != nil; cur = cur.Parent {
		if _, ok := cur.Bindings[name]; ok {
			return true
		}

		if _, ok := cur.Globals[name]; ok {
			return true
		}

		if _, ok := cur.Labels[name]; ok {
			return true
		}

		if cur.uids[name] {
			return true
		}
	}

	return false
}

// GenerateUID returns a fresh name `_base`, `_base1`, `_base2`, ... that
// collides with no name in the tree or previously generated name of this
// compile.
func (s *Scope) GenerateUID(base string) string {
	base = strings.TrimLeft(base, "_")
	base = strings.TrimRight(base, "0123456789")

	if base == "" {
		base = "ref"
	}

	for i := 0; ; i++ {
		name := "_" + base
		if i > 0 {
			name += strconv.Itoa(i)
		}

		if s.hasName(name) {
			continue
		}

		s.ctx.uids[name] = true
		s.uids[name] = true

		return name
	}
}

// GenerateUIDIdentifier returns a local identifier node with a fresh name.
func (s *Scope) GenerateUIDIdentifier(base string) *ast.Node {
	return s.ctx.Builder.LocalIdent(s.GenerateUID(base))
}

// ----------------------------------------------------------------------------
// Collection

// outerFields are slots of a Scopable node evaluated in the enclosing scope.
var outerFields = map[ast.Kind][]ast.Field{
	ast.ForNumericStatement: {ast.FieldStart, ast.FieldEnd, ast.FieldStep},
	ast.ForGenericStatement: {ast.FieldIterators},
	ast.ForOfStatement:      {ast.FieldIterators},
	ast.FunctionDeclaration: {ast.FieldIdentifier},
	ast.ClassDeclaration:    {ast.FieldIdentifier, ast.FieldParent},
	ast.WhileStatement:      {ast.FieldCondition},
	ast.IfClause:            {ast.FieldCondition},
	ast.ElseifClause:        {ast.FieldCondition},
}

// declaredFields are slots of a Scopable node that hold its own
// declarations rather than reads.
var declaredFields = map[ast.Kind][]ast.Field{
	ast.ForNumericStatement: {ast.FieldVariable},
	ast.ForGenericStatement: {ast.FieldVariables},
	ast.ForOfStatement:      {ast.FieldVariables},
	ast.ClassMethod:         {ast.FieldKey},
}

func skipOwnField(kind ast.Kind, field ast.Field) bool {
	return slices.Contains(outerFields[kind], field) || slices.Contains(declaredFields[kind], field)
}

// collect registers the declarations, reads and writes of the scope's own
// subtree. Nested scopes are skipped apart from their outer fields.
func (s *Scope) collect() {
	owner := s.Path

	s.declareOwn(owner)

	for _, field := range owner.Node.Fields() {
		if skipOwnField(owner.Kind(), field) {
			continue
		}

		s.walkField(owner, field)
	}
}

// declareOwn registers parameters and loop variables of the scope node.
func (s *Scope) declareOwn(owner *Path) {
	switch owner.Kind() {
	case ast.ForNumericStatement:
		if v := owner.Get(ast.FieldVariable); v != nil {
			s.Register(v.Node.Name, BindingVar, v.Node, v)
		}
	case ast.ForGenericStatement, ast.ForOfStatement:
		for _, v := range owner.GetList(ast.FieldVariables) {
			s.Register(v.Node.Name, BindingVar, v.Node, v)
		}
	case ast.FunctionDeclaration, ast.ClassMethod:
		if owner.Node.Has(ast.IsMethod) {
			s.Register("self", BindingParam, nil, owner)
		}
	}

	if owner.Is(ast.Function) {
		for _, param := range owner.GetList(ast.FieldParameters) {
			if param.Kind() != ast.Parameter {
				continue
			}

			if id := param.Get(ast.FieldIdentifier); id != nil {
				s.Register(id.Node.Name, BindingParam, id.Node, id)
			}
		}
	}
}

func (s *Scope) walkField(p *Path, field ast.Field) {
	if field.IsList() {
		for _, child := range p.GetList(field) {
			s.walk(child)
		}

		return
	}

	if child := p.Get(field); child != nil {
		s.walk(child)
	}
}

func (s *Scope) walkFields(p *Path, fields ...ast.Field) {
	for _, field := range fields {
		s.walkField(p, field)
	}
}

// walk collects one node of the scope's subtree.
func (s *Scope) walk(p *Path) {
	node := p.Node

	if node.Is(ast.Scopable) {
		for _, field := range outerFields[node.Kind] {
			if field != ast.FieldIdentifier {
				s.walkField(p, field)
			}
		}

		s.declareNested(p)

		return
	}

	switch node.Kind {
	case ast.Identifier:
		s.reference(p)
	case ast.LocalStatement:
		s.walkField(p, ast.FieldInit)

		for _, v := range p.GetList(ast.FieldVariables) {
			s.Register(v.Node.Name, BindingLocal, v.Node, v)
		}
	case ast.AssignmentStatement:
		s.walkField(p, ast.FieldInit)

		for _, target := range p.GetList(ast.FieldVariables) {
			s.assign(target)
		}
	case ast.MutationStatement:
		s.walkField(p, ast.FieldValue)

		if target := p.Get(ast.FieldVariable); target != nil {
			if target.Kind() == ast.Identifier {
				s.reference(target)
			}

			s.assign(target)
		}
	case ast.DestructuringStatement:
		s.walkField(p, ast.FieldValue)

		for _, name := range p.GetList(ast.FieldNames) {
			if node.Has(ast.IsLocal) {
				s.Register(name.Node.Name, BindingLocal, name.Node, name)
			} else {
				s.assign(name)
			}
		}
	case ast.LabelStatement:
		if label := node.Child(ast.FieldLabel); label != nil {
			s.Labels[label.Name] = p
		}
	case ast.GotoStatement:
	case ast.MemberExpression:
		s.walkField(p, ast.FieldBase)
	case ast.SafeMemberExpression:
		s.walkFields(p, ast.FieldBase, ast.FieldIndex, ast.FieldArguments)
	case ast.TableKeyString, ast.ClassField:
		s.walkField(p, ast.FieldValue)
	case ast.ImportStatement:
		s.walkField(p, ast.FieldSource)
	case ast.Parameter:
		s.walkField(p, ast.FieldDefault)
	default:
		for _, child := range p.Children() {
			s.walk(child)
		}
	}
}

// declareNested registers names a nested Scopable node binds in s.
func (s *Scope) declareNested(p *Path) {
	switch p.Kind() {
	case ast.FunctionDeclaration:
		id := p.Get(ast.FieldIdentifier)
		if id == nil {
			return
		}

		if p.Node.Has(ast.IsLocal) {
			s.Register(id.Node.Name, BindingLocal, id.Node, id)

			return
		}

		s.assign(id)
	case ast.ClassDeclaration:
		id := p.Get(ast.FieldIdentifier)
		if id == nil {
			return
		}

		if !p.Node.Has(ast.IsPublic) {
			s.Register(id.Node.Name, BindingLocal, id.Node, id)
		} else {
			s.assign(id)
		}
	}
}

func (s *Scope) reference(p *Path) {
	name := p.Node.Name
	if b := s.GetBinding(name); b != nil {
		b.ReferencePaths = append(b.ReferencePaths, p)

		return
	}

	s.programScope().Globals[name] = p.Node
}

// assign records a write to target.
func (s *Scope) assign(target *Path) {
	if target.Kind() != ast.Identifier {
		s.walk(target)

		return
	}

	name := target.Node.Name
	if b := s.GetBinding(name); b != nil {
		b.reassign(target)

		return
	}

	s.programScope().Globals[name] = target.Node
}

func (s *Scope) programScope() *Scope {
	cur := s
	for cur.Parent != nil {
		cur = cur.Parent
	}

	return cur
}
