package transform

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

// constructorName is the method name that becomes __init.
const constructorName = "constructor"

// classInfo names the locals of the class block being built.
type classInfo struct {
	name     string
	derived  bool
	parent   string
	base     string
	class    string
	self     string
	privates map[string]bool
}

// classMembers sorts the members of a class by where they end up.
type classMembers struct {
	constructor *ast.Node
	methods     []*ast.Node
	fields      []*ast.Node
	statics     []*ast.Node
	privates    []*ast.Node
	getters     []*ast.Node
	setters     []*ast.Node
	hasType     bool
}

// class lowers a class declaration to a block building the class table:
//
//	local Name
//	do
//	  local _parent = Parent
//	  local _base = {methods...}
//	  _base.__index = _base
//	  setmetatable(_base, _parent.__base)
//	  local _class = setmetatable({__init = ..., __base = _base, __name = "Name", __parent = _parent}, {...})
//	  _base.__class = _class
//	  Name = _class
//	end
func (c *compiler) class(p *traverse.Path) error {
	n := p.Node
	id := n.Child(ast.FieldIdentifier)
	parentExpr := n.Child(ast.FieldParent)
	scope := p.Scope()

	info := &classInfo{
		name:     className(id),
		derived:  parentExpr != nil,
		privates: make(map[string]bool),
	}

	info.class = scope.GenerateUID("class")
	if info.derived {
		info.parent = scope.GenerateUID("parent")
	}

	info.base = scope.GenerateUID("base")
	info.self = scope.GenerateUID("self")

	members, err := classify(info, n.List(ast.FieldMembers))
	if err != nil {
		return err
	}

	if err := c.rewriteMembers(info, members); err != nil {
		return err
	}

	var body []*ast.Node

	if info.derived {
		body = append(body, c.b.LocalNames([]string{info.parent}, parentExpr))
	}

	body = append(body, c.privateMembers(members.privates)...)

	baseFields := make([]*ast.Node, 0, len(members.methods)+1)
	for _, m := range members.methods {
		baseFields = append(baseFields, c.b.KeyString(memberKey(m), c.methodFunction(m)))
	}

	if !members.hasType {
		typeName := c.b.Member(c.b.Member(c.b.LocalIdent("self"), "__class"), "__name")
		baseFields = append(baseFields, c.b.KeyString("__type", c.b.Func([]*ast.Node{c.b.Param("self")}, c.b.Return(typeName))))
	}

	body = append(body, c.b.LocalNames([]string{info.base}, c.b.Table(baseFields...)))

	accessors, err := c.accessors(scope, info, members)
	if err != nil {
		return err
	}

	body = append(body, accessors...)

	if info.derived {
		inherit, err := c.snippet(fmt.Sprintf(`setmetatable(%s, %s.__base)`, info.base, info.parent))
		if err != nil {
			return err
		}

		body = append(body, inherit...)
	}

	classTable, err := c.classTable(info, members)
	if err != nil {
		return err
	}

	body = append(body, c.b.LocalNames([]string{info.class}, classTable))

	link, err := c.snippet(fmt.Sprintf(`%s.__class = %s`, info.base, info.class))
	if err != nil {
		return err
	}

	body = append(body, link...)

	for _, m := range members.statics {
		target := c.b.Member(c.b.LocalIdent(info.class), memberKey(m))
		body = append(body, c.b.Assign([]*ast.Node{target}, []*ast.Node{c.memberValue(m)}))
	}

	if info.derived {
		hook, err := c.snippet(fmt.Sprintf(`if %[1]s.__inherited then
  %[1]s.__inherited(%[1]s, %[2]s)
end`, info.parent, info.class))
		if err != nil {
			return err
		}

		body = append(body, hook...)
	}

	if n.Has(ast.IsPublic) {
		body = append(body, c.b.Assign([]*ast.Node{id}, []*ast.Node{c.b.LocalIdent(info.class)}))

		return c.replace(p, c.b.Do(body...))
	}

	body = append(body, c.b.Assign([]*ast.Node{c.b.LocalIdent(info.name)}, []*ast.Node{c.b.LocalIdent(info.class)}))

	return c.replaceMany(p, []*ast.Node{c.b.LocalNames([]string{info.name}), c.b.Do(body...)})
}

func className(id *ast.Node) string {
	if id.Kind == ast.MemberExpression {
		return id.Child(ast.FieldIdentifier).Name
	}

	return id.Name
}

func memberKey(m *ast.Node) string { return m.Child(ast.FieldKey).Name }

// classify sorts members and rejects a second constructor.
func classify(info *classInfo, list []*ast.Node) (*classMembers, error) {
	members := &classMembers{}

	for _, m := range list {
		method := m.Kind == ast.ClassMethod
		key := memberKey(m)

		switch {
		case method && m.Has(ast.Getter):
			members.getters = append(members.getters, m)
		case method && m.Has(ast.Setter):
			members.setters = append(members.setters, m)
		case m.Has(ast.IsPrivate):
			members.privates = append(members.privates, m)
			info.privates[key] = true
		case m.Has(ast.IsStatic):
			members.statics = append(members.statics, m)
		case method && key == constructorName:
			if members.constructor != nil {
				return nil, semantic(m, "duplicate constructor in class '%s'", info.name)
			}

			members.constructor = m
		case method:
			members.methods = append(members.methods, m)
			members.hasType = members.hasType || key == "__type"
		default:
			members.fields = append(members.fields, m)
		}
	}

	return members, nil
}

// rewriteMembers resolves super and private accesses in every member.
func (c *compiler) rewriteMembers(info *classInfo, members *classMembers) error {
	groups := []struct {
		list []*ast.Node
		mode memberMode
	}{
		{members.methods, modeMethod},
		{members.privates, modeMethod},
		{members.getters, modeMethod},
		{members.setters, modeMethod},
		{members.fields, modeMethod},
		{members.statics, modeStatic},
	}

	for _, g := range groups {
		for _, m := range g.list {
			r := &superRewriter{c: c, info: info, mode: g.mode}
			if err := r.member(m); err != nil {
				return err
			}
		}
	}

	return nil
}

// privateMembers forward-declares private members as locals of the class
// block and then assigns them, so they can refer to each other.
func (c *compiler) privateMembers(privates []*ast.Node) []*ast.Node {
	if len(privates) == 0 {
		return nil
	}

	names := make([]string, len(privates))
	for i, m := range privates {
		names[i] = memberKey(m)
	}

	out := []*ast.Node{c.b.LocalNames(names)}

	for _, m := range privates {
		out = append(out, c.b.Assign([]*ast.Node{c.b.LocalIdent(memberKey(m))}, []*ast.Node{c.memberValue(m)}))
	}

	return out
}

// memberValue returns the function of a method or the value of a field.
func (c *compiler) memberValue(m *ast.Node) *ast.Node {
	if m.Kind == ast.ClassMethod {
		return c.methodFunction(m)
	}

	return m.Child(ast.FieldValue)
}

// methodFunction turns a method into a function taking self first.
func (c *compiler) methodFunction(m *ast.Node) *ast.Node {
	return c.selfFunction(m.List(ast.FieldParameters), m.Body(), m.Flags&ast.IsAsync)
}

func (c *compiler) selfFunction(params, body []*ast.Node, flags ast.Flags) *ast.Node {
	fn := c.b.Func(append([]*ast.Node{c.b.Param("self")}, params...), body...)
	fn.Set(flags)

	return fn
}

// accessorDispatch describes one accessor kind: the uid base of its table,
// the base field holding the table, the metamethod dispatching through it
// and the metamethod installed when no class in the chain has accessors.
type accessorDispatch struct {
	uid      string
	field    string
	meta     string
	handler  string
	fallback string
}

var (
	getterDispatch = accessorDispatch{
		uid:   "getters",
		field: "__getters",
		meta:  "__index",
		handler: `function(self, name)
  local getter = %[2]s[name]
  if getter then
    return getter(self)
  end
  return %[1]s[name]
end`,
		fallback: `%[1]s.__index = %[1]s`,
	}

	setterDispatch = accessorDispatch{
		uid:   "setters",
		field: "__setters",
		meta:  "__newindex",
		handler: `function(self, name, value)
  local setter = %[2]s[name]
  if setter then
    setter(self, value)
  else
    rawset(self, name, value)
  end
end`,
	}
)

// accessors builds the getter and setter tables and the metamethods that
// dispatch to them.
func (c *compiler) accessors(scope *traverse.Scope, info *classInfo, members *classMembers) ([]*ast.Node, error) {
	getters, err := c.dispatch(scope, info, members.getters, getterDispatch)
	if err != nil {
		return nil, err
	}

	setters, err := c.dispatch(scope, info, members.setters, setterDispatch)
	if err != nil {
		return nil, err
	}

	return append(getters, setters...), nil
}

// dispatch installs one accessor kind on the base table. A class with its
// own accessors chains its table to the parent's. A derived class without
// them reuses the parent's table at runtime, since the parent's accessors
// would otherwise run with the base table as self.
func (c *compiler) dispatch(scope *traverse.Scope, info *classInfo, own []*ast.Node, d accessorDispatch) ([]*ast.Node, error) {
	if len(own) == 0 && !info.derived {
		if d.fallback == "" {
			return nil, nil
		}

		return c.snippet(fmt.Sprintf(d.fallback, info.base))
	}

	table := scope.GenerateUID(d.uid)
	install := fmt.Sprintf("%[1]s.%[2]s = %[3]s\n%[1]s.%[4]s = %[5]s",
		info.base, d.field, table, d.meta, fmt.Sprintf(d.handler, info.base, table))

	if len(own) == 0 {
		src := fmt.Sprintf("local %[1]s = rawget(%[2]s.__base, %[3]q)\nif %[1]s then\n%[4]s\n", table, info.parent, d.field, install)

		if d.fallback != "" {
			src += "else\n" + fmt.Sprintf(d.fallback, info.base) + "\n"
		}

		return c.snippet(src + "end")
	}

	src := install
	if info.derived {
		src = fmt.Sprintf("setmetatable(%s, {__index = rawget(%s.__base, %q)})\n", table, info.parent, d.field) + src
	}

	dispatch, err := c.snippet(src)
	if err != nil {
		return nil, err
	}

	return append([]*ast.Node{c.accessorTable(table, own)}, dispatch...), nil
}

func (c *compiler) accessorTable(name string, list []*ast.Node) *ast.Node {
	fields := make([]*ast.Node, len(list))
	for i, m := range list {
		fields[i] = c.b.KeyString(memberKey(m), c.methodFunction(m))
	}

	return c.b.LocalNames([]string{name}, c.b.Table(fields...))
}

// classTable builds `setmetatable({__init, __base, __name, __parent}, meta)`.
func (c *compiler) classTable(info *classInfo, members *classMembers) (*ast.Node, error) {
	init, err := c.initializer(info, members)
	if err != nil {
		return nil, err
	}

	fields := []*ast.Node{
		c.b.KeyString("__init", init),
		c.b.KeyString("__base", c.b.LocalIdent(info.base)),
		c.b.KeyString("__name", c.b.Str(info.name)),
	}

	index := info.base
	if info.derived {
		fields = append(fields, c.b.KeyString("__parent", c.b.LocalIdent(info.parent)))
		index = fmt.Sprintf(`function(cls, name)
    local value = rawget(%s, name)
    if value == nil then
      local parent = rawget(cls, "__parent")
      if parent then
        return parent[name]
      end
    else
      return value
    end
  end`, info.base)
	}

	meta, err := c.snippetExpr(fmt.Sprintf(`{
  __index = %[1]s,
  __call = function(cls, ...)
    local %[3]s = setmetatable({}, %[2]s)
    cls.__init(%[3]s, ...)
    return %[3]s
  end,
}`, index, info.base, info.self))
	if err != nil {
		return nil, err
	}

	return c.b.CallNamed("setmetatable", c.b.Table(fields...), meta), nil
}

// initializer builds __init. Instance fields are assigned first, or right
// after the statement holding the super call in a derived class.
func (c *compiler) initializer(info *classInfo, members *classMembers) (*ast.Node, error) {
	assigns := make([]*ast.Node, 0, len(members.fields))
	for _, f := range members.fields {
		target := c.b.Member(c.b.LocalIdent("self"), memberKey(f))
		assigns = append(assigns, c.b.Assign([]*ast.Node{target}, []*ast.Node{f.Child(ast.FieldValue)}))
	}

	ctor := members.constructor

	switch {
	case ctor != nil:
		r := &superRewriter{c: c, info: info, mode: modeConstructor}

		at, err := r.constructor(ctor)
		if err != nil {
			return nil, err
		}

		body := slices.Insert(ctor.Body(), at+1, assigns...)

		return c.selfFunction(ctor.List(ast.FieldParameters), body, ctor.Flags&ast.IsAsync), nil
	case info.derived:
		parentInit := c.b.Member(c.b.LocalIdent(info.parent), "__init")
		call := c.b.CallStmt(c.b.Call(parentInit, c.b.LocalIdent("self"), c.b.Vararg()))

		return c.selfFunction([]*ast.Node{c.b.Vararg()}, append([]*ast.Node{call}, assigns...), 0), nil
	default:
		return c.selfFunction(nil, assigns, 0), nil
	}
}
