package transform_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/generator"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/parser"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/transform"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/traverse"
)

func lower(src string, opts transform.Options) (string, transform.Stats, error) {
	arena := ast.NewArena()

	chunk, toks, err := parser.Parse(src, parser.Options{Arena: arena})
	if err != nil {
		return "", transform.Stats{}, err
	}

	tctx := traverse.NewContext(arena, chunk)

	stats, err := transform.Compile(tctx, opts)
	if err != nil {
		return "", stats, err
	}

	out, err := generator.Generate(tctx.Root().Node, src, toks, generator.Options{})

	return out, stats, err
}

func compileString(t *testing.T, src string) string {
	t.Helper()

	out, _, err := lower(src, transform.Options{})
	require.NoError(t, err)

	return out
}

func semanticError(t *testing.T, src string) *diag.Diagnostic {
	t.Helper()

	_, _, err := lower(src, transform.Options{})
	require.Error(t, err)

	d, ok := diag.As(err)
	require.True(t, ok, "error %v is not a diagnostic", err)
	assert.Equal(t, diag.Semantic, d.Kind)

	return d
}

func TestStatementLowering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"add assign", "x += 5", "x = x + 5"},
		{"increment", "x++", "x = x + 1"},
		{"concat assign", "local s = \"a\"\ns ..= \"b\"", "local s = \"a\"\ns = s .. \"b\""},
		{"or assign", "x ||= 1", "x = x or 1"},
		{"member target", "t.n *= 2", "t.n = t.n * 2"},
		{"for of", "for i, v of tbl do end", "for i, v in pairs(tbl) do end"},
		{"throw", "throw \"boom\"", "error(\"boom\")"},
		{"import", "import insert, remove from table\ninsert(t, 1)", "table.insert(t, 1)"},
		{
			"stopif",
			"local function f(x, y)\n  stopif x, y\n  return 1\nend",
			"local function f(x, y)\n  if x and y then\n    return\n  end\n  return 1\nend",
		},
		{
			"breakif",
			"while true do\n  breakif done\nend",
			"while true do\n  if done then\n    break\n  end\nend",
		},
		{
			"continue",
			"for i = 1, 3 do\n  if i == 2 then\n    continue\n  end\n  print(i)\nend",
			"for i = 1, 3 do\n  if i == 2 then\n    goto _continue\n  end\n  print(i)\n  ::_continue::\nend",
		},
		{
			"continueif in repeat",
			"repeat\n  continueif skip\n  n = n - 1\nuntil n == 0",
			"repeat\n  do\n    if skip then\n      goto _continue\n    end\n    n = n - 1\n  end\n  ::_continue::\nuntil n == 0",
		},
		{
			"destructuring a call",
			"local {a, b} = f()",
			"local _ref = f()\nassert(_ref ~= nil, \"cannot destructure nil value\")\nlocal a, b = _ref.a, _ref.b",
		},
		{
			"destructuring a name",
			"local {a} = t",
			"assert(t ~= nil, \"cannot destructure nil value\")\nlocal a = t.a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, compileString(t, tt.src))
		})
	}
}

func TestExpressionLowering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"safe navigation",
			"if groups?[groupKind]?.members?.name then end",
			"if (groups and groups[groupKind] and groups[groupKind].members and groups[groupKind].members.name) then end",
		},
		{"safe call statement", "a?.b:c(1)", "if a then\n  a.b:c(1)\nend"},
		{"template", "local s = `hello ${name}!`", "local s = \"hello \" .. tostring(name) .. \"!\""},
		{"empty template", "local s = ``", "local s = \"\""},
		{"fat arrow", "local f = (a) => return a end", "local f = function(a)\n  return a\nend"},
		{"thin arrow", "local m = (x) -> return self.x + x end", "local m = function(self, x)\n  return self.x + x\nend"},
		{
			"nil coalesce",
			"local v = a ?? b",
			"local v = (function(_v)\n  if _v == nil then\n    return b\n  end\n  return _v\nend)(a)",
		},
		{"spread argument", "f(...args)", "f(table.unpack(args))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, compileString(t, tt.src))
		})
	}
}

func TestTableSpread(t *testing.T) {
	t.Parallel()

	out, stats, err := lower("local t = {1, ...rest, 2}", transform.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"__concat_tables"}, stats.Helpers)
	assert.Regexp(t, `^local function __concat_tables\(\.\.\.\)\n`, out)
	assert.Contains(t, out, "\nlocal t = __concat_tables({1}, rest, {2})")
}

func TestParameterGuards(t *testing.T) {
	t.Parallel()

	out := compileString(t, "local function f(n: number, s: string|nil = \"x\")\n  return n\nend")

	assert.Equal(t, `local function f(n, s)
  local _type = type(n)
  if _type == "table" and type(n.__type) == "function" then
    _type = n:__type()
  end
  assert(_type == "number", "bad argument 'n' (expected number, got " .. _type .. ")")
  if s == nil then
    s = "x"
  end
  local _type1 = type(s)
  if _type1 == "table" and type(s.__type) == "function" then
    _type1 = s:__type()
  end
  assert(_type1 == "string" or _type1 == "nil", "bad argument 's' (expected string|nil, got " .. _type1 .. ")")
  return n
end`, out)
}

func TestAsyncAwait(t *testing.T) {
	t.Parallel()

	out, stats, err := lower("local f = async function(x)\n  local v = await x\n  return v\nend", transform.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"__async", "__await"}, stats.Helpers)
	assert.Contains(t, out, "local function __async(body, ...)")
	assert.Contains(t, out, "local function __await(value)")
	assert.Contains(t, out, "local f = function(x)\n  return __async(function()\n    local v = __await(x)\n    return v\n  end)\nend")
}

func TestClassLowering(t *testing.T) {
	t.Parallel()

	src := "class Animal\n  function __type()\n    return \"animal\"\n  end\nend"

	want := `local Animal
do
  local _base = {
    __type = function(self)
      return "animal"
    end,
  }
  _base.__index = _base
  local _class = setmetatable({
    __init = function(self) end,
    __base = _base,
    __name = "Animal",
  }, {
    __index = _base,
    __call = function(cls, ...)
      local _self = setmetatable({}, _base)
      cls.__init(_self, ...)
      return _self
    end,
  })
  _base.__class = _class
  Animal = _class
end`

	first := compileString(t, src)
	assert.Equal(t, want, first)
	assert.Equal(t, first, compileString(t, src))
}

func TestDerivedClass(t *testing.T) {
	t.Parallel()

	src := `class Base
  function constructor(name)
    self.name = name
  end
end

class Dog extends Base
  sound = "woof"

  function constructor(name)
    super(name)
    self.legs = 4
  end

  function describe()
    return super:describe() .. self.sound
  end

  static function create()
    return super.create()
  end
end`

	out := compileString(t, src)

	assert.Contains(t, out, "local _parent = Base")
	assert.Contains(t, out, "__init = function(self, name)\n      _parent.__init(self, name)\n      self.sound = \"woof\"\n      self.legs = 4\n    end,")
	assert.Contains(t, out, "return _parent.__base.describe(self) .. self.sound")
	assert.Contains(t, out, "return _parent.create()")
	assert.Contains(t, out, "setmetatable(_base1, _parent.__base)")
	assert.Contains(t, out, "__parent = _parent,")
	assert.Contains(t, out, "if _parent.__inherited then\n    _parent.__inherited(_parent, _class1)\n  end")
}

func TestDefaultDerivedConstructor(t *testing.T) {
	t.Parallel()

	out := compileString(t, "class A extends B\n  x = 1\nend")

	assert.Contains(t, out, "__init = function(self, ...)\n      _parent.__init(self, ...)\n      self.x = 1\n    end,")
}

func TestClassPrivatesAndAccessors(t *testing.T) {
	t.Parallel()

	src := `class Counter
  private function step()
    return 1
  end

  _get count()
    return self.n + self:step()
  end

  _set count(value)
    self.n = value
  end
end`

	out := compileString(t, src)

	assert.Contains(t, out, "local step\n")
	assert.Contains(t, out, "step = function(self)")
	assert.Contains(t, out, "return self.n + step(self)")
	assert.Contains(t, out, "local _getters = {")
	assert.Contains(t, out, "_base.__index = function(self, name)")
	assert.Contains(t, out, "local _setters = {")
	assert.Contains(t, out, "rawset(self, name, value)")
	assert.Contains(t, out, "__type = function(self)\n      return self.__class.__name\n    end,")
}

func TestSuperErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			"self before super",
			"class A extends B\n  function constructor()\n    self.x = 1\n    super()\n  end\nend",
			"'self' used before 'super()'",
		},
		{
			"super access before super",
			"class A extends B\n  function constructor()\n    super.setup()\n    super()\n  end\nend",
			"'super' used before 'super()'",
		},
		{
			"missing super",
			"class A extends B\n  function constructor()\n    local x = 1\n  end\nend",
			"must call 'super()'",
		},
		{
			"super call outside constructor",
			"class A extends B\n  function run()\n    super()\n  end\nend",
			"can only be called in a derived class constructor",
		},
		{
			"no parent",
			"class A\n  function run()\n    return super.run()\n  end\nend",
			"has no parent",
		},
		{
			"until reads body local after continue",
			"repeat\n  local x = f()\n  continueif x\nuntil x",
			"'until' cannot read local 'x'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := semanticError(t, tt.src)
			assert.Contains(t, d.Message, tt.msg)
			assert.Positive(t, d.Line)
		})
	}
}

func TestRepeatContinueUntilScope(t *testing.T) {
	t.Parallel()

	d := semanticError(t, "local n = 3\nrepeat\n  local done = n == 0\n  n -= 1\n  continueif n == 1\nuntil done or t.done")
	assert.Equal(t, 6, d.Line)
	assert.Equal(t, 7, d.Column)

	out := compileString(t, "local n = 3\nrepeat\n  local done = n == 0\n  continueif done\nuntil n == 0 or t.done")
	assert.Contains(t, out, "until n == 0 or t.done")

	out = compileString(t, "repeat\n  local x = f()\nuntil x")
	assert.Equal(t, "repeat\n  local x = f()\nuntil x", out)
}

func TestDebugInstrumentation(t *testing.T) {
	t.Parallel()

	out, _, err := lower("if x then\n  y()\nend", transform.Options{Debug: true})
	require.NoError(t, err)

	assert.Regexp(t, `^local _debug_range\nlocal _ok, _err = xpcall\(function\(\.\.\.\)\n`, out)
	assert.Regexp(t, `_debug_range = "1:1-2:\d+"\n`, out)
	assert.Contains(t, out, "return tostring(err) .. \" [\" .. tostring(_debug_range) .. \"]\"")
	assert.Contains(t, out, "if not _ok then\n  error(_err, 0)\nend")
}

var dialectTokens = regexp.MustCompile("=>|->|\\?\\.|\\?:|\\?\\[|\\?\\?|\\+\\+|\\+=|-=|\\*=|/=|%=|\\.\\.=|\\|\\|=|`|\\bclass\\b|\\bof\\b|\\bsuper\\b")

func TestNoDialectTokensRemain(t *testing.T) {
	t.Parallel()

	src := `import insert from table

class Stack
  items = {}

  function push(v: number)
    insert(self.items, v)
  end
end

local s = Stack()
s:push(1)
local add = (a, b = 0) => return a + b end
local tail = (x) -> return self?.items?[x] end
local n = 0
n += 1
n++
for k, v of {a = 1} do
  breakif v ?? false
end
local msg = ` + "`n is ${n}`" + `
local {items} = s`

	out := compileString(t, src)
	assert.NotRegexp(t, dialectTokens, out)
}
