package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

// runLua compiles src and runs the output, returning the named globals.
func runLua(t *testing.T, src string, globals ...string) map[string]lua.LValue {
	t.Helper()

	out := compileString(t, src)

	state := lua.NewState()
	defer state.Close()

	require.NoError(t, state.DoString(out), out)

	values := make(map[string]lua.LValue, len(globals))
	for _, name := range globals {
		values[name] = state.GetGlobal(name)
	}

	return values
}

const accessorClasses = `class A
  function constructor(y)
    self.y = y
  end

  _get val()
    return self.y
  end

  _set val(v)
    self.y = v * 2
  end
end

class B extends A
  function constructor(y)
    super(y)
  end
end

class C extends B
  _get twice()
    return self.y * 2
  end
end
`

func TestInheritedAccessorsRun(t *testing.T) {
	t.Parallel()

	src := accessorClasses + `
local a, b, c = A(3), B(7), C(4)
aval = a.val
bval = b.val
b.val = 5
by = b.y
cval = c.val
ctwice = c.twice
c.val = 1
cy = c.y
`

	got := runLua(t, src, "aval", "bval", "by", "cval", "ctwice", "cy")

	assert.Equal(t, lua.LNumber(3), got["aval"])
	assert.Equal(t, lua.LNumber(7), got["bval"])
	assert.Equal(t, lua.LNumber(10), got["by"])
	assert.Equal(t, lua.LNumber(4), got["cval"])
	assert.Equal(t, lua.LNumber(8), got["ctwice"])
	assert.Equal(t, lua.LNumber(2), got["cy"])
}

func TestDerivedClassWithoutAccessorsRuns(t *testing.T) {
	t.Parallel()

	src := `class Base
  function constructor(name)
    self.name = name
  end

  function greet()
    return "hi " .. self.name
  end
end

class Child extends Base
  function greet()
    return super:greet() .. "!"
  end
end

local c = Child("ann")
greeting = c:greet()
c.extra = 1
extra = rawget(c, "extra")
kind = c:__type()
`

	got := runLua(t, src, "greeting", "extra", "kind")

	assert.Equal(t, lua.LString("hi ann!"), got["greeting"])
	assert.Equal(t, lua.LNumber(1), got["extra"])
	assert.Equal(t, lua.LString("Child"), got["kind"])
}

func TestDerivedClassReusesParentAccessors(t *testing.T) {
	t.Parallel()

	out := compileString(t, accessorClasses)

	assert.Contains(t, out, `local _getters1 = rawget(_parent.__base, "__getters")`)
	assert.Contains(t, out, "if _getters1 then\n    _base1.__getters = _getters1")
	assert.Contains(t, out, "else\n    _base1.__index = _base1\n  end")
	assert.Contains(t, out, `local _setters1 = rawget(_parent.__base, "__setters")`)
	assert.Contains(t, out, `setmetatable(_getters2, {__index = rawget(_parent1.__base, "__getters")})`)
}
