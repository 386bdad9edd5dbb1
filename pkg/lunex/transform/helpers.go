package transform

import (
	"fmt"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/parser"
)

// Runtime helper names. Lowered code calls them as plain locals.
const (
	helperConcatTables = "__concat_tables"
	helperAsync        = "__async"
	helperAwait        = "__await"
)

// helperSources holds each helper in the order it is emitted.
var helperSources = []struct {
	name string
	src  string
}{
	{helperConcatTables, `local function __concat_tables(...)
  local result = {}
  for i = 1, select("#", ...) do
    local source = select(i, ...)
    for _, value in ipairs(source) do
      result[#result + 1] = value
    end
    for key, value in pairs(source) do
      if type(key) ~= "number" then
        result[key] = value
      end
    end
  end
  return result
end`},
	{helperAsync, `local function __async(body, ...)
  local promise = {state = "pending", callbacks = {}}
  function promise:next(onSuccess, onError)
    if self.state == "pending" then
      table.insert(self.callbacks, {onSuccess, onError})
    elseif self.state == "resolved" then
      if onSuccess then
        onSuccess(self.value)
      end
    elseif onError then
      onError(self.value)
    end
    return self
  end
  local function settle(state, value)
    promise.state = state
    promise.value = value
    for _, callback in ipairs(promise.callbacks) do
      local handler = callback[state == "resolved" and 1 or 2]
      if handler then
        handler(value)
      end
    end
    promise.callbacks = {}
  end
  local thread = coroutine.create(body)
  local function step(...)
    local ok, result = coroutine.resume(thread, ...)
    if not ok then
      settle("rejected", result)
    elseif coroutine.status(thread) == "dead" then
      settle("resolved", result)
    else
      result:next(function(value)
        step(true, value)
      end, function(err)
        step(false, err)
      end)
    end
  end
  step(...)
  return promise
end`},
	{helperAwait, `local function __await(value)
  if type(value) ~= "table" or type(value.next) ~= "function" then
    return value
  end
  local ok, result = coroutine.yield(value)
  if not ok then
    error(result, 0)
  end
  return result
end`},
}

// use marks a helper as referenced by the lowered code.
func (c *compiler) use(name string) { c.helpers[name] = true }

// materializeHelpers parses the referenced helpers into the compile's arena
// and prepends them to the chunk. It returns the helper names in emission
// order.
func (c *compiler) materializeHelpers() ([]string, error) {
	var (
		stmts []*ast.Node
		used  []string
	)

	for _, h := range helperSources {
		if !c.helpers[h.name] {
			continue
		}

		body, err := c.snippet(h.src)
		if err != nil {
			return nil, fmt.Errorf("helper %s: %w", h.name, err)
		}

		stmts = append(stmts, body...)
		used = append(used, h.name)
	}

	if len(stmts) == 0 {
		return nil, nil
	}

	root := c.ctx.Root().Node
	root.SetList(ast.FieldBody, append(stmts, root.Body()...))

	return used, nil
}

// snippet parses plain Lua into the compile's arena and returns its
// statements without source positions, so they print as synthetic code.
func (c *compiler) snippet(src string) ([]*ast.Node, error) {
	chunk, _, err := parser.Parse(src, parser.Options{Arena: c.ctx.Arena})
	if err != nil {
		return nil, err
	}

	chunk.Walk(func(n *ast.Node) bool {
		n.Loc = nil
		n.Span = ast.Span{}

		return true
	})

	return chunk.Body(), nil
}

// snippetExpr parses a single expression the way snippet parses statements.
func (c *compiler) snippetExpr(src string) (*ast.Node, error) {
	body, err := c.snippet("return " + src)
	if err != nil {
		return nil, err
	}

	return body[0].List(ast.FieldArguments)[0], nil
}
