package ast

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Builder errors.
var (
	ErrUndefinedKind = errors.New("undefined node kind")
	ErrArity         = errors.New("too many builder arguments")
	ErrArgument      = errors.New("invalid builder argument")
)

// Build allocates a node of kind in arena and assigns args positionally to
// the kind's constructor fields. Scalar fields take a string, single child
// fields a *Node and list fields a []*Node. Missing trailing arguments leave
// their fields empty.
func Build(arena *Arena, kind Kind, args ...any) (*Node, error) {
	if !Defined(kind) {
		return nil, fmt.Errorf("%w: %s", ErrUndefinedKind, kind)
	}

	ctor := ConstructorFields(kind)
	if len(args) > len(ctor) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, kind, len(ctor), len(args))
	}

	nd := arena.New(kind)

	for i, arg := range args {
		if err := assign(nd, ctor[i], arg); err != nil {
			return nil, err
		}
	}

	return nd, nil
}

func assign(nd *Node, field Field, arg any) error {
	if field.IsScalar() {
		text, ok := arg.(string)
		if !ok {
			return fmt.Errorf("%w: %s.%s wants string, got %T", ErrArgument, nd.Kind, field, arg)
		}

		switch field {
		case ScalarName:
			nd.Name = text
		case ScalarValue:
			nd.Value = text
		case ScalarRaw:
			nd.Raw = text
		case ScalarOperator:
			nd.Operator = text
		}

		return nil
	}

	if field.IsList() {
		switch list := arg.(type) {
		case nil:
		case []*Node:
			nd.SetList(field, list)
		default:
			return fmt.Errorf("%w: %s.%s wants []*Node, got %T", ErrArgument, nd.Kind, field, arg)
		}

		return nil
	}

	switch child := arg.(type) {
	case nil:
	case *Node:
		nd.SetChild(field, child)
	default:
		return fmt.Errorf("%w: %s.%s wants *Node, got %T", ErrArgument, nd.Kind, field, arg)
	}

	return nil
}

// Builder is a typed front end over Build for synthesizing nodes. Its
// methods panic on misuse since their shapes are fixed at compile time.
type Builder struct {
	Arena *Arena
}

// NewBuilder returns a Builder allocating from arena.
func NewBuilder(arena *Arena) *Builder {
	return &Builder{Arena: arena}
}

// Make builds a node and panics on error.
func (b *Builder) Make(kind Kind, args ...any) *Node {
	nd, err := Build(b.Arena, kind, args...)
	if err != nil {
		panic(err)
	}

	return nd
}

// Ident builds an identifier.
func (b *Builder) Ident(name string) *Node { return b.Make(Identifier, name) }

// LocalIdent builds an identifier flagged local.
func (b *Builder) LocalIdent(name string) *Node {
	nd := b.Ident(name)
	nd.Set(IsLocal)

	return nd
}

// Str builds a string literal with a quoted raw form.
func (b *Builder) Str(value string) *Node {
	return b.Make(StringLiteral, value, QuoteString(value))
}

// Num builds a numeric literal.
func (b *Builder) Num(raw string) *Node { return b.Make(NumericLiteral, raw, raw) }

// Int builds an integer literal.
func (b *Builder) Int(value int) *Node { return b.Num(strconv.Itoa(value)) }

// Bool builds a boolean literal.
func (b *Builder) Bool(value bool) *Node { return b.Make(BooleanLiteral, strconv.FormatBool(value)) }

// Nil builds nil.
func (b *Builder) Nil() *Node { return b.Make(NilLiteral) }

// Vararg builds `...`.
func (b *Builder) Vararg() *Node { return b.Make(VarargLiteral) }

// Member builds base.name.
func (b *Builder) Member(base *Node, name string) *Node {
	return b.Make(MemberExpression, base, ".", b.Ident(name))
}

// Method builds base:name for use as a call base.
func (b *Builder) Method(base *Node, name string) *Node {
	return b.Make(MemberExpression, base, ":", b.Ident(name))
}

// Index builds base[index].
func (b *Builder) Index(base, index *Node) *Node { return b.Make(IndexExpression, base, index) }

// Call builds base(args...).
func (b *Builder) Call(base *Node, args ...*Node) *Node {
	return b.Make(CallExpression, base, nonNil(args))
}

// CallNamed builds name(args...).
func (b *Builder) CallNamed(name string, args ...*Node) *Node { return b.Call(b.Ident(name), args...) }

// CallStmt wraps a call expression in a statement.
func (b *Builder) CallStmt(call *Node) *Node { return b.Make(CallStatement, call) }

// Binary builds left op right.
func (b *Builder) Binary(op string, left, right *Node) *Node {
	return b.Make(BinaryExpression, op, left, right)
}

// Logical builds left and|or right.
func (b *Builder) Logical(op string, left, right *Node) *Node {
	return b.Make(LogicalExpression, op, left, right)
}

// Unary builds op argument.
func (b *Builder) Unary(op string, argument *Node) *Node { return b.Make(UnaryExpression, op, argument) }

// Paren marks expr as parenthesized and returns it.
func (b *Builder) Paren(expr *Node) *Node {
	expr.Set(InParens)

	return expr
}

// Local builds `local vars = init`.
func (b *Builder) Local(vars, init []*Node) *Node { return b.Make(LocalStatement, vars, nonNil(init)) }

// LocalNames builds `local n1, n2 = init`.
func (b *Builder) LocalNames(names []string, init ...*Node) *Node {
	vars := make([]*Node, len(names))
	for i, name := range names {
		vars[i] = b.LocalIdent(name)
	}

	return b.Local(vars, init)
}

// Assign builds `vars = init`.
func (b *Builder) Assign(vars, init []*Node) *Node {
	return b.Make(AssignmentStatement, vars, init)
}

// Return builds `return args`.
func (b *Builder) Return(args ...*Node) *Node { return b.Make(ReturnStatement, nonNil(args)) }

// If builds `if cond then body end`.
func (b *Builder) If(cond *Node, body ...*Node) *Node {
	clause := b.Make(IfClause, cond, nonNil(body))

	return b.Make(IfStatement, []*Node{clause})
}

// Do builds `do body end`.
func (b *Builder) Do(body ...*Node) *Node { return b.Make(DoStatement, nonNil(body)) }

// Func builds `function(params) body end`.
func (b *Builder) Func(params []*Node, body ...*Node) *Node {
	return b.Make(FunctionExpression, nonNil(params), nonNil(body))
}

// Param builds a plain parameter named name.
func (b *Builder) Param(name string) *Node {
	return b.Make(Parameter, b.LocalIdent(name))
}

// Table builds a table constructor.
func (b *Builder) Table(fields ...*Node) *Node {
	return b.Make(TableConstructorExpression, nonNil(fields))
}

// KeyString builds `name = value` inside a table.
func (b *Builder) KeyString(name string, value *Node) *Node {
	return b.Make(TableKeyString, b.Ident(name), value)
}

// Item builds a positional table field.
func (b *Builder) Item(value *Node) *Node { return b.Make(TableValue, value) }

// Label builds `::name::`.
func (b *Builder) Label(name string) *Node { return b.Make(LabelStatement, b.Ident(name)) }

// Goto builds `goto name`.
func (b *Builder) Goto(name string) *Node { return b.Make(GotoStatement, b.Ident(name)) }

// Break builds `break`.
func (b *Builder) Break() *Node { return b.Make(BreakStatement) }

func nonNil(list []*Node) []*Node {
	if list == nil {
		return []*Node{}
	}

	return list
}

// QuoteString renders value as a double-quoted Lua string literal.
func QuoteString(value string) string {
	var buf strings.Builder

	buf.Grow(len(value) + 2)
	buf.WriteByte('"')

	for i := range len(value) {
		ch := value[i]

		switch ch {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if ch < 0x20 || ch == 0x7f {
				// Three digits so a following digit is not absorbed.
				fmt.Fprintf(&buf, `\%03d`, ch)

				continue
			}

			buf.WriteByte(ch)
		}
	}

	buf.WriteByte('"')

	return buf.String()
}
