package ast

import (
	"strings"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// NodeID is the dense index of a node inside its Arena.
type NodeID int32

// Flags is the per-node flag set.
type Flags uint32

// Node flags.
const (
	IsLocal Flags = 1 << iota
	InParens
	IsAsync
	IsStatic
	IsPublic
	IsPrivate
	IsMethod
	Optional
	ThinArrow
	Vararg
	LongString
	Getter
	Setter
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{IsLocal, "isLocal"},
	{InParens, "inParens"},
	{IsAsync, "isAsync"},
	{IsStatic, "isStatic"},
	{IsPublic, "isPublic"},
	{IsPrivate, "isPrivate"},
	{IsMethod, "isMethod"},
	{Optional, "optional"},
	{ThinArrow, "thinArrow"},
	{Vararg, "vararg"},
	{LongString, "longString"},
	{Getter, "getter"},
	{Setter, "setter"},
}

// Names returns the names of the set flags.
func (f Flags) Names() []string {
	var out []string

	for _, entry := range flagNames {
		if f&entry.flag != 0 {
			out = append(out, entry.name)
		}
	}

	return out
}

// Span is a half-open byte range into the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the span covers source text. Synthetic nodes carry
// an empty span.
func (s Span) Valid() bool { return s.End > s.Start }

type slot struct {
	node *Node
	list []*Node
}

// Node is a syntax tree node. Its child slots are exactly the ones the
// registry declares for Kind.
type Node struct {
	ID       NodeID
	Kind     Kind
	Loc      *lexer.Location
	Span     Span
	Name     string
	Value    string
	Raw      string
	Operator string
	Flags    Flags

	// Globals lists the free identifier names of a Chunk.
	Globals []string

	slots []slot
}

// Is reports whether the node kind belongs to any group in g.
func (n *Node) Is(g Group) bool { return n != nil && n.Kind.Is(g) }

// Has reports whether all flags in f are set.
func (n *Node) Has(f Flags) bool { return n != nil && n.Flags&f == f }

// Set sets the flags in f.
func (n *Node) Set(f Flags) { n.Flags |= f }

// Clear clears the flags in f.
func (n *Node) Clear(f Flags) { n.Flags &^= f }

// Child returns the node in a single-node field, nil when empty or undeclared.
func (n *Node) Child(field Field) *Node {
	idx := slotIndex(n.Kind, field)
	if idx < 0 {
		return nil
	}

	return n.slots[idx].node
}

// List returns the nodes of a list field. The slice is shared with the node.
func (n *Node) List(field Field) []*Node {
	idx := slotIndex(n.Kind, field)
	if idx < 0 {
		return nil
	}

	return n.slots[idx].list
}

// SetChild stores child in a single-node field.
func (n *Node) SetChild(field Field, child *Node) {
	n.slots[n.mustSlot(field, false)].node = child
}

// SetList stores list in a list field.
func (n *Node) SetList(field Field, list []*Node) {
	n.slots[n.mustSlot(field, true)].list = list
}

// Append appends nodes to a list field.
func (n *Node) Append(field Field, nodes ...*Node) {
	idx := n.mustSlot(field, true)
	n.slots[idx].list = append(n.slots[idx].list, nodes...)
}

// Prepend inserts nodes at the front of a list field.
func (n *Node) Prepend(field Field, nodes ...*Node) {
	idx := n.mustSlot(field, true)
	list := make([]*Node, 0, len(nodes)+len(n.slots[idx].list))
	list = append(list, nodes...)
	n.slots[idx].list = append(list, n.slots[idx].list...)
}

// Fields returns the child fields of the node in traversal order.
func (n *Node) Fields() []Field { return ChildFields(n.Kind) }

// Children returns all direct children in traversal order.
func (n *Node) Children() []*Node {
	var out []*Node

	for _, field := range n.Fields() {
		if field.IsList() {
			for _, child := range n.List(field) {
				if child != nil {
					out = append(out, child)
				}
			}

			continue
		}

		if child := n.Child(field); child != nil {
			out = append(out, child)
		}
	}

	return out
}

// Walk visits n and its descendants in pre-order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	for _, child := range n.Children() {
		child.Walk(fn)
	}
}

// Body returns the Body list, nil for kinds without one.
func (n *Node) Body() []*Node { return n.List(FieldBody) }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	var buf strings.Builder

	buf.WriteString(n.Kind.String())

	switch {
	case n.Name != "":
		buf.WriteString("(" + n.Name + ")")
	case n.Operator != "":
		buf.WriteString("(" + n.Operator + ")")
	case n.Raw != "":
		buf.WriteString("(" + n.Raw + ")")
	}

	return buf.String()
}

func (n *Node) mustSlot(field Field, list bool) int {
	idx := slotIndex(n.Kind, field)
	if idx < 0 || field.IsList() != list {
		panic("ast: " + n.Kind.String() + " has no " + cardinality(list) + " field " + field.String())
	}

	return idx
}

func cardinality(list bool) string {
	if list {
		return "list"
	}

	return "single"
}
