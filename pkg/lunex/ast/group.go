package ast

import "strings"

// Group is a tag set a kind belongs to. Groups overlap freely; they are not
// a hierarchy.
type Group uint16

// Groups.
const (
	Statement Group = 1 << iota
	Expression
	Scopable
	BlockStatement
	Function
	Declaration
	ForStatement
	Clause
	TableElement
	Literal
	Loop
	Pattern
	LVal
)

var groupNames = []struct {
	group Group
	name  string
}{
	{Statement, "Statement"},
	{Expression, "Expression"},
	{Scopable, "Scopable"},
	{BlockStatement, "BlockStatement"},
	{Function, "Function"},
	{Declaration, "Declaration"},
	{ForStatement, "ForStatement"},
	{Clause, "Clause"},
	{TableElement, "TableElement"},
	{Literal, "Literal"},
	{Loop, "Loop"},
	{Pattern, "Pattern"},
	{LVal, "LVal"},
}

func (g Group) String() string {
	var parts []string

	for _, entry := range groupNames {
		if g&entry.group != 0 {
			parts = append(parts, entry.name)
		}
	}

	return strings.Join(parts, "|")
}

// GroupByName resolves a single group from its name.
func GroupByName(name string) (Group, bool) {
	for _, entry := range groupNames {
		if entry.name == name {
			return entry.group, true
		}
	}

	return 0, false
}
