// Package ast defines the dialect syntax tree: a closed set of node kinds,
// the registry that declares each kind's child fields and groups, the
// generic Node, a per-compile Arena and the Builder.
package ast

import "fmt"

// Kind identifies the variant of a Node.
type Kind uint8

// Node kinds.
const (
	InvalidKind Kind = iota

	// Program and blocks.
	Chunk
	DoStatement

	// Statements.
	LocalStatement
	AssignmentStatement
	CallStatement
	WhileStatement
	RepeatStatement
	IfStatement
	IfClause
	ElseifClause
	ElseClause
	ForNumericStatement
	ForGenericStatement
	ForOfStatement
	FunctionDeclaration
	ReturnStatement
	BreakStatement
	GotoStatement
	LabelStatement
	ContinueStatement
	MutationStatement
	DestructuringStatement
	StopIfStatement
	BreakIfStatement
	ContinueIfStatement
	ImportStatement
	ThrowStatement
	ClassDeclaration
	ClassField
	ClassMethod

	// Expressions.
	Identifier
	StringLiteral
	NumericLiteral
	BooleanLiteral
	NilLiteral
	VarargLiteral
	TemplateString
	FunctionExpression
	ArrowFunctionExpression
	Parameter
	TableConstructorExpression
	TableKey
	TableKeyString
	TableValue
	SpreadElement
	BinaryExpression
	LogicalExpression
	NilCoalesceExpression
	UnaryExpression
	MemberExpression
	IndexExpression
	CallExpression
	SafeMemberExpression
	SuperExpression
	AwaitExpression

	numKinds
)

var kindNames = [numKinds]string{
	InvalidKind:                "Invalid",
	Chunk:                      "Chunk",
	DoStatement:                "DoStatement",
	LocalStatement:             "LocalStatement",
	AssignmentStatement:        "AssignmentStatement",
	CallStatement:              "CallStatement",
	WhileStatement:             "WhileStatement",
	RepeatStatement:            "RepeatStatement",
	IfStatement:                "IfStatement",
	IfClause:                   "IfClause",
	ElseifClause:               "ElseifClause",
	ElseClause:                 "ElseClause",
	ForNumericStatement:        "ForNumericStatement",
	ForGenericStatement:        "ForGenericStatement",
	ForOfStatement:             "ForOfStatement",
	FunctionDeclaration:        "FunctionDeclaration",
	ReturnStatement:            "ReturnStatement",
	BreakStatement:             "BreakStatement",
	GotoStatement:              "GotoStatement",
	LabelStatement:             "LabelStatement",
	ContinueStatement:          "ContinueStatement",
	MutationStatement:          "MutationStatement",
	DestructuringStatement:     "DestructuringStatement",
	StopIfStatement:            "StopIfStatement",
	BreakIfStatement:           "BreakIfStatement",
	ContinueIfStatement:        "ContinueIfStatement",
	ImportStatement:            "ImportStatement",
	ThrowStatement:             "ThrowStatement",
	ClassDeclaration:           "ClassDeclaration",
	ClassField:                 "ClassField",
	ClassMethod:                "ClassMethod",
	Identifier:                 "Identifier",
	StringLiteral:              "StringLiteral",
	NumericLiteral:             "NumericLiteral",
	BooleanLiteral:             "BooleanLiteral",
	NilLiteral:                 "NilLiteral",
	VarargLiteral:              "VarargLiteral",
	TemplateString:             "TemplateString",
	FunctionExpression:         "FunctionExpression",
	ArrowFunctionExpression:    "ArrowFunctionExpression",
	Parameter:                  "Parameter",
	TableConstructorExpression: "TableConstructorExpression",
	TableKey:                   "TableKey",
	TableKeyString:             "TableKeyString",
	TableValue:                 "TableValue",
	SpreadElement:              "SpreadElement",
	BinaryExpression:           "BinaryExpression",
	LogicalExpression:          "LogicalExpression",
	NilCoalesceExpression:      "NilCoalesceExpression",
	UnaryExpression:            "UnaryExpression",
	MemberExpression:           "MemberExpression",
	IndexExpression:            "IndexExpression",
	CallExpression:             "CallExpression",
	SafeMemberExpression:       "SafeMemberExpression",
	SuperExpression:            "SuperExpression",
	AwaitExpression:            "AwaitExpression",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", k)
}

// KindByName resolves a kind from its name.
func KindByName(name string) (Kind, bool) {
	for k := Kind(1); k < numKinds; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}

	return InvalidKind, false
}

// AllKinds returns every defined kind in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, 0, numKinds-1)
	for k := Kind(1); k < numKinds; k++ {
		out = append(out, k)
	}

	return out
}
