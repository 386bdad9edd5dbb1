package ast

import "fmt"

// Field names a slot of a node. Child fields hold one node or a list of
// nodes; scalar fields name the string attributes a builder can assign.
type Field uint8

// Child fields.
const (
	NoField Field = iota
	FieldBody
	FieldClauses
	FieldCondition
	FieldVariables
	FieldVariable
	FieldInit
	FieldExpression
	FieldStart
	FieldEnd
	FieldStep
	FieldIterators
	FieldIdentifier
	FieldParameters
	FieldArguments
	FieldArgument
	FieldLabel
	FieldValue
	FieldNames
	FieldSource
	FieldMembers
	FieldParent
	FieldKey
	FieldDefault
	FieldParts
	FieldFields
	FieldLeft
	FieldRight
	FieldBase
	FieldIndex

	// Scalar fields, assignable through the builder only.
	ScalarName
	ScalarValue
	ScalarRaw
	ScalarOperator

	numFields
)

type fieldInfo struct {
	name   string
	list   bool
	scalar bool
}

var fieldTable = [numFields]fieldInfo{
	NoField:         {name: "-"},
	FieldBody:       {name: "body", list: true},
	FieldClauses:    {name: "clauses", list: true},
	FieldCondition:  {name: "condition"},
	FieldVariables:  {name: "variables", list: true},
	FieldVariable:   {name: "variable"},
	FieldInit:       {name: "init", list: true},
	FieldExpression: {name: "expression"},
	FieldStart:      {name: "start"},
	FieldEnd:        {name: "end"},
	FieldStep:       {name: "step"},
	FieldIterators:  {name: "iterators", list: true},
	FieldIdentifier: {name: "identifier"},
	FieldParameters: {name: "parameters", list: true},
	FieldArguments:  {name: "arguments", list: true},
	FieldArgument:   {name: "argument"},
	FieldLabel:      {name: "label"},
	FieldValue:      {name: "value"},
	FieldNames:      {name: "names", list: true},
	FieldSource:     {name: "source"},
	FieldMembers:    {name: "members", list: true},
	FieldParent:     {name: "parent"},
	FieldKey:        {name: "key"},
	FieldDefault:    {name: "default"},
	FieldParts:      {name: "parts", list: true},
	FieldFields:     {name: "fields", list: true},
	FieldLeft:       {name: "left"},
	FieldRight:      {name: "right"},
	FieldBase:       {name: "base"},
	FieldIndex:      {name: "index"},
	ScalarName:      {name: "name", scalar: true},
	ScalarValue:     {name: "value", scalar: true},
	ScalarRaw:       {name: "raw", scalar: true},
	ScalarOperator:  {name: "operator", scalar: true},
}

func (f Field) String() string {
	if f < numFields {
		return fieldTable[f].name
	}

	return fmt.Sprintf("Field(%d)", f)
}

// IsList reports whether the field holds a node list.
func (f Field) IsList() bool { return f < numFields && fieldTable[f].list }

// IsScalar reports whether the field is a string attribute.
func (f Field) IsScalar() bool { return f < numFields && fieldTable[f].scalar }
