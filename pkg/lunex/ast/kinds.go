package ast

func fields(list ...Field) []Field { return list }

func init() {
	block := Scopable | BlockStatement
	loop := Statement | Loop | block
	function := Function | block

	DefineKind(Chunk, KindSpec{ChildFields: fields(FieldBody), Groups: block})
	DefineKind(DoStatement, KindSpec{ChildFields: fields(FieldBody), Groups: Statement | block})

	DefineKind(LocalStatement, KindSpec{
		ChildFields: fields(FieldVariables, FieldInit),
		Groups:      Statement | Declaration,
	})
	DefineKind(AssignmentStatement, KindSpec{
		ChildFields: fields(FieldVariables, FieldInit),
		Groups:      Statement,
	})
	DefineKind(CallStatement, KindSpec{ChildFields: fields(FieldExpression), Groups: Statement})
	DefineKind(WhileStatement, KindSpec{ChildFields: fields(FieldCondition, FieldBody), Groups: loop})
	DefineKind(RepeatStatement, KindSpec{
		ChildFields:       fields(FieldBody, FieldCondition),
		ConstructorFields: fields(FieldCondition, FieldBody),
		Groups:            loop,
	})
	DefineKind(IfStatement, KindSpec{ChildFields: fields(FieldClauses), Groups: Statement})
	DefineKind(IfClause, KindSpec{ChildFields: fields(FieldCondition, FieldBody), Groups: Clause | block})
	DefineKind(ElseifClause, KindSpec{ChildFields: fields(FieldCondition, FieldBody), Groups: Clause | block})
	DefineKind(ElseClause, KindSpec{ChildFields: fields(FieldBody), Groups: Clause | block})
	DefineKind(ForNumericStatement, KindSpec{
		ChildFields: fields(FieldVariable, FieldStart, FieldEnd, FieldStep, FieldBody),
		Groups:      loop | ForStatement,
	})
	DefineKind(ForGenericStatement, KindSpec{
		ChildFields: fields(FieldVariables, FieldIterators, FieldBody),
		Groups:      loop | ForStatement,
	})
	DefineKind(ForOfStatement, KindSpec{
		ChildFields: fields(FieldVariables, FieldIterators, FieldBody),
		Groups:      loop | ForStatement,
	})
	DefineKind(FunctionDeclaration, KindSpec{
		ChildFields: fields(FieldIdentifier, FieldParameters, FieldBody),
		Groups:      Statement | Declaration | function,
	})
	DefineKind(ReturnStatement, KindSpec{ChildFields: fields(FieldArguments), Groups: Statement})
	DefineKind(BreakStatement, KindSpec{Groups: Statement})
	DefineKind(GotoStatement, KindSpec{ChildFields: fields(FieldLabel), Groups: Statement})
	DefineKind(LabelStatement, KindSpec{ChildFields: fields(FieldLabel), Groups: Statement})
	DefineKind(ContinueStatement, KindSpec{Groups: Statement})
	DefineKind(MutationStatement, KindSpec{
		ChildFields:       fields(FieldVariable, FieldValue),
		ConstructorFields: fields(ScalarOperator, FieldVariable, FieldValue),
		Groups:            Statement,
	})
	DefineKind(DestructuringStatement, KindSpec{
		ChildFields: fields(FieldNames, FieldValue),
		Groups:      Statement | Declaration,
	})
	DefineKind(StopIfStatement, KindSpec{ChildFields: fields(FieldArguments), Groups: Statement})
	DefineKind(BreakIfStatement, KindSpec{ChildFields: fields(FieldArguments), Groups: Statement})
	DefineKind(ContinueIfStatement, KindSpec{ChildFields: fields(FieldArguments), Groups: Statement})
	DefineKind(ImportStatement, KindSpec{
		ChildFields: fields(FieldNames, FieldSource),
		Groups:      Statement | Declaration,
	})
	DefineKind(ThrowStatement, KindSpec{ChildFields: fields(FieldArgument), Groups: Statement})
	DefineKind(ClassDeclaration, KindSpec{
		ChildFields: fields(FieldIdentifier, FieldParent, FieldMembers),
		Groups:      Statement | Declaration | Scopable,
	})
	DefineKind(ClassField, KindSpec{ChildFields: fields(FieldKey, FieldValue)})
	DefineKind(ClassMethod, KindSpec{
		ChildFields: fields(FieldKey, FieldParameters, FieldBody),
		Groups:      function,
	})

	DefineKind(Identifier, KindSpec{ConstructorFields: fields(ScalarName), Groups: Expression | LVal})
	DefineKind(StringLiteral, KindSpec{
		ConstructorFields: fields(ScalarValue, ScalarRaw),
		Groups:            Expression | Literal,
	})
	DefineKind(NumericLiteral, KindSpec{
		ConstructorFields: fields(ScalarValue, ScalarRaw),
		Groups:            Expression | Literal,
	})
	DefineKind(BooleanLiteral, KindSpec{ConstructorFields: fields(ScalarValue), Groups: Expression | Literal})
	DefineKind(NilLiteral, KindSpec{Groups: Expression | Literal})
	DefineKind(VarargLiteral, KindSpec{Groups: Expression | Literal})
	DefineKind(TemplateString, KindSpec{ChildFields: fields(FieldParts), Groups: Expression | Literal})
	DefineKind(FunctionExpression, KindSpec{
		ChildFields: fields(FieldParameters, FieldBody),
		Groups:      Expression | function,
	})
	DefineKind(ArrowFunctionExpression, KindSpec{
		ChildFields: fields(FieldParameters, FieldBody),
		Groups:      Expression | function,
	})
	DefineKind(Parameter, KindSpec{ChildFields: fields(FieldIdentifier, FieldDefault), Groups: Pattern})
	DefineKind(TableConstructorExpression, KindSpec{ChildFields: fields(FieldFields), Groups: Expression})
	DefineKind(TableKey, KindSpec{ChildFields: fields(FieldKey, FieldValue), Groups: TableElement})
	DefineKind(TableKeyString, KindSpec{ChildFields: fields(FieldKey, FieldValue), Groups: TableElement})
	DefineKind(TableValue, KindSpec{ChildFields: fields(FieldValue), Groups: TableElement})
	DefineKind(SpreadElement, KindSpec{ChildFields: fields(FieldArgument), Groups: Expression | TableElement})
	DefineKind(BinaryExpression, KindSpec{
		ChildFields:       fields(FieldLeft, FieldRight),
		ConstructorFields: fields(ScalarOperator, FieldLeft, FieldRight),
		Groups:            Expression,
	})
	DefineKind(LogicalExpression, KindSpec{
		ChildFields:       fields(FieldLeft, FieldRight),
		ConstructorFields: fields(ScalarOperator, FieldLeft, FieldRight),
		Groups:            Expression,
	})
	DefineKind(NilCoalesceExpression, KindSpec{ChildFields: fields(FieldLeft, FieldRight), Groups: Expression})
	DefineKind(UnaryExpression, KindSpec{
		ChildFields:       fields(FieldArgument),
		ConstructorFields: fields(ScalarOperator, FieldArgument),
		Groups:            Expression,
	})
	DefineKind(MemberExpression, KindSpec{
		ChildFields:       fields(FieldBase, FieldIdentifier),
		ConstructorFields: fields(FieldBase, ScalarOperator, FieldIdentifier),
		Groups:            Expression | LVal,
	})
	DefineKind(IndexExpression, KindSpec{ChildFields: fields(FieldBase, FieldIndex), Groups: Expression | LVal})
	DefineKind(CallExpression, KindSpec{ChildFields: fields(FieldBase, FieldArguments), Groups: Expression})
	DefineKind(SafeMemberExpression, KindSpec{
		ChildFields:       fields(FieldBase, FieldIdentifier, FieldIndex, FieldArguments),
		ConstructorFields: fields(FieldBase, ScalarOperator, FieldIdentifier, FieldIndex, FieldArguments),
		Groups:            Expression,
	})
	DefineKind(SuperExpression, KindSpec{Groups: Expression})
	DefineKind(AwaitExpression, KindSpec{ChildFields: fields(FieldArgument), Groups: Expression})
}
