package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	dialectKeywords = []protocol.CompletionItem{
		completionItem("class", protocol.CompletionItemKindKeyword, "Class declaration"),
		completionItem("extends", protocol.CompletionItemKindKeyword, "Parent class"),
		completionItem("static", protocol.CompletionItemKindKeyword, "Class-level member"),
		completionItem("public", protocol.CompletionItemKindKeyword, "Member visible on instances"),
		completionItem("private", protocol.CompletionItemKindKeyword, "Member hidden from instances"),
		completionItem("super", protocol.CompletionItemKindKeyword, "Parent class method call"),
		completionItem("async", protocol.CompletionItemKindKeyword, "Function returning a promise"),
		completionItem("await", protocol.CompletionItemKindKeyword, "Suspend until a promise settles"),
		completionItem("throw", protocol.CompletionItemKindKeyword, "Raise an error"),
		completionItem("import", protocol.CompletionItemKindKeyword, "Bind names from a module table"),
		completionItem("of", protocol.CompletionItemKindKeyword, "Table iteration in for"),
		completionItem("stopif", protocol.CompletionItemKindKeyword, "Return when all conditions hold"),
		completionItem("breakif", protocol.CompletionItemKindKeyword, "Break when all conditions hold"),
		completionItem("continueif", protocol.CompletionItemKindKeyword, "Continue when all conditions hold"),
		completionItem("continue", protocol.CompletionItemKindKeyword, "Next loop iteration"),
	}

	dialectOperators = []protocol.CompletionItem{
		completionItem("?.", protocol.CompletionItemKindOperator, "Safe member access"),
		completionItem("?:", protocol.CompletionItemKindOperator, "Safe method call"),
		completionItem("?[", protocol.CompletionItemKindOperator, "Safe index"),
		completionItem("??", protocol.CompletionItemKindOperator, "Nil coalescing"),
		completionItem("=>", protocol.CompletionItemKindOperator, "Arrow function"),
		completionItem("->", protocol.CompletionItemKindOperator, "Arrow method with self"),
	}

	// hoverOperators is ordered longest first.
	hoverOperators = []string{"..=", "||=", "?.", "?:", "?[", "??", "=>", "->", "++", "+=", "-=", "*=", "/=", "%="}

	hoverDocs = map[string]string{
		"class":      "Declares a class. Example: `class Point extends Base ... end`.",
		"extends":    "Names the parent class. Instances fall back to the parent's methods.",
		"static":     "Marks a member as stored on the class table, not on instances.",
		"public":     "Marks a member as visible on instances. Members are public by default.",
		"private":    "Marks a member as reachable only from the class body.",
		"super":      "Calls the parent constructor (`super(x)`) or a parent method (`super.draw()`) with the current `self`.",
		"async":      "Declares a function that returns a promise-like value with `next(onSuccess, onError)`.",
		"await":      "Suspends the enclosing async function until the value settles. Only valid inside `async` functions.",
		"throw":      "Raises an error. Example: `throw \"bad input\"`.",
		"import":     "Binds names as members of a module expression. Example: `import sin, cos from math`.",
		"of":         "Iterates a table with `pairs`. Example: `for k, v of t do ... end`.",
		"stopif":     "Returns from the function when every listed condition holds. Example: `stopif x == nil`.",
		"breakif":    "Leaves the loop when every listed condition holds.",
		"continueif": "Skips to the next iteration when every listed condition holds.",
		"continue":   "Skips to the next loop iteration.",
		"?.":         "Safe member access: evaluates to nil when the left side is nil. Example: `a?.b`.",
		"?:":         "Safe method call: skips the call when the receiver is nil. Example: `a?:m()`.",
		"?[":         "Safe index: evaluates to nil when the left side is nil. Example: `a?[k]`.",
		"??":         "Nil coalescing: the left side unless it is nil. Example: `x ?? 0`.",
		"=>":         "Arrow function. Example: `(a, b) => return a + b end`.",
		"->":         "Arrow function with an implicit `self` first parameter.",
		"++":         "Increments the target by one. Example: `i++`.",
		"..=":        "Appends to a string. Example: `s ..= \"x\"`.",
		"||=":        "Assigns when the target is nil or false. Example: `t ||= {}` is `t = t or {}`.",
		"+=":         "Adds to the target. Example: `n += 2`.",
		"-=":         "Subtracts from the target.",
		"*=":         "Multiplies the target.",
		"/=":         "Divides the target.",
		"%=":         "Stores the remainder in the target.",
	}
)

func completionItem(label string, kind protocol.CompletionItemKind, detail string) protocol.CompletionItem {
	return protocol.CompletionItem{
		Label:  label,
		Kind:   &kind,
		Detail: &detail,
	}
}
