package ast

// ToMap converts the tree rooted at n into nested maps suitable for JSON or
// YAML encoding.
func ToMap(n *Node) map[string]any {
	if n == nil {
		return nil
	}

	result := map[string]any{"type": n.Kind.String()}

	addString(result, "name", n.Name)
	addString(result, "value", n.Value)
	addString(result, "raw", n.Raw)
	addString(result, "operator", n.Operator)

	if names := n.Flags.Names(); len(names) > 0 {
		result["flags"] = names
	}

	if n.Loc != nil {
		result["loc"] = map[string]any{
			"start": map[string]int{"line": n.Loc.StartLine, "column": n.Loc.StartCol},
			"end":   map[string]int{"line": n.Loc.EndLine, "column": n.Loc.EndCol},
		}
	}

	if n.Span.Valid() {
		result["range"] = []int{n.Span.Start, n.Span.End}
	}

	if len(n.Globals) > 0 {
		result["globals"] = n.Globals
	}

	for _, field := range n.Fields() {
		if field.IsList() {
			list := n.List(field)
			items := make([]map[string]any, 0, len(list))

			for _, child := range list {
				items = append(items, ToMap(child))
			}

			result[field.String()] = items

			continue
		}

		if child := n.Child(field); child != nil {
			result[field.String()] = ToMap(child)
		}
	}

	return result
}

func addString(result map[string]any, key, value string) {
	if value != "" {
		result[key] = value
	}
}
