package ast

import "fmt"

// KindSpec declares the shape of a node kind.
type KindSpec struct {
	// ChildFields are the child slots in traversal order.
	ChildFields []Field
	// ConstructorFields is the Build argument order. It may reorder child
	// fields, omit some and name scalar fields. Nil means ChildFields.
	ConstructorFields []Field
	// Groups the kind is tagged with.
	Groups Group
}

type kindEntry struct {
	spec    KindSpec
	slotOf  [numFields]int8
	defined bool
}

var (
	registry   [numKinds]kindEntry
	groupKinds = map[Group][]Kind{}
)

// DefineKind registers the shape of kind. It panics on an inconsistent
// definition; every kind is defined once at package init.
func DefineKind(kind Kind, spec KindSpec) {
	if kind == InvalidKind || kind >= numKinds {
		panic(fmt.Sprintf("ast: cannot define kind %d", kind))
	}

	entry := &registry[kind]
	if entry.defined {
		panic("ast: kind defined twice: " + kind.String())
	}

	if _, clash := GroupByName(kind.String()); clash {
		panic("ast: kind name is also a group name: " + kind.String())
	}

	for i := range entry.slotOf {
		entry.slotOf[i] = -1
	}

	for i, field := range spec.ChildFields {
		if field == NoField || field.IsScalar() {
			panic(fmt.Sprintf("ast: %s: %s is not a child field", kind, field))
		}

		if entry.slotOf[field] >= 0 {
			panic(fmt.Sprintf("ast: %s: duplicate field %s", kind, field))
		}

		entry.slotOf[field] = int8(i)
	}

	if spec.ConstructorFields == nil {
		spec.ConstructorFields = spec.ChildFields
	}

	for _, field := range spec.ConstructorFields {
		if !field.IsScalar() && entry.slotOf[field] < 0 {
			panic(fmt.Sprintf("ast: %s: constructor field %s is not a child field", kind, field))
		}
	}

	entry.spec = spec
	entry.defined = true

	for _, group := range groupNames {
		if spec.Groups&group.group != 0 {
			groupKinds[group.group] = append(groupKinds[group.group], kind)
		}
	}
}

// Defined reports whether kind has been registered.
func Defined(kind Kind) bool {
	return kind < numKinds && registry[kind].defined
}

// ChildFields returns the child fields of kind in traversal order.
func ChildFields(kind Kind) []Field {
	return registry[kind].spec.ChildFields
}

// ConstructorFields returns the Build argument order of kind.
func ConstructorFields(kind Kind) []Field {
	return registry[kind].spec.ConstructorFields
}

// GroupsOf returns the groups kind is tagged with.
func GroupsOf(kind Kind) Group {
	return registry[kind].spec.Groups
}

// HasField reports whether kind declares the child field.
func HasField(kind Kind, field Field) bool {
	return kind < numKinds && field < numFields && registry[kind].slotOf[field] >= 0
}

// KindsIn returns every kind tagged with any group in g.
func KindsIn(g Group) []Kind {
	seen := make(map[Kind]bool)

	var out []Kind

	for _, entry := range groupNames {
		if g&entry.group == 0 {
			continue
		}

		for _, kind := range groupKinds[entry.group] {
			if !seen[kind] {
				seen[kind] = true
				out = append(out, kind)
			}
		}
	}

	return out
}

// Is reports whether the kind belongs to any of the groups in g.
func (k Kind) Is(g Group) bool {
	return k < numKinds && registry[k].spec.Groups&g != 0
}

func slotIndex(kind Kind, field Field) int {
	if kind >= numKinds || field >= numFields {
		return -1
	}

	return int(registry[kind].slotOf[field])
}
