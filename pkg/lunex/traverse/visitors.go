package traverse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/ast"
)

// ErrUnknownVisitorKey is returned for a visitor key naming neither a kind
// nor a group.
var ErrUnknownVisitorKey = errors.New("unknown visitor key")

// Handler is a visitor callback. A non-nil error aborts the walk.
type Handler func(p *Path) error

// Hooks pairs the enter and exit callbacks of one registration.
type Hooks struct {
	Enter Handler
	Exit  Handler
}

// Visitors maps node kinds to their callbacks. Keys are expanded when they
// are registered, so the walk does a single map lookup per node.
type Visitors struct {
	enter map[ast.Kind][]Handler
	exit  map[ast.Kind][]Handler
}

// NewVisitors returns an empty visitor map.
func NewVisitors() *Visitors {
	return &Visitors{
		enter: make(map[ast.Kind][]Handler),
		exit:  make(map[ast.Kind][]Handler),
	}
}

// On registers an enter callback. See Add for the key syntax.
func (v *Visitors) On(key string, h Handler) error {
	return v.Add(key, Hooks{Enter: h})
}

// OnExit registers an exit callback.
func (v *Visitors) OnExit(key string, h Handler) error {
	return v.Add(key, Hooks{Exit: h})
}

// Add registers hooks under key. A key is a kind name, a group name or a
// `|`-joined list of either. A group expands to every kind tagged with it,
// merging with callbacks registered for those kinds directly.
func (v *Visitors) Add(key string, hooks Hooks) error {
	kinds, err := ExpandKey(key)
	if err != nil {
		return err
	}

	for _, kind := range kinds {
		if hooks.Enter != nil {
			v.enter[kind] = append(v.enter[kind], hooks.Enter)
		}

		if hooks.Exit != nil {
			v.exit[kind] = append(v.exit[kind], hooks.Exit)
		}
	}

	return nil
}

// Enter returns the enter callbacks of kind.
func (v *Visitors) Enter(kind ast.Kind) []Handler { return v.enter[kind] }

// Exit returns the exit callbacks of kind.
func (v *Visitors) Exit(kind ast.Kind) []Handler { return v.exit[kind] }

// ExpandKey resolves a visitor key into the kinds it covers, in
// registration order and without duplicates.
func ExpandKey(key string) ([]ast.Kind, error) {
	var kinds []ast.Kind

	seen := make(map[ast.Kind]bool)
	add := func(kind ast.Kind) {
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}

	for part := range strings.SplitSeq(key, "|") {
		name := strings.TrimSpace(part)

		if kind, ok := ast.KindByName(name); ok {
			add(kind)

			continue
		}

		group, ok := ast.GroupByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVisitorKey, name)
		}

		for _, kind := range ast.KindsIn(group) {
			add(kind)
		}
	}

	return kinds, nil
}
