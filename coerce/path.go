package coerce

import (
	"strconv"
	"strings"
)

type stepKind int

const (
	stepField stepKind = iota
	stepIndex
	stepKey
)

type pathStep struct {
	kind  stepKind
	field string
	key   string
	index int
}

// Path records the route from the conversion root to the value being built:
// field names, sequence indices, and mapping keys. The zero value is the root.
// Extending a Path always copies, so sibling branches never alias.
type Path struct {
	steps []pathStep
}

// IsRoot reports whether the path has no steps.
func (p Path) IsRoot() bool { return len(p.steps) == 0 }

// Field returns a copy of the path extended with a record field name.
func (p Path) Field(name string) Path {
	return p.extend(pathStep{kind: stepField, field: name})
}

// Index returns a copy of the path extended with a sequence index.
func (p Path) Index(i int) Path {
	return p.extend(pathStep{kind: stepIndex, index: i})
}

// Key returns a copy of the path extended with a mapping key.
func (p Path) Key(k string) Path {
	return p.extend(pathStep{kind: stepKey, key: k})
}

func (p Path) extend(s pathStep) Path {
	steps := make([]pathStep, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return Path{steps: append(steps, s)}
}

// String renders the dotted/bracketed form, e.g. `user.addresses[2].street`
// or `meta["region"]`.
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p.steps {
		switch s.kind {
		case stepField:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.field)
		case stepIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		case stepKey:
			b.WriteString(`["`)
			b.WriteString(s.key)
			b.WriteString(`"]`)
		}
	}
	return b.String()
}
