package coerce

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind identifies the structural class of a Shape.
type Kind int

const (
	KindScalar Kind = iota
	KindAny
	KindOptional
	KindUnion
	KindSequence
	KindMapping
	KindRecord
	KindEnum
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindAny:
		return "any"
	case KindOptional:
		return "optional"
	case KindUnion:
		return "union"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindRecord:
		return "record"
	case KindEnum:
		return "enum"
	case KindRef:
		return "ref"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ScalarKind identifies a primitive value type.
type ScalarKind int

const (
	ScalarString ScalarKind = iota
	ScalarInt
	ScalarFloat
	ScalarBool
)

func (s ScalarKind) String() string {
	switch s {
	case ScalarString:
		return "string"
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	case ScalarBool:
		return "bool"
	}
	return fmt.Sprintf("ScalarKind(%d)", int(s))
}

// Shape is an immutable description of an expected value shape. Build
// instances through the package constructors; a Shape is safe to share across
// specs and concurrent conversions.
type Shape struct {
	kind   Kind
	scalar ScalarKind
	inner  *Shape
	alts   []*Shape
	elem   *Shape
	key    *Shape
	value  *Shape
	record *RecordSpec
	enum   *EnumSpec
	ref    string
}

var (
	stringShape = &Shape{kind: KindScalar, scalar: ScalarString}
	intShape    = &Shape{kind: KindScalar, scalar: ScalarInt}
	floatShape  = &Shape{kind: KindScalar, scalar: ScalarFloat}
	boolShape   = &Shape{kind: KindScalar, scalar: ScalarBool}
	anyShape    = &Shape{kind: KindAny}
)

// String declares a string scalar shape.
func String() *Shape { return stringShape }

// Int declares an integer scalar shape. Any Go integer kind satisfies it.
func Int() *Shape { return intShape }

// Float declares a floating point scalar shape.
func Float() *Shape { return floatShape }

// Bool declares a boolean scalar shape.
func Bool() *Shape { return boolShape }

// Any declares a wildcard shape satisfied by every value.
func Any() *Shape { return anyShape }

// Scalar declares a scalar shape for the given kind.
func Scalar(kind ScalarKind) *Shape {
	switch kind {
	case ScalarString:
		return stringShape
	case ScalarInt:
		return intShape
	case ScalarFloat:
		return floatShape
	case ScalarBool:
		return boolShape
	}
	return &Shape{kind: KindScalar, scalar: kind}
}

// Optional wraps inner so the nil sentinel is also accepted.
func Optional(inner *Shape) *Shape {
	return &Shape{kind: KindOptional, inner: inner}
}

// Union declares an ordered list of alternative shapes. Declaration order is
// author-intended priority: first listed, first tried.
func Union(alts ...*Shape) *Shape {
	return &Shape{kind: KindUnion, alts: alts}
}

// SequenceOf declares a sequence whose elements all satisfy elem.
func SequenceOf(elem *Shape) *Shape {
	return &Shape{kind: KindSequence, elem: elem}
}

// MappingOf declares a string-keyed mapping; key is matched against every
// input key and value against every input value.
func MappingOf(key, value *Shape) *Shape {
	return &Shape{kind: KindMapping, key: key, value: value}
}

// RecordOf declares a nested record shape. The spec is referenced, never
// copied, so self-referential record graphs stay cheap and acyclic at the
// shape level.
func RecordOf(spec *RecordSpec) *Shape {
	return &Shape{kind: KindRecord, record: spec}
}

// EnumOf declares a shape satisfied by members of spec.
func EnumOf(spec *EnumSpec) *Shape {
	return &Shape{kind: KindEnum, enum: spec}
}

// Ref declares a deferred type resolved at conversion time through the
// config's forward-reference table.
func Ref(name string) *Shape {
	return &Shape{kind: KindRef, ref: name}
}

// Kind returns the structural class of the shape.
func (s *Shape) Kind() Kind { return s.kind }

func (s *Shape) String() string {
	if s == nil {
		return "<nil>"
	}
	switch s.kind {
	case KindScalar:
		return s.scalar.String()
	case KindAny:
		return "any"
	case KindOptional:
		return s.inner.String() + "?"
	case KindUnion:
		parts := make([]string, len(s.alts))
		for i, alt := range s.alts {
			parts[i] = alt.String()
		}
		return strings.Join(parts, " | ")
	case KindSequence:
		return "[]" + s.elem.String()
	case KindMapping:
		return "map[" + s.key.String() + "]" + s.value.String()
	case KindRecord:
		return s.record.Name
	case KindEnum:
		return s.enum.Name
	case KindRef:
		return fmt.Sprintf("ref(%s)", s.ref)
	}
	return s.kind.String()
}

// RecordSpec is the compiled field list for one record type. A spec is
// structurally stable once built; callers that cache specs across goroutines
// must finish populating them before sharing.
type RecordSpec struct {
	Name   string
	Fields []Field
}

// NewRecord builds a RecordSpec preserving field declaration order.
func NewRecord(name string, fields ...Field) *RecordSpec {
	return &RecordSpec{Name: name, Fields: fields}
}

// Field describes one declared record field.
type Field struct {
	Name       string
	Shape      *Shape
	Default    any
	HasDefault bool
	// Config overrides selected conversion options for this field only.
	Config *FieldConfig
}

// NewField declares a required field.
func NewField(name string, shape *Shape) Field {
	return Field{Name: name, Shape: shape}
}

// WithDefault marks the field optional in the input, substituting value when
// the key is absent. The default is deep-cloned on every use.
func (f Field) WithDefault(value any) Field {
	f.Default = value
	f.HasDefault = true
	return f
}

// WithConfig attaches a per-field config override.
func (f Field) WithConfig(fc *FieldConfig) Field {
	f.Config = fc
	return f
}

// EnumSpec declares a closed set of named members.
type EnumSpec struct {
	Name    string
	Members []*Member
}

// Member is one enum member. Converted enum values are *Member instances
// owned by their EnumSpec.
type Member struct {
	enum  *EnumSpec
	Name  string
	Value any
}

// NewEnum builds an EnumSpec from member declarations, wiring each member
// back to its owning spec.
func NewEnum(name string, members ...Member) *EnumSpec {
	spec := &EnumSpec{Name: name}
	for i := range members {
		m := members[i]
		m.enum = spec
		spec.Members = append(spec.Members, &m)
	}
	return spec
}

// Member looks up a member by name.
func (e *EnumSpec) Member(name string) (*Member, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ByValue looks up a member by exact value equality.
func (e *EnumSpec) ByValue(value any) (*Member, bool) {
	for _, m := range e.Members {
		if valueEqual(m.Value, value) {
			return m, true
		}
	}
	return nil, false
}

// Enum returns the spec that owns the member.
func (m *Member) Enum() *EnumSpec { return m.enum }

func (m *Member) String() string {
	if m == nil {
		return "<nil>"
	}
	if m.enum != nil {
		return m.enum.Name + "." + m.Name
	}
	return m.Name
}

func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// DeepEqual sidesteps panics on non-comparable values.
	return reflect.DeepEqual(a, b)
}

// typeName renders a runtime value's type for error messages.
func typeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case *Record:
		return "record " + t.spec.Name
	case *Member:
		return "enum " + t.enum.Name
	default:
		return fmt.Sprintf("%T", v)
	}
}
