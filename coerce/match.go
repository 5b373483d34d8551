package coerce

import "reflect"

// Matches reports whether value already satisfies shape. Pure predicate: no
// coercion, no mutation, no hook or cast involvement.
//
// Scalars match on Go kind, so named string/int/bool types satisfy their
// scalar shapes. Sequences match any slice or array whose elements all match
// the element shape (an empty sequence trivially matches); mappings are the
// analogous check over keys and values. A record shape matches only an
// already-built *Record of the same spec, and an enum shape only a *Member of
// the same enum. Forward references never match: they are resolved before
// matching.
func Matches(shape *Shape, value any) bool {
	switch shape.kind {
	case KindAny:
		return true
	case KindScalar:
		return scalarMatches(shape.scalar, value)
	case KindOptional:
		return value == nil || Matches(shape.inner, value)
	case KindUnion:
		for _, alt := range shape.alts {
			if Matches(alt, value) {
				return true
			}
		}
		return false
	case KindSequence:
		return sequenceMatches(shape.elem, value)
	case KindMapping:
		return mappingMatches(shape.key, shape.value, value)
	case KindRecord:
		rec, ok := value.(*Record)
		return ok && rec.spec == shape.record
	case KindEnum:
		m, ok := value.(*Member)
		return ok && m.enum == shape.enum
	}
	return false
}

func scalarMatches(kind ScalarKind, value any) bool {
	if value == nil {
		return false
	}
	k := reflect.TypeOf(value).Kind()
	switch kind {
	case ScalarString:
		return k == reflect.String
	case ScalarBool:
		return k == reflect.Bool
	case ScalarInt:
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case ScalarFloat:
		return k == reflect.Float32 || k == reflect.Float64
	}
	return false
}

func sequenceMatches(elem *Shape, value any) bool {
	if value == nil {
		return false
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if !Matches(elem, v.Index(i).Interface()) {
			return false
		}
	}
	return true
}

func mappingMatches(key, val *Shape, value any) bool {
	if value == nil {
		return false
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return false
	}
	iter := v.MapRange()
	for iter.Next() {
		if !Matches(key, iter.Key().Interface()) {
			return false
		}
		if !Matches(val, iter.Value().Interface()) {
			return false
		}
	}
	return true
}
