package coerce

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// castTargetFor maps a shape to the CastTarget that must be enabled in the
// config before the caster may run against it.
func castTargetFor(shape *Shape) (CastTarget, bool) {
	switch shape.kind {
	case KindScalar:
		switch shape.scalar {
		case ScalarString:
			return CastString, true
		case ScalarInt:
			return CastInt, true
		case ScalarFloat:
			return CastFloat, true
		case ScalarBool:
			return CastBool, true
		}
	case KindSequence:
		return CastSequence, true
	case KindMapping:
		return CastMapping, true
	case KindEnum:
		return CastEnum, true
	}
	return 0, false
}

// castValue attempts a best-effort conversion of value into shape. Callers
// check eligibility against the config's cast set before invoking.
func castValue(shape *Shape, value any) (any, error) {
	switch shape.kind {
	case KindScalar:
		return castScalar(shape.scalar, value)
	case KindEnum:
		return castEnum(shape.enum, value)
	}
	return nil, fmt.Errorf("shape %s is not castable", shape)
}

func castScalar(kind ScalarKind, value any) (any, error) {
	switch kind {
	case ScalarString:
		var out string
		if err := weakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil
	case ScalarInt:
		var out int
		if err := weakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil
	case ScalarFloat:
		var out float64
		if err := weakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil
	case ScalarBool:
		var out bool
		if err := weakDecode(value, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown scalar kind %s", kind)
}

// castEnum interprets the raw value as a member by value: exact equality
// first, then a weak conversion into each member value's type. The first
// constructible member under the enum umbrella wins.
func castEnum(spec *EnumSpec, value any) (any, error) {
	if m, ok := value.(*Member); ok && m.enum == spec {
		return m, nil
	}
	if m, ok := spec.ByValue(value); ok {
		return m, nil
	}
	for _, m := range spec.Members {
		if m.Value == nil {
			continue
		}
		target := reflect.New(reflect.TypeOf(m.Value))
		if err := weakDecode(value, target.Interface()); err != nil {
			continue
		}
		if reflect.DeepEqual(target.Elem().Interface(), m.Value) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("no member of %s has value %v", spec.Name, value)
}

// castSequenceItems flattens any slice or array into the canonical []any form
// without touching item types; item-level coercion happens in the per-element
// recursion.
func castSequenceItems(value any) ([]any, error) {
	if value == nil {
		return nil, fmt.Errorf("can not build a sequence from nil")
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("can not build a sequence from %s", typeName(value))
	}
	items := make([]any, v.Len())
	for i := 0; i < v.Len(); i++ {
		items[i] = v.Index(i).Interface()
	}
	return items, nil
}

// castMappingEntries rebuilds any map as the canonical map[string]any form,
// weakly stringifying keys. Values are left untouched for the per-entry
// recursion.
func castMappingEntries(value any) (map[string]any, error) {
	if value == nil {
		return nil, fmt.Errorf("can not build a mapping from nil")
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Map {
		return nil, fmt.Errorf("can not build a mapping from %s", typeName(value))
	}
	entries := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		var key string
		if err := weakDecode(iter.Key().Interface(), &key); err != nil {
			return nil, fmt.Errorf("can not cast mapping key %v to string: %w", iter.Key().Interface(), err)
		}
		entries[key] = iter.Value().Interface()
	}
	return entries, nil
}

// weakDecode runs a single-value weakly-typed decode, the same conversion
// rules the binding layer uses for struct targets.
func weakDecode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
