package schema

import (
	"fmt"
	"reflect"
)

// toTree converts arbitrary input into a map[string]any tree. Maps are
// deep-copied so callers can merge into the result without aliasing the
// source, structs are flattened honoring the given tag.
func toTree(input any, tagName string) (map[string]any, error) {
	if input == nil {
		return map[string]any{}, nil
	}
	switch v := input.(type) {
	case map[string]any:
		return cloneTree(v), nil
	default:
		flat, err := flattenValue(reflect.ValueOf(input), tagName)
		if err != nil {
			return nil, err
		}
		tree, ok := flat.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema: cannot build tree from %T", v)
		}
		return tree, nil
	}
}

func flattenValue(val reflect.Value, tagName string) (any, error) {
	if !val.IsValid() {
		return nil, nil
	}
	switch val.Kind() {
	case reflect.Map:
		return flattenMap(val, tagName)
	case reflect.Struct:
		// opaque leaves survive as-is so Bind can decode them later
		if isOpaqueStruct(val.Type()) {
			return val.Interface(), nil
		}
		return flattenStruct(val, tagName)
	case reflect.Slice, reflect.Array:
		return flattenSlice(val, tagName)
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return nil, nil
		}
		return flattenValue(val.Elem(), tagName)
	default:
		return val.Interface(), nil
	}
}

func flattenMap(val reflect.Value, tagName string) (any, error) {
	result := make(map[string]any, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		key, ok := iter.Key().Interface().(string)
		if !ok {
			return nil, fmt.Errorf("schema: expected string map key, got %T", iter.Key().Interface())
		}
		flat, err := flattenValue(iter.Value(), tagName)
		if err != nil {
			return nil, err
		}
		result[key] = flat
	}
	return result, nil
}

func flattenStruct(val reflect.Value, tagName string) (any, error) {
	typ := val.Type()
	inf := &inferrer{tagName: tagName}
	result := make(map[string]any, val.NumField())
	for i := 0; i < val.NumField(); i++ {
		sf := typ.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		key := inf.fieldKey(sf)
		if key == "-" {
			continue
		}
		flat, err := flattenValue(val.Field(i), tagName)
		if err != nil {
			return nil, err
		}
		result[key] = flat
	}
	return result, nil
}

func flattenSlice(val reflect.Value, tagName string) (any, error) {
	length := val.Len()
	result := make([]any, length)
	for i := 0; i < length; i++ {
		flat, err := flattenValue(val.Index(i), tagName)
		if err != nil {
			return nil, err
		}
		result[i] = flat
	}
	return result, nil
}

func cloneTree(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = cloneTree(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}

// mergeTrees overlays src onto dst. Nested maps merge recursively, everything
// else overwrites.
func mergeTrees(dst, src map[string]any) {
	for key, value := range src {
		if existing, ok := dst[key]; ok {
			existingMap, okExisting := existing.(map[string]any)
			incomingMap, okIncoming := value.(map[string]any)
			if okExisting && okIncoming {
				mergeTrees(existingMap, incomingMap)
				continue
			}
		}
		dst[key] = value
	}
}
