package coerce

import (
	"reflect"
	"sort"

	"github.com/mitchellh/copystructure"
)

// Convert builds a typed record from a loosely-typed mapping. A nil config
// gets the defaults (type checking on, strict off, no hooks or casts).
//
// The conversion is one depth-first traversal in field declaration order;
// it either returns a fully constructed record or exactly one error for the
// first failure encountered.
func Convert(spec *RecordSpec, data map[string]any, cfg *Config) (*Record, error) {
	if spec == nil {
		return nil, convErr(ErrStructure, Path{}, "nil record spec")
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	return buildRecord(spec, data, cfg, Path{})
}

func buildRecord(spec *RecordSpec, data map[string]any, cfg *Config, path Path) (*Record, error) {
	values := make(map[string]any, len(spec.Fields))
	declared := make(map[string]struct{}, len(spec.Fields))

	for _, f := range spec.Fields {
		declared[f.Name] = struct{}{}
		fieldCfg := cfg.merged(f.Config)
		fieldPath := path.Field(f.Name)

		raw, present := data[f.Name]
		if !present {
			if !f.HasDefault {
				return nil, convErr(ErrMissingField, fieldPath, "missing value for required field")
			}
			def, err := cloneDefault(f.Default)
			if err != nil {
				e := convErr(ErrConfig, fieldPath, "can not clone default value")
				e.Err = err
				return nil, e
			}
			values[f.Name] = def
			continue
		}

		v, err := buildValue(f.Shape, raw, fieldCfg, fieldPath)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}

	if cfg.strict {
		var extra []string
		for key := range data {
			if _, ok := declared[key]; !ok {
				extra = append(extra, key)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			e := convErr(ErrUnexpectedData, path,
				"can not match key %q to any declared field of %q", extra[0], spec.Name)
			e.Meta = map[string]any{"keys": extra}
			return nil, e
		}
	}

	return &Record{spec: spec, values: values}, nil
}

// buildValue is the per-field pipeline: resolve forward references, apply
// hooks, then dispatch on shape kind to match, cast, or recurse.
func buildValue(shape *Shape, raw any, cfg *Config, path Path) (any, error) {
	shape, err := resolveRef(shape, cfg, path)
	if err != nil {
		return nil, err
	}

	// Optionals and unions pick their branch first; hooks fire per
	// alternative inside the recursion so a scalar hook still applies to
	// the scalar inside an optional or union.
	switch shape.kind {
	case KindOptional:
		if raw == nil {
			return nil, nil
		}
		return buildValue(shape.inner, raw, cfg, path)
	case KindUnion:
		return resolveUnion(shape.alts, raw, cfg, path)
	}

	value, err := cfg.applyHooks(shape, raw)
	if err != nil {
		return nil, err
	}

	switch shape.kind {
	case KindRecord:
		return buildNestedRecord(shape.record, value, cfg, path)
	case KindSequence:
		return buildSequence(shape, value, cfg, path)
	case KindMapping:
		return buildMapping(shape, value, cfg, path)
	default:
		return buildScalar(shape, value, cfg, path)
	}
}

func buildNestedRecord(spec *RecordSpec, value any, cfg *Config, path Path) (any, error) {
	if rec, ok := value.(*Record); ok && rec.spec == spec {
		return rec, nil
	}
	if m, ok := asStringMap(value); ok {
		return buildRecord(spec, m, cfg, path)
	}
	if !cfg.checkTypes {
		return value, nil
	}
	return nil, convErr(ErrStructure, path,
		"expected a mapping for record %q, got %s", spec.Name, typeName(value))
}

func buildSequence(shape *Shape, value any, cfg *Config, path Path) (any, error) {
	items, exact := value.([]any)
	if !exact {
		rv := reflect.ValueOf(value)
		if value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			if !cfg.checkTypes {
				return value, nil
			}
			return nil, convErr(ErrStructure, path, "expected a sequence, got %s", typeName(value))
		}
		// typed slices and arrays are the tuple case: admitted only through
		// the sequence cast
		if cfg.checkTypes && !cfg.castEnabled(CastSequence) {
			return nil, convErr(ErrWrongType, path,
				"expected a sequence, got %s; enable sequence casting to convert", typeName(value))
		}
		converted, err := castSequenceItems(value)
		if err != nil {
			e := convErr(ErrCast, path, "can not cast %s to a sequence", typeName(value))
			e.Err = err
			return nil, e
		}
		items = converted
	}

	out := make([]any, len(items))
	for i, item := range items {
		v, err := buildValue(shape.elem, item, cfg, path.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func buildMapping(shape *Shape, value any, cfg *Config, path Path) (any, error) {
	entries, exact := value.(map[string]any)
	if !exact {
		rv := reflect.ValueOf(value)
		if value == nil || rv.Kind() != reflect.Map {
			if !cfg.checkTypes {
				return value, nil
			}
			return nil, convErr(ErrStructure, path, "expected a mapping, got %s", typeName(value))
		}
		if cfg.checkTypes && !cfg.castEnabled(CastMapping) {
			return nil, convErr(ErrWrongType, path,
				"expected a string-keyed mapping, got %s; enable mapping casting to convert", typeName(value))
		}
		converted, err := castMappingEntries(value)
		if err != nil {
			e := convErr(ErrCast, path, "can not cast %s to a mapping", typeName(value))
			e.Err = err
			return nil, e
		}
		entries = converted
	}

	// sorted keys keep the first-failure deterministic
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(entries))
	for _, k := range keys {
		entryPath := path.Key(k)
		if cfg.checkTypes && !Matches(shape.key, k) {
			return nil, convErr(ErrWrongType, entryPath,
				"mapping key does not match %s", shape.key)
		}
		v, err := buildValue(shape.value, entries[k], cfg, entryPath)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// buildScalar handles scalar, enum, and wildcard shapes: match, else cast
// when enabled, else fail.
func buildScalar(shape *Shape, value any, cfg *Config, path Path) (any, error) {
	if !cfg.checkTypes {
		return value, nil
	}
	if Matches(shape, value) {
		return value, nil
	}
	if target, castable := castTargetFor(shape); castable && cfg.castEnabled(target) {
		out, err := castValue(shape, value)
		if err != nil {
			e := convErr(ErrCast, path, "can not cast value of type %s to %s", typeName(value), shape)
			e.Err = err
			return nil, e
		}
		return out, nil
	}
	return nil, convErr(ErrWrongType, path,
		"expected value of type %s, got %s", shape, typeName(value))
}

// asStringMap accepts the canonical map[string]any plus any reflect map with
// string-kinded keys (map[string]string from env sources and the like).
func asStringMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func cloneDefault(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return copystructure.Copy(value)
}
