package schema

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-coerce/coerce"
)

// ErrSpec wraps failures while compiling a struct type into a record spec.
var ErrSpec = errors.New("schema: spec stage failed")

type cacheKey struct {
	typ reflect.Type
	tag string
}

var (
	specMu    sync.Mutex
	specCache = map[cacheKey]*coerce.RecordSpec{}
)

// Infer compiles T into a record spec using the default struct tag. Specs are
// cached per type and tag, so repeated calls return the same pointer.
func Infer[T any]() (*coerce.RecordSpec, error) {
	return InferType(reflect.TypeOf((*T)(nil)).Elem(), coerce.DefaultTagName)
}

// MustInfer is Infer that panics on failure. Intended for package-level spec
// variables where the type is known good.
func MustInfer[T any]() *coerce.RecordSpec {
	spec, err := Infer[T]()
	if err != nil {
		panic(err)
	}
	return spec
}

// InferType compiles a struct type into a record spec, reading field names
// from tagName. Pointer fields become optional with an implicit nil default,
// slices become sequences, string-keyed maps become mappings, and nested
// structs become nested records. Self-referential types are supported.
func InferType(t reflect.Type, tagName string) (*coerce.RecordSpec, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrSpec)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: cannot infer record spec from %s", ErrSpec, t)
	}
	if tagName == "" {
		tagName = coerce.DefaultTagName
	}

	specMu.Lock()
	defer specMu.Unlock()

	key := cacheKey{typ: t, tag: tagName}
	if spec, ok := specCache[key]; ok {
		return spec, nil
	}
	inf := &inferrer{tagName: tagName, seen: map[reflect.Type]*coerce.RecordSpec{}}
	spec, err := inf.recordSpec(t)
	if err != nil {
		return nil, err
	}
	specCache[key] = spec
	return spec, nil
}

// inferrer holds per-compilation state. seen maps struct types already being
// compiled to their spec so cyclic types terminate.
type inferrer struct {
	tagName string
	seen    map[reflect.Type]*coerce.RecordSpec
}

func (inf *inferrer) recordSpec(t reflect.Type) (*coerce.RecordSpec, error) {
	if spec, ok := inf.seen[t]; ok {
		return spec, nil
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	spec := coerce.NewRecord(name)
	// registered before fields are built so self references resolve to it
	inf.seen[t] = spec

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		key := inf.fieldKey(sf)
		if key == "-" {
			continue
		}
		shape, err := inf.shapeFor(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s.%s: %w", ErrSpec, name, sf.Name, err)
		}
		field := coerce.NewField(key, shape)
		if sf.Type.Kind() == reflect.Pointer {
			field = field.WithDefault(nil)
		}
		if def, ok := sf.Tag.Lookup("default"); ok {
			value, err := parseDefault(sf.Type, def)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s.%s: %w", ErrSpec, name, sf.Name, err)
			}
			field = field.WithDefault(value)
		}
		spec.Fields = append(spec.Fields, field)
	}
	return spec, nil
}

func (inf *inferrer) shapeFor(t reflect.Type) (*coerce.Shape, error) {
	// durations ride through as-is; the bind hook parses "5s" style strings
	if t == durationType {
		return coerce.Any(), nil
	}
	switch t.Kind() {
	case reflect.String:
		return coerce.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return coerce.Int(), nil
	case reflect.Float32, reflect.Float64:
		return coerce.Float(), nil
	case reflect.Bool:
		return coerce.Bool(), nil
	case reflect.Pointer:
		inner, err := inf.shapeFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return coerce.Optional(inner), nil
	case reflect.Slice, reflect.Array:
		elem, err := inf.shapeFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return coerce.SequenceOf(elem), nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", t.Key())
		}
		value, err := inf.shapeFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return coerce.MappingOf(coerce.String(), value), nil
	case reflect.Struct:
		// time.Time, OptionalBool, and friends decode through Bind hooks,
		// the tree carries them opaquely.
		if isOpaqueStruct(t) {
			return coerce.Any(), nil
		}
		spec, err := inf.recordSpec(t)
		if err != nil {
			return nil, err
		}
		return coerce.RecordOf(spec), nil
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return coerce.Any(), nil
		}
		return nil, fmt.Errorf("unsupported interface type %s", t)
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

// fieldKey resolves the data key for a struct field: the configured tag wins,
// then the json tag, then the snake_cased field name.
func (inf *inferrer) fieldKey(sf reflect.StructField) string {
	for _, tag := range []string{inf.tagName, "json"} {
		if raw, ok := sf.Tag.Lookup(tag); ok {
			name := strings.Split(raw, ",")[0]
			if name != "" {
				return name
			}
		}
	}
	return snakeCase(sf.Name)
}

func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func parseDefault(t reflect.Type, raw string) (any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return raw, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", raw, err)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", raw, err)
		}
		return f, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", raw, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("default tag not supported for %s", t)
	}
}

// isOpaqueStruct reports struct types that ride through conversion as-is and
// get materialized by Bind hooks instead of field-by-field records.
func isOpaqueStruct(t reflect.Type) bool {
	return t == timeType ||
		t == optionalBoolType ||
		t.Implements(textUnmarshalerType) ||
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	optionalBoolType    = reflect.TypeOf(coerce.OptionalBool{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)
