package coerce

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultTagName is the struct tag consulted when binding records onto Go
// structs.
const DefaultTagName = "coerce"

// Record is a constructed instance of a RecordSpec. Field values are fully
// converted: nested records are *Record, enum values are *Member, sequences
// are []any, mappings are map[string]any.
type Record struct {
	spec   *RecordSpec
	values map[string]any
}

// Spec returns the record's compiled spec.
func (r *Record) Spec() *RecordSpec { return r.spec }

// Get returns the converted value for a declared field.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// FieldNames returns the declared field names in declaration order.
func (r *Record) FieldNames() []string {
	names := make([]string, len(r.spec.Fields))
	for i, f := range r.spec.Fields {
		names[i] = f.Name
	}
	return names
}

// AsMap flattens the record back into a plain tree: nested records become
// mappings, enum members collapse to their values, sequences and mappings
// flatten element-wise.
func (r *Record) AsMap() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = flattenValue(v)
	}
	return out
}

func flattenValue(v any) any {
	switch t := v.(type) {
	case *Record:
		return t.AsMap()
	case *Member:
		return t.Value
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = flattenValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = flattenValue(item)
		}
		return out
	default:
		return v
	}
}

// Bind decodes the flattened record onto target, a pointer to a struct (or a
// pointer to a pointer, which is allocated as needed). Field resolution uses
// tagName, falling back to DefaultTagName when empty, with weak typing so
// record ints fit int64 struct fields and so on.
func (r *Record) Bind(target any, tagName string) error {
	if target == nil {
		return fmt.Errorf("coerce: nil bind target")
	}
	if tagName == "" {
		tagName = DefaultTagName
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagName,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(defaultBindHooks()...),
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("coerce: bind decoder: %w", err)
	}
	if err := decoder.Decode(r.AsMap()); err != nil {
		return fmt.Errorf("coerce: bind: %w", err)
	}
	return nil
}

// String renders the record with fields in declaration order, for debugging
// and test failure output.
func (r *Record) String() string {
	var b strings.Builder
	b.WriteString(r.spec.Name)
	b.WriteByte('{')
	for i, f := range r.spec.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, r.values[f.Name])
	}
	b.WriteByte('}')
	return b.String()
}
