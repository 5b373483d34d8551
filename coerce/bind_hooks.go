package coerce

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// defaultBindHooks returns the hook set used when binding records onto
// structs: duration strings and encoding.TextUnmarshaler targets (which
// covers time.Time, net.IP, and friends).
func defaultBindHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		DurationHook(),
		OptionalBoolHook(),
		TextUnmarshalerHook(),
	}
}

// DurationHook converts strings (e.g. "5s") into time.Duration during Bind.
func DurationHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

var (
	optionalBoolType    = reflect.TypeOf(OptionalBool{})
	optionalBoolPtrType = reflect.TypeOf(&OptionalBool{})
)

// OptionalBoolHook normalises data destined for OptionalBool fields so
// sources can supply plain booleans or strings while preserving set/unset
// semantics. Empty and "null" strings read as unset.
func OptionalBoolHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != optionalBoolType && to != optionalBoolPtrType {
			return data, nil
		}

		var ob OptionalBool
		switch v := data.(type) {
		case nil:
		case *OptionalBool:
			if v != nil {
				ob = *v
			}
		case OptionalBool:
			ob = v
		case bool:
			ob = NewOptionalBool(v)
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed != "" && !strings.EqualFold(trimmed, "null") {
				parsed, err := strconv.ParseBool(trimmed)
				if err != nil {
					return nil, err
				}
				ob = NewOptionalBool(parsed)
			}
		default:
			return data, nil
		}

		if to == optionalBoolPtrType {
			return &ob, nil
		}
		return ob, nil
	}
}

// TextUnmarshalerHook lets Bind populate encoding.TextUnmarshaler targets
// from string values.
func TextUnmarshalerHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		result := reflect.New(to).Interface()
		unmarshaller, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := unmarshaller.UnmarshalText([]byte(reflect.ValueOf(data).String())); err != nil {
			return nil, err
		}
		return result, nil
	}
}
