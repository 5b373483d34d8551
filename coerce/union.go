package coerce

import (
	"errors"
	"strings"
)

// resolveUnion tries each declared alternative in order, running the full
// per-field pipeline (hooks, match/cast, nested build) as if that alternative
// were the sole declared shape. The first alternative that constructs wins.
// Declaration order is author-intended priority, so ambiguous values resolve
// deterministically.
//
// A nil raw value short-circuits to nil when any alternative is optional,
// without trying the remaining alternatives. Hook failures and unresolved
// forward references are configuration problems, not match failures, and
// abort the whole union.
func resolveUnion(alts []*Shape, value any, cfg *Config, path Path) (any, error) {
	if value == nil {
		for _, alt := range alts {
			if alt.kind == KindOptional {
				return nil, nil
			}
		}
	}
	for _, alt := range alts {
		out, err := buildValue(alt, value, cfg, path)
		if err == nil {
			return out, nil
		}
		var cerr *ConversionError
		if !errors.As(err, &cerr) {
			// user hook raised: fatal, surfaces as-is
			return nil, err
		}
		if errors.Is(cerr.Base, ErrForwardReference) || errors.Is(cerr.Base, ErrConfig) {
			return nil, err
		}
	}
	return nil, convErr(ErrWrongType, path,
		"could not match value of type %s against any of %s", typeName(value), unionLabel(alts))
}

func unionLabel(alts []*Shape) string {
	parts := make([]string, len(alts))
	for i, alt := range alts {
		parts[i] = alt.String()
	}
	return strings.Join(parts, " | ")
}
