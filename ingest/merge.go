package ingest

import (
	"github.com/goliatone/go-coerce/coerce"
)

// MergeWithBooleanPrecedence merges src into dst, honoring
// coerce.OptionalBool set-state: an unset optional never clobbers an
// explicit destination value. Empty strings and empty slices are also
// treated as "no opinion" when the destination already holds a value.
func MergeWithBooleanPrecedence(src, dst map[string]any) error {
	return mergeRecursive(src, dst)
}

func mergeRecursive(src, dst map[string]any) error {
	for key, srcVal := range src {
		dstVal, exists := dst[key]

		if srcMap, ok := srcVal.(map[string]any); ok {
			if dstMap, ok := dstVal.(map[string]any); ok {
				if err := mergeRecursive(srcMap, dstMap); err != nil {
					return err
				}
				continue
			}
		}

		if shouldOverwrite(dstVal, srcVal, exists) {
			dst[key] = srcVal
		}
	}
	return nil
}

func shouldOverwrite(dst, src any, dstExists bool) bool {
	if src == nil {
		return false
	}

	switch ob := src.(type) {
	case *coerce.OptionalBool:
		if ob == nil {
			return false
		}
		return ob.IsSet()
	case coerce.OptionalBool:
		return ob.IsSet()
	}

	if !dstExists {
		return true
	}

	switch srcVal := src.(type) {
	case string:
		return srcVal != ""
	case []any:
		return len(srcVal) > 0
	case map[string]any:
		// maps merge recursively, never overwrite wholesale
		return false
	default:
		return true
	}
}
