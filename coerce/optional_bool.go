package coerce

import "strconv"

// OptionalBool carries three states: unset, explicitly true, explicitly false.
// The zero value is unset, which lets per-field overrides inherit the
// enclosing Config instead of silently forcing false.
type OptionalBool struct {
	set   bool
	value bool
}

// NewOptionalBool returns an OptionalBool explicitly set to v.
func NewOptionalBool(v bool) OptionalBool { return OptionalBool{set: true, value: v} }

// Set updates the value and marks the option as present.
func (ob *OptionalBool) Set(v bool) {
	if ob == nil {
		return
	}
	ob.value = v
	ob.set = true
}

// Unset clears the value so the option inherits again.
func (ob *OptionalBool) Unset() {
	if ob == nil {
		return
	}
	ob.value = false
	ob.set = false
}

// IsSet reports whether the option was explicitly supplied.
func (ob *OptionalBool) IsSet() bool {
	return ob != nil && ob.set
}

// Value returns the stored value; unset reads as false.
func (ob *OptionalBool) Value() bool {
	if ob == nil {
		return false
	}
	return ob.value
}

// ValueOK returns the stored value along with the IsSet flag.
func (ob *OptionalBool) ValueOK() (bool, bool) {
	if ob == nil {
		return false, false
	}
	return ob.value, ob.set
}

// BoolOr returns the stored value when set, otherwise the supplied default.
func (ob *OptionalBool) BoolOr(def bool) bool {
	if ob == nil || !ob.set {
		return def
	}
	return ob.value
}

// String renders a debug form distinguishing unset from false.
func (ob *OptionalBool) String() string {
	if ob == nil {
		return "<nil>"
	}
	if !ob.set {
		return "<unset>"
	}
	return strconv.FormatBool(ob.value)
}
