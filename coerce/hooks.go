package coerce

// hookFor selects the hook that applies to shape, most specific first: exact
// scalar kind, then the container's unparameterized origin (sequence or
// mapping), then the wildcard. At most one hook fires per field; there is no
// chaining.
func (c *Config) hookFor(shape *Shape) Hook {
	switch shape.kind {
	case KindScalar:
		if h, ok := c.hooks.scalar[shape.scalar]; ok {
			return h
		}
	case KindSequence:
		if c.hooks.sequence != nil {
			return c.hooks.sequence
		}
	case KindMapping:
		if c.hooks.mapping != nil {
			return c.hooks.mapping
		}
	}
	return c.hooks.wildcard
}

// applyHooks runs the hook pipeline for shape over value. Values pass through
// unchanged when nothing is registered. A hook error is fatal to the
// conversion and surfaces to the caller as-is.
func (c *Config) applyHooks(shape *Shape, value any) (any, error) {
	hook := c.hookFor(shape)
	if hook == nil {
		return value, nil
	}
	return hook(value)
}
