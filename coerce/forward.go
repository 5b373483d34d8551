package coerce

// resolveRef concretizes a forward-referenced shape through the config's
// explicit name table. No ambient or package-scope lookup is attempted;
// resolution is table-only so the engine stays environment-independent.
// Table entries may themselves be references; cycles are reported rather
// than followed.
func resolveRef(shape *Shape, cfg *Config, path Path) (*Shape, error) {
	if shape.kind != KindRef {
		return shape, nil
	}
	seen := make(map[string]struct{})
	for shape.kind == KindRef {
		if _, cyclic := seen[shape.ref]; cyclic {
			return nil, convErr(ErrForwardReference, path,
				"forward reference cycle through name %q", shape.ref)
		}
		seen[shape.ref] = struct{}{}
		resolved, ok := cfg.forwardRefs[shape.ref]
		if !ok {
			return nil, convErr(ErrForwardReference, path,
				"can not resolve forward reference: name %q is not defined", shape.ref)
		}
		shape = resolved
	}
	return shape, nil
}
