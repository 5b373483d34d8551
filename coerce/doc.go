// Package coerce converts loosely-typed nested data (maps, sequences, and
// scalars, the shape produced by parsing JSON/YAML/TOML) into strongly-typed
// records described by an explicit schema.
//
// The engine is a small type-directed interpreter: for every declared field it
// resolves the declared shape (including optionals, unions, parameterized
// containers, nested records, and forward references), applies user-registered
// hooks and casts in a fixed precedence order, and reports failures with the
// full field path from the conversion root.
//
// Entry point:
//
//	rec, err := coerce.Convert(spec, data, cfg)
//
// where spec is a *RecordSpec (hand-built or compiled by the schema package),
// data is a map[string]any tree, and cfg carries hooks, cast targets, strict
// mode, type-check mode, and the forward-reference table. A conversion either
// returns a fully constructed *Record or exactly one error describing the
// first failure in declaration order; there are no partial results.
//
// The package performs no I/O and holds no mutable state across calls, so a
// Config and RecordSpec can be shared by concurrent conversions.
package coerce
