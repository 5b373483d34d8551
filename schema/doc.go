// Package schema compiles Go struct types into coerce record specs and
// offers a generic one-call pipeline around them.
//
// Infer walks a struct type with reflection once, turning tagged fields into
// a *coerce.RecordSpec (pointers become optionals, slices sequences, maps
// mappings, nested structs nested records). Compiled specs are cached per
// (type, tag) under a lock, so concurrent callers share one spec.
//
// Build ties the stages together the way applications usually want them:
//
//	cfg, _ := schema.Build[AppConfig](raw,
//	    schema.WithDefaults[AppConfig](defaults),
//	    schema.WithTagName[AppConfig]("koanf"),
//	)
//
// defaults are cloned and flattened, the input tree is merged over them, the
// merged tree is converted against the inferred (or supplied) spec, and the
// resulting record is bound back onto a T.
package schema
