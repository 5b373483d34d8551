package coerce

import "fmt"

// Hook transforms a raw value before matching. A non-nil error aborts the
// whole conversion and surfaces to the caller unchanged; hooks are never
// silently swallowed.
type Hook func(value any) (any, error)

// CastTarget enumerates the declared types eligible for best-effort
// conversion when matching fails.
type CastTarget int

const (
	CastString CastTarget = iota
	CastInt
	CastFloat
	CastBool
	CastSequence
	CastMapping
	CastEnum
)

func (c CastTarget) String() string {
	switch c {
	case CastString:
		return "string"
	case CastInt:
		return "int"
	case CastFloat:
		return "float"
	case CastBool:
		return "bool"
	case CastSequence:
		return "sequence"
	case CastMapping:
		return "mapping"
	case CastEnum:
		return "enum"
	}
	return fmt.Sprintf("CastTarget(%d)", int(c))
}

// ScalarCasts lists the cast targets covering every scalar kind.
func ScalarCasts() []CastTarget {
	return []CastTarget{CastString, CastInt, CastFloat, CastBool}
}

// AllCasts lists every cast target, scalar and container alike.
func AllCasts() []CastTarget {
	return append(ScalarCasts(), CastSequence, CastMapping, CastEnum)
}

type hookSet struct {
	scalar   map[ScalarKind]Hook
	sequence Hook
	mapping  Hook
	wildcard Hook
}

// Config controls one top-level Convert call. Build instances through
// NewConfig; a Config is read-only for the duration of a conversion and safe
// to reuse across calls and goroutines.
type Config struct {
	hooks       hookSet
	cast        map[CastTarget]struct{}
	strict      bool
	checkTypes  bool
	forwardRefs map[string]*Shape
}

// Option mutates a Config under construction. A returned error aborts
// NewConfig wrapped in ErrConfig.
type Option func(*Config) error

// NewConfig builds a Config from options. Defaults: type checking on, strict
// off, no hooks, no casts, empty forward-reference table.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}
	return cfg, nil
}

// MustConfig is NewConfig for static configuration; it panics on option
// errors.
func MustConfig(opts ...Option) *Config {
	cfg, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func defaultConfig() *Config {
	return &Config{checkTypes: true}
}

// WithScalarHook registers a transform for values destined for an exact
// scalar kind. Registering two hooks for the same kind is a configuration
// error rather than a silent precedence.
func WithScalarHook(kind ScalarKind, hook Hook) Option {
	return func(c *Config) error {
		if hook == nil {
			return fmt.Errorf("nil hook for scalar %s", kind)
		}
		if _, dup := c.hooks.scalar[kind]; dup {
			return fmt.Errorf("hook already registered for scalar %s", kind)
		}
		if c.hooks.scalar == nil {
			c.hooks.scalar = make(map[ScalarKind]Hook)
		}
		c.hooks.scalar[kind] = hook
		return nil
	}
}

// WithSequenceHook registers a transform for any sequence-shaped field,
// regardless of element shape.
func WithSequenceHook(hook Hook) Option {
	return func(c *Config) error {
		if hook == nil {
			return fmt.Errorf("nil sequence hook")
		}
		if c.hooks.sequence != nil {
			return fmt.Errorf("sequence hook already registered")
		}
		c.hooks.sequence = hook
		return nil
	}
}

// WithMappingHook registers a transform for any mapping-shaped field,
// regardless of key/value shapes.
func WithMappingHook(hook Hook) Option {
	return func(c *Config) error {
		if hook == nil {
			return fmt.Errorf("nil mapping hook")
		}
		if c.hooks.mapping != nil {
			return fmt.Errorf("mapping hook already registered")
		}
		c.hooks.mapping = hook
		return nil
	}
}

// WithWildcardHook registers a transform applied to any field for which no
// more specific hook exists.
func WithWildcardHook(hook Hook) Option {
	return func(c *Config) error {
		if hook == nil {
			return fmt.Errorf("nil wildcard hook")
		}
		if c.hooks.wildcard != nil {
			return fmt.Errorf("wildcard hook already registered")
		}
		c.hooks.wildcard = hook
		return nil
	}
}

// WithCast enables best-effort conversion for the listed targets.
func WithCast(targets ...CastTarget) Option {
	return func(c *Config) error {
		if c.cast == nil {
			c.cast = make(map[CastTarget]struct{}, len(targets))
		}
		for _, t := range targets {
			c.cast[t] = struct{}{}
		}
		return nil
	}
}

// WithStrict toggles rejection of input keys that match no declared field.
func WithStrict(strict bool) Option {
	return func(c *Config) error {
		c.strict = strict
		return nil
	}
}

// WithTypeChecking toggles the matcher/caster stage. When disabled, raw
// values are accepted verbatim into scalar fields.
func WithTypeChecking(enabled bool) Option {
	return func(c *Config) error {
		c.checkTypes = enabled
		return nil
	}
}

// WithForwardRef maps a textual type name to a concrete shape for deferred
// or self-referential field types.
func WithForwardRef(name string, shape *Shape) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("empty forward reference name")
		}
		if shape == nil {
			return fmt.Errorf("nil shape for forward reference %q", name)
		}
		if _, dup := c.forwardRefs[name]; dup {
			return fmt.Errorf("forward reference %q already registered", name)
		}
		if c.forwardRefs == nil {
			c.forwardRefs = make(map[string]*Shape)
		}
		c.forwardRefs[name] = shape
		return nil
	}
}

// WithForwardRefs registers a whole name table at once.
func WithForwardRefs(refs map[string]*Shape) Option {
	return func(c *Config) error {
		for name, shape := range refs {
			if err := WithForwardRef(name, shape)(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// Strict reports the effective strict-mode setting.
func (c *Config) Strict() bool { return c.strict }

// ChecksTypes reports whether the matcher/caster stage runs.
func (c *Config) ChecksTypes() bool { return c.checkTypes }

func (c *Config) castEnabled(target CastTarget) bool {
	_, ok := c.cast[target]
	return ok
}

// FieldConfig overrides selected Config options for a single field. Nil or
// unset members inherit the effective parent config; set members win.
type FieldConfig struct {
	// ScalarHooks layer over (not replace) the parent scalar hooks.
	ScalarHooks  map[ScalarKind]Hook
	SequenceHook Hook
	MappingHook  Hook
	WildcardHook Hook
	// Cast replaces the parent cast set when non-nil. An empty non-nil slice
	// disables casting for the field.
	Cast       []CastTarget
	Strict     OptionalBool
	CheckTypes OptionalBool
}

// merged derives the effective config for one field. The receiver is never
// mutated; shared hook maps are copied on write.
func (c *Config) merged(fc *FieldConfig) *Config {
	if fc == nil {
		return c
	}
	out := *c
	if len(fc.ScalarHooks) > 0 {
		scalar := make(map[ScalarKind]Hook, len(c.hooks.scalar)+len(fc.ScalarHooks))
		for k, h := range c.hooks.scalar {
			scalar[k] = h
		}
		for k, h := range fc.ScalarHooks {
			scalar[k] = h
		}
		out.hooks.scalar = scalar
	}
	if fc.SequenceHook != nil {
		out.hooks.sequence = fc.SequenceHook
	}
	if fc.MappingHook != nil {
		out.hooks.mapping = fc.MappingHook
	}
	if fc.WildcardHook != nil {
		out.hooks.wildcard = fc.WildcardHook
	}
	if fc.Cast != nil {
		cast := make(map[CastTarget]struct{}, len(fc.Cast))
		for _, t := range fc.Cast {
			cast[t] = struct{}{}
		}
		out.cast = cast
	}
	if v, ok := fc.Strict.ValueOK(); ok {
		out.strict = v
	}
	if v, ok := fc.CheckTypes.ValueOK(); ok {
		out.checkTypes = v
	}
	return &out
}
