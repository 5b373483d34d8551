package schema

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-coerce/coerce"
	"github.com/mitchellh/copystructure"
)

const (
	stageDefaults = "defaults"
	stageInput    = "input"
	stageBind     = "bind"
)

var (
	// ErrDefaults wraps failures while cloning or flattening default values.
	ErrDefaults = errors.New("schema: defaults stage failed")
	// ErrInput wraps failures while normalizing the raw input into a tree.
	ErrInput = errors.New("schema: input stage failed")
	// ErrBind wraps failures while binding the converted record onto T.
	ErrBind = errors.New("schema: bind stage failed")
	// ErrOption indicates a misconfigured builder option.
	ErrOption = errors.New("schema: option configuration failed")
)

// StageError describes a failure in a specific build stage along with
// contextual metadata.
type StageError struct {
	Stage string
	Base  error
	Err   error
	Meta  map[string]any
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the target matches either the stage sentinel or the
// wrapped error.
func (e *StageError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if errors.Is(e.Base, target) {
		return true
	}
	return errors.Is(e.Err, target)
}

func stageError(stage string, base, err error, meta map[string]any) error {
	if err == nil {
		return nil
	}
	return &StageError{
		Stage: stage,
		Base:  base,
		Err:   err,
		Meta:  meta,
	}
}

// builder holds Build state and user-supplied options.
type builder[T any] struct {
	input     any
	spec      *coerce.RecordSpec
	cfg       *coerce.Config
	defaults  func() (T, error)
	tagName   string
	optionErr error
}

func newBuilder[T any](input any) *builder[T] {
	return &builder[T]{
		input:   input,
		tagName: coerce.DefaultTagName,
	}
}

// Option configures Build.
type Option[T any] func(*builder[T])

func (b *builder[T]) setOptionError(format string, args ...any) {
	if b.optionErr != nil {
		return
	}
	err := fmt.Errorf(format, args...)
	b.optionErr = fmt.Errorf("%w: %w", ErrOption, err)
}

// WithSpec supplies a precompiled record spec instead of inferring one from T.
func WithSpec[T any](spec *coerce.RecordSpec) Option[T] {
	return func(b *builder[T]) {
		if spec == nil {
			b.setOptionError("nil spec")
			return
		}
		b.spec = spec
	}
}

// defaultBuildConfig mirrors weakly typed decoding: scalar casts on, strict
// off. JSON-decoded trees carry float64 for every number, so scalar casts are
// the practical default here.
var defaultBuildConfig = coerce.MustConfig(coerce.WithCast(coerce.ScalarCasts()...))

// WithConfig supplies the conversion config. Nil keeps the weakly typed
// default with scalar casts enabled.
func WithConfig[T any](cfg *coerce.Config) Option[T] {
	return func(b *builder[T]) {
		b.cfg = cfg
	}
}

// WithDefaults merges the given value under the input: input keys win, keys
// absent from the input fall back to the default value's. The value is
// deep-cloned on every build.
func WithDefaults[T any](value T) Option[T] {
	return func(b *builder[T]) {
		if b.defaults != nil {
			b.setOptionError("defaults already configured")
			return
		}
		b.defaults = func() (T, error) {
			return cloneValue(value)
		}
	}
}

// WithDefaultFunc is WithDefaults with lazy construction.
func WithDefaultFunc[T any](fn func() (T, error)) Option[T] {
	return func(b *builder[T]) {
		if fn == nil {
			b.setOptionError("nil default func")
			return
		}
		if b.defaults != nil {
			b.setOptionError("defaults already configured")
			return
		}
		b.defaults = fn
	}
}

// WithTagName changes the struct tag consulted during inference, flattening,
// and binding.
func WithTagName[T any](tagName string) Option[T] {
	return func(b *builder[T]) {
		if tagName == "" {
			b.setOptionError("empty tag name")
			return
		}
		b.tagName = tagName
	}
}

// Build normalizes input into a tree, merges it over flattened defaults,
// converts the merged tree against the record spec for T, and binds the
// resulting record onto a fresh T.
//
// Spec, defaults, input, and bind failures wrap the ErrSpec/ErrDefaults/
// ErrInput/ErrBind sentinels through StageError. Conversion failures pass
// through untouched so callers can inspect the coerce error path directly.
func Build[T any](input any, opts ...Option[T]) (T, error) {
	b := newBuilder[T](input)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	if b.optionErr != nil {
		var zero T
		return zero, b.optionErr
	}
	return b.build()
}

func (b *builder[T]) build() (T, error) {
	var zero T

	spec := b.spec
	if spec == nil {
		inferred, err := InferType(reflect.TypeOf((*T)(nil)).Elem(), b.tagName)
		if err != nil {
			return zero, err
		}
		spec = inferred
	}

	tree, err := b.applyDefaults()
	if err != nil {
		return zero, err
	}

	input, err := toTree(b.input, b.tagName)
	if err != nil {
		return zero, stageError(stageInput, ErrInput, err, nil)
	}
	mergeTrees(tree, input)

	cfg := b.cfg
	if cfg == nil {
		cfg = defaultBuildConfig
	}

	record, err := coerce.Convert(spec, tree, cfg)
	if err != nil {
		return zero, err
	}

	var result T
	if err := record.Bind(prepareBindTarget(&result), b.tagName); err != nil {
		return zero, stageError(stageBind, ErrBind, err, nil)
	}
	return result, nil
}

func (b *builder[T]) applyDefaults() (map[string]any, error) {
	if b.defaults == nil {
		return map[string]any{}, nil
	}
	val, err := b.defaults()
	if err != nil {
		return nil, stageError(stageDefaults, ErrDefaults, err, nil)
	}
	tree, err := toTree(val, b.tagName)
	if err != nil {
		return nil, stageError(stageDefaults, ErrDefaults, err, map[string]any{
			"reason": "flatten",
		})
	}
	return tree, nil
}

func prepareBindTarget[T any](result *T) any {
	val := reflect.ValueOf(result).Elem()
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			val.Set(reflect.New(val.Type().Elem()))
		}
		return val.Interface()
	}
	return val.Addr().Interface()
}

func cloneValue[T any](value T) (T, error) {
	var zero T
	cloned, err := copystructure.Copy(value)
	if err != nil {
		return zero, err
	}
	casted, ok := cloned.(T)
	if !ok {
		return zero, fmt.Errorf("schema: failed to cast cloned value %T to target type", cloned)
	}
	return casted, nil
}
