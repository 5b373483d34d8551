package ingest

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/goliatone/go-coerce/coerce"
	"github.com/goliatone/go-coerce/logger"
	"github.com/goliatone/go-coerce/schema"
	"github.com/goliatone/go-coerce/solvers"
	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/copystructure"
)

var (
	DefaultDelimiter      = "."
	DefaultConfigFilepath = "config/app.json"
	DefaultLoadTimeout    = 30 * time.Second
)

// Validable is implemented by config objects that can check themselves after
// a load completes.
type Validable interface {
	Validate() error
}

type Normalizer[C any] func(C) error
type Validator[C any] func(C) error

// Container owns the load pipeline for a config object of type C: providers
// fill a koanf tree in priority order, solvers rewrite placeholders, and the
// merged tree is converted and bound onto the base value.
type Container[C Validable] struct {
	K            *koanf.Koanf
	base         C
	providers    []Provider
	mustValidate bool
	failFast     bool
	strictDecode bool
	normalizers  []Normalizer[C]
	validators   []Validator[C]
	strictMerge  bool
	loadTimeout  time.Duration
	delimiter    string
	configPath   string
	conversion   *coerce.Config
	solvers      []solvers.ConfigSolver
	solverPasses int
	logger       logger.Logger

	loaders []ProviderBuilder[C]
}

// New creates a container around base. The zero pipeline validates after
// load, merges strictly, and resolves ${var}, @proto:// and {{ expr }}
// placeholders.
func New[C Validable](base C) *Container[C] {
	c := &Container[C]{
		mustValidate: true,
		failFast:     true,
		strictMerge:  true,
		base:         base,
		delimiter:    DefaultDelimiter,
		loadTimeout:  DefaultLoadTimeout,
		configPath:   DefaultConfigFilepath,
		logger:       logger.NewDefaultLogger("ingest"),
		solverPasses: 1,
		solvers: []solvers.ConfigSolver{
			solvers.NewVariablesSolver("${", "}"),
			solvers.NewURISolver("@", "://"),
			solvers.NewExpressionSolver("{{", "}}"),
		},
	}

	c.newTree()

	return c
}

func (c *Container[C]) newTree() {
	c.K = koanf.NewWithConf(koanf.Conf{
		Delim:       c.delimiter,
		StrictMerge: c.strictMerge,
	})
}

func (c *Container[C]) WithValidation(v bool) *Container[C] {
	c.mustValidate = v
	return c
}

func (c *Container[C]) WithFailFast(enabled bool) *Container[C] {
	c.failFast = enabled
	return c
}

// WithStrictDecode rejects tree keys that do not map to a declared field.
func (c *Container[C]) WithStrictDecode(enabled bool) *Container[C] {
	c.strictDecode = enabled
	return c
}

// WithConversion replaces the conversion config used when decoding the
// merged tree. Overrides WithStrictDecode.
func (c *Container[C]) WithConversion(cfg *coerce.Config) *Container[C] {
	c.conversion = cfg
	return c
}

func (c *Container[C]) WithNormalizer(normalizers ...Normalizer[C]) *Container[C] {
	for _, normalizer := range normalizers {
		if normalizer == nil {
			continue
		}
		c.normalizers = append(c.normalizers, normalizer)
	}
	return c
}

func (c *Container[C]) WithValidator(validators ...Validator[C]) *Container[C] {
	for _, validator := range validators {
		if validator == nil {
			continue
		}
		c.validators = append(c.validators, validator)
	}
	return c
}

func (c *Container[C]) WithStrictMerge() *Container[C] {
	c.strictMerge = true
	return c
}

func (c *Container[C]) WithTimeout(timeout time.Duration) *Container[C] {
	c.loadTimeout = timeout
	return c
}

func (c *Container[C]) WithConfigPath(p string) *Container[C] {
	c.configPath = p
	return c
}

func (c *Container[C]) WithSolver(slvrs ...solvers.ConfigSolver) *Container[C] {
	c.solvers = append(c.solvers, slvrs...)
	return c
}

// WithSolvers replaces the solver list, allowing explicit ordering.
func (c *Container[C]) WithSolvers(slvrs ...solvers.ConfigSolver) *Container[C] {
	c.solvers = append([]solvers.ConfigSolver{}, slvrs...)
	return c
}

// WithSolverPasses sets the maximum number of solver passes (minimum 1).
// Extra passes let solvers resolve values produced by earlier solvers.
func (c *Container[C]) WithSolverPasses(passes int) *Container[C] {
	if passes < 1 {
		passes = 1
	}
	c.solverPasses = passes
	return c
}

func (c *Container[C]) WithLogger(l logger.Logger) *Container[C] {
	c.logger = l
	return c
}

func (c *Container[C]) WithProvider(factories ...ProviderBuilder[C]) *Container[C] {
	for _, factory := range factories {
		if factory != nil {
			c.loaders = append(c.loaders, factory)
		}
	}
	return c
}

func (c *Container[C]) Validate() error {
	if err := c.base.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "configuration validation failed").
			WithTextCode("CONFIG_VALIDATION_FAILED")
	}
	for i, validator := range c.validators {
		if err := validator(c.base); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "configuration validator failed").
				WithTextCode("CONFIG_VALIDATOR_FAILED").
				WithMetadata(map[string]any{
					"validator_index": i,
				})
		}
	}
	return nil
}

func (c *Container[C]) MustValidate() *Container[C] {
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}

func (c *Container[C]) MustLoadWithDefaults() {
	c.MustLoad(context.Background())
}

func (c *Container[C]) LoadWithDefaults() error {
	return c.Load(context.Background())
}

func (c *Container[C]) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
}

// Load runs the pipeline: build providers, load them in priority order, run
// solver passes until the tree is stable, convert the merged tree, and
// validate the result.
func (c *Container[C]) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	// reset tree state so removed keys do not survive reloads
	c.newTree()

	if len(c.loaders) > 0 {
		c.providers = nil
		for i, factory := range c.loaders {
			provider, err := factory(c)
			if err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to create provider").
					WithTextCode("PROVIDER_CREATION_FAILED").
					WithMetadata(map[string]any{
						"factory_index":   i,
						"total_factories": len(c.loaders),
					})
			}
			c.providers = append(c.providers, provider)
		}
	}

	// providers could have been set via options
	if len(c.providers) == 0 && len(c.loaders) == 0 && c.configPath != "" {
		c.logger.Debug("no providers specified, loading default file provider...")
		f := OptionalProvider(FileProvider[C](c.configPath))
		p, err := f(c)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to create default file provider").
				WithTextCode("DEFAULT_PROVIDER_FAILED").
				WithMetadata(map[string]any{
					"config_path": c.configPath,
				})
		}
		c.providers = append(c.providers, p)
	}

	for i, src := range c.providers {
		if err := src.Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, "invalid provider source type").
				WithTextCode("INVALID_PROVIDER_TYPE").
				WithMetadata(map[string]any{
					"source_type":    string(src.Type()),
					"provider_index": i,
				})
		}
	}

	sort.Slice(c.providers, func(i, j int) bool {
		return c.providers[i].Priority() < c.providers[j].Priority()
	})

	for i, source := range c.providers {
		c.logger.Debug("= loading source", "source_type", source.Type())
		if err := source.Load(ctx, c.K); err != nil {
			if !c.failFast {
				c.logger.Error("skipping failed source", "source_type", source.Type(), "error", err)
				continue
			}
			return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from source").
				WithTextCode("CONFIG_LOAD_FAILED").
				WithMetadata(map[string]any{
					"source_type":   string(source.Type()),
					"source_index":  i,
					"total_sources": len(c.providers),
				})
		}
	}

	c.runSolvers()

	decoded, err := schema.Build[C](c.K.Raw(),
		schema.WithDefaults[C](c.base),
		schema.WithTagName[C]("koanf"),
		schema.WithConfig[C](c.conversionConfig()),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to convert configuration data").
			WithTextCode("CONFIG_CONVERT_FAILED").
			WithMetadata(map[string]any{
				"delimiter":    c.delimiter,
				"strict_merge": c.strictMerge,
			})
	}
	c.assignBase(decoded)

	for i, normalizer := range c.normalizers {
		if err := normalizer(c.base); err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "configuration normalizer failed").
				WithTextCode("CONFIG_NORMALIZE_FAILED").
				WithMetadata(map[string]any{
					"normalizer_index": i,
				})
		}
	}

	if c.mustValidate {
		if err := c.Validate(); err != nil {
			return err // already wrapped in Validate
		}
	}

	return nil
}

func (c *Container[C]) runSolvers() {
	if len(c.solvers) == 0 {
		return
	}
	maxPasses := c.solverPasses
	if maxPasses < 1 {
		maxPasses = 1
	}
	for pass := 0; pass < maxPasses; pass++ {
		before, ok := snapshotTree(c.K)
		for _, solver := range c.solvers {
			solver.Solve(c.K)
		}
		if !ok {
			continue
		}
		if reflect.DeepEqual(before, c.K.Raw()) {
			break
		}
	}
}

// conversionConfig picks the coerce config for the decode step. All casts
// are enabled: koanf trees carry strings and float64s for most scalars.
func (c *Container[C]) conversionConfig() *coerce.Config {
	if c.conversion != nil {
		return c.conversion
	}
	opts := []coerce.Option{coerce.WithCast(coerce.AllCasts()...)}
	if c.strictDecode {
		opts = append(opts, coerce.WithStrict(true))
	}
	return coerce.MustConfig(opts...)
}

// Raw returns the decoded config object.
func (c *Container[C]) Raw() C {
	return c.base
}

func (c *Container[C]) assignBase(value C) {
	baseVal := reflect.ValueOf(&c.base).Elem()
	newVal := reflect.ValueOf(value)

	if baseVal.Kind() == reflect.Pointer && newVal.Kind() == reflect.Pointer && baseVal.Type() == newVal.Type() {
		if baseVal.IsNil() || newVal.IsNil() {
			baseVal.Set(newVal)
			return
		}
		baseVal.Elem().Set(newVal.Elem())
		return
	}
	baseVal.Set(newVal)
}

func snapshotTree(k *koanf.Koanf) (any, bool) {
	if k == nil {
		return nil, false
	}
	raw := k.Raw()
	cloned, err := copystructure.Copy(raw)
	if err != nil {
		return raw, false
	}
	return cloned, true
}
