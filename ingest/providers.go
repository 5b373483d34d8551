package ingest

import (
	"context"
	goerrors "errors"
	"os"
	"strings"
	"syscall"

	"github.com/goliatone/go-coerce/coerce"
	"github.com/goliatone/go-coerce/providers/env"
	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ProviderBuilder builds a provider bound to a container, so providers can
// reach the container's logger and settings.
type ProviderBuilder[C Validable] func(*Container[C]) (Provider, error)

type ProviderType string

// Provider is one configuration source. Priority orders providers before
// loading, lowest first, so later sources override earlier ones.
type Provider interface {
	Type() ProviderType
	Priority() int
	Validate() error
	Load(context.Context, *koanf.Koanf) error
}

// Loader is the canonical Provider implementation.
type Loader struct {
	order        int
	providerType ProviderType
	load         func(context.Context, *koanf.Koanf) error
}

func (l *Loader) Priority() int {
	return l.order
}

func (l *Loader) Type() ProviderType {
	return l.providerType
}

func (l *Loader) Load(ctx context.Context, k *koanf.Koanf) error {
	return l.load(ctx, k)
}

func (l *Loader) Validate() error {
	return l.providerType.validate()
}

const (
	ProviderTypeDefault   ProviderType = "default"
	ProviderTypeLocalFile ProviderType = "file"
	ProviderTypeEnv       ProviderType = "env"
	ProviderTypeFlag      ProviderType = "pflag"
	ProviderTypeStruct    ProviderType = "struct"
)

type Priority int

// WithOffset nudges a priority band, e.g.
//
//	container.WithProvider(FileProvider[C]("config.json", int(PriorityConfig.WithOffset(-10))))
//	container.WithProvider(FileProvider[C]("local.json", int(PriorityConfig.WithOffset(10))))
func (p Priority) WithOffset(offset int) Priority {
	return Priority(int(p) + offset)
}

var (
	PriorityDefaults Priority = 0
	PriorityStruct   Priority = 10
	PriorityConfig   Priority = 20
	PriorityEnv      Priority = 30
	PriorityFlags    Priority = 40
)

var (
	DefaultEnvPrefix    = "APP_"
	DefaultEnvDelimiter = "__" // so we can have composed_words
)

func (s ProviderType) String() string {
	return string(s)
}

func (p ProviderType) validate() error {
	switch p {
	case ProviderTypeDefault, ProviderTypeLocalFile, ProviderTypeEnv, ProviderTypeFlag, ProviderTypeStruct:
		return nil
	default:
		return errors.New("invalid loader type", errors.CategoryValidation).
			WithTextCode("INVALID_LOADER_TYPE").
			WithMetadata(map[string]any{
				"loader_type": string(p),
				"valid_types": []string{
					string(ProviderTypeDefault),
					string(ProviderTypeLocalFile),
					string(ProviderTypeEnv),
					string(ProviderTypeFlag),
					string(ProviderTypeStruct),
				},
			})
	}
}

// containsOptionalBool reports whether a value tree carries OptionalBool
// values that would be lost through a plain confmap load.
func containsOptionalBool(data map[string]any) bool {
	for _, v := range data {
		switch val := v.(type) {
		case *coerce.OptionalBool, coerce.OptionalBool:
			return true
		case map[string]any:
			if containsOptionalBool(val) {
				return true
			}
		}
	}
	return false
}

// optionalBoolAwareProvider flattens a map for koanf while preserving
// OptionalBool values as-is.
type optionalBoolAwareProvider struct {
	data  map[string]any
	delim string
}

func (p *optionalBoolAwareProvider) Read() (map[string]any, error) {
	result := make(map[string]any)
	flattenPreservingOptionalBool("", p.data, p.delim, result)
	return result, nil
}

func (p *optionalBoolAwareProvider) ReadBytes() ([]byte, error) {
	return nil, nil
}

func flattenPreservingOptionalBool(prefix string, data map[string]any, delim string, result map[string]any) {
	for k, v := range data {
		key := k
		if prefix != "" {
			key = prefix + delim + k
		}

		if nested, ok := v.(map[string]any); ok {
			flattenPreservingOptionalBool(key, nested, delim, result)
			continue
		}
		result[key] = v
	}
}

// DefaultValuesProvider seeds the tree from a literal map at the lowest
// priority band.
func DefaultValuesProvider[C Validable](def map[string]any, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		var kprovider interface {
			Read() (map[string]any, error)
			ReadBytes() ([]byte, error)
		}

		if containsOptionalBool(def) {
			kprovider = &optionalBoolAwareProvider{data: def, delim: "."}
		} else {
			kprovider = confmap.Provider(def, ".")
		}

		prv := &Loader{
			providerType: ProviderTypeDefault,
			order:        getOrder(PriorityDefaults, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				if err := k.Load(kprovider, nil); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to load default values").
						WithTextCode("DEFAULT_VALUES_LOAD_FAILED").
						WithMetadata(map[string]any{
							"values_count": len(def),
						})
				}
				return nil
			},
		}

		return prv, nil
	}
}

// FileProvider loads a config file, inferring the parser from the extension.
func FileProvider[C Validable](filepath string, orders ...int) ProviderBuilder[C] {
	filetype := inferFileType(filepath)

	return func(c *Container[C]) (Provider, error) {
		parser := filetype.Parser()
		kprovider := file.Provider(filepath)

		p := &Loader{
			providerType: ProviderTypeLocalFile,
			order:        getOrder(PriorityConfig, orders...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				c.logger.Debug("file provider", "filepath", filepath)
				merger := koanf.WithMergeFunc(MergeWithBooleanPrecedence)
				if err := k.Load(kprovider, parser, merger); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from file").
						WithTextCode("FILE_LOAD_FAILED").
						WithMetadata(map[string]any{
							"filepath":  filepath,
							"file_type": string(filetype),
						})
				}
				return nil
			},
		}
		return p, nil
	}
}

// EnvProvider captures prefixed environment variables, e.g. ("APP_", "__")
// turns APP_SERVER__PORT into server.port.
func EnvProvider[C Validable](prefix, delim string, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		prv := &Loader{
			providerType: ProviderTypeEnv,
			order:        getOrder(PriorityEnv, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				parser := json.Parser()
				merger := koanf.WithMergeFunc(MergeWithBooleanPrecedence)
				kprov := env.Provider(prefix, ".", func(s string) string {
					return strings.Replace(strings.ToLower(
						strings.TrimPrefix(s, prefix)), delim, ".", -1)
				})

				kprov.SetLogger(c.logger)

				c.logger.Debug("env provider")
				if err := k.Load(kprov, parser, merger); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to load environment variables").
						WithTextCode("ENV_LOAD_FAILED").
						WithMetadata(map[string]any{
							"prefix":    prefix,
							"delimiter": delim,
						})
				}
				return nil
			},
		}

		return prv, nil
	}
}

// FlagsProvider reads a parsed pflag set at the highest priority band.
func FlagsProvider[C Validable](flagset *pflag.FlagSet, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		if flagset == nil {
			return &Loader{}, errors.New("flagset cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_FLAGSET")
		}

		prv := &Loader{
			providerType: ProviderTypeFlag,
			order:        getOrder(PriorityFlags, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				c.logger.Debug("flags provider")
				prv := posflag.Provider(flagset, DefaultDelimiter, k)
				if err := k.Load(prv, nil); err != nil {
					return errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from posix flags").
						WithTextCode("FLAGS_LOAD_FAILED").
						WithMetadata(map[string]any{
							"delimiter": DefaultDelimiter,
						})
				}
				return nil
			},
		}

		return prv, nil
	}
}

// StructProvider flattens a struct through its koanf tags.
func StructProvider[C Validable](v Validable, order ...int) ProviderBuilder[C] {
	if v == nil {
		return func(c *Container[C]) (Provider, error) {
			return &Loader{}, errors.New("struct cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_STRUCT")
		}
	}

	return func(c *Container[C]) (Provider, error) {
		kprv := structs.Provider(v, "koanf")

		prv := &Loader{
			providerType: ProviderTypeStruct,
			order:        getOrder(PriorityStruct, order...),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				c.logger.Debug("struct provider")
				merger := koanf.WithMergeFunc(MergeWithBooleanPrecedence)
				if err := k.Load(kprv, nil, merger); err != nil {
					return errors.Wrap(err,
						errors.CategoryOperation,
						"failed to load configuration from struct",
					).
						WithTextCode("STRUCT_LOAD_FAILED")
				}
				return nil
			},
		}
		return prv, nil
	}
}

type ErrorFilter func(err error) bool

// DefaultErrorFilter ignores absent files unless explicit allowed errors are
// given.
func DefaultErrorFilter(allowedErrors ...error) ErrorFilter {
	return func(err error) bool {
		if err == nil {
			return false
		}

		if len(allowedErrors) == 0 {
			// ignore absent files but surface other errors i.e. parse failures
			return os.IsNotExist(err) || goerrors.Is(err, syscall.ENOENT)
		}

		for _, allowed := range allowedErrors {
			if goerrors.Is(err, allowed) {
				return true
			}
		}

		return false
	}
}

// OptionalProvider wraps a provider so errors matched by the filter are
// swallowed.
func OptionalProvider[C Validable](f ProviderBuilder[C], errIgnoreFuncs ...ErrorFilter) ProviderBuilder[C] {
	errIgnore := DefaultErrorFilter()
	if len(errIgnoreFuncs) > 0 {
		errIgnore = errIgnoreFuncs[0]
	}

	return func(c *Container[C]) (Provider, error) {
		baseProvider, err := f(c)
		if err != nil {
			return &Loader{}, err
		}

		p := &Loader{
			providerType: baseProvider.Type(),
			order:        getOrder(PriorityDefaults, baseProvider.Priority()),
			load: func(ctx context.Context, k *koanf.Koanf) error {
				if err := baseProvider.Load(ctx, k); !errIgnore(err) {
					return err
				}
				return nil
			},
		}
		return p, nil
	}
}

func getOrder(defaultOrder Priority, orders ...int) int {
	if len(orders) > 0 {
		return orders[0]
	}
	return int(defaultOrder)
}
