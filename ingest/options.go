package ingest

import (
	"github.com/goliatone/go-coerce/coerce"
	"github.com/goliatone/go-coerce/logger"
	"github.com/goliatone/go-coerce/solvers"
	"github.com/goliatone/go-errors"
)

// Option configures a container at construction sites that prefer a slice of
// options over chained builder calls.
type Option[C Validable] func(c *Container[C]) error

func WithValidation[C Validable](v bool) Option[C] {
	return func(c *Container[C]) error {
		c.mustValidate = v
		return nil
	}
}

func WithConfigPath[C Validable](p string) Option[C] {
	return func(c *Container[C]) error {
		c.configPath = p
		return nil
	}
}

func WithoutDefaultConfigPath[C Validable]() Option[C] {
	return WithConfigPath[C]("")
}

func WithSolver[C Validable](srcs ...solvers.ConfigSolver) Option[C] {
	return func(c *Container[C]) error {
		c.solvers = append(c.solvers, srcs...)
		return nil
	}
}

// WithConversion overrides the coerce config used for the decode stage.
func WithConversion[C Validable](cfg *coerce.Config) Option[C] {
	return func(c *Container[C]) error {
		c.conversion = cfg
		return nil
	}
}

func WithLoader[C Validable](factories ...ProviderBuilder[C]) Option[C] {
	return func(c *Container[C]) error {
		for i, factory := range factories {
			provider, err := factory(c)
			if err != nil {
				return errors.Wrap(err, errors.CategoryOperation, "failed to create loader provider").
					WithTextCode("PROVIDER_CREATION_FAILED").
					WithMetadata(map[string]any{
						"factory_index":   i,
						"total_factories": len(factories),
					})
			}
			c.providers = append(c.providers, provider)
		}
		return nil
	}
}

func WithLogger[C Validable](l logger.Logger) Option[C] {
	return func(c *Container[C]) error {
		c.logger = l
		return nil
	}
}

// Apply runs options against the container, stopping at the first error.
func (c *Container[C]) Apply(opts ...Option[C]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}
