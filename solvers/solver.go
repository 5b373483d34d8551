package solvers

import (
	"fmt"

	"github.com/knadh/koanf/v2"
)

// ConfigSolver rewrites values inside a loaded koanf tree, resolving
// placeholders after all providers have been merged.
type ConfigSolver interface {
	Solve(config *koanf.Koanf) *koanf.Koanf
}

// ToString renders any resolved value for string interpolation.
func ToString(v any) string {
	return fmt.Sprintf("%v", v)
}

// delimiters bracket the placeholder syntax a solver reacts to.
type delimiters struct {
	Start string
	End   string
}
