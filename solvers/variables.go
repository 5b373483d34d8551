package solvers

import (
	"strings"

	"github.com/knadh/koanf/v2"
)

type variables struct {
	delims *delimiters
}

// NewVariablesSolver resolves ${key.path} style references against other
// keys in the same tree. A value that is exactly one reference keeps the
// referenced value's type, a reference embedded in a longer string is
// interpolated.
func NewVariablesSolver(start, end string) ConfigSolver {
	return &variables{
		delims: &delimiters{Start: start, End: end},
	}
}

func (s variables) Solve(config *koanf.Koanf) *koanf.Koanf {
	for key, val := range config.All() {
		str, ok := val.(string)
		if !ok {
			continue
		}
		s.resolve(key, str, config)
	}
	return config
}

func (s variables) resolve(key, val string, config *koanf.Koanf) {
	path, ok := s.reference(val)
	if !ok || path == val {
		return
	}
	if !config.Exists(path) {
		return
	}

	resolved := config.Get(path)
	if len(s.delims.Start)+len(path)+len(s.delims.End) != len(val) {
		resolved = s.interpolate(val, resolved)
	}
	config.Set(key, resolved)
}

// reference extracts the first delimited key path from val.
func (s variables) reference(val string) (string, bool) {
	start := strings.Index(val, s.delims.Start)
	if start == -1 {
		return "", false
	}
	start += len(s.delims.Start)

	end := strings.Index(val[start:], s.delims.End)
	if end == -1 {
		return "", false
	}
	return val[start : start+end], true
}

func (s variables) interpolate(input string, replacement any) string {
	start := strings.Index(input, s.delims.Start)
	if start == -1 {
		return input
	}
	end := strings.Index(input[start:], s.delims.End)
	if end == -1 {
		return input
	}
	end += start

	before := input[:start]
	after := input[end+len(s.delims.End):]
	return before + ToString(replacement) + after
}
